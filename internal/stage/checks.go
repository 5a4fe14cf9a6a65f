package stage

import (
	"fmt"
	"sort"

	"git.home.luguber.info/inful/bindery/internal/config"
	"git.home.luguber.info/inful/bindery/internal/errors"
)

// Coverage reports how the stages partition the source content tree:
// unmatched files and files claimed by more than one stage. A correct stage
// set covers every source file exactly once.
type Coverage struct {
	Unmatched  []string
	Duplicated []string
}

// CheckCoverage enumerates the source tree and verifies the exactly-once
// partition invariant across the stage set.
func CheckCoverage(stages []*Stage, srcRoot string) (Coverage, error) {
	all, err := (Pattern{Include: []string{"**/*"}}).Glob(srcRoot)
	if err != nil {
		return Coverage{}, errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityError, "failed to enumerate source tree")
	}

	claims := make(map[string]int, len(all))
	for _, s := range stages {
		matches, err := s.Pattern.Glob(srcRoot)
		if err != nil {
			return Coverage{}, errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityError, "failed to enumerate stage sources").
				WithContext("stage", s.Name)
		}
		for _, rel := range matches {
			claims[rel]++
		}
	}

	var cov Coverage
	for _, rel := range all {
		switch claims[rel] {
		case 0:
			cov.Unmatched = append(cov.Unmatched, rel)
		case 1:
		default:
			cov.Duplicated = append(cov.Duplicated, rel)
		}
	}
	sort.Strings(cov.Unmatched)
	sort.Strings(cov.Duplicated)
	return cov, nil
}

// Ok reports whether the partition is exact.
func (c Coverage) Ok() bool {
	return len(c.Unmatched) == 0 && len(c.Duplicated) == 0
}

// CheckOutputCollisions verifies, before anything runs, that no two stages
// map source files onto the same destination path. Stages scheduled under a
// parallel composite write concurrently; overlapping destinations are a
// configuration error the executor does not detect at runtime.
func CheckOutputCollisions(stages []*Stage, srcRoot string, mode config.Mode) error {
	owners := make(map[string]string)
	for _, s := range stages {
		matches, err := s.Pattern.Glob(srcRoot)
		if err != nil {
			return errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityError, "failed to enumerate stage sources").
				WithContext("stage", s.Name)
		}
		for _, rel := range matches {
			dest := s.DestRel(rel, mode)
			if owner, taken := owners[dest]; taken {
				return errors.New(errors.CategoryConfig, errors.SeverityFatal,
					fmt.Sprintf("output collision: %q and %q both write %s", owner, s.Name, dest)).
					WithContext("destination", dest)
			}
			owners[dest] = s.Name
		}
	}
	return nil
}
