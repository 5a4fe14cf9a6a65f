package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/bindery/internal/config"
	"git.home.luguber.info/inful/bindery/internal/pipeline"
)

// CheckCmd implements the 'check' command: production build, packaging, and
// a run of the external validator. The checker's verdict lands in the
// archive's sibling .errors log; only invocation failures are reported here.
type CheckCmd struct{}

func (c *CheckCmd) Run(_ *Global, root *CLI) error {
	_, plan, _, err := loadPlan(root, config.ModeProduction)
	if err != nil {
		return err
	}
	if err := plan.Registry.Run(context.Background(), pipeline.TaskCheck); err != nil {
		return err
	}
	slog.Info("Validated distributable written",
		"archive", plan.Archive, "checker_log", plan.Archive+".errors")
	return nil
}
