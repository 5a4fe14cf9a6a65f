package commands

import (
	"git.home.luguber.info/inful/bindery/internal/config"
)

// ProofCmd implements the 'proof' command: the production transform chain
// (strict XHTML, minification) served and watched like a dev session, but
// nothing is packaged. Useful for reviewing the exact form that would ship.
type ProofCmd struct {
	Port int `short:"p" help:"Override the configured preview port"`
}

func (p *ProofCmd) Run(_ *Global, root *CLI) error {
	return runWatching(root, config.ModeProduction, p.Port)
}
