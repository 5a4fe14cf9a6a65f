package commands

import (
	"git.home.luguber.info/inful/bindery/internal/config"
)

// DevCmd implements the 'dev' command: a development-mode build served with
// live reload, rebuilding on source changes until interrupted.
type DevCmd struct {
	Port int `short:"p" help:"Override the configured preview port"`
}

func (d *DevCmd) Run(_ *Global, root *CLI) error {
	return runWatching(root, config.ModeDevelopment, d.Port)
}
