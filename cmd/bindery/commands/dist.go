package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/bindery/internal/config"
	"git.home.luguber.info/inful/bindery/internal/pipeline"
)

// DistCmd implements the 'dist' command: production build plus packaging.
type DistCmd struct{}

func (d *DistCmd) Run(_ *Global, root *CLI) error {
	_, plan, _, err := loadPlan(root, config.ModeProduction)
	if err != nil {
		return err
	}
	if err := plan.Registry.Run(context.Background(), pipeline.TaskDist); err != nil {
		return err
	}
	slog.Info("Distributable written", "archive", plan.Archive)
	return nil
}
