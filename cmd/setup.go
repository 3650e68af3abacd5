package main

import (
	"context"
	"errors"

	"github.com/sundazed/mymusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a starter config file and initializes the database schema.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	switch err := shared.CreateConfigFile(path); {
	case err == nil:
		r.writePlain("Created %s\n", path)
	case errors.Is(err, shared.ErrInvalidInput):
		r.writePlain("Config already exists at %s, leaving it alone\n", path)
	default:
		return err
	}

	if config, err := shared.LoadConfig(path); err == nil {
		r.config = config
	}

	if _, err := r.openDB(); err != nil {
		return err
	}
	r.writePlain("Database ready at %s\n", r.config.Database.Path)
	r.writePlain("\nNext: run `mymusic convert <playlist.csv>`\n")
	return nil
}
