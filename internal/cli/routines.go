package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strefethen/music-agent-go/internal/audit"
	"github.com/strefethen/music-agent-go/internal/db"
	"github.com/strefethen/music-agent-go/internal/routines"
	"github.com/strefethen/music-agent-go/internal/tools"
)

func newRoutinesCommand(app *App) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "routines",
		Short: "List and run tool routines",
	}
	cmd.PersistentFlags().StringVarP(&file, "file", "f", "", "routines YAML file (default ROUTINES_FILE)")

	load := func() ([]routines.Routine, error) {
		path := file
		if path == "" {
			path = app.cfg.Gateway.RoutinesFile
		}
		return routines.Load(path)
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show the routines defined in the file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defs, err := load()
			if err != nil {
				return err
			}
			return printResult(cmd, defs)
		},
	}

	var record bool
	run := &cobra.Command{
		Use:   "run <name>",
		Short: "Run a routine once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := load()
			if err != nil {
				return err
			}
			registry, err := app.registry(string(tools.ToolsetAll), false)
			if err != nil {
				return err
			}

			var repo *routines.Repository
			if record {
				dbPair, err := db.Init(app.cfg.Gateway.SQLiteDBPath)
				if err != nil {
					return err
				}
				defer dbPair.Close()
				registry.AddObserver(audit.NewService(dbPair, app.logger))
				repo = routines.NewRepository(dbPair)
			}

			runner, err := routines.NewRunner(defs, registry, repo, app.logger)
			if err != nil {
				return err
			}
			result, err := runner.Run(cmd.Context(), args[0], routines.TriggerManual)
			if result != nil {
				if printErr := printResult(cmd, result); printErr != nil {
					return printErr
				}
			}
			if err != nil {
				return fmt.Errorf("run routine: %w", err)
			}
			return nil
		},
	}
	run.Flags().BoolVar(&record, "record", false, "record the run and its tool calls in the gateway database")

	cmd.AddCommand(list, run)
	return cmd
}
