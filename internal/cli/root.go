// Package cli is the music-agent command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/strefethen/music-agent-go/internal/config"
	"github.com/strefethen/music-agent-go/internal/logging"
	"github.com/strefethen/music-agent-go/internal/openurl"
)

// Source labels tool calls made from the command line.
const Source = "cli"

// App holds state shared by every command.
type App struct {
	Version string

	configFile string
	envFile    string
	logLevel   string

	cfg    config.Config
	logger *zap.Logger

	// opener overrides the platform URL launcher in tests.
	opener *openurl.Opener
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(&App{Version: version})
}

func newRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "music-agent",
		Short:         "Control an AV amplifier, Sonos rooms and Apple Music from one place.",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.configFile, "config", "", "YAML config file (default $MUSIC_AGENT_CONFIG)")
	flags.StringVar(&app.envFile, "env-file", "", "dotenv file to load (default .env when present)")
	flags.StringVar(&app.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newAmpCommand(app),
		newSonosCommand(app),
		newMusicCommand(app),
		newOpenURLCommand(app),
		newMCPCommand(app),
		newServeCommand(app),
		newGatewayTokenCommand(app),
		newRoutinesCommand(app),
	)
	return root
}

// init loads configuration and installs the logger. Only serve logs to
// stdout; everything else keeps stdout for command output.
func (a *App) init(cmd *cobra.Command) error {
	cfg, err := config.Load(config.LoadOptions{EnvFile: a.envFile, ConfigFile: a.configFile})
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	console := cmd.ErrOrStderr()
	if cmd.Name() == "serve" {
		console = cmd.OutOrStdout()
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, File: cfg.Log.File}, console)
	if err != nil {
		return err
	}
	logging.Set(logger)
	a.logger = logger
	return nil
}

// Execute runs the command line and returns the process exit code.
func Execute(version string, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(version)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

// Main is Execute against the process arguments and standard streams.
func Main(version string) {
	os.Exit(Execute(version, os.Args[1:], os.Stdout, os.Stderr))
}
