package cli

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/strefethen/music-agent-go/internal/tools"
)

type ampFlags struct {
	mock bool
	host string
	port int
}

func newAmpCommand(app *App) *cobra.Command {
	flags := &ampFlags{}
	cmd := &cobra.Command{
		Use:   "amp",
		Short: "Control the amplifier main zone",
	}
	cmd.PersistentFlags().BoolVar(&flags.mock, "mock", false, "use the in-memory mock controller")
	cmd.PersistentFlags().StringVar(&flags.host, "host", "", "amplifier host (default AMP_HOST)")
	cmd.PersistentFlags().IntVar(&flags.port, "port", 0, "amplifier port (default AMP_PORT)")

	simple := func(use, short, tool string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return app.runAmp(cmd, flags, tool, nil)
			},
		}
	}

	cmd.AddCommand(
		simple("power-on", "Power on the main zone", "powerOn"),
		simple("power-off", "Power off the main zone", "powerOff"),
		simple("sonos", "Switch to the Sonos input", "switchToSonos"),
		simple("appletv", "Switch to the Apple TV input", "switchToAppleTV"),
		simple("sources", "List input sources", "getSources"),
		simple("status", "Show power and input", "getStatus"),
		&cobra.Command{
			Use:   "source <index>",
			Short: "Switch to the input at a 1-based index",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				index, err := strconv.Atoi(args[0])
				if err != nil {
					return &tools.ArgumentError{Name: "index", Reason: "must be an integer"}
				}
				return app.runAmp(cmd, flags, "switchToSource", tools.Args{"index": index})
			},
		},
	)
	return cmd
}

func (a *App) runAmp(cmd *cobra.Command, flags *ampFlags, tool string, args tools.Args) error {
	controller := a.amplifier(flags.mock, flags.host, flags.port)
	if controller == nil {
		return errors.New("amplifier host is not configured: set AMP_HOST, pass --host or use --mock")
	}
	registry, err := tools.Build(tools.Deps{Amplifier: controller}, []tools.Toolset{tools.ToolsetAmplifier}, true)
	if err != nil {
		return err
	}
	return callTool(cmd, registry, tool, args)
}
