package cli

import (
	"github.com/spf13/cobra"

	"github.com/strefethen/music-agent-go/internal/tools"
)

func newOpenURLCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "open-url <url>",
		Short: "Open an http(s) URL with the platform launcher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := tools.Build(tools.Deps{Opener: app.urlOpener()}, []tools.Toolset{tools.ToolsetOpenURL}, true)
			if err != nil {
				return err
			}
			return callTool(cmd, registry, "openURL", tools.Args{"url": args[0]})
		},
	}
}
