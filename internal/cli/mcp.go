package cli

import (
	"github.com/spf13/cobra"

	"github.com/strefethen/music-agent-go/internal/mcpserver"
	"github.com/strefethen/music-agent-go/internal/tools"
)

func newMCPCommand(app *App) *cobra.Command {
	var toolset string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tools over MCP on stdin and stdout",
		Long: "Serve the tools over the Model Context Protocol on stdin and stdout.\n" +
			"Toolsets whose clients are not configured are skipped unless named with --toolset.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := app.registry(toolset, cmd.Flags().Changed("toolset"))
			if err != nil {
				return err
			}
			return mcpserver.New(registry, "music-agent", app.Version, app.logger).ServeStdio()
		},
	}
	cmd.Flags().StringVar(&toolset, "toolset", string(tools.ToolsetAll), "comma-separated toolsets: amplifier, sonos, applemusic, openurl or all")
	return cmd
}

// registry builds the tools for a toolset list.
func (a *App) registry(toolset string, explicit bool) (*tools.Registry, error) {
	sets, err := tools.ParseToolsets(toolset)
	if err != nil {
		return nil, err
	}
	deps, err := a.toolDeps()
	if err != nil {
		return nil, err
	}
	return tools.Build(deps, sets, explicit)
}
