package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/strefethen/music-agent-go/internal/auth"
)

type issuedToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func newGatewayTokenCommand(app *App) *cobra.Command {
	var (
		sub        string
		clientName string
		ttl        time.Duration
	)
	cmd := &cobra.Command{
		Use:   "gateway-token",
		Short: "Issue a bearer token for the HTTP gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, expiresAt, err := auth.IssueToken(app.cfg.Gateway, auth.TokenPayload{Sub: sub, ClientName: clientName}, ttl)
			if err != nil {
				return err
			}
			return printResult(cmd, issuedToken{
				AccessToken: token,
				TokenType:   "Bearer",
				ExpiresAt:   expiresAt.UTC(),
			})
		},
	}
	cmd.Flags().StringVar(&sub, "sub", "cli", "token subject")
	cmd.Flags().StringVar(&clientName, "client-name", "music-agent-cli", "client name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default JWT_ACCESS_TOKEN_EXPIRY)")
	return cmd
}
