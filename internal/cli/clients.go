package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/strefethen/music-agent-go/internal/amplifier"
	"github.com/strefethen/music-agent-go/internal/applemusic"
	"github.com/strefethen/music-agent-go/internal/openurl"
	"github.com/strefethen/music-agent-go/internal/sonos"
	"github.com/strefethen/music-agent-go/internal/tools"
)

// errAppleNotConfigured means neither a developer token nor a signing key is set.
var errAppleNotConfigured = errors.New("apple music is not configured: set APPLE_DEVELOPER_TOKEN or APPLE_TEAM_ID, APPLE_KEY_ID and APPLE_PRIVATE_KEY_PATH")

func (a *App) amplifierConfig(host string, port int) amplifier.Config {
	cfg := amplifier.Config{
		Host:               a.cfg.Amplifier.Host,
		Port:               a.cfg.Amplifier.Port,
		SonosSourceIndex:   a.cfg.Amplifier.SonosSourceIndex,
		AppleTVSourceIndex: a.cfg.Amplifier.AppleTVSourceIndex,
	}
	if host != "" {
		cfg.Host = host
	}
	if port != 0 {
		cfg.Port = port
	}
	return cfg
}

// amplifier returns the configured controller, or nil when no host is set and
// the mock is off.
func (a *App) amplifier(mock bool, host string, port int) amplifier.Controller {
	if mock || a.cfg.Amplifier.Mock {
		return amplifier.NewMockController()
	}
	cfg := a.amplifierConfig(host, port)
	if cfg.Host == "" {
		return nil
	}
	return amplifier.NewHTTPController(cfg, 0)
}

// amplifierFactory builds controllers for host/port tool overrides. It is nil
// in mock mode so overrides keep using the mock.
func (a *App) amplifierFactory() tools.AmplifierFactory {
	if a.cfg.Amplifier.Mock {
		return nil
	}
	return func(host string, port int) amplifier.Controller {
		return amplifier.NewHTTPController(a.amplifierConfig(host, port), 0)
	}
}

func (a *App) sonos(host string, port int, room string) *sonos.Client {
	cfg := sonos.Config{
		Host:        a.cfg.Sonos.Host,
		Port:        a.cfg.Sonos.Port,
		DefaultRoom: a.cfg.Sonos.DefaultRoom,
		Timeout:     a.cfg.Sonos.Timeout(),
	}
	if host != "" {
		cfg.Host = host
	}
	if port != 0 {
		cfg.Port = port
	}
	if room != "" {
		cfg.DefaultRoom = room
	}
	return sonos.NewClient(cfg)
}

// tokenFactory builds a signer from the configured key.
func (a *App) tokenFactory(lifetime int) (*applemusic.TokenFactory, error) {
	apple := a.cfg.AppleMusic
	if !apple.HasSigningKey() {
		return nil, fmt.Errorf("%w: APPLE_TEAM_ID, APPLE_KEY_ID and APPLE_PRIVATE_KEY_PATH are required", applemusic.ErrInvalidSecret)
	}
	secret, err := applemusic.LoadSecret(apple.TeamID, apple.KeyID, apple.PrivateKeyPath)
	if err != nil {
		return nil, err
	}
	seconds := apple.TokenExpirySec
	if lifetime > 0 {
		seconds = lifetime
	}
	return applemusic.NewTokenFactory(secret, secondsToDuration(seconds))
}

// developerTokens prefers a pre-generated token over signing one.
func (a *App) developerTokens() (applemusic.TokenProvider, error) {
	if token := a.cfg.AppleMusic.DeveloperToken; token != "" {
		return applemusic.StaticToken(token), nil
	}
	if !a.cfg.AppleMusic.HasSigningKey() {
		return nil, errAppleNotConfigured
	}
	factory, err := a.tokenFactory(0)
	if err != nil {
		return nil, err
	}
	return applemusic.NewTokenSource(factory), nil
}

func (a *App) appleMusic(storefront string) (*applemusic.Client, error) {
	tokens, err := a.developerTokens()
	if err != nil {
		return nil, err
	}
	client := applemusic.NewClient(applemusic.ClientConfig{
		Tokens:     tokens,
		BaseURL:    a.cfg.AppleMusic.APIURL,
		Storefront: a.cfg.AppleMusic.Storefront,
	})
	return client.WithStorefront(storefront), nil
}

func (a *App) urlOpener() *openurl.Opener {
	if a.opener != nil {
		return a.opener
	}
	return openurl.New()
}

// toolDeps builds every client the configuration allows. Apple Music is left
// nil when it is not configured; other errors are returned.
func (a *App) toolDeps() (tools.Deps, error) {
	deps := tools.Deps{
		Amplifier:        a.amplifier(false, "", 0),
		AmplifierFactory: a.amplifierFactory(),
		Sonos:            a.sonos("", 0, ""),
		AppleUserToken:   a.cfg.AppleMusic.UserToken,
		Opener:           a.urlOpener(),
	}
	apple, err := a.appleMusic("")
	switch {
	case err == nil:
		deps.AppleMusic = apple
	case errors.Is(err, errAppleNotConfigured):
		a.logger.Info("apple music tools disabled")
	default:
		return tools.Deps{}, err
	}
	return deps, nil
}

// callTool runs one tool and prints its rendered result.
func callTool(cmd *cobra.Command, registry *tools.Registry, name string, args tools.Args) error {
	result, err := registry.CallFrom(cmd.Context(), Source, name, args)
	if err != nil {
		return err
	}
	return printResult(cmd, result)
}

func printResult(cmd *cobra.Command, result any) error {
	text, err := tools.RenderText(result)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
