package tools

import (
	"context"

	"github.com/strefethen/music-agent-go/internal/openurl"
)

// RegisterOpenURL adds the openURL tool.
func RegisterOpenURL(r *Registry, opener *openurl.Opener) {
	r.mustRegister(Tool{
		Name:        "openURL",
		Description: "Open a URL in the default web browser",
		InputSchema: schema(map[string]property{
			"url": str("The http or https URL to open"),
		}, "url"),
		Handler: func(ctx context.Context, args Args) (any, error) {
			raw, err := args.RequiredString("url")
			if err != nil {
				return nil, err
			}
			if err := opener.Open(ctx, raw); err != nil {
				return nil, err
			}
			return "Successfully opened URL: " + raw, nil
		},
	})
}
