package amplifier

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"golang.org/x/sync/errgroup"
)

// Vendor opcodes for the type query parameter.
const (
	typeZoneInfo = 1
	typePower    = 4
	typeSource   = 7
)

const (
	globalsGetPath = "/ajax/globals/get_config"
	globalsSetPath = "/ajax/globals/set_config"
	homeGetPath    = "/ajax/home/get_config"

	powerOnCode  = "1"
	powerOffCode = "3"

	maxResponseBody = 1 << 20
)

// HTTPController talks to the receiver's embedded web server. The receiver
// serves a self-signed certificate, so server certificates are not verified.
type HTTPController struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
}

// NewHTTPController creates a controller. A zero timeout means 10s.
func NewHTTPController(cfg Config, timeout time.Duration) *HTTPController {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPController{
		cfg: cfg.withDefaults(),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: timeout}).DialContext,
				TLSClientConfig:     &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12}, //nolint:gosec // receiver uses a self-signed cert
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		now: time.Now,
	}
}

// Config returns the effective configuration.
func (c *HTTPController) Config() Config {
	return c.cfg
}

// PowerOn turns the main zone on.
func (c *HTTPController) PowerOn(ctx context.Context) error {
	_, err := c.set(ctx, typePower, "<MainZone><Power>"+powerOnCode+"</Power></MainZone>")
	return err
}

// PowerOff puts the main zone in standby.
func (c *HTTPController) PowerOff(ctx context.Context) error {
	_, err := c.set(ctx, typePower, "<MainZone><Power>"+powerOffCode+"</Power></MainZone>")
	return err
}

// SwitchToSource selects the 1-based input index. The receiver does not
// validate the index; see SwitchToValidatedSource.
func (c *HTTPController) SwitchToSource(ctx context.Context, index int) error {
	_, err := c.set(ctx, typeSource, fmt.Sprintf(`<Source zone="1" index="%d"></Source>`, index))
	return err
}

// SwitchToSonos selects the configured Sonos input.
func (c *HTTPController) SwitchToSonos(ctx context.Context) error {
	return c.SwitchToSource(ctx, c.cfg.SonosSourceIndex)
}

// SwitchToAppleTV selects the configured Apple TV input.
func (c *HTTPController) SwitchToAppleTV(ctx context.Context) error {
	return c.SwitchToSource(ctx, c.cfg.AppleTVSourceIndex)
}

// GetSourceNames returns input names in index order.
func (c *HTTPController) GetSourceNames(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, globalsGetPath, typeSource)
	if err != nil {
		return nil, err
	}
	doc, err := parseXML(body)
	if err != nil {
		return nil, err
	}

	nodes, err := xmlquery.QueryAll(doc, "//Source/Name")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: //Source/Name missing", ErrInvalidResponse)
	}
	names := make([]string, 0, len(nodes))
	for _, node := range nodes {
		names = append(names, strings.TrimSpace(node.InnerText()))
	}
	return names, nil
}

// GetMainZoneStatus combines the home page zone info with the power state.
// Both requests run concurrently and either failing fails the whole read.
func (c *HTTPController) GetMainZoneStatus(ctx context.Context) (ZoneStatus, error) {
	var homeDoc, powerDoc *xmlquery.Node

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := c.get(gctx, homeGetPath, typeZoneInfo)
		if err != nil {
			return err
		}
		homeDoc, err = parseXML(body)
		return err
	})
	g.Go(func() error {
		body, err := c.get(gctx, globalsGetPath, typePower)
		if err != nil {
			return err
		}
		powerDoc, err = parseXML(body)
		return err
	})
	if err := g.Wait(); err != nil {
		return ZoneStatus{}, err
	}

	powerCode, err := requiredText(powerDoc, "//MainZone/Power")
	if err != nil {
		return ZoneStatus{}, err
	}
	isPowered, err := decodePower(powerCode)
	if err != nil {
		return ZoneStatus{}, err
	}

	zoneName, err := requiredText(homeDoc, "//MainZone/ZoneName")
	if err != nil {
		return ZoneStatus{}, err
	}

	status := ZoneStatus{Name: zoneName, IsPowered: isPowered}
	if node := xmlquery.FindOne(homeDoc, "//MainZone/SourceName"); node != nil {
		status.SourceName = strings.TrimSpace(node.InnerText())
	}
	return status, nil
}

func (c *HTTPController) get(ctx context.Context, path string, opcode int) ([]byte, error) {
	return c.do(ctx, path, opcode, "")
}

func (c *HTTPController) set(ctx context.Context, opcode int, data string) ([]byte, error) {
	return c.do(ctx, globalsSetPath, opcode, data)
}

func (c *HTTPController) do(ctx context.Context, path string, opcode int, data string) ([]byte, error) {
	if c.cfg.Host == "" {
		return nil, &UnexpectedError{Message: "amplifier host is not configured"}
	}

	query := url.Values{}
	query.Set("type", strconv.Itoa(opcode))
	if data != "" {
		query.Set("data", data)
	}
	query.Set("_", strconv.FormatInt(c.now().UnixMilli(), 10))

	target := url.URL{
		Scheme:   "https",
		Host:     net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port)),
		Path:     path,
		RawQuery: query.Encode(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, &UnexpectedError{Message: fmt.Sprintf("build request: %v", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if len(body) > maxResponseBody {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidResponse, maxResponseBody)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UnexpectedError{Message: fmt.Sprintf("status %d from %s", resp.StatusCode, path)}
	}
	return body, nil
}

func parseXML(body []byte) (*xmlquery.Node, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidResponse)
	}
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return doc, nil
}

func requiredText(doc *xmlquery.Node, expr string) (string, error) {
	node, err := xmlquery.Query(doc, expr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if node == nil {
		return "", fmt.Errorf("%w: %s missing", ErrInvalidResponse, expr)
	}
	return strings.TrimSpace(node.InnerText()), nil
}

func decodePower(code string) (bool, error) {
	switch code {
	case powerOnCode:
		return true, nil
	case powerOffCode:
		return false, nil
	default:
		return false, fmt.Errorf("%w: unknown power code %q", ErrInvalidResponse, code)
	}
}
