package ngrok

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	ngrok "golang.ngrok.com/ngrok"
	ngrokcfg "golang.ngrok.com/ngrok/config"

	"github.com/coopermor/hive/internal/config"
)

// Tunnel exposes the local dashboard and API over a public ngrok endpoint, so
// the fleet can be monitored without opening ports on the host.
type Tunnel struct {
	forwarder ngrok.Forwarder
	logger    *slog.Logger
}

func Start(ctx context.Context, logger *slog.Logger, port int) (*Tunnel, error) {
	cfg := config.Hive.Ngrok

	backend, err := url.Parse(fmt.Sprintf("http://localhost:%d", port))
	if err != nil {
		return nil, err
	}

	httpOpts := make([]ngrokcfg.HTTPEndpointOption, 0, 2)
	if cfg.Domain != "" {
		httpOpts = append(httpOpts, ngrokcfg.WithDomain(cfg.Domain))
	}
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		httpOpts = append(httpOpts, ngrokcfg.WithBasicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	connectOpts := make([]ngrok.ConnectOption, 0, 2)
	if cfg.Authtoken != "" {
		connectOpts = append(connectOpts, ngrok.WithAuthtoken(cfg.Authtoken))
	} else if os.Getenv("NGROK_AUTHTOKEN") != "" {
		connectOpts = append(connectOpts, ngrok.WithAuthtokenFromEnv())
	}
	if cfg.Region != "" {
		connectOpts = append(connectOpts, ngrok.WithRegion(cfg.Region))
	}

	fwd, err := ngrok.ListenAndForward(ctx, backend, ngrokcfg.HTTPEndpoint(httpOpts...), connectOpts...)
	if err != nil {
		return nil, fmt.Errorf("starting ngrok tunnel: %w", err)
	}

	logger.Info("Ngrok tunnel established", slog.String("url", fwd.URL()))

	return &Tunnel{forwarder: fwd, logger: logger}, nil
}

func (t *Tunnel) URL() string {
	if t == nil || t.forwarder == nil {
		return ""
	}
	return t.forwarder.URL()
}

func (t *Tunnel) Close() error {
	if t == nil || t.forwarder == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return t.forwarder.CloseWithContext(ctx)
}
