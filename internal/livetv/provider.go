package livetv

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hertelukas/jellyfin/internal/models"
	"github.com/hertelukas/jellyfin/internal/version"
)

// TokenResolver maps an open token back to its registered source.
type TokenResolver interface {
	SourceByToken(openToken string) (*models.MediaSource, bool)
}

// HTTPProvider attaches live sources by issuing a single GET to the
// source's URL. It performs no retries; a refused or failed attach is
// reported to the caller.
type HTTPProvider struct {
	resolver TokenResolver
	client   *http.Client
}

// NewHTTPProvider creates an HTTP provider resolving tokens through the
// given resolver.
func NewHTTPProvider(resolver TokenResolver) *HTTPProvider {
	return &HTTPProvider{
		resolver: resolver,
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// WithHTTPClient replaces the HTTP client.
func (p *HTTPProvider) WithHTTPClient(client *http.Client) *HTTPProvider {
	if client != nil {
		p.client = client
	}
	return p
}

// Open attaches the source behind the token and returns its byte stream.
func (p *HTTPProvider) Open(ctx context.Context, openToken string) (*models.MediaSource, io.ReadCloser, error) {
	source, ok := p.resolver.SourceByToken(openToken)
	if !ok {
		return nil, nil, fmt.Errorf("no source registered for token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.Path, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("building attach request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("attaching to source: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, nil, &models.UpstreamStatusError{URL: source.Path, StatusCode: resp.StatusCode}
	}

	return source, resp.Body, nil
}
