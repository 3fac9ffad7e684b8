package source

import (
	"context"
	"fmt"
	"io"

	"github.com/wlconsole/wlconsole/internal/entity"
)

const (
	clientsPagePath   = "/clients"
	whitelistPagePath = "/whitelist"
)

// PageFetcher retrieves a rendered page from the admin backend.
type PageFetcher interface {
	FetchPage(ctx context.Context, path string) (io.ReadCloser, error)
}

// SnapshotSource provides the whitelist snapshot.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (entity.Snapshot, error)
}

// ClientPage reads client rows from the backend's clients page.
type ClientPage struct {
	fetcher PageFetcher
}

// NewClientPage creates a client row repository backed by the clients page.
func NewClientPage(f PageFetcher) *ClientPage {
	return &ClientPage{fetcher: f}
}

// ListEntities fetches and parses the clients page.
func (p *ClientPage) ListEntities(ctx context.Context) ([]entity.ClientRow, error) {
	body, err := p.fetcher.FetchPage(ctx, clientsPagePath)
	if err != nil {
		return nil, fmt.Errorf("fetching clients page: %w", err)
	}
	defer body.Close()
	return ParseClientRows(body)
}

// WhitelistPage reads the whitelist snapshot from the backend's whitelist page.
type WhitelistPage struct {
	fetcher PageFetcher
}

// NewWhitelistPage creates a snapshot source backed by the whitelist page.
func NewWhitelistPage(f PageFetcher) *WhitelistPage {
	return &WhitelistPage{fetcher: f}
}

// Snapshot fetches the whitelist page and decodes its embedded data. Only
// transport failures are returned as errors; bad payloads decode to empty.
func (p *WhitelistPage) Snapshot(ctx context.Context) (entity.Snapshot, error) {
	body, err := p.fetcher.FetchPage(ctx, whitelistPagePath)
	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("fetching whitelist page: %w", err)
	}
	defer body.Close()
	return ParseWhitelistData(body), nil
}

// StaticSnapshot serves a fixed snapshot.
type StaticSnapshot entity.Snapshot

// Snapshot returns s.
func (s StaticSnapshot) Snapshot(ctx context.Context) (entity.Snapshot, error) {
	return entity.Snapshot(s), nil
}
