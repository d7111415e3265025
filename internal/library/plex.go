package library

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"videodrome/internal/services"
)

const userAgent = "Videodrome-Go/0.1.0"

type plexSection struct {
	key  string
	kind string
}

type plexRefresher struct {
	baseURL string
	token   string
	client  HTTPDoer

	mu       sync.Mutex
	sections []plexSection
}

func (p *plexRefresher) Server() Server { return ServerPlex }

// Refresh rescans every Plex section whose type matches kind.
func (p *plexRefresher) Refresh(ctx context.Context, kind MediaKind) error {
	sections, err := p.ensureSections(ctx)
	if err != nil {
		return err
	}
	want := "movie"
	if kind == KindShow {
		want = "show"
	}
	refreshed := 0
	for _, section := range sections {
		if section.kind != want {
			continue
		}
		if err := p.refreshSection(ctx, section.key); err != nil {
			return err
		}
		refreshed++
	}
	if refreshed == 0 {
		return services.Wrap(services.ErrNotFound, "library", "plex refresh",
			fmt.Sprintf("no plex library of type %q", want), nil)
	}
	return nil
}

func (p *plexRefresher) refreshSection(ctx context.Context, key string) error {
	resp, err := p.get(ctx, fmt.Sprintf("/library/sections/%s/refresh", key), "application/json")
	if err != nil {
		return services.Wrap(services.ErrTransient, "library", "plex refresh", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(services.ErrExternalTool, "library", "plex refresh",
			fmt.Sprintf("returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (p *plexRefresher) ensureSections(ctx context.Context) ([]plexSection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sections != nil {
		return p.sections, nil
	}

	resp, err := p.get(ctx, "/library/sections", "application/xml")
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "library", "plex sections", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, services.Wrap(services.ErrConfiguration, "library", "plex sections", "token rejected; check library.token", nil)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, services.Wrap(services.ErrExternalTool, "library", "plex sections",
			fmt.Sprintf("returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	type directory struct {
		Key  string `xml:"key,attr"`
		Type string `xml:"type,attr"`
	}
	type mediaContainer struct {
		Directories []directory `xml:"Directory"`
	}
	var container mediaContainer
	if err := xml.NewDecoder(resp.Body).Decode(&container); err != nil {
		return nil, fmt.Errorf("decode plex sections: %w", err)
	}

	sections := make([]plexSection, 0, len(container.Directories))
	for _, dir := range container.Directories {
		if dir.Key == "" || dir.Type == "" {
			continue
		}
		sections = append(sections, plexSection{key: dir.Key, kind: strings.ToLower(dir.Type)})
	}
	p.sections = sections
	return sections, nil
}

func (p *plexRefresher) get(ctx context.Context, path, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build plex request: %w", err)
	}
	req.Header.Set("X-Plex-Token", p.token)
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", userAgent)
	return p.client.Do(req)
}
