package library

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"videodrome/internal/services"
)

type jellyfinRefresher struct {
	baseURL string
	token   string
	client  HTTPDoer
}

func (j *jellyfinRefresher) Server() Server { return ServerJellyfin }

// Refresh triggers a full Jellyfin library scan; kind is ignored.
func (j *jellyfinRefresher) Refresh(ctx context.Context, _ MediaKind) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.baseURL+"/Library/Refresh", nil)
	if err != nil {
		return fmt.Errorf("build jellyfin refresh request: %w", err)
	}
	req.Header.Set("X-Emby-Token", j.token)

	resp, err := j.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "library", "jellyfin refresh", "request failed", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode == http.StatusUnauthorized {
		return services.Wrap(services.ErrConfiguration, "library", "jellyfin refresh", "token rejected; check library.token", nil)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(services.ErrExternalTool, "library", "jellyfin refresh", fmt.Sprintf("returned %d", resp.StatusCode), nil)
	}
	return nil
}
