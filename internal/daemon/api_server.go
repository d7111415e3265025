package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"videodrome/internal/api"
	"videodrome/internal/config"
	"videodrome/internal/logging"
	"videodrome/internal/services"
)

const maxRequestBody = 1 << 20

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, errors.New("api server requires config and daemon")
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(cfg.Paths.APIToken),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) routes(token string) chi.Router {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(authMiddleware(token))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Route("/watcher", func(r chi.Router) {
			r.Post("/start", s.handleWatcherStart)
			r.Post("/stop", s.handleWatcherStop)
			r.Get("/config", s.handleWatcherSettings)
			r.Patch("/config", s.handleWatcherConfigure)
		})

		r.Route("/pending", func(r chi.Router) {
			r.Get("/", s.handlePendingList)
			r.Post("/approve", s.handleApprove)
			r.Post("/reject", s.handleReject)
		})

		r.Post("/match", s.handleMatch)

		r.Get("/history", s.handleHistory)
		r.Get("/history/stats", s.handleHistoryStats)

		r.Get("/torrents", s.handleTorrents)

		r.Post("/maintenance/reconcile", s.handleReconcile)
	})
	return r
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound address, which differs from the configured bind
// when the port was 0.
func (s *apiServer) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, ToDaemonStatus(s.daemon.Status(r.Context())))
}

func (s *apiServer) handleWatcherStart(w http.ResponseWriter, r *http.Request) {
	if err := s.daemon.StartWatcher(); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromWatcherStatus(s.daemon.WatcherStatus()))
}

func (s *apiServer) handleWatcherStop(w http.ResponseWriter, _ *http.Request) {
	s.daemon.StopWatcher()
	s.writeJSON(w, http.StatusOK, api.FromWatcherStatus(s.daemon.WatcherStatus()))
}

func (s *apiServer) handleWatcherSettings(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.FromSettings(s.daemon.WatcherSettings()))
}

func (s *apiServer) handleWatcherConfigure(w http.ResponseWriter, r *http.Request) {
	var req api.WatcherConfigRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.IsEmpty() {
		s.writeError(w, http.StatusBadRequest, "no settings supplied")
		return
	}
	settings, err := s.daemon.ConfigureWatcher(req.ToUpdate())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSettings(settings))
}

func (s *apiServer) handlePendingList(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.PendingListResponse{Items: api.FromPendingItems(s.daemon.PendingQueue())})
}

func (s *apiServer) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req api.PendingActionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	rec, err := s.daemon.Approve(r.Context(), req.SourcePath)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	record := api.FromRecord(rec)
	s.writeJSON(w, http.StatusOK, api.PendingActionResponse{
		SourcePath: req.SourcePath,
		Action:     "approved",
		Record:     &record,
	})
}

func (s *apiServer) handleReject(w http.ResponseWriter, r *http.Request) {
	var req api.PendingActionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := s.daemon.Reject(req.SourcePath); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.PendingActionResponse{SourcePath: req.SourcePath, Action: "rejected"})
}

func (s *apiServer) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req api.MatchRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	results, err := s.daemon.Match(r.Context(), req.Paths)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.MatchResponse{Results: api.FromMatchResults(nonBlank(req.Paths), results)})
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := api.HistoryListRequest{
		Status: strings.TrimSpace(query.Get("status")),
		Kind:   strings.TrimSpace(query.Get("kind")),
	}
	if value := strings.TrimSpace(query.Get("catalog_id")); value != "" {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid catalog_id")
			return
		}
		req.CatalogID = id
	}
	if value := strings.TrimSpace(query.Get("limit")); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		req.Limit = limit
	}
	filter, err := req.ToFilter()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	records, err := s.daemon.History(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.HistoryListResponse{Records: api.FromRecords(records)})
}

func (s *apiServer) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.daemon.HistoryStats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromHistoryStats(stats))
}

func (s *apiServer) handleTorrents(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.TorrentListResponse{Torrents: api.FromTorrentSummaries(s.daemon.Torrents())})
}

func (s *apiServer) handleReconcile(w http.ResponseWriter, r *http.Request) {
	report, err := s.daemon.Reconcile(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromReconcileReport(report))
}

func (s *apiServer) decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := services.Kind(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		logging.WithContext(r.Context(), s.logger).Warn("api request failed",
			logging.String("path", r.URL.Path),
			logging.String("error_kind", string(kind)),
			logging.Error(err),
		)
	}
	s.writeJSON(w, status, api.ErrorResponse{Error: err.Error(), Kind: string(kind)})
}

func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConfiguration:
		return http.StatusServiceUnavailable
	case services.KindTimeout:
		return http.StatusGatewayTimeout
	case services.KindTransient, services.KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
