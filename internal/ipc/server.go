package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"github.com/google/uuid"

	"videodrome/internal/api"
	"videodrome/internal/daemon"
	"videodrome/internal/logging"
	"videodrome/internal/services"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: serverCtx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun videodrome stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

// requestContext tags a call with a fresh correlation id.
func (s *service) requestContext() context.Context {
	return services.WithRequestID(s.ctx, uuid.NewString())
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	*resp = daemon.ToDaemonStatus(s.daemon.Status(s.ctx))
	return nil
}

func (s *service) WatcherStart(_ WatcherStartRequest, resp *WatcherResponse) error {
	s.logger.Debug("watcher start requested")
	if err := s.daemon.StartWatcher(); err != nil {
		resp.OK = false
		resp.Message = err.Error()
		resp.Status = api.FromWatcherStatus(s.daemon.WatcherStatus())
		return nil
	}
	resp.OK = true
	resp.Message = "watcher started"
	resp.Status = api.FromWatcherStatus(s.daemon.WatcherStatus())
	s.logger.Info("watcher started via IPC", logging.String(logging.FieldEventType, "watcher_start"))
	return nil
}

func (s *service) WatcherStop(_ WatcherStopRequest, resp *WatcherResponse) error {
	s.daemon.StopWatcher()
	resp.OK = true
	resp.Message = "watcher stopped"
	resp.Status = api.FromWatcherStatus(s.daemon.WatcherStatus())
	s.logger.Info("watcher stopped via IPC", logging.String(logging.FieldEventType, "watcher_stop"))
	return nil
}

func (s *service) WatcherConfigure(req WatcherConfigureRequest, resp *WatcherConfigureResponse) error {
	if req.IsEmpty() {
		*resp = api.FromSettings(s.daemon.WatcherSettings())
		return nil
	}
	settings, err := s.daemon.ConfigureWatcher(req.ToUpdate())
	if err != nil {
		return err
	}
	*resp = api.FromSettings(settings)
	return nil
}

func (s *service) PendingList(_ PendingListRequest, resp *PendingListResponse) error {
	resp.Items = api.FromPendingItems(s.daemon.PendingQueue())
	return nil
}

func (s *service) PendingApprove(req PendingActionRequest, resp *PendingActionResponse) error {
	rec, err := s.daemon.Approve(s.requestContext(), req.SourcePath)
	if err != nil {
		return err
	}
	record := api.FromRecord(rec)
	resp.SourcePath = req.SourcePath
	resp.Action = "approved"
	resp.Record = &record
	return nil
}

func (s *service) PendingReject(req PendingActionRequest, resp *PendingActionResponse) error {
	if err := s.daemon.Reject(req.SourcePath); err != nil {
		return err
	}
	resp.SourcePath = req.SourcePath
	resp.Action = "rejected"
	return nil
}

func (s *service) Match(req MatchRequest, resp *MatchResponse) error {
	inputs := make([]string, 0, len(req.Paths))
	for _, p := range req.Paths {
		if p != "" {
			inputs = append(inputs, p)
		}
	}
	results, err := s.daemon.Match(s.requestContext(), inputs)
	if err != nil {
		return err
	}
	resp.Results = api.FromMatchResults(inputs, results)
	return nil
}

func (s *service) HistoryList(req HistoryListRequest, resp *HistoryListResponse) error {
	filter, err := req.ToFilter()
	if err != nil {
		return err
	}
	records, err := s.daemon.History(s.ctx, filter)
	if err != nil {
		return err
	}
	resp.Records = api.FromRecords(records)
	return nil
}

func (s *service) HistoryStats(_ HistoryStatsRequest, resp *HistoryStatsResponse) error {
	stats, err := s.daemon.HistoryStats(s.ctx)
	if err != nil {
		return err
	}
	*resp = api.FromHistoryStats(stats)
	return nil
}

func (s *service) Torrents(_ TorrentsRequest, resp *TorrentsResponse) error {
	resp.Torrents = api.FromTorrentSummaries(s.daemon.Torrents())
	return nil
}

func (s *service) Reconcile(_ ReconcileRequest, resp *ReconcileResponse) error {
	report, err := s.daemon.Reconcile(s.ctx)
	if err != nil {
		return err
	}
	*resp = api.FromReconcileReport(report)
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
