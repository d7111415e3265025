package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(ServiceName+"."+method, req, resp)
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WatcherStart asks the daemon to start the directory watcher.
func (c *Client) WatcherStart() (*WatcherResponse, error) {
	var resp WatcherResponse
	if err := c.call("WatcherStart", WatcherStartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WatcherStop asks the daemon to stop the directory watcher.
func (c *Client) WatcherStop() (*WatcherResponse, error) {
	var resp WatcherResponse
	if err := c.call("WatcherStop", WatcherStopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WatcherConfigure applies a partial policy update. An empty request
// returns the current policy.
func (c *Client) WatcherConfigure(req WatcherConfigureRequest) (*WatcherConfigureResponse, error) {
	var resp WatcherConfigureResponse
	if err := c.call("WatcherConfigure", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PendingList returns the pending queue.
func (c *Client) PendingList() (*PendingListResponse, error) {
	var resp PendingListResponse
	if err := c.call("PendingList", PendingListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PendingApprove ingests a queued item.
func (c *Client) PendingApprove(sourcePath string) (*PendingActionResponse, error) {
	var resp PendingActionResponse
	if err := c.call("PendingApprove", PendingActionRequest{SourcePath: sourcePath}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PendingReject drops a queued item.
func (c *Client) PendingReject(sourcePath string) (*PendingActionResponse, error) {
	var resp PendingActionResponse
	if err := c.call("PendingReject", PendingActionRequest{SourcePath: sourcePath}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Match runs a batch match in the daemon.
func (c *Client) Match(paths []string) (*MatchResponse, error) {
	var resp MatchResponse
	if err := c.call("Match", MatchRequest{Paths: paths}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryList returns audit rows.
func (c *Client) HistoryList(req HistoryListRequest) (*HistoryListResponse, error) {
	var resp HistoryListResponse
	if err := c.call("HistoryList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryStats returns audit totals.
func (c *Client) HistoryStats() (*HistoryStatsResponse, error) {
	var resp HistoryStatsResponse
	if err := c.call("HistoryStats", HistoryStatsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Torrents returns the last torrent poll summaries.
func (c *Client) Torrents() (*TorrentsResponse, error) {
	var resp TorrentsResponse
	if err := c.call("Torrents", TorrentsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reconcile runs an orphan reconciliation pass.
func (c *Client) Reconcile() (*ReconcileResponse, error) {
	var resp ReconcileResponse
	if err := c.call("Reconcile", ReconcileRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.call("TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
