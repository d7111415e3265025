package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"videodrome/internal/catalog/tmdb"
	"videodrome/internal/config"
	"videodrome/internal/services"
	"videodrome/internal/torrent"
)

// MinFreeBytes is the free space below which the media root check fails.
const MinFreeBytes uint64 = 1 << 30

const serviceCheckTimeout = 10 * time.Second

// Pinger is implemented by remote services that can verify connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minBytes
// available to unprivileged users.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s free", formatBytes(free))
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (need %s)", detail, formatBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckService pings a remote dependency with a bounded timeout.
func CheckService(ctx context.Context, name string, pinger Pinger) Result {
	checkCtx, cancel := context.WithTimeout(ctx, serviceCheckTimeout)
	defer cancel()
	if err := pinger.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckTMDB verifies the configured TMDB API key.
func CheckTMDB(ctx context.Context, cfg *config.Config) Result {
	const name = "TMDB"
	if cfg.TMDB.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return CheckService(ctx, name, client)
}

// CheckTransmission verifies the Transmission RPC endpoint.
func CheckTransmission(ctx context.Context, cfg *config.Config) Result {
	const name = "Transmission"
	client, err := torrent.New(cfg.Transmission)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	result := CheckService(ctx, name, client)
	if result.Passed {
		result.Detail = "Reachable at " + client.Endpoint()
	}
	return result
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (service unreachable)"
	}
	switch services.Kind(err) {
	case services.KindConfiguration:
		return "rejected: " + err.Error()
	default:
		return err.Error()
	}
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
