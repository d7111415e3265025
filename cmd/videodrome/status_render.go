package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"videodrome/internal/api"
	"videodrome/internal/daemonctl"
	"videodrome/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 24
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func daemonLines(status api.DaemonStatus, colorize bool) []string {
	if !status.Running {
		return []string{renderStatusLine("Videodrome", statusWarn, "Not running (run `videodrome start`)", colorize)}
	}
	lines := []string{
		renderStatusLine("Videodrome", statusOK, fmt.Sprintf("Running (pid %d, since %s)", status.PID, status.StartedAt), colorize),
	}
	if status.Watcher.Running {
		lines = append(lines, renderStatusLine("Watcher", statusOK, "Watching "+status.Watcher.IngestDir, colorize))
	} else {
		lines = append(lines, renderStatusLine("Watcher", statusWarn, "Stopped (run `videodrome watcher start`)", colorize))
	}
	mode := fmt.Sprintf("review everything (threshold %.2f)", status.Watcher.ConfidenceThreshold)
	if status.Watcher.AutoIngest {
		mode = fmt.Sprintf("auto-ingest at confidence >= %.2f", status.Watcher.ConfidenceThreshold)
	}
	lines = append(lines,
		renderStatusLine("Policy", statusInfo, mode, colorize),
		renderStatusLine("Pending review", statusInfo, strconv.Itoa(status.Watcher.PendingQueueSize), colorize),
	)
	return lines
}

func checkLines(checks []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(checks))
	for _, check := range checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	return lines
}

func historyStatusRows(stats api.HistoryStats) [][]string {
	keys := make([]string, 0, len(stats.ByStatus))
	for status := range stats.ByStatus {
		keys = append(keys, status)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, status := range keys {
		rows = append(rows, []string{status, strconv.Itoa(stats.ByStatus[status])})
	}
	return rows
}

func renderSnapshot(out io.Writer, snapshot *daemonctl.Snapshot, colorize bool) {
	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range daemonLines(snapshot.Daemon, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Preflight", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range checkLines(snapshot.Checks, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Ingest History", colorize) {
		fmt.Fprintln(out, line)
	}
	rows := historyStatusRows(snapshot.Daemon.History)
	if len(rows) == 0 {
		fmt.Fprintln(out, "No ingests recorded")
		return
	}
	fmt.Fprintln(out, renderTable([]column{textCol("Status"), numCol("Count")}, rows))
}
