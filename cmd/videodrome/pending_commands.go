package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"videodrome/internal/api"
	"videodrome/internal/ipc"
)

func newPendingCommand(ctx *commandContext) *cobra.Command {
	pendingCmd := &cobra.Command{
		Use:   "pending",
		Short: "Review matches waiting for approval",
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the pending review queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PendingList()
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Items) == 0 {
					fmt.Fprintln(out, "Pending queue is empty")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]column{textCol("File"), textCol("Match"), numCol("Catalog"), numCol("Confidence"), textCol("Queued")},
					pendingRows(resp.Items),
				))
				return nil
			})
		},
	}

	approveCmd := &cobra.Command{
		Use:   "approve <source-path>",
		Short: "Ingest a pending match now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := absPath(args[0])
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PendingApprove(source)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if resp.Record == nil {
					fmt.Fprintf(out, "Approved %s\n", source)
					return nil
				}
				switch resp.Record.Status {
				case "SUCCESS":
					fmt.Fprintf(out, "Ingested %s -> %s\n", source, resp.Record.DestinationPath)
				default:
					fmt.Fprintf(out, "Ingest of %s ended %s: %s\n", source, resp.Record.Status, resp.Record.ErrorMessage)
				}
				return nil
			})
		},
	}

	rejectCmd := &cobra.Command{
		Use:   "reject <source-path>",
		Short: "Drop a pending match without ingesting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := absPath(args[0])
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.PendingReject(source); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rejected %s\n", source)
				return nil
			})
		},
	}

	pendingCmd.AddCommand(listCmd, approveCmd, rejectCmd)
	return pendingCmd
}

func pendingRows(items []api.PendingItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.Filename,
			describeMatch(item.Title, item.Year, item.Kind, item.Season, item.Episode),
			strconv.FormatInt(item.CatalogID, 10),
			fmt.Sprintf("%.2f", item.Confidence),
			item.QueuedAt,
		})
	}
	return rows
}

func describeMatch(title string, year int, kind string, season, episode int) string {
	var b strings.Builder
	b.WriteString(title)
	if year > 0 {
		fmt.Fprintf(&b, " (%d)", year)
	}
	if kind == "show" {
		fmt.Fprintf(&b, " s%02de%02d", season, episode)
	}
	return b.String()
}

func absPath(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || filepath.IsAbs(value) {
		return value
	}
	if abs, err := filepath.Abs(value); err == nil {
		return abs
	}
	return value
}
