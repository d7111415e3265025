package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"videodrome/internal/api"
	"videodrome/internal/ipc"
)

func newTorrentsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "torrents",
		Short: "Show the last Transmission poll results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Torrents()
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Torrents) == 0 {
					fmt.Fprintln(out, "No completed torrents processed yet")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]column{
						textCol("Name"), numCol("Videos"), numCol("Ingested"), numCol("Queued"),
						numCol("Duplicate"), numCol("Unmatched"), numCol("Missing"), textCol("Done"),
					},
					torrentRows(resp.Torrents),
				))
				return nil
			})
		},
	}
}

func torrentRows(torrents []api.TorrentSummary) [][]string {
	rows := make([][]string, 0, len(torrents))
	for _, t := range torrents {
		rows = append(rows, []string{
			t.Name,
			strconv.Itoa(t.VideoFiles),
			strconv.Itoa(t.Ingested),
			strconv.Itoa(t.Queued),
			strconv.Itoa(t.Duplicate),
			strconv.Itoa(t.Unmatched),
			strconv.Itoa(t.Missing),
			yesNo(t.MarkProcessed),
		})
	}
	return rows
}

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Resolve PENDING audit records left by an interrupted ingest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				report, err := client.Reconcile()
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, report)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reconciled %d orphaned records (%d succeeded, %d failed)\n",
					report.Examined, report.Succeeded, report.Failed)
				return nil
			})
		},
	}
}
