package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"videodrome/internal/api"
	"videodrome/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the ingest audit log",
	}

	var req ipc.HistoryListRequest
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List audit records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.HistoryList(req)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Records) == 0 {
					fmt.Fprintln(out, "No matching records")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]column{numCol("ID"), textCol("Status"), textCol("Source"), textCol("Destination"), numCol("Catalog"), textCol("Updated")},
					historyRows(resp.Records),
				))
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&req.Status, "status", "", "Filter by status (pending, success, failed)")
	listCmd.Flags().Int64Var(&req.CatalogID, "catalog-id", 0, "Filter by catalog id")
	listCmd.Flags().StringVar(&req.Kind, "kind", "", "Filter by media kind (movie, show)")
	listCmd.Flags().IntVar(&req.Limit, "limit", 50, "Maximum records to show")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				stats, err := client.HistoryStats()
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, stats)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Total records: %d\n", stats.Total)
				fmt.Fprintf(out, "Average confidence: %.2f\n", stats.AverageConfidence)
				fmt.Fprintln(out, renderTable([]column{textCol("Group"), textCol("Value"), numCol("Count")}, statsRows(*stats)))
				return nil
			})
		},
	}

	historyCmd.AddCommand(listCmd, statsCmd)
	return historyCmd
}

func historyRows(records []api.HistoryRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		catalog := ""
		if rec.CatalogID > 0 {
			catalog = strconv.FormatInt(rec.CatalogID, 10)
		}
		dest := rec.DestinationPath
		if rec.ErrorMessage != "" {
			dest = rec.ErrorMessage
		}
		rows = append(rows, []string{
			strconv.FormatInt(rec.ID, 10),
			rec.Status,
			rec.SourcePath,
			dest,
			catalog,
			rec.UpdatedAt,
		})
	}
	return rows
}

func statsRows(stats api.HistoryStats) [][]string {
	rows := make([][]string, 0, len(stats.ByStatus)+len(stats.ByKind))
	for _, group := range []struct {
		name   string
		counts map[string]int
	}{
		{"status", stats.ByStatus},
		{"kind", stats.ByKind},
	} {
		keys := make([]string, 0, len(group.counts))
		for k := range group.counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			rows = append(rows, []string{group.name, k, strconv.Itoa(group.counts[k])})
		}
	}
	return rows
}
