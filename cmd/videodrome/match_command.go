package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"videodrome/internal/api"
	"videodrome/internal/ipc"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "match <file>...",
		Short: "Match filenames against the catalog without ingesting",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Match(args)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]column{textCol("Input"), textCol("Match"), numCol("Catalog"), numCol("Confidence"), textCol("Destination")},
					matchRows(resp.Results),
				))
				return nil
			})
		},
	}
}

func matchRows(results []api.MatchResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		if !r.Matched {
			rows = append(rows, []string{r.Input, "no match", "", "", ""})
			continue
		}
		rows = append(rows, []string{
			r.Input,
			describeMatch(r.Title, r.Year, r.Kind, r.Season, r.Episode),
			strconv.FormatInt(r.CatalogID, 10),
			fmt.Sprintf("%.2f", r.Confidence),
			r.CanonicalPath,
		})
	}
	return rows
}
