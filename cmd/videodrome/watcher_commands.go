package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"videodrome/internal/api"
	"videodrome/internal/ipc"
)

func newWatcherCommand(ctx *commandContext) *cobra.Command {
	watcherCmd := &cobra.Command{
		Use:   "watcher",
		Short: "Control the ingest directory watcher",
	}

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start watching the ingest directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.WatcherStart()
				if err != nil {
					return err
				}
				if !resp.OK {
					return fmt.Errorf("watcher start failed: %s", resp.Message)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Watcher started on %s\n", resp.Status.IngestDir)
				return nil
			})
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop watching; the pending queue is kept",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.WatcherStop(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Watcher stopped")
				return nil
			})
		},
	}

	var (
		autoIngest bool
		threshold  float64
		stability  int
	)
	configureCmd := &cobra.Command{
		Use:   "configure",
		Short: "Show or change the auto-ingest policy",
		Long: "Without flags, prints the current policy. Flags that are set are applied;\n" +
			"the rest keep their current values.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req ipc.WatcherConfigureRequest
			if cmd.Flags().Changed("auto-ingest") {
				req.AutoIngest = &autoIngest
			}
			if cmd.Flags().Changed("threshold") {
				req.ConfidenceThreshold = &threshold
			}
			if cmd.Flags().Changed("stability") {
				req.StabilitySeconds = &stability
			}
			return ctx.withClient(func(client *ipc.Client) error {
				settings, err := client.WatcherConfigure(req)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, settings)
				}
				printSettings(cmd.OutOrStdout(), *settings)
				return nil
			})
		},
	}
	configureCmd.Flags().BoolVar(&autoIngest, "auto-ingest", false, "Ingest matches at or above the threshold without review")
	configureCmd.Flags().Float64Var(&threshold, "threshold", 0, "Confidence threshold in [0, 1]")
	configureCmd.Flags().IntVar(&stability, "stability", 0, "Seconds a file size must stay unchanged")

	watcherCmd.AddCommand(startCmd, stopCmd, configureCmd)
	return watcherCmd
}

func printSettings(out io.Writer, settings api.WatcherSettings) {
	fmt.Fprintf(out, "Auto-ingest: %s\n", yesNo(settings.AutoIngest))
	fmt.Fprintf(out, "Confidence threshold: %.2f\n", settings.ConfidenceThreshold)
	fmt.Fprintf(out, "Stability window: %ds\n", settings.StabilitySeconds)
}
