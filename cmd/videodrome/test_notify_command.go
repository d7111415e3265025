package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"videodrome/internal/ipc"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Publish a test message to the configured ntfy topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return fmt.Errorf("test notification: %w", err)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				message := resp.Message
				if message == "" {
					message = "Notification not sent"
					if resp.Sent {
						message = "Test notification sent"
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), message)
				return nil
			})
		},
	}
}
