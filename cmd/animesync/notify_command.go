package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"animesync/internal/notifications"
)

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Manage run notifications",
	}
	notifyCmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Send a test notification to the configured ntfy topic",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			svc := notifications.NewService(cfg)
			if !notifications.Enabled(svc) {
				return errors.New("notifications are disabled; set notifications.ntfy_topic")
			}
			timeout := cfg.NotifyTimeout()
			if timeout <= 0 {
				timeout = 10 * time.Second
			}
			sendCtx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := svc.TestNotification(sendCtx); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Test notification sent to %s\n", cfg.Notifications.NtfyTopic)
			return nil
		},
	})
	return notifyCmd
}
