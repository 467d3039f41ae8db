package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"animesync/internal/api"
	"animesync/internal/daemonrun"
	"animesync/internal/logging"
	"animesync/internal/progress"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Start, stop and follow reconciliation runs",
	}
	syncCmd.AddCommand(newSyncRunCommand(ctx))
	syncCmd.AddCommand(newSyncStartCommand(ctx))
	syncCmd.AddCommand(newSyncStopCommand(ctx))
	syncCmd.AddCommand(newSyncStatusCommand(ctx))
	syncCmd.AddCommand(newSyncLogsCommand(ctx))
	return syncCmd
}

func newSyncStartCommand(ctx *commandContext) *cobra.Command {
	var async bool
	var follow bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Ask the daemon to run a reconciliation",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if !async && !follow {
				report, err := client.Start(cmd.Context())
				if err != nil {
					return ctx.wrapStartError(err)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, report)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))
				return nil
			}

			resp, err := client.StartAsync(cmd.Context())
			if err != nil {
				return ctx.wrapStartError(err)
			}
			if !follow {
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (run %s)\n", resp.Message, resp.RunID)
				return nil
			}
			return streamLogs(cmd, ctx, client)
		},
	}
	cmd.Flags().BoolVar(&async, "async", false, "Return as soon as the run has started")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Start in the background and follow the progress log")
	return cmd
}

func (c *commandContext) wrapStartError(err error) error {
	if api.IsConflict(err) {
		return errors.New("a sync is already running; use `animesync sync logs` to follow it")
	}
	return c.wrapAPIError(err)
}

func newSyncStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the active run after its current record",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.Stop(cmd.Context())
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
}

func newSyncStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the reconciliation status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStatus(status))
			return nil
		},
	}
}

func newSyncLogsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Follow the progress log of the current or last run",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			return streamLogs(cmd, ctx, client)
		},
	}
}

func streamLogs(cmd *cobra.Command, ctx *commandContext, client *api.Client) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	err := client.StreamLogs(cmd.Context(), func(event string, frame api.LogFrame) error {
		if ctx.jsonOutput() {
			return writeJSON(cmd, frame)
		}
		for _, entry := range frame.Entries {
			fmt.Fprintln(out, formatLogEntry(entry, colorize))
		}
		if event == api.EventDone && frame.Report != nil {
			fmt.Fprintln(out, renderReport(*frame.Report))
		}
		return nil
	})
	return ctx.wrapAPIError(err)
}

func newSyncRunCommand(ctx *commandContext) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one reconciliation locally without a daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return errors.New("the animesync daemon is running; use `animesync sync start` instead")
			}
			defer lock.Unlock() //nolint:errcheck

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.New(logging.Options{
				Level:  "warn",
				Format: cfg.Logging.Format,
				Writer: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			components, err := daemonrun.Build(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer components.Close()

			stopFollowing := func() {}
			if !quiet && !ctx.jsonOutput() {
				stopFollowing = followProgress(runCtx, cmd.OutOrStdout(), components.Controller.Progress())
			}

			report, err := components.Controller.Start(runCtx)
			stopFollowing()
			if err != nil {
				return err
			}
			dto := api.FromReport(report)
			if ctx.jsonOutput() {
				return writeJSON(cmd, dto)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderReport(dto))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print the final report")
	return cmd
}

// followProgress prints log entries as the run appends them. The returned
// stop func ends following and prints whatever the run appended last.
func followProgress(ctx context.Context, out io.Writer, log *progress.Log) (stop func()) {
	colorize := shouldColorize(out)
	printEntries := func(entries []progress.Entry) {
		for _, entry := range api.FromEntries(entries) {
			fmt.Fprintln(out, formatLogEntry(entry, colorize))
		}
	}

	followCtx, cancel := context.WithCancel(ctx)
	cursorCh := make(chan uint64, 1)
	go func() {
		var cursor uint64
		defer func() { cursorCh <- cursor }()
		for {
			entries, next, err := log.Wait(followCtx, cursor)
			if err != nil {
				return
			}
			cursor = next
			printEntries(entries)
		}
	}()

	return func() {
		cancel()
		entries, _ := log.Since(<-cursorCh)
		printEntries(entries)
	}
}
