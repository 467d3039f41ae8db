package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"animesync/internal/api"
	"animesync/internal/catalog"
	"animesync/internal/textutil"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect and add catalog records",
	}
	recordsCmd.AddCommand(newRecordsListCommand(ctx))
	recordsCmd.AddCommand(newRecordsAddCommand(ctx))
	return recordsCmd
}

func newRecordsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog records",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := ctx.listRecords(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, api.RecordListResponse{Records: records})
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "Catalog is empty")
				return nil
			}
			fmt.Fprintln(out, renderRecords(records))
			return nil
		},
	}
}

func newRecordsAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add TITLE [TITLE...]",
		Short: "Add a record with one or more candidate titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(textutil.UniqueTitles(args)) == 0 {
				return fmt.Errorf("at least one non-blank title is required")
			}
			record, err := ctx.addRecord(cmd.Context(), args)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, record)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added record %s with %d title(s)\n", record.Key, len(record.Titles))
			return nil
		},
	}
}

// listRecords asks the daemon first and reads the store directly when no
// daemon answers.
func (c *commandContext) listRecords(ctx context.Context) ([]api.Record, error) {
	client, err := c.apiClient()
	if err != nil {
		return nil, err
	}
	records, err := client.Records(ctx)
	if err == nil {
		return records, nil
	}
	if !api.IsAPIUnavailable(err) {
		return nil, err
	}

	var local []catalog.Record
	err = c.withStore(ctx, func(store catalog.Store) error {
		var listErr error
		local, listErr = store.List(ctx)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	return api.FromRecords(local), nil
}

func (c *commandContext) addRecord(ctx context.Context, titles []string) (api.Record, error) {
	client, err := c.apiClient()
	if err != nil {
		return api.Record{}, err
	}
	record, err := client.AddRecord(ctx, titles)
	if err == nil {
		return record, nil
	}
	if !api.IsAPIUnavailable(err) {
		return api.Record{}, err
	}

	var added catalog.Record
	err = c.withStore(ctx, func(store catalog.Store) error {
		var addErr error
		added, addErr = store.Add(ctx, titles...)
		return addErr
	})
	if err != nil {
		return api.Record{}, err
	}
	return api.FromRecord(added), nil
}

func (c *commandContext) withStore(ctx context.Context, fn func(catalog.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := catalog.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open catalog store: %w", err)
	}
	defer store.Close()
	return fn(store)
}
