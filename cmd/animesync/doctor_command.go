package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"animesync/internal/preflight"
)

type statusKind int

const (
	statusOK statusKind = iota
	statusWarn
	statusError
)

const statusLabelWidth = 24

type doctorCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, the catalog store, Shikimori and the daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			runCtx, cancel := context.WithTimeout(cmd.Context(), 45*time.Second)
			defer cancel()

			results := preflight.RunAll(runCtx, cfg)
			var daemon preflight.Result
			if client, err := ctx.apiClient(); err == nil {
				daemon = preflight.CheckDaemon(runCtx, client)
			} else {
				daemon = preflight.Result{Name: "Daemon", Detail: err.Error()}
			}

			failed := preflight.Failed(results)
			if ctx.jsonOutput() {
				checks := make([]doctorCheck, 0, len(results)+1)
				for _, result := range append(results, daemon) {
					checks = append(checks, doctorCheck(result))
				}
				if err := writeJSON(cmd, checks); err != nil {
					return err
				}
			} else {
				colorize := shouldColorize(cmd.OutOrStdout())
				lines := make([]string, 0, len(results)+1)
				for _, result := range results {
					kind := statusOK
					if !result.Passed {
						kind = statusError
					}
					lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
				}
				daemonKind := statusOK
				if !daemon.Passed {
					daemonKind = statusWarn
				}
				lines = append(lines, renderStatusLine(daemon.Name, daemonKind, daemon.Detail, colorize))
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
			}

			if failed {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%-*s %s", statusLabelWidth, label+":", statusText)
	if colorize {
		return statusKindColor(kind) + base + ansiReset
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	default:
		return ansiRed
	}
}
