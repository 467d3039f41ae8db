package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"animesync/internal/api"
)

const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiDim    = "\033[2m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func formatLogEntry(entry api.LogEntry, colorize bool) string {
	clock := entry.Timestamp
	if parsed, err := time.Parse(time.RFC3339Nano, entry.Timestamp); err == nil {
		clock = parsed.Local().Format("15:04:05")
	}
	label := strings.ToUpper(entry.Level)
	if colorize {
		label = levelColor(entry.Level) + label + ansiReset
		clock = ansiDim + clock + ansiReset
	}
	line := fmt.Sprintf("%s %-7s %s", clock, label, entry.Message)
	if entry.RecordKey != "" {
		line += fmt.Sprintf(" [record %s]", entry.RecordKey)
	}
	return line
}

func levelColor(level string) string {
	switch level {
	case "success":
		return ansiGreen
	case "warning":
		return ansiYellow
	case "error":
		return ansiRed
	default:
		return ""
	}
}

func renderReport(report api.Report) string {
	var b strings.Builder
	b.WriteString(report.Message)
	b.WriteByte('\n')
	b.WriteString(renderTable(
		[]string{"Total", "Updated", "Failed", "Not found", "Duration"},
		[][]string{{
			strconv.Itoa(report.Stats.Total),
			strconv.Itoa(report.Stats.Updated),
			strconv.Itoa(report.Stats.Failed),
			strconv.Itoa(report.Stats.NotFound),
			(time.Duration(report.DurationMS) * time.Millisecond).String(),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	return b.String()
}

func renderStatus(status api.SyncStatus) string {
	state := "idle"
	if status.Running {
		state = "running"
		if status.StopRequested {
			state = "stopping"
		}
	}
	pairs := [][2]string{
		{"State", state},
		{"Run", valueOrDash(status.RunID)},
		{"Started", valueOrDash(status.StartedAt)},
		{"Finished", valueOrDash(status.FinishedAt)},
		{"Progress", fmt.Sprintf("%d of %d", status.Stats.Updated+status.Stats.Failed+status.Stats.NotFound, status.Stats.Total)},
		{"Updated", strconv.Itoa(status.Stats.Updated)},
		{"Failed", strconv.Itoa(status.Stats.Failed)},
		{"Not found", strconv.Itoa(status.Stats.NotFound)},
		{"Stop requested", yesNo(status.StopRequested)},
	}
	if status.LastReport != nil {
		pairs = append(pairs, [2]string{"Last result", status.LastReport.Message})
	}
	if status.LastError != "" {
		pairs = append(pairs, [2]string{"Last error", status.LastError})
	}
	return renderKeyValues(pairs)
}

func renderRecords(records []api.Record) string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		score := "-"
		if record.Score != nil {
			score = strconv.FormatFloat(*record.Score, 'f', 2, 64)
		}
		episodes := "-"
		if record.Episodes != nil {
			episodes = strconv.Itoa(*record.Episodes)
		}
		rows = append(rows, []string{
			record.Key,
			strings.Join(record.Titles, "\n"),
			score,
			episodes,
			valueOrDash(record.Status),
			valueOrDash(record.SyncedAt),
		})
	}
	return renderTable(
		[]string{"Key", "Titles", "Score", "Episodes", "Status", "Synced"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	)
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
