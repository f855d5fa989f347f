package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"kdvd/internal/catalog"
	"kdvd/internal/stream"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func streamTable(descriptors []stream.Descriptor) string {
	rows := make([][]string, 0, len(descriptors))
	for i, d := range descriptors {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			d.Filename,
			d.Format.String(),
			d.Resolution(),
			formatBandwidth(d.BandwidthBps),
			dash(d.Codecs),
			yesNo(d.Available),
		})
	}
	return renderTable(
		[]string{"#", "File", "Tier", "Resolution", "Bandwidth", "Codecs", "Available"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	)
}

func summaryLine(summary []catalog.FormatSummary) string {
	parts := make([]string, 0, len(summary))
	for _, s := range summary {
		if s.Total == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %d/%d", s.Format, s.Available, s.Total))
	}
	if len(parts) == 0 {
		return "no streams catalogued"
	}
	return strings.Join(parts, ", ")
}

func formatBandwidth(bps int64) string {
	if bps <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f Mb/s", float64(bps)/1_000_000)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

const (
	ansiBold  = "\033[1m"
	ansiReset = "\033[0m"
)

// heading returns title in bold when out is a terminal.
func heading(out io.Writer, title string) string {
	if shouldColorize(out) {
		return ansiBold + title + ansiReset
	}
	return title
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
