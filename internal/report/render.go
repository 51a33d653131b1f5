/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mitchellh/colorstring"
	"github.com/ryanuber/columnize"

	"github.com/actiontech/binlogstat/internal/binlog"
	"github.com/actiontech/binlogstat/utils"
)

const TimeLayout = "2006-01-02 15:04:05"

// maxTableWidth caps the Table column; schema and table names may each be 64 characters.
const maxTableWidth = 80

// Renderer prints the top-N report of a Collector.
type Renderer struct {
	Top      int
	Color    *colorstring.Colorize
	Location *time.Location
}

func NewRenderer(top int, noColor bool) *Renderer {
	return &Renderer{
		Top: top,
		Color: &colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: noColor,
			Reset:   true,
		},
		Location: time.Local,
	}
}

type groupSection struct {
	title    string
	grouping Grouping
	order    Order
}

var groupSections = []groupSection{
	{"Tables by binlog size", ByTable, BySize},
	{"Tables by row events", ByTable, ByCount},
	{"Shard-merged tables by binlog size", ByShardTable, BySize},
	{"Shard-merged tables by row events", ByShardTable, ByCount},
	{"Table operations by binlog size", ByTableKind, BySize},
	{"Table operations by row events", ByTableKind, ByCount},
	{"Shard-merged table operations by binlog size", ByShardTableKind, BySize},
	{"Shard-merged table operations by row events", ByShardTableKind, ByCount},
}

// Render writes every report section to w.
func (r *Renderer) Render(w io.Writer, c *Collector) error {
	var b strings.Builder

	r.heading(&b, "Large transactions")
	b.WriteString(r.formatTransactions(c.TopTransactions(false, r.Top)))
	r.heading(&b, "Long transactions")
	b.WriteString(r.formatTransactions(c.TopTransactions(true, r.Top)))

	for _, s := range groupSections {
		r.heading(&b, s.title)
		b.WriteString(formatStats(c.Top(s.grouping, s.order, r.Top), s.grouping))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) heading(b *strings.Builder, title string) {
	b.WriteString(r.Color.Color(fmt.Sprintf("\n\n[bold]%s, top %d[reset]\n", title, r.Top)))
	b.WriteString(strings.Repeat("_", 100))
	b.WriteString("\n\n")
}

func (r *Renderer) formatTime(ts uint32) string {
	return time.Unix(int64(ts), 0).In(r.Location).Format(TimeLayout)
}

func (r *Renderer) formatTransactions(txs []*binlog.Transaction) string {
	rows := make([]string, 0, len(txs)+1)
	rows = append(rows, "GTID|Start Time|End Time|Start Pos|End Pos|Duration|Size|Rows")
	for _, tx := range txs {
		rows = append(rows, fmt.Sprintf("%s|%s|%s|%d|%d|%d|%s|%d",
			tx.GTID(),
			r.formatTime(tx.StartTime),
			r.formatTime(tx.EndTime),
			tx.StartPos,
			tx.EndPos,
			tx.Duration,
			utils.SizePretty(tx.TotalSize),
			tx.MutationCount))
	}
	return formatList(rows)
}

func formatStats(stats []*Stat, g Grouping) string {
	withKind := g == ByTableKind || g == ByShardTableKind
	header := "Table|Count|Size|Avg Size"
	if withKind {
		header = "Table|Operation|Count|Size|Avg Size"
	}
	rows := make([]string, 0, len(stats)+1)
	rows = append(rows, header)
	for _, s := range stats {
		cols := []string{utils.StrLim(s.Table, maxTableWidth)}
		if withKind {
			cols = append(cols, string(s.Kind))
		}
		cols = append(cols,
			fmt.Sprintf("%d", s.Count),
			utils.SizePretty(s.Size),
			fmt.Sprintf("%.2f", s.Mean()))
		rows = append(rows, strings.Join(cols, "|"))
	}
	return formatList(rows)
}

// formatList takes a set of strings and formats them into properly
// aligned output, replacing any blank fields with a placeholder.
func formatList(in []string) string {
	columnConf := columnize.DefaultConfig()
	columnConf.Empty = "<none>"
	return columnize.Format(in, columnConf) + "\n"
}
