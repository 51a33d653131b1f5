/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	test "github.com/outbrain/golib/tests"

	"github.com/actiontech/binlogstat/internal/binlog"
)

func TestRender(t *testing.T) {
	c := testCollector()
	c.OnTransaction(&binlog.Transaction{
		Identity:      binlog.TransactionIdentity{UUID: "3e11fa47-71ca-11e1-9e33-c80aa9429562", GNO: 23},
		StartTime:     1600000000,
		EndTime:       1600000003,
		StartPos:      4,
		EndPos:        2052,
		Duration:      3,
		TotalSize:     1536,
		MutationCount: 5,
	})

	r := NewRenderer(3, true)
	r.Location = time.UTC
	var buf bytes.Buffer
	test.S(t).ExpectNil(r.Render(&buf, c))
	out := buf.String()

	for _, want := range []string{
		"Large transactions, top 3",
		"Long transactions, top 3",
		"Tables by binlog size, top 3",
		"Shard-merged table operations by row events, top 3",
		"3e11fa47-71ca-11e1-9e33-c80aa9429562:23",
		"2020-09-13 12:26:40",
		"2020-09-13 12:26:43",
		"1.50KB",
		"shop.orders_x",
		"200.00",
		"insert",
	} {
		test.S(t).ExpectTrue(strings.Contains(out, want))
	}
	test.S(t).ExpectFalse(strings.Contains(out, "[bold]"))
	test.S(t).ExpectFalse(strings.Contains(out, "\033["))

	// sections come in a fixed order
	test.S(t).ExpectTrue(strings.Index(out, "Large transactions") < strings.Index(out, "Long transactions"))
	test.S(t).ExpectTrue(strings.Index(out, "Tables by row events") < strings.Index(out, "Shard-merged tables by binlog size"))
	test.S(t).ExpectEquals(strings.Count(out, ", top 3"), 10)
}

func TestRenderColor(t *testing.T) {
	r := NewRenderer(1, false)
	var buf bytes.Buffer
	test.S(t).ExpectNil(r.Render(&buf, NewCollector()))
	test.S(t).ExpectTrue(strings.Contains(buf.String(), "\033[1m"))
}

func TestFormatStats(t *testing.T) {
	stats := []*Stat{{Table: "db.t", Kind: binlog.UpdateDML, Count: 3, Size: 100}}
	out := formatStats(stats, ByTableKind)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	test.S(t).ExpectEquals(len(lines), 2)
	test.S(t).ExpectEquals(strings.Fields(lines[0])[1], "Operation")
	test.S(t).ExpectEquals(strings.Join(strings.Fields(lines[1]), " "), "db.t update 3 100.00B 33.33")

	out = formatStats(stats, ByTable)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	test.S(t).ExpectEquals(strings.Join(strings.Fields(lines[1]), " "), "db.t 3 100.00B 33.33")
}

func TestFormatStatsLongTableName(t *testing.T) {
	name := "db." + strings.Repeat("t", 100)
	out := formatStats([]*Stat{{Table: name, Count: 1, Size: 10}}, ByTable)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	test.S(t).ExpectEquals(len(lines), 2)
	test.S(t).ExpectEquals(strings.Fields(lines[1])[0], name[:maxTableWidth])
}
