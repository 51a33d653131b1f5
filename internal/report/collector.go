/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package report

import (
	"sort"

	"github.com/actiontech/binlogstat/internal/binlog"
)

// Grouping selects how mutation events are aggregated.
type Grouping int

const (
	ByTable Grouping = iota
	ByShardTable
	ByTableKind
	ByShardTableKind
)

func (g Grouping) String() string {
	switch g {
	case ByTable:
		return "table"
	case ByShardTable:
		return "shard table"
	case ByTableKind:
		return "table and operation"
	case ByShardTableKind:
		return "shard table and operation"
	default:
		return "<invalid grouping>"
	}
}

// Order is the ranking of a top-N list.
type Order int

const (
	BySize Order = iota
	ByCount
)

type groupKey struct {
	table string
	kind  binlog.EventDML
}

// Stat aggregates the row events of one group.
type Stat struct {
	Table string
	Kind  binlog.EventDML
	Count uint64
	Size  uint64
}

// Mean is the average row event size.
func (s *Stat) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Size) / float64(s.Count)
}

// Collector keeps every transaction it is handed and aggregates mutation
// events on the fly.
type Collector struct {
	Transactions []*binlog.Transaction
	Mutations    uint64

	groups map[Grouping]map[groupKey]*Stat
}

func NewCollector() *Collector {
	c := &Collector{groups: make(map[Grouping]map[groupKey]*Stat)}
	for _, g := range []Grouping{ByTable, ByShardTable, ByTableKind, ByShardTableKind} {
		c.groups[g] = make(map[groupKey]*Stat)
	}
	return c
}

func (c *Collector) OnTransaction(tx *binlog.Transaction) error {
	c.Transactions = append(c.Transactions, tx)
	return nil
}

func (c *Collector) OnMutation(ev *binlog.MutationEvent) error {
	c.Mutations++
	table := ev.Table.String()
	short := ev.ShortTable()
	c.add(ByTable, groupKey{table: table}, ev)
	c.add(ByShardTable, groupKey{table: short}, ev)
	c.add(ByTableKind, groupKey{table: table, kind: ev.DML}, ev)
	c.add(ByShardTableKind, groupKey{table: short, kind: ev.DML}, ev)
	return nil
}

func (c *Collector) add(g Grouping, k groupKey, ev *binlog.MutationEvent) {
	s, ok := c.groups[g][k]
	if !ok {
		s = &Stat{Table: k.table, Kind: k.kind}
		c.groups[g][k] = s
	}
	s.Count++
	s.Size += uint64(ev.Size)
}

// Top returns at most n groups, largest first. Ties are broken by name.
func (c *Collector) Top(g Grouping, order Order, n int) []*Stat {
	stats := make([]*Stat, 0, len(c.groups[g]))
	for _, s := range c.groups[g] {
		stats = append(stats, s)
	}
	metric := func(s *Stat) uint64 {
		if order == ByCount {
			return s.Count
		}
		return s.Size
	}
	sort.Slice(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if metric(a) != metric(b) {
			return metric(a) > metric(b)
		}
		if a.Table != b.Table {
			return a.Table < b.Table
		}
		return a.Kind < b.Kind
	})
	if n < len(stats) {
		stats = stats[:n]
	}
	return stats
}

// TopTransactions returns at most n transactions, largest first, ranked by
// size or by duration. File order breaks ties.
func (c *Collector) TopTransactions(byDuration bool, n int) []*binlog.Transaction {
	txs := append([]*binlog.Transaction{}, c.Transactions...)
	sort.SliceStable(txs, func(i, j int) bool {
		if byDuration {
			return txs[i].Duration > txs[j].Duration
		}
		return txs[i].TotalSize > txs[j].TotalSize
	})
	if n < len(txs) {
		txs = txs[:n]
	}
	return txs
}
