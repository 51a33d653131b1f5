/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package binlog

import (
	"fmt"
)

// Unbounded bounds, the defaults of the command line.
const (
	UnboundedStart int64 = -2
	UnboundedEnd   int64 = -1
)

// Bound is an inclusive [Start, End] range. Start < End < 0 means no bound.
type Bound struct {
	Start int64
	End   int64
}

func Unbounded() Bound {
	return Bound{Start: UnboundedStart, End: UnboundedEnd}
}

func (b Bound) IsUnbounded() bool {
	return b.Start < b.End && b.End < 0
}

func (b Bound) Contains(v int64) bool {
	return b.IsUnbounded() || (v >= b.Start && v <= b.End)
}

func (b Bound) String() string {
	if b.IsUnbounded() {
		return "unbounded"
	}
	return fmt.Sprintf("[%d, %d]", b.Start, b.End)
}

// RangeFilter decides which records reach the sink. It has no effect on
// transaction assembly.
type RangeFilter struct {
	Position Bound
	Time     Bound
}

func NewRangeFilter() *RangeFilter {
	return &RangeFilter{Position: Unbounded(), Time: Unbounded()}
}

func (f *RangeFilter) keep(pos, ts uint32) bool {
	return f.Position.Contains(int64(pos)) && f.Time.Contains(int64(ts))
}

func (f *RangeFilter) KeepTransaction(tx *Transaction) bool {
	return f.keep(tx.EndPos, tx.EndTime)
}

func (f *RangeFilter) KeepMutation(ev *MutationEvent) bool {
	return f.keep(ev.Offset, ev.Timestamp)
}
