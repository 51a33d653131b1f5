/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package binlog

import (
	"testing"

	test "github.com/outbrain/golib/tests"
)

func TestBoundContains(t *testing.T) {
	tests := []struct {
		name  string
		bound Bound
		v     int64
		want  bool
	}{
		{"unbounded", Unbounded(), 12345, true},
		{"unbounded zero", Unbounded(), 0, true},
		{"inside", Bound{Start: 10, End: 20}, 15, true},
		{"start inclusive", Bound{Start: 10, End: 20}, 10, true},
		{"end inclusive", Bound{Start: 10, End: 20}, 20, true},
		{"before", Bound{Start: 10, End: 20}, 9, false},
		{"after", Bound{Start: 10, End: 20}, 21, false},
		{"open start", Bound{Start: UnboundedStart, End: 20}, 0, true},
		{"empty", Bound{Start: 20, End: 10}, 15, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test.S(t).ExpectEquals(tt.bound.Contains(tt.v), tt.want)
		})
	}
}

func TestBoundIsUnbounded(t *testing.T) {
	test.S(t).ExpectTrue(Unbounded().IsUnbounded())
	test.S(t).ExpectTrue(Bound{Start: -10, End: -3}.IsUnbounded())
	test.S(t).ExpectFalse(Bound{Start: -1, End: -2}.IsUnbounded())
	test.S(t).ExpectFalse(Bound{Start: -2, End: 10}.IsUnbounded())
	test.S(t).ExpectEquals(Unbounded().String(), "unbounded")
	test.S(t).ExpectEquals(Bound{Start: 4, End: 100}.String(), "[4, 100]")
}

func TestRangeFilter(t *testing.T) {
	f := NewRangeFilter()
	tx := &Transaction{EndPos: 1000, EndTime: 1600000000}
	ev := &MutationEvent{Offset: 900, Timestamp: 1599999999}
	test.S(t).ExpectTrue(f.KeepTransaction(tx))
	test.S(t).ExpectTrue(f.KeepMutation(ev))

	f.Position = Bound{Start: 0, End: 950}
	test.S(t).ExpectFalse(f.KeepTransaction(tx))
	test.S(t).ExpectTrue(f.KeepMutation(ev))

	f.Time = Bound{Start: 1600000000, End: 1600000100}
	test.S(t).ExpectFalse(f.KeepMutation(ev))

	f.Position = Unbounded()
	test.S(t).ExpectTrue(f.KeepTransaction(tx))
}
