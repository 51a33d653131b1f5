/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package binlog

import (
	"testing"

	test "github.com/outbrain/golib/tests"
	"github.com/pkg/errors"
)

func TestShardNormalizedTable(t *testing.T) {
	tests := []struct {
		table string
		want  string
	}{
		{"orders_017", "orders_x"},
		{"orders_1", "orders_x"},
		{"orders", "orders"},
		{"orders_v2", "orders_v2"},
		{"log_2020_01", "log_2020_x"},
		{"t1", "t1"},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			test.S(t).ExpectEquals(ShardNormalizedTable(tt.table), tt.want)
		})
	}
}

func TestTableMap(t *testing.T) {
	m := NewTableMap()
	_, err := m.Resolve(5)
	test.S(t).ExpectEquals(errors.Cause(err), ErrUnknownTable)

	m.Upsert(5, "db1", "a")
	ref, err := m.Resolve(5)
	test.S(t).ExpectNil(err)
	test.S(t).ExpectEquals(ref.String(), "db1.a")

	m.Upsert(5, "db2", "b")
	ref, err = m.Resolve(5)
	test.S(t).ExpectNil(err)
	test.S(t).ExpectEquals(ref, TableReference{TableID: 5, Schema: "db2", Table: "b"})
	test.S(t).ExpectEquals(m.Len(), 1)
}
