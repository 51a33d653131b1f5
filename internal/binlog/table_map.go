/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package binlog

import (
	"fmt"
	"regexp"

	"github.com/pkg/errors"
)

var shardSuffixPattern = regexp.MustCompile(`_[0-9]+$`)

// TableReference is the schema and table a table id was mapped to.
type TableReference struct {
	TableID uint64 `codec:"table_id"`
	Schema  string `codec:"schema"`
	Table   string `codec:"table"`
}

func (t TableReference) String() string {
	return fmt.Sprintf("%s.%s", t.Schema, t.Table)
}

// ShardNormalizedTable replaces a trailing numeric shard suffix with "_x",
// so that orders_001 .. orders_128 group together.
func ShardNormalizedTable(table string) string {
	return shardSuffixPattern.ReplaceAllString(table, "_x")
}

// TableMap resolves table ids of row events. The latest table map event for
// an id always wins.
type TableMap struct {
	tables map[uint64]TableReference
}

func NewTableMap() *TableMap {
	return &TableMap{tables: make(map[uint64]TableReference)}
}

func (m *TableMap) Upsert(tableID uint64, schema, table string) {
	m.tables[tableID] = TableReference{TableID: tableID, Schema: schema, Table: table}
}

func (m *TableMap) Resolve(tableID uint64) (TableReference, error) {
	t, ok := m.tables[tableID]
	if !ok {
		return TableReference{}, errors.Wrapf(ErrUnknownTable, "table id %d", tableID)
	}
	return t, nil
}

func (m *TableMap) Len() int {
	return len(m.tables)
}
