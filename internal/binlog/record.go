/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package binlog

import (
	"fmt"
)

// TransactionIdentity is uuid:sequence. Anonymous transactions use
// AnonymousUUID and their start offset as sequence.
type TransactionIdentity struct {
	UUID string `codec:"uuid"`
	GNO  uint64 `codec:"gno"`
}

func (i TransactionIdentity) String() string {
	return fmt.Sprintf("%s:%d", i.UUID, i.GNO)
}

func (i TransactionIdentity) IsAnonymous() bool {
	return i.UUID == AnonymousUUID
}

// Transaction is a committed transaction. Times are unix seconds taken from
// event headers; Duration is measured from the first row event to the commit.
type Transaction struct {
	Identity      TransactionIdentity `codec:"gtid"`
	StartTime     uint32              `codec:"start_time"`
	EndTime       uint32              `codec:"end_time"`
	StartPos      uint32              `codec:"start_pos"`
	EndPos        uint32              `codec:"end_pos"`
	Duration      uint32              `codec:"duration"`
	TotalSize     uint64              `codec:"size"`
	MutationCount uint32              `codec:"rows"`

	hasBegin     bool
	startLatched bool
	rowFormat    bool
}

func (tx *Transaction) GTID() string {
	return tx.Identity.String()
}

func (tx *Transaction) String() string {
	return fmt.Sprintf("[Transaction %s at %d-%d]", tx.GTID(), tx.StartPos, tx.EndPos)
}

// MutationEvent is one row event (a batch of rows against one table).
type MutationEvent struct {
	Offset               uint32         `codec:"offset"`
	Timestamp            uint32         `codec:"timestamp"`
	Table                TableReference `codec:"table"`
	ShardNormalizedTable string         `codec:"table_short"`
	DML                  EventDML       `codec:"event_type"`
	Size                 uint32         `codec:"event_len"`
}

// ShortTable is schema.table with the shard suffix normalized.
func (e *MutationEvent) ShortTable() string {
	return fmt.Sprintf("%s.%s", e.Table.Schema, e.ShardNormalizedTable)
}

func (e *MutationEvent) String() string {
	return fmt.Sprintf("[%v on %s at %d]", e.DML, e.Table, e.Offset)
}

// Sink receives the records that pass the range filter.
type Sink interface {
	OnTransaction(tx *Transaction) error
	OnMutation(ev *MutationEvent) error
}
