/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package binlog

import (
	"fmt"

	"github.com/go-mysql-org/go-mysql/replication"
)

type EventDML string

const (
	NotDML    EventDML = "NoDML"
	InsertDML EventDML = "insert"
	UpdateDML EventDML = "update"
	DeleteDML EventDML = "delete"
)

// AnonymousUUID stands in for the server uuid of transactions without a real GTID.
const AnonymousUUID = "00000000-0000-0000-0000-000000000000"

// EventHeader is the common header of every binlog event.
// NextPos is the authoritative boundary; EventSize is advisory.
type EventHeader struct {
	Timestamp uint32
	Type      replication.EventType
	ServerID  uint32
	EventSize uint32
	NextPos   uint32
	Flags     uint16

	// Pos is where the event starts in the file. It is not stored on disk.
	Pos uint32
}

func (h *EventHeader) String() string {
	return fmt.Sprintf("[%v at %d, next %d, size %d]", h.Type, h.Pos, h.NextPos, h.EventSize)
}

// Event is one decoded event body. The concrete types below are the only
// implementations; callers switch on them.
type Event interface {
	isEvent()
}

type FormatDescriptionEvent struct {
	BinlogVersion     uint16
	ServerVersion     string
	CreateTimestamp   uint32
	HeaderLength      uint8
	PostHeaderLengths []byte
	ChecksumAlg       byte
}

type GTIDEvent struct {
	Anonymous      bool
	Flags          uint8
	SID            string
	GNO            uint64
	TsType         uint8
	LastCommitted  uint64
	SequenceNumber uint64
}

// MayHaveSBR reports the flag MySQL sets when the transaction may contain
// statement based events. It is informational only.
func (e *GTIDEvent) MayHaveSBR() bool {
	return e.Flags&0x01 != 0
}

type TableMapEvent struct {
	TableID uint64
	Flags   uint16
	Schema  string
	Table   string
}

type RowsEvent struct {
	DML     EventDML
	Version int
	TableID uint64
}

// XIDEvent commits a transaction.
type XIDEvent struct{}

type QueryEvent struct {
	ErrorCode uint16
	Schema    string
	Query     string
}

// XAPrepareEvent ends the first phase of an XA transaction.
type XAPrepareEvent struct{}

// UnknownEvent is any event kind this package does not decode.
type UnknownEvent struct {
	Length uint32
}

func (*FormatDescriptionEvent) isEvent() {}
func (*GTIDEvent) isEvent()              {}
func (*TableMapEvent) isEvent()          {}
func (*RowsEvent) isEvent()              {}
func (*XIDEvent) isEvent()               {}
func (*QueryEvent) isEvent()             {}
func (*XAPrepareEvent) isEvent()         {}
func (*UnknownEvent) isEvent()           {}

// rowsEventKind maps the nine row event codes (v0, v1, v2) to a DML kind.
func rowsEventKind(t replication.EventType) (dml EventDML, version int, ok bool) {
	switch t {
	case replication.WRITE_ROWS_EVENTv0:
		return InsertDML, 0, true
	case replication.UPDATE_ROWS_EVENTv0:
		return UpdateDML, 0, true
	case replication.DELETE_ROWS_EVENTv0:
		return DeleteDML, 0, true
	case replication.WRITE_ROWS_EVENTv1:
		return InsertDML, 1, true
	case replication.UPDATE_ROWS_EVENTv1:
		return UpdateDML, 1, true
	case replication.DELETE_ROWS_EVENTv1:
		return DeleteDML, 1, true
	case replication.WRITE_ROWS_EVENTv2:
		return InsertDML, 2, true
	case replication.UPDATE_ROWS_EVENTv2:
		return UpdateDML, 2, true
	case replication.DELETE_ROWS_EVENTv2:
		return DeleteDML, 2, true
	}
	return NotDML, 0, false
}
