/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package binlog

import (
	"strings"

	"github.com/armon/go-metrics"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type TxState int

const (
	TxIdle TxState = iota
	TxOpen
)

func (s TxState) String() string {
	switch s {
	case TxIdle:
		return "Idle"
	case TxOpen:
		return "Open"
	default:
		return "<invalid state>"
	}
}

// TxBuilder groups events into transactions. A transaction is opened by a
// GTID event (or a BEGIN without one) and closed by XID, XA PREPARE, or a
// COMMIT/ROLLBACK/DDL query. Only closed transactions are emitted.
type TxBuilder struct {
	logger *logrus.Entry
	tables *TableMap
	filter *RangeFilter
	sink   Sink

	state     TxState
	currentTx *Transaction

	TxCount       uint64
	MutationCount uint64
}

func NewTxBuilder(tables *TableMap, filter *RangeFilter, sink Sink, logger *logrus.Entry) *TxBuilder {
	return &TxBuilder{
		logger: logger,
		tables: tables,
		filter: filter,
		sink:   sink,
		state:  TxIdle,
	}
}

func (tb *TxBuilder) State() TxState {
	return tb.state
}

// OnEvent feeds one decoded event, in file order.
func (tb *TxBuilder) OnEvent(h *EventHeader, evt Event) error {
	switch ev := evt.(type) {
	case *GTIDEvent:
		if tb.state == TxOpen {
			return errors.Wrapf(ErrNestedTransaction, "unfinished transaction %v", tb.currentTx)
		}
		tb.newTransaction(h, TransactionIdentity{UUID: ev.SID, GNO: ev.GNO})

	case *TableMapEvent:
		tb.tables.Upsert(ev.TableID, ev.Schema, ev.Table)
		if tb.state == TxOpen {
			tb.currentTx.rowFormat = true
		}

	case *RowsEvent:
		return tb.onRowEvent(h, ev)

	case *XIDEvent, *XAPrepareEvent:
		if tb.state != TxOpen {
			return errors.Wrap(ErrUnmatchedCommit, "transaction without GTID_EVENT")
		}
		return tb.onCommit(h)

	case *QueryEvent:
		return tb.onQueryEvent(h, ev)
	}
	return nil
}

// Finish is called at end of stream. An open transaction is incomplete and
// is dropped.
func (tb *TxBuilder) Finish() {
	if tb.state == TxOpen {
		tb.logger.Debugf("binlog.builder: dropping unfinished transaction %v", tb.currentTx)
	}
	tb.currentTx = nil
	tb.state = TxIdle
}

func (tb *TxBuilder) newTransaction(h *EventHeader, id TransactionIdentity) {
	tb.currentTx = &Transaction{
		Identity: id,
		StartPos: h.Pos,
	}
	tb.state = TxOpen
}

func (tb *TxBuilder) onRowEvent(h *EventHeader, ev *RowsEvent) error {
	if tb.state != TxOpen {
		return errors.Wrapf(ErrMutationOutsideTransaction, "%v on table id %d", ev.DML, ev.TableID)
	}
	tx := tb.currentTx
	if !tx.rowFormat {
		return errors.Wrap(ErrUnsupportedFormat, "row event without table map, only row based binlog is supported")
	}
	table, err := tb.tables.Resolve(ev.TableID)
	if err != nil {
		return err
	}

	if !tx.startLatched {
		tx.StartTime = h.Timestamp
		tx.startLatched = true
	}
	tx.TotalSize += uint64(h.EventSize)
	tx.MutationCount++
	tb.MutationCount++
	metrics.IncrCounter([]string{"binlog", "mutations", string(ev.DML)}, 1)

	m := &MutationEvent{
		Offset:               h.Pos,
		Timestamp:            h.Timestamp,
		Table:                table,
		ShardNormalizedTable: ShardNormalizedTable(table.Table),
		DML:                  ev.DML,
		Size:                 h.EventSize,
	}
	if !tb.filter.KeepMutation(m) {
		return nil
	}
	return tb.sink.OnMutation(m)
}

func (tb *TxBuilder) onQueryEvent(h *EventHeader, ev *QueryEvent) error {
	query := strings.TrimSpace(ev.Query)
	begin := strings.EqualFold(query, "BEGIN") || hasPrefixFold(query, "XA START")

	if tb.state != TxOpen {
		if begin {
			// No GTID event in front of it: MySQL 5.6 without gtid_mode.
			tb.newTransaction(h, TransactionIdentity{UUID: AnonymousUUID, GNO: uint64(h.Pos)})
			tb.currentTx.hasBegin = true
		} else {
			tb.logger.Debugf("binlog.builder: skip query outside transaction at %d", h.Pos)
		}
		return nil
	}

	switch {
	case begin:
		tb.currentTx.hasBegin = true
	case hasPrefixFold(query, "XA END"):
	case strings.EqualFold(query, "COMMIT"), strings.EqualFold(query, "ROLLBACK"), !tb.currentTx.hasBegin:
		// DDL or a non-transactional commit.
		return tb.onCommit(h)
	}
	return nil
}

func (tb *TxBuilder) onCommit(h *EventHeader) error {
	tx := tb.currentTx
	tx.EndTime = h.Timestamp
	tx.EndPos = h.NextPos
	if !tx.startLatched {
		tx.StartTime = tx.EndTime
	}
	if tx.EndTime > tx.StartTime {
		tx.Duration = tx.EndTime - tx.StartTime
	}

	tb.currentTx = nil
	tb.state = TxIdle
	tb.TxCount++
	metrics.IncrCounter([]string{"binlog", "transactions"}, 1)
	metrics.AddSample([]string{"binlog", "transaction", "size"}, float32(tx.TotalSize))

	if !tb.filter.KeepTransaction(tx) {
		return nil
	}
	return tb.sink.OnTransaction(tx)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
