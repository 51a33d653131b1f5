/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package binlog

import (
	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/pkg/errors"
)

// parserState is the per-file decoding context that a format description
// event establishes.
type parserState struct {
	headerLength int
	tableIDSize  int
	checksumLen  int
	fde          *FormatDescriptionEvent
}

func newParserState() *parserState {
	return &parserState{
		headerLength: replication.EventHeaderSize,
		tableIDSize:  6,
	}
}

// bodyLength is the payload size of an event, checksum excluded.
func (st *parserState) bodyLength(h *EventHeader) int {
	return int(h.EventSize) - st.headerLength - st.checksumLen
}

// readHeader decodes the event header at the cursor.
func readHeader(c *Cursor, st *parserState) (*EventHeader, error) {
	pos := c.Offset()
	b, err := c.Read(st.headerLength)
	if err != nil {
		return nil, err
	}

	var raw replication.EventHeader
	if err := raw.Decode(b); err != nil {
		return nil, errors.Wrapf(ErrTruncatedInput, "bad event header at %d: %v", pos, err)
	}

	h := &EventHeader{
		Timestamp: raw.Timestamp,
		Type:      raw.EventType,
		ServerID:  raw.ServerID,
		EventSize: raw.EventSize,
		NextPos:   raw.LogPos,
		Flags:     raw.Flags,
		Pos:       uint32(pos),
	}
	if int(h.EventSize) < st.headerLength+st.checksumLen {
		return nil, errors.Wrapf(ErrTruncatedInput, "%v: event shorter than its header", h)
	}
	if int64(h.NextPos) < pos+int64(st.headerLength) {
		return nil, errors.Wrapf(ErrTruncatedInput, "%v: next position does not advance", h)
	}
	return h, nil
}
