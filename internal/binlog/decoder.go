/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package binlog

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/hashicorp/go-version"
	"github.com/pkg/errors"
	"github.com/satori/go.uuid"
)

const (
	formatDescriptionFixedLen = 57
	gtidEventLen              = 42
	gtidEventMinLen           = 25 // MySQL 5.6 has no logical timestamps
	queryPostHeaderLen        = 13

	binlogChecksumAlgCRC32 = 1
	binlogChecksumLen      = 4

	xaPrepareLogEvent replication.EventType = 38
)

// checksumVersion is the first server version that writes a checksum
// algorithm byte into the format description event.
var checksumVersion = version.Must(version.NewVersion("5.6.1"))

// decodeEvent decodes the body of the event described by h. The cursor is
// positioned right after the header; it may be left anywhere in the body.
func decodeEvent(c *Cursor, st *parserState, h *EventHeader) (Event, error) {
	if dml, v, ok := rowsEventKind(h.Type); ok {
		return decodeRowsEvent(c, st, dml, v)
	}

	switch h.Type {
	case replication.FORMAT_DESCRIPTION_EVENT:
		return decodeFormatDescription(c, st, h)
	case replication.GTID_EVENT, replication.ANONYMOUS_GTID_EVENT:
		return decodeGTID(c, st, h)
	case replication.TABLE_MAP_EVENT:
		return decodeTableMap(c, st)
	case replication.XID_EVENT:
		return &XIDEvent{}, nil
	case replication.QUERY_EVENT:
		return decodeQuery(c, st, h)
	case xaPrepareLogEvent:
		return &XAPrepareEvent{}, nil
	}
	return &UnknownEvent{Length: h.EventSize}, nil
}

func decodeFormatDescription(c *Cursor, st *parserState, h *EventHeader) (*FormatDescriptionEvent, error) {
	b, err := c.readBody(formatDescriptionFixedLen)
	if err != nil {
		return nil, err
	}
	e := &FormatDescriptionEvent{
		BinlogVersion:   binary.LittleEndian.Uint16(b[0:]),
		ServerVersion:   string(bytes.TrimRight(b[2:52], "\x00")),
		CreateTimestamp: binary.LittleEndian.Uint32(b[52:]),
		HeaderLength:    b[56],
	}
	if e.BinlogVersion != 4 {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "binlog version %d, only v4 is supported", e.BinlogVersion)
	}
	if int(e.HeaderLength) < replication.EventHeaderSize {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "event header length %d", e.HeaderLength)
	}

	// The rest of the event is the post-header length array, followed by the
	// checksum algorithm and the event checksum on newer servers.
	rest := int(h.EventSize) - st.headerLength - formatDescriptionFixedLen
	if rest > 0 {
		tail, err := c.readBody(rest)
		if err != nil {
			return nil, err
		}
		e.PostHeaderLengths = tail
		if hasChecksumAlg(e.ServerVersion) && len(tail) >= 1+binlogChecksumLen {
			e.ChecksumAlg = tail[len(tail)-1-binlogChecksumLen]
			e.PostHeaderLengths = tail[:len(tail)-1-binlogChecksumLen]
		}
	}
	return e, nil
}

// hasChecksumAlg tells whether a server writes the checksum algorithm byte.
// Unparseable versions are treated as old servers.
func hasChecksumAlg(serverVersion string) bool {
	s := serverVersion
	if i := strings.IndexAny(s, "-_ "); i >= 0 {
		s = s[:i]
	}
	v, err := version.NewVersion(s)
	if err != nil {
		return false
	}
	return !v.LessThan(checksumVersion)
}

// apply makes a format description the decoding context of the file.
func (st *parserState) apply(e *FormatDescriptionEvent) {
	st.fde = e
	st.headerLength = int(e.HeaderLength)
	st.tableIDSize = 6
	if n := int(replication.TABLE_MAP_EVENT); len(e.PostHeaderLengths) >= n && e.PostHeaderLengths[n-1] == 6 {
		st.tableIDSize = 4
	}
	st.checksumLen = 0
	if e.ChecksumAlg == binlogChecksumAlgCRC32 {
		st.checksumLen = binlogChecksumLen
	}
}

func decodeGTID(c *Cursor, st *parserState, h *EventHeader) (*GTIDEvent, error) {
	n := gtidEventLen
	if bl := st.bodyLength(h); bl < n {
		n = gtidEventMinLen
	}
	b, err := c.readBody(n)
	if err != nil {
		return nil, err
	}
	sid, err := uuid.FromBytes(b[1:17])
	if err != nil {
		return nil, errors.Wrap(ErrTruncatedInput, err.Error())
	}
	e := &GTIDEvent{
		Flags: b[0],
		SID:   sid.String(),
		GNO:   binary.LittleEndian.Uint64(b[17:]),
	}
	if n == gtidEventLen {
		e.TsType = b[25]
		e.LastCommitted = binary.LittleEndian.Uint64(b[26:])
		e.SequenceNumber = binary.LittleEndian.Uint64(b[34:])
	}
	if h.Type == replication.ANONYMOUS_GTID_EVENT {
		e.Anonymous = true
		e.SID = AnonymousUUID
		e.GNO = uint64(h.Pos)
	}
	return e, nil
}

func decodeTableMap(c *Cursor, st *parserState) (*TableMapEvent, error) {
	b, err := c.readBody(st.tableIDSize + 2)
	if err != nil {
		return nil, err
	}
	e := &TableMapEvent{
		TableID: readTableID(b, st.tableIDSize),
		Flags:   binary.LittleEndian.Uint16(b[st.tableIDSize:]),
	}
	if e.Schema, err = readLengthPrefixed(c); err != nil {
		return nil, err
	}
	c.Skip(1)
	if e.Table, err = readLengthPrefixed(c); err != nil {
		return nil, err
	}
	return e, nil
}

func decodeRowsEvent(c *Cursor, st *parserState, dml EventDML, v int) (*RowsEvent, error) {
	b, err := c.readBody(st.tableIDSize)
	if err != nil {
		return nil, err
	}
	return &RowsEvent{DML: dml, Version: v, TableID: readTableID(b, st.tableIDSize)}, nil
}

func decodeQuery(c *Cursor, st *parserState, h *EventHeader) (*QueryEvent, error) {
	b, err := c.readBody(queryPostHeaderLen)
	if err != nil {
		return nil, err
	}
	schemaLen := int(b[8])
	statusLen := int(binary.LittleEndian.Uint16(b[11:]))
	e := &QueryEvent{ErrorCode: binary.LittleEndian.Uint16(b[9:])}

	c.Skip(statusLen)
	queryLen := st.bodyLength(h) - queryPostHeaderLen - statusLen - schemaLen - 1
	if queryLen < 0 {
		return nil, errors.Wrapf(ErrTruncatedInput, "query event body too short for schema %d and status %d", schemaLen, statusLen)
	}
	schema, err := c.readBody(schemaLen)
	if err != nil {
		return nil, err
	}
	c.Skip(1)
	query, err := c.readBody(queryLen)
	if err != nil {
		return nil, err
	}
	e.Schema = string(schema)
	e.Query = string(query)
	return e, nil
}

func readLengthPrefixed(c *Cursor) (string, error) {
	l, err := c.readBody(1)
	if err != nil {
		return "", err
	}
	b, err := c.readBody(int(l[0]))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readTableID(b []byte, size int) uint64 {
	var id uint64
	for i := size - 1; i >= 0; i-- {
		id = id<<8 | uint64(b[i])
	}
	return id
}
