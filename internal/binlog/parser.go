/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package binlog

import (
	"fmt"
	"io"
	"os"

	"github.com/armon/go-metrics"
	gomysql "github.com/go-mysql-org/go-mysql/mysql"
	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/pkg/errors"
	"github.com/siddontang/go/sync2"
	"github.com/sirupsen/logrus"
)

// Summary describes a parsed file as a whole, filter not applied.
type Summary struct {
	FileSize       int64
	ServerVersion  string
	BinlogVersion  uint16
	FirstTimestamp uint32
	LastTimestamp  uint32
	Events         uint64
	Transactions   uint64
	Mutations      uint64
	GtidSet        gomysql.GTIDSet
}

// Parser decodes one binlog file, strictly in file order.
type Parser struct {
	logger *logrus.Entry
	cursor *Cursor
	state  *parserState
	tables *TableMap
	filter *RangeFilter
	size   int64

	position sync2.AtomicInt64
}

func NewParser(r io.ReaderAt, size int64, filter *RangeFilter, logger *logrus.Entry) *Parser {
	if filter == nil {
		filter = NewRangeFilter()
	}
	return &Parser{
		logger: logger,
		cursor: NewCursor(r),
		state:  newParserState(),
		tables: NewTableMap(),
		filter: filter,
		size:   size,
	}
}

// ParseFile opens path and parses it into sink.
func ParseFile(path string, filter *RangeFilter, sink Sink, logger *logrus.Entry) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return NewParser(f, fi.Size(), filter, logger).Parse(sink)
}

// Position is the offset of the next event to decode. Safe to call from
// another goroutine while Parse runs.
func (p *Parser) Position() int64 {
	return p.position.Get()
}

func (p *Parser) Size() int64 {
	return p.size
}

// Parse runs the event loop until end of stream or the first fatal error.
// Records handed to sink before an error remain valid.
func (p *Parser) Parse(sink Sink) (*Summary, error) {
	if err := p.cursor.CheckMagic(); err != nil {
		return nil, err
	}
	p.position.Set(p.cursor.Offset())

	gtidSet, err := gomysql.ParseMysqlGTIDSet("")
	if err != nil {
		return nil, err
	}
	summary := &Summary{FileSize: p.size, GtidSet: gtidSet}
	builder := NewTxBuilder(p.tables, p.filter, sink, p.logger)

	p.logger.Infof("binlog.parser: start parsing, %d bytes", p.size)
	for {
		pos := p.cursor.Offset()
		h, err := readHeader(p.cursor, p.state)
		if errors.Cause(err) == ErrEndOfStream {
			builder.Finish()
			break
		}
		if err != nil {
			return summary, errors.Wrapf(err, "read event header at %d", pos)
		}

		if summary.Events == 0 && h.Type != replication.FORMAT_DESCRIPTION_EVENT {
			return summary, newEventError(h, errors.Wrap(ErrUnsupportedFormat, "first event is not a format description event"))
		}
		evt, err := decodeEvent(p.cursor, p.state, h)
		if err != nil {
			return summary, newEventError(h, err)
		}
		summary.Events++
		summary.LastTimestamp = h.Timestamp
		metrics.IncrCounter([]string{"binlog", "events", h.Type.String()}, 1)

		switch e := evt.(type) {
		case *FormatDescriptionEvent:
			p.state.apply(e)
			if summary.ServerVersion == "" {
				summary.ServerVersion = e.ServerVersion
				summary.BinlogVersion = e.BinlogVersion
				summary.FirstTimestamp = h.Timestamp
				p.logger.Infof("binlog.parser: server version: MySQL %s", e.ServerVersion)
				p.logger.Infof("binlog.parser: binary log version: %d, header length %d, checksum %v",
					e.BinlogVersion, e.HeaderLength, p.state.checksumLen > 0)
			} else {
				p.logger.Debugf("binlog.parser: format description event again at %d", h.Pos)
			}
		case *GTIDEvent:
			if e.MayHaveSBR() {
				p.logger.Debugf("binlog.parser: %v may contain statement based events", h)
			}
			if !e.Anonymous {
				if err := summary.GtidSet.Update(fmt.Sprintf("%s:%d", e.SID, e.GNO)); err != nil {
					p.logger.Warnf("binlog.parser: bad gtid %s:%d: %v", e.SID, e.GNO, err)
				}
			}
		case *UnknownEvent:
			p.logger.Debugf("binlog.parser: skip %v", h)
		}

		if err := builder.OnEvent(h, evt); err != nil {
			return summary, newEventError(h, err)
		}

		// a body cut short by end of file surfaces as end of stream on the next header read
		p.cursor.SeekTo(int64(h.NextPos))
		if next := int64(h.NextPos); next < p.size {
			p.position.Set(next)
		} else {
			p.position.Set(p.size)
		}
	}

	summary.Transactions = builder.TxCount
	summary.Mutations = builder.MutationCount
	p.logger.Infof("binlog.parser: done, %d events, %d transactions, %d row events",
		summary.Events, summary.Transactions, summary.Mutations)
	return summary, nil
}
