/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package binlog

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"

	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

const testUUID = "3e11fa47-71ca-11e1-9e33-c80aa9429562"

// testBinlog writes synthetic binlog files.
type testBinlog struct {
	buf         bytes.Buffer
	ts          uint32
	checksum    bool
	extraHeader int
	positions   []uint32
}

func newTestBinlog() *testBinlog {
	b := &testBinlog{ts: 1600000000}
	b.buf.Write(replication.BinLogFileHeader)
	return b
}

func (b *testBinlog) at(ts uint32) *testBinlog {
	b.ts = ts
	return b
}

func (b *testBinlog) bytes() []byte {
	return b.buf.Bytes()
}

func (b *testBinlog) reader() *bytes.Reader {
	return bytes.NewReader(b.buf.Bytes())
}

// lastPos is the start offset of the most recently written event.
func (b *testBinlog) lastPos() uint32 {
	return b.positions[len(b.positions)-1]
}

func (b *testBinlog) raw(t replication.EventType, body []byte, trailer bool) *testBinlog {
	headerLen := replication.EventHeaderSize + b.extraHeader
	size := headerLen + len(body)
	if trailer && b.checksum {
		size += 4
	}
	pos := uint32(b.buf.Len())
	b.positions = append(b.positions, pos)

	h := make([]byte, headerLen)
	binary.LittleEndian.PutUint32(h[0:], b.ts)
	h[4] = byte(t)
	binary.LittleEndian.PutUint32(h[5:], 1)
	binary.LittleEndian.PutUint32(h[9:], uint32(size))
	binary.LittleEndian.PutUint32(h[13:], pos+uint32(size))
	b.buf.Write(h)
	b.buf.Write(body)
	if trailer && b.checksum {
		b.buf.Write([]byte{0xde, 0xad, 0xbe, 0xef})
	}
	return b
}

func (b *testBinlog) event(t replication.EventType, body []byte) *testBinlog {
	return b.raw(t, body, true)
}

func (b *testBinlog) fdeWith(binlogVersion uint16, serverVersion string, headerLen uint8) *testBinlog {
	body := make([]byte, formatDescriptionFixedLen)
	binary.LittleEndian.PutUint16(body[0:], binlogVersion)
	copy(body[2:52], serverVersion)
	binary.LittleEndian.PutUint32(body[52:], 0)
	body[56] = headerLen

	postHeader := make([]byte, int(replication.ANONYMOUS_GTID_EVENT)+4)
	postHeader[replication.TABLE_MAP_EVENT-1] = 8
	body = append(body, postHeader...)
	if hasChecksumAlg(serverVersion) {
		alg := byte(0)
		if b.checksum {
			alg = binlogChecksumAlgCRC32
		}
		body = append(body, alg, 0, 0, 0, 0)
	}
	b.raw(replication.FORMAT_DESCRIPTION_EVENT, body, false)
	b.extraHeader = int(headerLen) - replication.EventHeaderSize
	return b
}

func (b *testBinlog) fde() *testBinlog {
	return b.fdeWith(4, "5.7.32-log", replication.EventHeaderSize)
}

func (b *testBinlog) gtid(sid string, gno uint64) *testBinlog {
	body := make([]byte, gtidEventLen)
	copy(body[1:17], uuid.FromStringOrNil(sid).Bytes())
	binary.LittleEndian.PutUint64(body[17:], gno)
	body[25] = 2
	binary.LittleEndian.PutUint64(body[26:], gno-1)
	binary.LittleEndian.PutUint64(body[34:], gno)
	return b.event(replication.GTID_EVENT, body)
}

func (b *testBinlog) anonymousGtid() *testBinlog {
	body := make([]byte, gtidEventLen)
	body[25] = 2
	return b.event(replication.ANONYMOUS_GTID_EVENT, body)
}

func (b *testBinlog) tableMap(id uint64, schema, table string) *testBinlog {
	body := make([]byte, 8)
	for i := 0; i < 6; i++ {
		body[i] = byte(id >> (8 * uint(i)))
	}
	body = append(body, byte(len(schema)))
	body = append(body, schema...)
	body = append(body, 0, byte(len(table)))
	body = append(body, table...)
	body = append(body, 0)
	// column count, types, metadata and null bitmap; never decoded
	body = append(body, 2, 3, 15, 2, 0x40, 0, 0x02)
	return b.event(replication.TABLE_MAP_EVENT, body)
}

// rows writes a row event whose total event length is eventLen.
func (b *testBinlog) rows(t replication.EventType, id uint64, eventLen int) *testBinlog {
	n := eventLen - replication.EventHeaderSize - b.extraHeader
	if b.checksum {
		n -= 4
	}
	body := make([]byte, n)
	for i := 0; i < 6; i++ {
		body[i] = byte(id >> (8 * uint(i)))
	}
	return b.event(t, body)
}

func (b *testBinlog) insert(id uint64, eventLen int) *testBinlog {
	return b.rows(replication.WRITE_ROWS_EVENTv2, id, eventLen)
}

func (b *testBinlog) xid() *testBinlog {
	body := make([]byte, 8)
	binary.LittleEndian.PutUint64(body, 42)
	return b.event(replication.XID_EVENT, body)
}

func (b *testBinlog) query(schema, q string) *testBinlog {
	status := []byte{0x00, 0, 0, 0, 0}
	body := make([]byte, queryPostHeaderLen)
	binary.LittleEndian.PutUint32(body[0:], 7)
	body[8] = byte(len(schema))
	binary.LittleEndian.PutUint16(body[11:], uint16(len(status)))
	body = append(body, status...)
	body = append(body, schema...)
	body = append(body, 0)
	body = append(body, q...)
	return b.event(replication.QUERY_EVENT, body)
}

func (b *testBinlog) truncate(n int) *testBinlog {
	b.buf.Truncate(b.buf.Len() - n)
	return b
}

type collectSink struct {
	txs    []*Transaction
	events []*MutationEvent
}

func (s *collectSink) OnTransaction(tx *Transaction) error {
	s.txs = append(s.txs, tx)
	return nil
}

func (s *collectSink) OnMutation(ev *MutationEvent) error {
	s.events = append(s.events, ev)
	return nil
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.Out = ioutil.Discard
	return logrus.NewEntry(l)
}

func parseTestBinlog(b *testBinlog, filter *RangeFilter) (*collectSink, *Summary, error) {
	sink := &collectSink{}
	p := NewParser(b.reader(), int64(b.buf.Len()), filter, testLogger())
	summary, err := p.Parse(sink)
	return sink, summary, err
}
