/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package binlog

import (
	"bytes"
	"io"

	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/pkg/errors"
)

// Cursor reads a binlog file at an explicit absolute offset.
type Cursor struct {
	r   io.ReaderAt
	off int64
}

func NewCursor(r io.ReaderAt) *Cursor {
	return &Cursor{r: r}
}

func (c *Cursor) Offset() int64 {
	return c.off
}

// SeekTo moves to an absolute offset. Out of range offsets surface on the next Read.
func (c *Cursor) SeekTo(off int64) {
	c.off = off
}

func (c *Cursor) Skip(n int) {
	c.off += int64(n)
}

// Read returns exactly n bytes and advances the offset.
// ErrEndOfStream means nothing was left at all, ErrTruncatedInput means
// fewer than n bytes were left.
func (c *Cursor) Read(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if n < 0 {
		return nil, errors.Wrapf(ErrTruncatedInput, "negative length %d at %d", n, c.off)
	}
	buf := make([]byte, n)
	got, err := c.r.ReadAt(buf, c.off)
	if got == n {
		c.off += int64(n)
		return buf, nil
	}
	if err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "read %d bytes at %d", n, c.off)
	}
	if got == 0 {
		return nil, ErrEndOfStream
	}
	return nil, errors.Wrapf(ErrTruncatedInput, "want %d bytes at %d, got %d", n, c.off, got)
}

// readBody is Read for event payloads, where running out of data is never clean.
func (c *Cursor) readBody(n int) ([]byte, error) {
	b, err := c.Read(n)
	if errors.Cause(err) == ErrEndOfStream {
		return nil, errors.Wrapf(ErrTruncatedInput, "want %d bytes at %d, got 0", n, c.off)
	}
	return b, err
}

// CheckMagic verifies the 4-byte file header and leaves the cursor after it.
func (c *Cursor) CheckMagic() error {
	b, err := c.Read(len(replication.BinLogFileHeader))
	if err != nil {
		return errors.Wrap(ErrNotALogFile, "file too short")
	}
	if !bytes.Equal(b, replication.BinLogFileHeader) {
		return errors.Wrapf(ErrNotALogFile, "magic %x", b)
	}
	return nil
}
