/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package binlog

import (
	"fmt"

	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/pkg/errors"
)

var (
	// ErrEndOfStream is returned when no byte is left at a read point. It is the
	// normal termination of the event loop and never reported as a failure.
	ErrEndOfStream = errors.New("end of stream")

	ErrNotALogFile                = errors.New("not a binlog file (bad magic)")
	ErrUnsupportedFormat          = errors.New("unsupported binlog format")
	ErrTruncatedInput             = errors.New("truncated input")
	ErrUnknownTable               = errors.New("unknown table id")
	ErrNestedTransaction          = errors.New("nested transaction")
	ErrUnmatchedCommit            = errors.New("commit without transaction")
	ErrMutationOutsideTransaction = errors.New("row event outside transaction")
)

// EventError is a fatal decode or assembly failure at a given event.
type EventError struct {
	Pos  uint32
	Type replication.EventType
	Err  error
}

func newEventError(h *EventHeader, err error) *EventError {
	return &EventError{Pos: h.Pos, Type: h.Type, Err: err}
}

func (e *EventError) Error() string {
	return fmt.Sprintf("%v at position %d: %v", e.Type, e.Pos, e.Err)
}

// Cause returns the underlying sentinel, for errors.Cause.
func (e *EventError) Cause() error {
	return errors.Cause(e.Err)
}

func (e *EventError) Unwrap() error {
	return e.Err
}
