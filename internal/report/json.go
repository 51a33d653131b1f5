/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package report

import (
	"io"

	"github.com/ugorji/go/codec"

	"github.com/actiontech/binlogstat/internal/binlog"
)

var jsonHandle = &codec.JsonHandle{
	HTMLCharsAsIs: true,
}

// record is one JSON line. Exactly one of the two fields is set.
type record struct {
	Transaction *binlog.Transaction   `codec:"transaction,omitempty"`
	Mutation    *binlog.MutationEvent `codec:"mutation,omitempty"`
}

// JSONWriter writes every record it is handed as a JSON line.
type JSONWriter struct {
	w   io.Writer
	enc *codec.Encoder
}

func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w, enc: codec.NewEncoder(w, jsonHandle)}
}

func (j *JSONWriter) write(r *record) error {
	if err := j.enc.Encode(r); err != nil {
		return err
	}
	_, err := j.w.Write([]byte("\n"))
	return err
}

func (j *JSONWriter) OnTransaction(tx *binlog.Transaction) error {
	return j.write(&record{Transaction: tx})
}

func (j *JSONWriter) OnMutation(ev *binlog.MutationEvent) error {
	return j.write(&record{Mutation: ev})
}
