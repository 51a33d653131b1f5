/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package report

import (
	"errors"
	"testing"

	test "github.com/outbrain/golib/tests"

	"github.com/actiontech/binlogstat/internal/binlog"
)

type countingSink struct {
	txs, mutations int
	err            error
}

func (s *countingSink) OnTransaction(*binlog.Transaction) error {
	s.txs++
	return s.err
}

func (s *countingSink) OnMutation(*binlog.MutationEvent) error {
	s.mutations++
	return s.err
}

func TestTee(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	tee := Tee{a, b}
	test.S(t).ExpectNil(tee.OnTransaction(&binlog.Transaction{}))
	test.S(t).ExpectNil(tee.OnMutation(&binlog.MutationEvent{}))
	test.S(t).ExpectEquals(a.txs+b.txs, 2)
	test.S(t).ExpectEquals(a.mutations+b.mutations, 2)

	a.err = errors.New("disk full")
	test.S(t).ExpectEquals(tee.OnTransaction(&binlog.Transaction{}), a.err)
	test.S(t).ExpectEquals(b.txs, 1)
}
