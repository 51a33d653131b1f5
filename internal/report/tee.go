/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package report

import (
	"github.com/actiontech/binlogstat/internal/binlog"
)

// Tee hands every record to each sink in turn, stopping at the first error.
type Tee []binlog.Sink

func (t Tee) OnTransaction(tx *binlog.Transaction) error {
	for _, s := range t {
		if err := s.OnTransaction(tx); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee) OnMutation(ev *binlog.MutationEvent) error {
	for _, s := range t {
		if err := s.OnMutation(ev); err != nil {
			return err
		}
	}
	return nil
}
