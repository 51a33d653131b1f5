/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package metrics

import (
	"testing"

	"github.com/armon/go-metrics"
	test "github.com/outbrain/golib/tests"
)

func TestPrometheusSinkFlattenKey(t *testing.T) {
	p := NewPrometheusSink()
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"binlog", "events", "GTIDEvent"}, "binlog_events_GTIDEvent"},
		{[]string{"a.b", "c-d", "e f", "g=h"}, "a_b_c_d_e_f_g_h"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			key, id := p.flattenKey(tt.parts, nil)
			test.S(t).ExpectEquals(key, tt.want)
			test.S(t).ExpectEquals(id, tt.want)
		})
	}

	_, id := p.flattenKey([]string{"x"}, []metrics.Label{{Name: "kind", Value: "insert"}})
	test.S(t).ExpectEquals(id, "x;kind=insert")
}

func gathered(t *testing.T, p *PrometheusSink) map[string]float64 {
	mfs, err := p.Registry().Gather()
	test.S(t).ExpectNil(err)
	values := make(map[string]float64)
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[mf.GetName()] = m.GetGauge().GetValue()
			case m.GetSummary() != nil:
				values[mf.GetName()] = float64(m.GetSummary().GetSampleCount())
			}
		}
	}
	return values
}

func TestPrometheusSink(t *testing.T) {
	p := NewPrometheusSink()
	p.IncrCounter([]string{"binlog", "transactions"}, 1)
	p.IncrCounter([]string{"binlog", "transactions"}, 2)
	p.IncrCounterWithLabels([]string{"binlog", "rows"}, 1, []metrics.Label{{Name: "kind", Value: "insert"}})
	p.IncrCounterWithLabels([]string{"binlog", "rows"}, 4, []metrics.Label{{Name: "kind", Value: "delete"}})
	p.SetGauge([]string{"binlog", "position"}, 120)
	p.SetGauge([]string{"binlog", "position"}, 4096)
	p.AddSample([]string{"binlog", "transaction", "size"}, 80)
	p.AddSample([]string{"binlog", "transaction", "size"}, 20)
	p.EmitKey([]string{"ignored"}, 1)

	values := gathered(t, p)
	test.S(t).ExpectEquals(values["binlog_transactions"], float64(3))
	test.S(t).ExpectEquals(values["binlog_rows"], float64(5))
	test.S(t).ExpectEquals(values["binlog_position"], float64(4096))
	test.S(t).ExpectEquals(values["binlog_transaction_size"], float64(2))
	_, ok := values["ignored"]
	test.S(t).ExpectFalse(ok)
}
