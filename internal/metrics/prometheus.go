/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/armon/go-metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink is a go-metrics sink backed by its own registry, so that
// one run can be exported without the process-wide default collectors.
type PrometheusSink struct {
	mu        sync.Mutex
	registry  *prometheus.Registry
	gauges    map[string]prometheus.Gauge
	summaries map[string]prometheus.Summary
	counters  map[string]prometheus.Counter
}

func NewPrometheusSink() *PrometheusSink {
	return &PrometheusSink{
		registry:  prometheus.NewRegistry(),
		gauges:    make(map[string]prometheus.Gauge),
		summaries: make(map[string]prometheus.Summary),
		counters:  make(map[string]prometheus.Counter),
	}
}

// Registry is the gatherer holding everything the sink has seen.
func (p *PrometheusSink) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusSink) flattenKey(parts []string, labels []metrics.Label) (string, string) {
	joined := strings.Join(parts, "_")
	joined = strings.Replace(joined, " ", "_", -1)
	joined = strings.Replace(joined, ".", "_", -1)
	joined = strings.Replace(joined, "-", "_", -1)
	joined = strings.Replace(joined, "=", "_", -1)

	id := joined
	for _, l := range labels {
		id += ";" + l.Name + "=" + l.Value
	}
	return joined, id
}

func constLabels(labels []metrics.Label) prometheus.Labels {
	if len(labels) == 0 {
		return nil
	}
	l := make(prometheus.Labels, len(labels))
	for _, label := range labels {
		l[label.Name] = label.Value
	}
	return l
}

func sortedLabels(labels []metrics.Label) []metrics.Label {
	l := append([]metrics.Label{}, labels...)
	sort.Slice(l, func(i, j int) bool { return l[i].Name < l[j].Name })
	return l
}

func (p *PrometheusSink) SetGauge(parts []string, val float32) {
	p.SetGaugeWithLabels(parts, val, nil)
}

func (p *PrometheusSink) SetGaugeWithLabels(parts []string, val float32, labels []metrics.Label) {
	p.mu.Lock()
	defer p.mu.Unlock()
	labels = sortedLabels(labels)
	key, id := p.flattenKey(parts, labels)
	g, ok := p.gauges[id]
	if !ok {
		g = prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        key,
			Help:        key,
			ConstLabels: constLabels(labels),
		})
		p.registry.MustRegister(g)
		p.gauges[id] = g
	}
	g.Set(float64(val))
}

func (p *PrometheusSink) AddSample(parts []string, val float32) {
	p.AddSampleWithLabels(parts, val, nil)
}

func (p *PrometheusSink) AddSampleWithLabels(parts []string, val float32, labels []metrics.Label) {
	p.mu.Lock()
	defer p.mu.Unlock()
	labels = sortedLabels(labels)
	key, id := p.flattenKey(parts, labels)
	g, ok := p.summaries[id]
	if !ok {
		g = prometheus.NewSummary(prometheus.SummaryOpts{
			Name:        key,
			Help:        key,
			MaxAge:      10 * time.Minute,
			ConstLabels: constLabels(labels),
		})
		p.registry.MustRegister(g)
		p.summaries[id] = g
	}
	g.Observe(float64(val))
}

// EmitKey is not implemented. Prometheus doesn’t offer a type for which an
// arbitrary number of values is retained, as Prometheus works with a pull
// model, rather than a push model.
func (p *PrometheusSink) EmitKey(key []string, val float32) {
}

func (p *PrometheusSink) IncrCounter(parts []string, val float32) {
	p.IncrCounterWithLabels(parts, val, nil)
}

func (p *PrometheusSink) IncrCounterWithLabels(parts []string, val float32, labels []metrics.Label) {
	p.mu.Lock()
	defer p.mu.Unlock()
	labels = sortedLabels(labels)
	key, id := p.flattenKey(parts, labels)
	g, ok := p.counters[id]
	if !ok {
		g = prometheus.NewCounter(prometheus.CounterOpts{
			Name:        key,
			Help:        key,
			ConstLabels: constLabels(labels),
		})
		p.registry.MustRegister(g)
		p.counters[id] = g
	}
	g.Add(float64(val))
}
