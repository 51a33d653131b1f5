/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package metrics

import (
	"time"

	"github.com/armon/go-metrics"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/sirupsen/logrus"

	"github.com/actiontech/binlogstat/internal/config"
	"github.com/actiontech/binlogstat/utils"
)

const serviceName = "binlogstat"

// Metrics holds the sinks installed as the go-metrics global.
type Metrics struct {
	logger     *logrus.Entry
	conf       *config.Metric
	Inmem      *metrics.InmemSink
	Prometheus *PrometheusSink
}

// Setup installs the global metrics sink.
// Aggregate on 10 second intervals for 1 minute. Expose the metrics over
// stderr when there is a SIGUSR1 received.
func Setup(conf *config.Metric, logger *logrus.Entry) (*Metrics, error) {
	if conf == nil {
		conf = &config.Metric{}
	}
	inm := metrics.NewInmemSink(10*time.Second, time.Minute)
	metrics.DefaultInmemSignal(inm)

	prom := NewPrometheusSink()
	fanout := metrics.FanoutSink{inm, prom}

	metricsConf := metrics.DefaultConfig(serviceName)
	metricsConf.EnableHostname = false
	metricsConf.EnableRuntimeMetrics = false
	if _, err := metrics.NewGlobal(metricsConf, fanout); err != nil {
		return nil, errors.Wrap(err, "metrics setup")
	}
	return &Metrics{logger: logger, conf: conf, Inmem: inm, Prometheus: prom}, nil
}

// Export writes the textfile and pushes to the Pushgateway, as configured.
// Both are attempted; the first failure is returned.
func (m *Metrics) Export() error {
	var first error
	if m.conf.Textfile != "" {
		if err := prometheus.WriteToTextfile(m.conf.Textfile, m.Prometheus.Registry()); err != nil {
			m.logger.Errorf("metrics: write textfile %s: %v", m.conf.Textfile, err)
			first = errors.Wrap(err, "write textfile")
		} else {
			m.logger.Infof("metrics: written to %s", m.conf.Textfile)
		}
	}
	if m.conf.PrometheusPushAddr != "" {
		job := utils.StringElse(m.conf.PrometheusJob, serviceName)
		err := push.New(m.conf.PrometheusPushAddr, job).
			Gatherer(m.Prometheus.Registry()).
			Client(cleanhttp.DefaultClient()).
			Push()
		if err != nil {
			m.logger.Errorf("metrics: could not push metrics to Prometheus Pushgateway: %v", err)
			if first == nil {
				first = errors.Wrap(err, "push metrics")
			}
		} else {
			m.logger.Infof("metrics: pushed to %s as job %s", m.conf.PrometheusPushAddr, job)
		}
	}
	return first
}
