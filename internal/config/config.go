/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/actiontech/binlogstat/internal/binlog"
)

const (
	DefaultTop = 20

	// DatetimeLayout is the accepted layout for datetime bounds, in local time.
	// Plain unix timestamps are accepted too.
	DatetimeLayout = "2006-01-02 15:04:05"
)

// Config is the configuration of one analyze run.
type Config struct {
	// File is the binlog file to analyze.
	File string `mapstructure:"file"`

	// Top is the number of rows printed per report section.
	Top int `mapstructure:"top"`

	// Position and time bounds. Nil means unbounded on that side.
	StartPosition *int64 `mapstructure:"start_position"`
	EndPosition   *int64 `mapstructure:"end_position"`

	StartDatetime string `mapstructure:"start_datetime"`
	EndDatetime   string `mapstructure:"end_datetime"`

	// LogLevel is the level of the logs to putout
	LogLevel string `mapstructure:"log_level"`

	// Specify the log file name. The empty string means to log to stderr.
	LogFile string `mapstructure:"log_file"`

	NoColor    bool `mapstructure:"no_color"`
	NoProgress bool `mapstructure:"no_progress"`

	// JSONOutput is a path that receives every kept record as a JSON line.
	// "-" is stdout.
	JSONOutput string `mapstructure:"json_output"`

	Metric *Metric `mapstructure:"metric"`

	// List of config files that have been loaded (in order)
	Files []string `mapstructure:"-"`
}

// Metric configures where run metrics go once the file is parsed.
type Metric struct {
	PrometheusPushAddr string `mapstructure:"prometheus_push_addr"`
	PrometheusJob      string `mapstructure:"prometheus_job"`
	Textfile           string `mapstructure:"textfile"`
}

func DefaultConfig() *Config {
	return &Config{
		Top:      DefaultTop,
		LogLevel: "INFO",
		Metric: &Metric{
			PrometheusJob: "binlogstat",
		},
	}
}

// Merge merges two configurations.
func (c *Config) Merge(b *Config) *Config {
	result := *c

	if b.File != "" {
		result.File = b.File
	}
	if b.Top != 0 {
		result.Top = b.Top
	}
	if b.StartPosition != nil {
		result.StartPosition = b.StartPosition
	}
	if b.EndPosition != nil {
		result.EndPosition = b.EndPosition
	}
	if b.StartDatetime != "" {
		result.StartDatetime = b.StartDatetime
	}
	if b.EndDatetime != "" {
		result.EndDatetime = b.EndDatetime
	}
	if b.LogLevel != "" {
		result.LogLevel = b.LogLevel
	}
	if b.LogFile != "" {
		result.LogFile = b.LogFile
	}
	if b.NoColor {
		result.NoColor = true
	}
	if b.NoProgress {
		result.NoProgress = true
	}
	if b.JSONOutput != "" {
		result.JSONOutput = b.JSONOutput
	}

	// Apply the metric config
	if result.Metric == nil && b.Metric != nil {
		metric := *b.Metric
		result.Metric = &metric
	} else if b.Metric != nil {
		result.Metric = result.Metric.Merge(b.Metric)
	}

	result.Files = append(append([]string{}, c.Files...), b.Files...)
	return &result
}

// Merge is used to merge two metric configurations.
func (a *Metric) Merge(b *Metric) *Metric {
	result := *a

	if b.PrometheusPushAddr != "" {
		result.PrometheusPushAddr = b.PrometheusPushAddr
	}
	if b.PrometheusJob != "" {
		result.PrometheusJob = b.PrometheusJob
	}
	if b.Textfile != "" {
		result.Textfile = b.Textfile
	}
	return &result
}

// Validate checks the merged configuration, reporting every problem at once.
func (c *Config) Validate() error {
	var result error
	if c.File == "" {
		result = multierror.Append(result, fmt.Errorf("a binlog file is required"))
	}
	if c.Top <= 0 {
		result = multierror.Append(result, fmt.Errorf("top must be positive, got %d", c.Top))
	}
	if c.StartPosition != nil && c.EndPosition != nil && *c.EndPosition <= *c.StartPosition {
		result = multierror.Append(result, fmt.Errorf("end_position %d must be greater than start_position %d",
			*c.EndPosition, *c.StartPosition))
	}

	start, err := ParseDatetime(c.StartDatetime)
	if err != nil {
		result = multierror.Append(result, errors.Wrap(err, "start_datetime"))
	}
	end, err := ParseDatetime(c.EndDatetime)
	if err != nil {
		result = multierror.Append(result, errors.Wrap(err, "end_datetime"))
	}
	if start != nil && end != nil && *end <= *start {
		result = multierror.Append(result, fmt.Errorf("end_datetime %q must be later than start_datetime %q",
			c.EndDatetime, c.StartDatetime))
	}
	return result
}

// RangeFilter turns the bounds into a filter. A missing side of a bound is
// open; a bound with no side at all keeps the unbounded sentinels.
func (c *Config) RangeFilter() (*binlog.RangeFilter, error) {
	f := binlog.NewRangeFilter()
	f.Position = bound(c.StartPosition, c.EndPosition)

	start, err := ParseDatetime(c.StartDatetime)
	if err != nil {
		return nil, errors.Wrap(err, "start_datetime")
	}
	end, err := ParseDatetime(c.EndDatetime)
	if err != nil {
		return nil, errors.Wrap(err, "end_datetime")
	}
	f.Time = bound(start, end)
	return f, nil
}

// bound builds a filter bound from optional limits. A missing side is open,
// or takes the unbounded default when the given side is negative.
func bound(start, end *int64) binlog.Bound {
	b := binlog.Bound{Start: 0, End: math.MaxInt64}
	switch {
	case start == nil && end == nil:
		return binlog.Unbounded()
	case start != nil && end != nil:
		b.Start, b.End = *start, *end
	case start != nil:
		b.Start = *start
		if *start < 0 {
			b.End = binlog.UnboundedEnd
		}
	default:
		b.End = *end
		if *end < 0 {
			b.Start = binlog.UnboundedStart
		}
	}
	return b
}

// ParseDatetime accepts a unix timestamp or a local DatetimeLayout string.
// The empty string is no bound.
func ParseDatetime(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &ts, nil
	}
	t, err := time.ParseInLocation(DatetimeLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("bad datetime %q, want unix seconds or %q", s, DatetimeLayout)
	}
	ts := t.Unix()
	return &ts, nil
}
