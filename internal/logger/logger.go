/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var Logger = logrus.NewEntry(logrus.New())

// InitLogger builds the process logger. Unparseable levels fall back to info.
func InitLogger(logLevel string, out io.Writer, noColor bool) *logrus.Entry {
	formattedLogger := logrus.New()
	formattedLogger.Out = out
	formattedLogger.Formatter = &logrus.TextFormatter{FullTimestamp: true, DisableColors: noColor}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.WithError(err).Error("Error parsing log level, using: info")
		level = logrus.InfoLevel
	}

	formattedLogger.Level = level
	Logger = logrus.NewEntry(formattedLogger)
	return Logger
}

// OpenLogFile appends to path, creating it if needed. An empty path or an
// unusable file means stderr.
func OpenLogFile(path string) (io.Writer, func()) {
	if path == "" {
		return os.Stderr, func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		logrus.WithError(err).Errorf("Unable to open log file %s, using stderr", path)
		return os.Stderr, func() {}
	}
	return f, func() { f.Close() }
}
