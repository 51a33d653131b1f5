/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package command

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	progressWidth    = 50
	progressInterval = 200 * time.Millisecond
)

type positioner interface {
	Position() int64
	Size() int64
}

// progress redraws a one-line progress bar until stopped.
type progress struct {
	out      io.Writer
	source   positioner
	interval time.Duration
	last     float64

	stopCh chan struct{}
	doneCh chan struct{}
}

func newProgress(out io.Writer, source positioner, interval time.Duration) *progress {
	return &progress{
		out:      out,
		source:   source,
		interval: interval,
		last:     -1,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (p *progress) start() {
	go p.loop()
}

func (p *progress) loop() {
	defer close(p.doneCh)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.draw()
		}
	}
}

func (p *progress) draw() {
	pct := percent(p.source.Position(), p.source.Size())
	if pct-p.last < 0.3 {
		return
	}
	p.last = pct
	fmt.Fprintf(p.out, "\r%s\r", formatProgress(p.source.Position(), p.source.Size()))
}

// stop waits for the drawing goroutine. A completed run ends on a full bar.
func (p *progress) stop(completed bool) {
	close(p.stopCh)
	<-p.doneCh
	if completed {
		fmt.Fprintln(p.out, formatProgress(1, 1))
	} else {
		fmt.Fprintln(p.out)
	}
}

func percent(pos, size int64) float64 {
	if size <= 0 {
		return 100
	}
	if pos > size {
		pos = size
	}
	return 100 * float64(pos) / float64(size)
}

// formatProgress renders "[ 42.10%][>>>>   ...]".
func formatProgress(pos, size int64) string {
	pct := percent(pos, size)
	n := int(pct * progressWidth / 100)
	return fmt.Sprintf("[%6.2f%%][%-*s]", pct, progressWidth, strings.Repeat(">", n))
}
