/*
 * Copyright (C) 2016-2018. ActionTech.
 * Based on: github.com/hashicorp/nomad, github.com/github/gh-ost .
 * License: MPL version 2: https://www.mozilla.org/en-US/MPL/2.0 .
 */

package command

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/golang/snappy"
	"github.com/mitchellh/cli"
	"github.com/sirupsen/logrus"

	"github.com/actiontech/binlogstat/internal/binlog"
	"github.com/actiontech/binlogstat/internal/config"
	"github.com/actiontech/binlogstat/internal/logger"
	"github.com/actiontech/binlogstat/internal/metrics"
	"github.com/actiontech/binlogstat/internal/report"
)

// AnalyzeCommand parses one binlog file and prints the top-N report.
type AnalyzeCommand struct {
	Ui cli.Ui

	// ProgressOut receives the progress bar. Nil disables it.
	ProgressOut io.Writer

	args   []string
	logger *logrus.Entry
}

func (c *AnalyzeCommand) readConfig() *config.Config {
	var configPath []string

	// Make a new, empty config.
	cmdConfig := &config.Config{}

	flags := flag.NewFlagSet("analyze", flag.ContinueOnError)
	flags.Usage = func() { c.Ui.Error(c.Help()) }

	flags.Var((*StringFlag)(&configPath), "config", "config")
	for _, name := range []string{"file", "f"} {
		flags.StringVar(&cmdConfig.File, name, "", "")
	}
	for _, name := range []string{"top", "t"} {
		flags.IntVar(&cmdConfig.Top, name, 0, "")
	}
	for _, name := range []string{"start-position", "sp"} {
		flags.Var(Int64PtrFlag{&cmdConfig.StartPosition}, name, "")
	}
	for _, name := range []string{"end-position", "ep"} {
		flags.Var(Int64PtrFlag{&cmdConfig.EndPosition}, name, "")
	}
	for _, name := range []string{"start-datetime", "sd"} {
		flags.StringVar(&cmdConfig.StartDatetime, name, "", "")
	}
	for _, name := range []string{"end-datetime", "ed"} {
		flags.StringVar(&cmdConfig.EndDatetime, name, "", "")
	}
	flags.StringVar(&cmdConfig.LogLevel, "log-level", "", "")
	flags.StringVar(&cmdConfig.LogFile, "log-file", "", "")
	flags.StringVar(&cmdConfig.JSONOutput, "json", "", "")
	flags.BoolVar(&cmdConfig.NoColor, "no-color", false, "")
	flags.BoolVar(&cmdConfig.NoProgress, "no-progress", false, "")

	if err := flags.Parse(c.args); err != nil {
		return nil
	}

	switch rest := flags.Args(); len(rest) {
	case 0:
	case 1:
		if cmdConfig.File == "" {
			cmdConfig.File = rest[0]
			break
		}
		fallthrough
	default:
		c.Ui.Error("This command takes at most one binlog file")
		c.Ui.Error("For additional help try 'binlogstat analyze -help'")
		return nil
	}

	// Load the configuration
	conf := config.DefaultConfig()
	for _, path := range configPath {
		current, err := config.LoadConfig(path)
		if err != nil {
			c.Ui.Error(fmt.Sprintf("Error loading configuration from %s: %s", path, err))
			return nil
		}
		conf = conf.Merge(current)
	}

	// Merge any CLI options over config file options
	conf = conf.Merge(cmdConfig)

	if err := conf.Validate(); err != nil {
		c.Ui.Error(fmt.Sprintf("Invalid configuration: %s", strings.TrimSpace(err.Error())))
		return nil
	}
	return conf
}

func (c *AnalyzeCommand) Run(args []string) int {
	c.args = args
	conf := c.readConfig()
	if conf == nil {
		return 1
	}

	logOutput, closeLog := logger.OpenLogFile(conf.LogFile)
	defer closeLog()
	c.logger = logger.InitLogger(conf.LogLevel, logOutput, conf.NoColor)

	if len(conf.Files) > 0 {
		c.logger.Infof("Loaded configuration from %s", strings.Join(conf.Files, ", "))
	}

	filter, err := conf.RangeFilter()
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Invalid range: %v", err))
		return 1
	}
	c.logger.Debugf("analyze: position range %v, time range %v", filter.Position, filter.Time)

	m, err := metrics.Setup(conf.Metric, c.logger)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error initializing metric: %s", err))
		return 1
	}

	code := c.analyze(conf, filter)
	if err := m.Export(); err != nil {
		c.Ui.Warn(fmt.Sprintf("Metrics were not exported: %v", err))
	}
	return code
}

func (c *AnalyzeCommand) analyze(conf *config.Config, filter *binlog.RangeFilter) int {
	f, err := os.Open(conf.File)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error opening binlog: %s", err))
		return 1
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error opening binlog: %s", err))
		return 1
	}
	if fi.IsDir() {
		c.Ui.Error(fmt.Sprintf("Error opening binlog: %s is a directory", conf.File))
		return 1
	}

	collector := report.NewCollector()
	sink, closeSink, err := c.sink(conf, collector)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error opening JSON output: %s", err))
		return 1
	}

	c.logger.Infof("analyze: parsing %s", conf.File)
	parser := binlog.NewParser(f, fi.Size(), filter, c.logger)

	var prog *progress
	if c.ProgressOut != nil && !conf.NoProgress {
		prog = newProgress(c.ProgressOut, parser, progressInterval)
		prog.start()
	}
	summary, parseErr := parser.Parse(sink)
	if prog != nil {
		prog.stop(parseErr == nil)
	}
	if err := closeSink(); err != nil {
		c.logger.Errorf("analyze: closing JSON output: %v", err)
	}

	if parseErr != nil {
		c.logger.Errorf("analyze: %v", parseErr)
		c.Ui.Error(fmt.Sprintf("Error parsing %s: %v", conf.File, parseErr))
		if summary == nil {
			return 1
		}
		c.Ui.Warn("The report below only covers the events before the error.")
	}
	c.logSummary(summary, collector)

	if conf.JSONOutput != "-" {
		var buf bytes.Buffer
		renderer := report.NewRenderer(conf.Top, conf.NoColor)
		if err := renderer.Render(&buf, collector); err != nil {
			c.Ui.Error(fmt.Sprintf("Error rendering report: %s", err))
			return 1
		}
		c.Ui.Output(buf.String())
	}

	if parseErr != nil {
		return 1
	}
	return 0
}

// sink tees records to a JSON lines writer when one is configured.
func (c *AnalyzeCommand) sink(conf *config.Config, collector *report.Collector) (binlog.Sink, func() error, error) {
	noop := func() error { return nil }
	switch conf.JSONOutput {
	case "":
		return collector, noop, nil
	case "-":
		return report.Tee{collector, report.NewJSONWriter(os.Stdout)}, noop, nil
	}
	f, err := os.Create(conf.JSONOutput)
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasSuffix(conf.JSONOutput, ".sz") {
		return report.Tee{collector, report.NewJSONWriter(f)}, f.Close, nil
	}

	// snappy framed stream
	sw := snappy.NewBufferedWriter(f)
	closer := func() error {
		if err := sw.Close(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return report.Tee{collector, report.NewJSONWriter(sw)}, closer, nil
}

func (c *AnalyzeCommand) logSummary(s *binlog.Summary, collector *report.Collector) {
	if s.ServerVersion != "" {
		start := time.Unix(int64(s.FirstTimestamp), 0).Format(report.TimeLayout)
		end := time.Unix(int64(s.LastTimestamp), 0).Format(report.TimeLayout)
		var span int64
		if s.LastTimestamp > s.FirstTimestamp {
			span = int64(s.LastTimestamp - s.FirstTimestamp)
		}
		c.logger.Infof("analyze: binlog time range: [%s] <--> [%s], %ds", start, end, span)
	}
	c.logger.Infof("analyze: %d events, %d transactions, %d row events; %d transactions and %d row events in range",
		s.Events, s.Transactions, s.Mutations, len(collector.Transactions), collector.Mutations)
	if s.GtidSet != nil && s.GtidSet.String() != "" {
		c.logger.Infof("analyze: gtid set: %s", s.GtidSet.String())
	}
}

func (c *AnalyzeCommand) Synopsis() string {
	return "Analyze a MySQL binlog file"
}

func (c *AnalyzeCommand) Help() string {
	helpText := `
Usage: binlogstat analyze [options] [<binlog file>]

  Reads one MySQL v4 binlog file (row based, MySQL 5.6 and later) and
  reports the largest and longest transactions and the tables producing
  the most row events.

Options:

  -config=<path>
    An HCL config file. May be given several times; later files are
    merged over earlier ones and command line options over all of them.

  -file, -f=<path>
    The binlog file to analyze. May also be given as the only argument.

  -top, -t=<n>
    Rows printed per report section. Defaults to 20.

  -start-position, -sp=<offset>
  -end-position, -ep=<offset>
    Only report transactions ending and row events starting within
    these file offsets (inclusive).

  -start-datetime, -sd=<time>
  -end-datetime, -ed=<time>
    Only report records with a timestamp in this range (inclusive).
    Either unix seconds or "2006-01-02 15:04:05" in local time.

  -json=<path>
    Also write every reported transaction and row event as a JSON line.
    "-" writes them to stdout instead of the text report. A path ending
    in .sz is written as a snappy framed stream.

  -log-level=<level>
    One of debug, info, warn, error. Defaults to info.

  -log-file=<path>
    Append logs to this file instead of stderr.

  -no-color
    Disable colored output.

  -no-progress
    Do not draw the progress bar.
`
	return strings.TrimSpace(helpText)
}
