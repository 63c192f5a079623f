package main

import (
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/sarmap/go-s1isp/isp"
)

var cli struct {
	Args struct {
		Filename string
	} `positional-args:"yes" required:"yes"`
	LogLevel     string `short:"l" long:"log-level" description:"logging level" choice:"error" choice:"info" choice:"debug" choice:"trace" default:"info"`
	Skip         int    `long:"skip" description:"number of ISPs to skip at the beginning of the file"`
	MaxCount     int    `long:"maxcount" description:"maximum number of ISPs to decode"`
	BytesOffset  int64  `long:"bytes-offset" description:"number of bytes to skip at the beginning of the file"`
	Data         string `long:"data" description:"user data field handling" choice:"none" choice:"extract" choice:"decode" default:"none"`
	OutputFormat string `long:"output-format" description:"output format for the header dump" choice:"csv" choice:"json" choice:"ndjson" default:"csv"`
	EnumValue    bool   `long:"enum-value" description:"dump enum numeric values instead of symbolic names"`
	Force        bool   `long:"force" description:"overwrite the output file if it already exists"`
	Outfile      string `short:"o" long:"outfile" description:"output file name (default: input basename with the format extension)"`
	NoProgress   bool   `long:"no-progress" description:"disable the progress bar"`
	Resync       bool   `long:"resync" description:"scan for the next sync marker after a framing error instead of stopping"`
}

const (
	exitOK = 0
	// I/O failures and unexpected errors
	exitFailure = 1
	// invalid packet with no recovery
	exitInvalidPacket = 2
	exitInterrupt     = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	if _, err := flags.Parse(&cli); err != nil {
		return exitFailure
	}

	errorLevels := map[string]logrus.Level{
		"error": logrus.ErrorLevel,
		"info":  logrus.InfoLevel,
		"debug": logrus.DebugLevel,
		"trace": logrus.TraceLevel,
	}
	logrus.SetLevel(errorLevels[cli.LogLevel])

	outfile := cli.Outfile
	if outfile == "" {
		base := filepath.Base(cli.Args.Filename)
		outfile = strings.TrimSuffix(base, filepath.Ext(base)) + "." + cli.OutputFormat
	}
	if !cli.Force {
		if _, err := os.Stat(outfile); err == nil {
			logrus.Errorf("output file already exists: %s (use --force to overwrite)", outfile)
			return exitFailure
		}
	}

	udfMode, err := isp.ParseUDFMode(cli.Data)
	if err != nil {
		logrus.Error(err)
		return exitFailure
	}

	// cooperative cancellation on interrupt, checked once per packet
	var cancelled int32
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	go func() {
		<-sigs
		atomic.StoreInt32(&cancelled, 1)
	}()

	opts := isp.Options{
		Skip:        cli.Skip,
		MaxCount:    cli.MaxCount,
		BytesOffset: cli.BytesOffset,
		UDFMode:     udfMode,
		Resync:      cli.Resync,
		Cancel:      func() bool { return atomic.LoadInt32(&cancelled) == 1 },
	}

	var bar *pb.ProgressBar
	if !cli.NoProgress {
		if info, err := os.Stat(cli.Args.Filename); err == nil {
			bar = pb.Full.Start64(info.Size())
			bar.Set(pb.Bytes, true)
			bar.SetRefreshRate(200 * time.Millisecond)
			opts.Progress = func(packetBytes int) { bar.Add(packetBytes) }
		}
	}

	logrus.Info(color.CyanString("decoding %s", cli.Args.Filename))
	t0 := time.Now()
	records, offsets, subcom, decErr := isp.DecodeStream(cli.Args.Filename, opts)
	if bar != nil {
		bar.Finish()
	}
	logrus.Infof("decoded %s packets in %s",
		color.CyanString("%d", len(records)), time.Since(t0).Round(time.Millisecond))

	if decErr != nil {
		logrus.Errorf("decoding stopped: %v", decErr)
	}

	if len(records) > 0 {
		if err := writeRecords(records, offsets, subcom, outfile, cli.OutputFormat, cli.EnumValue); err != nil {
			logrus.Errorf("writing %s: %v", outfile, err)
			return exitFailure
		}
		logrus.Infof("records written to %s", color.CyanString(outfile))
	}

	if atomic.LoadInt32(&cancelled) == 1 {
		logrus.Warn("interrupted")
		return exitInterrupt
	}
	if decErr != nil {
		var invalid *isp.InvalidPacketError
		if errors.As(decErr, &invalid) || errors.Is(decErr, isp.ErrNoSync) {
			return exitInvalidPacket
		}
		return exitFailure
	}

	failed := 0
	for i := range records {
		if records[i].Err != nil {
			failed++
		}
	}
	if failed > 0 {
		logrus.Warnf("%d of %d packets carried decode errors", failed, len(records))
	}
	return exitOK
}
