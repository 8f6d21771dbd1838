/*
DESCRIPTION
  h264tool is a command-line encoder/decoder driving h264codec.Codec over
  raw 4:2:0 planar YUV input, with live parameter reload and an optional
  rate-curve diagnostic plot.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package h264tool is a command-line encoder/decoder for h264codec.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/h264codec/codec/h264/h264codec"
	"github.com/ausocean/h264codec/h264enc/ratecontrol"
	"github.com/ausocean/utils/logging"
)

// Logging configuration, matching the fixed rotation policy cmd/rv and
// cmd/looper use for their own log files.
const (
	logMaxSize   = 500 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
)

func main() {
	width := flag.Uint("width", 352, "picture width in pixels, a multiple of 16")
	height := flag.Uint("height", 288, "picture height in pixels, a multiple of 16")
	quality := flag.Int("quality", 26, "fixed QP used when -mode=open")
	mode := flag.String("mode", "open", "rate control mode: open (fixed QP) or minmax (Quality-derived target bitrate)")
	in := flag.String("in", "", "input raw 4:2:0 YUV file, or - for stdin")
	out := flag.String("out", "", "output Annex-B h264 file, or - for stdout")
	logPath := flag.String("logfile", "", "rotating log file path (disabled if empty)")
	logLevel := flag.Int("loglevel", int(logging.Info), "log verbosity, per github.com/ausocean/utils/logging levels")
	paramFile := flag.String("paramfile", "", "optional key=value parameter file, reloaded on write")
	rateCurve := flag.String("ratecurve", "", "optional PNG path to plot the (QP,bits) rate-control trace to on exit")
	flag.Parse()

	var logWriter io.Writer = os.Stderr
	if *logPath != "" {
		logWriter = &lumberjack.Logger{
			Filename:   *logPath,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackup,
			MaxAge:     logMaxAge,
		}
	}
	log := logging.New(int8(*logLevel), logWriter, true)
	log.Info("starting h264tool")

	p := h264codec.DefaultParams()
	p.Width, p.Height = *width, *height
	p.Quality = *quality
	if *mode == "minmax" {
		p.ModeOfOperation = h264codec.ModeMinMaxAdaptive
	}

	if *paramFile != "" {
		if err := applyParamFile(&p, *paramFile); err != nil {
			log.Error("reading paramfile", "error", err.Error())
			os.Exit(1)
		}
	}

	c := h264codec.NewCodec(adaptLog(log))
	if err := c.Open(p); err != nil {
		log.Error("Open", "error", err.Error())
		os.Exit(1)
	}
	defer c.Close()

	if *paramFile != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			log.Warning("paramfile watch disabled", "error", err.Error())
		} else {
			defer watcher.Close()
			if err := watcher.Add(*paramFile); err != nil {
				log.Warning("paramfile watch disabled", "error", err.Error())
			} else {
				go watchParamFile(watcher, &p, *paramFile, c, log)
			}
		}
	}

	inFile := os.Stdin
	if *in != "" && *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			log.Error("opening input", "error", err.Error())
			os.Exit(1)
		}
		defer f.Close()
		inFile = f
	}

	outFile := os.Stdout
	if *out != "" && *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			log.Error("creating output", "error", err.Error())
			os.Exit(1)
		}
		defer f.Close()
		outFile = f
	}

	frameSize := int(p.Width)*int(p.Height) + 2*(int(p.Width)/2)*(int(p.Height)/2)
	buf := make([]byte, frameSize)
	reader := bufio.NewReader(inFile)
	pictures := 0
	for {
		if _, err := io.ReadFull(reader, buf); err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF {
				log.Error("reading frame", "error", err.Error())
				os.Exit(1)
			}
			break
		}
		if ok := c.Code(buf); ok != 1 {
			log.Error("Code failed", "picture", pictures)
			os.Exit(1)
		}
		if _, err := outFile.Write(c.Bytes()); err != nil {
			log.Error("writing output", "error", err.Error())
			os.Exit(1)
		}
		pictures++
	}
	log.Info("encoding finished", "pictures", pictures)

	if *rateCurve != "" {
		if err := plotRateCurve(c.RateTrace(), *rateCurve); err != nil {
			log.Warning("ratecurve plot skipped", "error", err.Error())
		}
	}
}

// applyParamFile parses key=value lines from path and applies them to p
// via Params.Set, matching the key-value parameter update idiom
// av/revid/config.Config.Update applies to its own fields from a vars
// map, except the source here is a file instead of netsender variables.
func applyParamFile(p *h264codec.Params, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("h264tool: malformed paramfile line %q", line)
		}
		if err := p.Set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return err
		}
	}
	return nil
}

// watchParamFile reopens the codec with the paramfile's contents every
// time fsnotify reports a write, discarding the reference picture the
// same way a direct Open call does.
func watchParamFile(watcher *fsnotify.Watcher, p *h264codec.Params, path string, c *h264codec.Codec, log logging.Logger) {
	for event := range watcher.Events {
		if event.Op&fsnotify.Write == 0 {
			continue
		}
		updated := *p
		if err := applyParamFile(&updated, path); err != nil {
			log.Warning("paramfile reload skipped", "error", err.Error())
			continue
		}
		if err := c.Open(updated); err != nil {
			log.Warning("paramfile reload rejected", "error", err.Error())
			continue
		}
		*p = updated
		log.Info("paramfile reloaded", "quality", p.Quality)
	}
}

// plotRateCurve renders trace as a picture-index-against-QP line plot
// with bits overlaid on a second series, useful for checking that
// ModeMinMaxAdaptive's bisection is tracking the target bitrate rather
// than oscillating.
func plotRateCurve(trace []ratecontrol.Sample, path string) error {
	if len(trace) == 0 {
		return fmt.Errorf("h264tool: no rate-control trace to plot (ModeOpen carries no samples)")
	}

	qpPts := make(plotter.XYs, len(trace))
	bitsPts := make(plotter.XYs, len(trace))
	for i, s := range trace {
		qpPts[i] = plotter.XY{X: float64(i), Y: float64(s.QP)}
		bitsPts[i] = plotter.XY{X: float64(i), Y: float64(s.Bits)}
	}

	p := plot.New()
	p.Title.Text = "rate control trace"
	p.X.Label.Text = "picture"
	p.Y.Label.Text = "QP"

	qpLine, err := plotter.NewLine(qpPts)
	if err != nil {
		return err
	}
	p.Add(qpLine)
	p.Legend.Add("QP", qpLine)

	bitsLine, err := plotter.NewLine(bitsPts)
	if err != nil {
		return err
	}
	p.Add(bitsLine)
	p.Legend.Add("bits", bitsLine)

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

// adaptLog bridges ausocean/utils/logging's method-based Logger onto
// h264codec's single-function, level-argument logging hook, matching
// the same int8 levels codec/h264/h264dec's own logger calls log
// against (logging.Debug/Info/Warning/Error).
func adaptLog(l logging.Logger) h264codec.Log {
	return func(lvl int8, msg string, args ...interface{}) {
		switch lvl {
		case logging.Debug:
			l.Debug(msg, args...)
		case logging.Warning:
			l.Warning(msg, args...)
		case logging.Error:
			l.Error(msg, args...)
		default:
			l.Info(msg, args...)
		}
	}
}
