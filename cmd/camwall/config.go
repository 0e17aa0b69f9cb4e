package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gogpu/camwall"
	"github.com/pelletier/go-toml/v2"
)

// settings holds everything the demo can be configured with. Field tags
// name the keys of the TOML config file.
type settings struct {
	Streams  int     `toml:"streams"`
	PerRow   int     `toml:"per_row"`
	Cell     string  `toml:"cell"`
	FPS      float64 `toml:"fps"`
	Hz       float64 `toml:"hz"`
	Duration string  `toml:"duration"`
	Display  string  `toml:"display"`
	Backend  string  `toml:"backend"`
	Out      string  `toml:"out"`
	Shared   bool    `toml:"shared"`
	Frames   int     `toml:"frames"`
	Resample string  `toml:"resample"`
	Filter   string  `toml:"filter"`
	Verbose  bool    `toml:"verbose"`
}

func defaultSettings() settings {
	return settings{
		Streams:  camwall.DefaultStreams,
		PerRow:   camwall.DefaultCellsPerRow,
		Cell:     fmt.Sprintf("%dx%d", camwall.DefaultCellWidth, camwall.DefaultCellHeight),
		FPS:      30,
		Hz:       60,
		Duration: "3s",
		Display:  "1600x1200",
		Resample: camwall.ResampleScale.String(),
		Filter:   camwall.FilterApproxBiLinear.String(),
	}
}

// parseArgs reads flags and the optional config file. Flags given on the
// command line override file values; file values override defaults.
func parseArgs(args []string, output io.Writer) (settings, error) {
	s := defaultSettings()
	var configPath string

	fs := flag.NewFlagSet("camwall", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&s.Streams, "streams", s.Streams, "number of camera streams")
	fs.IntVar(&s.PerRow, "per-row", s.PerRow, "cells per atlas row")
	fs.StringVar(&s.Cell, "cell", s.Cell, "cell size WxH")
	fs.Float64Var(&s.FPS, "fps", s.FPS, "capture rate per stream (0 = as fast as possible)")
	fs.Float64Var(&s.Hz, "hz", s.Hz, "display refresh rate")
	fs.StringVar(&s.Duration, "duration", s.Duration, "how long to run (0 = until interrupted)")
	fs.StringVar(&s.Display, "display", s.Display, "display size WxH")
	fs.StringVar(&s.Backend, "backend", s.Backend, "backend: wgpu, wgpu-noop, software (empty = best available)")
	fs.StringVar(&s.Out, "out", s.Out, "write a PNG snapshot of the display on exit")
	fs.BoolVar(&s.Shared, "shared", s.Shared, "fan one camera out to every cell")
	fs.IntVar(&s.Frames, "frames", s.Frames, "frames per stream (0 = unlimited)")
	fs.StringVar(&s.Resample, "resample", s.Resample, "mismatched frames: scale or reject")
	fs.StringVar(&s.Filter, "filter", s.Filter, "scaling filter: approx-bilinear, bilinear, catmull-rom, nearest")
	fs.BoolVar(&s.Verbose, "v", s.Verbose, "debug logging")
	fs.StringVar(&configPath, "config", "", "TOML config file")
	if err := fs.Parse(args); err != nil {
		return settings{}, err
	}
	if configPath == "" {
		return s, nil
	}

	file, err := loadConfig(configPath)
	if err != nil {
		return settings{}, err
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return mergeSettings(file, s, set), nil
}

// loadConfig decodes a TOML file over the defaults. Unknown keys are errors.
func loadConfig(path string) (settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return settings{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return decodeConfig(f)
}

func decodeConfig(r io.Reader) (settings, error) {
	s := defaultSettings()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return settings{}, fmt.Errorf("config: %s", strict.String())
		}
		return settings{}, fmt.Errorf("config: %w", err)
	}
	return s, nil
}

// mergeSettings returns file with the flags named in set taken from flags.
func mergeSettings(file, flags settings, set map[string]bool) settings {
	out := file
	pick := func(name string, apply func()) {
		if set[name] {
			apply()
		}
	}
	pick("streams", func() { out.Streams = flags.Streams })
	pick("per-row", func() { out.PerRow = flags.PerRow })
	pick("cell", func() { out.Cell = flags.Cell })
	pick("fps", func() { out.FPS = flags.FPS })
	pick("hz", func() { out.Hz = flags.Hz })
	pick("duration", func() { out.Duration = flags.Duration })
	pick("display", func() { out.Display = flags.Display })
	pick("backend", func() { out.Backend = flags.Backend })
	pick("out", func() { out.Out = flags.Out })
	pick("shared", func() { out.Shared = flags.Shared })
	pick("frames", func() { out.Frames = flags.Frames })
	pick("resample", func() { out.Resample = flags.Resample })
	pick("filter", func() { out.Filter = flags.Filter })
	pick("v", func() { out.Verbose = flags.Verbose })
	return out
}

// wallConfig converts the settings into a grid configuration and options.
func (s settings) wallConfig() (camwall.Config, []camwall.Option, error) {
	cw, ch, err := parseSize(s.Cell)
	if err != nil {
		return camwall.Config{}, nil, fmt.Errorf("cell: %w", err)
	}
	cfg := camwall.Config{
		Streams:     s.Streams,
		CellsPerRow: s.PerRow,
		CellWidth:   cw,
		CellHeight:  ch,
	}
	if err := cfg.Validate(); err != nil {
		return camwall.Config{}, nil, err
	}

	var policy camwall.ResamplePolicy
	switch s.Resample {
	case camwall.ResampleScale.String():
		policy = camwall.ResampleScale
	case camwall.ResampleReject.String():
		policy = camwall.ResampleReject
	default:
		return camwall.Config{}, nil, fmt.Errorf("unknown resample policy %q", s.Resample)
	}
	filter, err := camwall.ParseResampleFilter(s.Filter)
	if err != nil {
		return camwall.Config{}, nil, err
	}
	return cfg, []camwall.Option{
		camwall.WithResamplePolicy(policy),
		camwall.WithResampleFilter(filter),
	}, nil
}

func (s settings) duration() (time.Duration, error) {
	if s.Duration == "" || s.Duration == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Duration)
	if err != nil {
		return 0, fmt.Errorf("duration: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration: negative %v", d)
	}
	return d, nil
}

// parseSize parses "WxH".
func parseSize(v string) (w, h int, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(v), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q is not WxH", v)
	}
	if w, err = strconv.Atoi(ws); err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", v, err)
	}
	if h, err = strconv.Atoi(hs); err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", v, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("size %q must be positive", v)
	}
	return w, h, nil
}
