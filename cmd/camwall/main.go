// Command camwall renders a wall of synthetic camera streams.
//
// Every stream is written into its cell of a shared texture atlas while a
// render loop draws the atlas to an offscreen display at the refresh rate.
// On exit the display can be saved as PNG and a summary is printed.
//
// Usage:
//
//	camwall [flags]
//
// Flags:
//
//	-streams N     number of camera streams (default 25)
//	-per-row N     cells per atlas row (default 5)
//	-cell WxH      cell size (default 320x240)
//	-display WxH   display size (default 1600x1200)
//	-backend NAME  wgpu, wgpu-noop or software
//	-duration D    run time, 0 for until interrupted (default 3s)
//	-out FILE      PNG snapshot of the display
//	-config FILE   TOML file with the same keys; flags win
package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/camwall"
	"github.com/gogpu/camwall/backend"
	_ "github.com/gogpu/camwall/backend/software"
	_ "github.com/gogpu/camwall/backend/wgpu"
	"github.com/gogpu/camwall/frame"
	"github.com/gogpu/camwall/render"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "camwall: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	s, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}
	cfg, opts, err := s.wallConfig()
	if err != nil {
		return err
	}
	dw, dh, err := parseSize(s.Display)
	if err != nil {
		return fmt.Errorf("display: %w", err)
	}
	runFor, err := s.duration()
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if s.Verbose {
		level = slog.LevelDebug
	}
	camwall.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer camwall.SetLogger(nil)

	w, err := camwall.NewWithBackend(s.Backend, cfg, opts...)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if runFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runFor)
		defer cancel()
	}

	surface, err := w.CreateSurface(dw, dh)
	if err != nil {
		return fmt.Errorf("create display: %w", err)
	}
	cam := frame.PatternCamera{Shared: s.Shared, Frames: s.Frames}
	if err := w.AcquireStreams(ctx, cam, s.FPS); err != nil {
		return err
	}

	refresh := render.NewTickerRefresh(s.Hz)
	defer refresh.Stop()
	err = w.Run(ctx, surface, refresh)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}

	if s.Out != "" {
		if err := savePNG(context.Background(), w, surface, s.Out); err != nil {
			return err
		}
	}
	printSummary(stdout, w)
	return nil
}

// savePNG writes the last presented display image to path.
func savePNG(ctx context.Context, w *camwall.Wall, surface backend.Surface, path string) error {
	img, err := w.Snapshot(ctx, surface)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// printSummary writes the wall statistics with grouped digits.
func printSummary(out io.Writer, w *camwall.Wall) {
	st := w.Stats()
	p := message.NewPrinter(language.English)
	p.Fprintf(out, "backend %s, %d streams, atlas %s\n",
		w.Device().Name(), len(st.Streams), atlasSize(w))
	p.Fprintf(out, "ticks %d (failed %d), commands %d (errors %d)\n",
		st.Render.Ticks, st.Render.Failed, st.Commands, st.CommandErrors)
	p.Fprintf(out, "frames copied %d, dropped %d, streams ended %d\n",
		st.Copied(), st.Dropped(), st.Ended())
	for _, ss := range st.Streams {
		if ss.Err != nil || ss.Rejected > 0 || ss.Failed > 0 {
			p.Fprintf(out, "  stream %d: copied %d rejected %d failed %d err %v\n",
				ss.ID, ss.Copied, ss.Rejected, ss.Failed, ss.Err)
		}
	}
}

func atlasSize(w *camwall.Wall) string {
	aw, ah := w.Layout().AtlasSize()
	return fmt.Sprintf("%dx%d", aw, ah)
}
