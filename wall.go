package camwall

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/gogpu/camwall/backend"
	"github.com/gogpu/camwall/frame"
	"github.com/gogpu/camwall/internal/queue"
	"github.com/gogpu/camwall/render"
)

// Wall composites N camera streams into one atlas and renders it.
//
// Setup (New) fixes the layout, creates the atlas and compiles the
// compositor pipeline. Sources are attached per stream id; Run starts one
// writer goroutine per attached stream and the render loop, and blocks until
// ctx is done.
//
// Every device call runs on a single execution queue in issue order. Writers
// only touch their own cell, the render loop only samples, and no locks
// guard the atlas.
type Wall struct {
	layout *Layout
	dev    backend.Device
	opts   options
	q      *queue.Queue
	loop   *render.Loop

	atlas    backend.Image
	pipeline backend.Pipeline

	mu       sync.Mutex
	writers  []*Writer
	surfaces []backend.Surface
	runCtx   context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  bool
	closed   bool
}

// New sets up a wall on dev.
//
// A nil device or a device that cannot create the atlas or the pipeline
// yields ErrCapabilityUnavailable. An atlas whose size differs from the
// layout yields ErrAtlasSizeMismatch. Either way nothing is rendered and
// every object created so far is released.
func New(dev backend.Device, cfg Config, opts ...Option) (*Wall, error) {
	layout, err := NewLayout(cfg)
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, fmt.Errorf("%w: no GPU device", ErrCapabilityUnavailable)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !o.formatSet {
		o.targetFormat = backend.FormatRGBA8
		if sf, ok := dev.(interface{ SurfaceFormat() backend.Format }); ok {
			o.targetFormat = sf.SurfaceFormat()
		}
	}

	w := &Wall{
		layout:  layout,
		dev:     dev,
		opts:    o,
		q:       queue.New(o.queueDepth),
		writers: make([]*Writer, layout.Streams()),
	}
	w.loop = render.NewLoop()
	trackDevice(dev)

	if err := w.setup(); err != nil {
		w.Close()
		return nil, err
	}

	aw, ah := layout.AtlasSize()
	Logger().Info("wall created",
		"backend", dev.Name(),
		"streams", layout.Streams(),
		"cells_per_row", layout.CellsPerRow(),
		"atlas", fmt.Sprintf("%dx%d", aw, ah),
		"target", o.targetFormat)
	return w, nil
}

// NewWithBackend opens the named backend and sets up a wall on it. An empty
// name selects the default backend. The wall owns the device.
func NewWithBackend(name string, cfg Config, opts ...Option) (*Wall, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var (
		dev backend.Device
		err error
	)
	if name == "" {
		dev, err = backend.Default()
	} else {
		dev, err = backend.Open(name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCapabilityUnavailable, err)
	}
	w, err := New(dev, cfg, append(opts, WithOwnedDevice())...)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return w, nil
}

func (w *Wall) setup() error {
	aw, ah := w.layout.AtlasSize()
	return w.q.Do(context.Background(), func() error {
		atlas, err := w.dev.CreateImage(backend.ImageDescriptor{
			Label:  "camwall_atlas",
			Width:  aw,
			Height: ah,
			Format: backend.FormatRGBA8,
		})
		if err != nil {
			return fmt.Errorf("%w: create atlas: %w", ErrCapabilityUnavailable, err)
		}
		w.atlas = atlas
		if err := w.layout.CheckAtlas(atlas.Width(), atlas.Height()); err != nil {
			return err
		}

		p, err := w.dev.CreatePipeline(backend.PipelineDescriptor{
			Label:        "camwall_compositor",
			Atlas:        atlas,
			Filter:       backend.FilterLinear,
			TargetFormat: w.opts.targetFormat,
		})
		if err != nil {
			return fmt.Errorf("%w: create pipeline: %w", ErrCapabilityUnavailable, err)
		}
		w.pipeline = p
		return nil
	})
}

// Layout returns the wall layout.
func (w *Wall) Layout() *Layout { return w.layout }

// Device returns the device the wall renders with.
func (w *Wall) Device() backend.Device { return w.dev }

// TargetFormat returns the display format the pipeline renders to.
func (w *Wall) TargetFormat() backend.Format { return w.opts.targetFormat }

// Attach assigns src to stream id. If the wall is running, the writer starts
// immediately. A stream attached while Run is stopping starts on the next
// Run.
func (w *Wall) Attach(id int, src frame.Source) error {
	region, err := w.layout.Region(id)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWallClosed
	}
	if w.writers[id] != nil {
		return fmt.Errorf("%w: %d", ErrStreamAttached, id)
	}
	wr := newWriter(w, id, region, src)
	w.writers[id] = wr
	if w.running && w.runCtx.Err() == nil {
		w.startWriter(wr)
	}
	return nil
}

// AttachAll attaches srcs[i] to stream i.
func (w *Wall) AttachAll(srcs []frame.Source) error {
	if len(srcs) > w.layout.Streams() {
		return fmt.Errorf("%w: %d sources for %d streams", ErrUnknownStream, len(srcs), w.layout.Streams())
	}
	for id, src := range srcs {
		if err := w.Attach(id, src); err != nil {
			return err
		}
	}
	return nil
}

// AcquireStreams asks acq for one source per stream, sized to the cells,
// and attaches them. A failing acquirer yields ErrCapabilityUnavailable.
func (w *Wall) AcquireStreams(ctx context.Context, acq frame.Acquirer, fps float64) error {
	cfg := w.layout.Config()
	srcs, err := acq.Acquire(ctx, frame.StreamConfig{
		Width:  cfg.CellWidth,
		Height: cfg.CellHeight,
		Audio:  false,
		FPS:    fps,
	}, cfg.Streams)
	if err != nil {
		return fmt.Errorf("%w: acquire streams: %w", ErrCapabilityUnavailable, err)
	}
	if len(srcs) != cfg.Streams {
		return fmt.Errorf("%w: acquirer granted %d of %d streams",
			ErrCapabilityUnavailable, len(srcs), cfg.Streams)
	}
	return w.AttachAll(srcs)
}

// CreateSurface creates an offscreen display surface in the wall's target
// format. The wall releases it on Close.
func (w *Wall) CreateSurface(width, height int) (backend.Surface, error) {
	var s backend.Surface
	err := w.q.Do(context.Background(), func() error {
		var err error
		s, err = w.dev.CreateSurface(backend.SurfaceDescriptor{
			Label:  "camwall_display",
			Width:  width,
			Height: height,
			Format: w.opts.targetFormat,
		})
		return err
	})
	if errors.Is(err, queue.ErrClosed) {
		return nil, ErrWallClosed
	}
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		s.Release()
		return nil, ErrWallClosed
	}
	w.surfaces = append(w.surfaces, s)
	return s, nil
}

// Run starts the writers and renders to surface once per refresh until ctx
// is done. It returns ctx.Err() or the refresh error. Run may be called
// again after it returns; writers whose source ended stay stopped.
func (w *Wall) Run(ctx context.Context, surface backend.Surface, refresh render.Refresh) error {
	if surface == nil || refresh == nil {
		return fmt.Errorf("%w: nil surface or refresh", ErrCapabilityUnavailable)
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWallClosed
	}
	if w.running {
		w.mu.Unlock()
		return ErrWallRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.runCtx, w.cancel, w.running = runCtx, cancel, true
	for _, wr := range w.writers {
		if wr != nil && !wr.ended.Load() {
			w.startWriter(wr)
		}
	}
	w.mu.Unlock()

	Logger().Info("wall started", "streams", w.layout.Streams())
	err := w.loop.Run(runCtx, refresh, w.tickFunc(surface))

	// Attach checks runCtx under mu, so no writer is added once Wait begins.
	w.mu.Lock()
	cancel()
	w.mu.Unlock()
	w.wg.Wait()

	w.mu.Lock()
	w.running, w.runCtx, w.cancel = false, nil, nil
	w.mu.Unlock()
	Logger().Info("wall stopped", "err", err)
	return err
}

// startWriter must be called with w.mu held and w.runCtx live.
func (w *Wall) startWriter(wr *Writer) {
	ctx := w.runCtx
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		_ = wr.Run(ctx)
	}()
}

// Tick renders one frame to surface outside the refresh schedule.
func (w *Wall) Tick(ctx context.Context, surface backend.Surface) error {
	return w.loop.Tick(ctx, w.tickFunc(surface))
}

func (w *Wall) tickFunc(surface backend.Surface) render.TickFunc {
	return func(ctx context.Context) error {
		err := w.q.Do(ctx, func() error {
			return render.DrawFrame(w.dev, surface, w.pipeline, w.opts.clear)
		})
		if errors.Is(err, queue.ErrClosed) {
			return ErrWallClosed
		}
		return err
	}
}

// WriteFrame copies f into the cell of stream id, fitting it like a writer
// would, and releases f. It is safe to call concurrently with Run, but
// writes to a stream that also has a running writer interleave with it.
func (w *Wall) WriteFrame(ctx context.Context, id int, f *frame.Frame) error {
	defer f.Release()
	region, err := w.layout.Region(id)
	if err != nil {
		return err
	}
	rs := newResampler(region.Extent(), w.opts.policy, w.opts.filter)
	img, err := rs.fit(f)
	if err != nil {
		return err
	}
	return w.copyRegion(ctx, region.Origin(), img)
}

// copyRegion copies img into the atlas at origin. ctx only bounds queueing;
// once the copy is queued it returns after the copy ran, so img may be
// reused or released as soon as copyRegion returns.
func (w *Wall) copyRegion(ctx context.Context, origin image.Point, img *image.RGBA) error {
	err := w.q.Commit(ctx, func() error {
		return w.dev.CopyRegionIntoImage(w.atlas, origin, img)
	})
	if errors.Is(err, queue.ErrClosed) {
		return ErrWallClosed
	}
	return err
}

// Snapshot reads back the last image presented to surface. The surface must
// implement backend.Snapshotter.
func (w *Wall) Snapshot(ctx context.Context, surface backend.Surface) (*image.RGBA, error) {
	snap, ok := surface.(backend.Snapshotter)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrSnapshotUnsupported, surface)
	}
	var img *image.RGBA
	err := w.q.Do(ctx, func() error {
		var err error
		img, err = snap.Snapshot()
		return err
	})
	if errors.Is(err, queue.ErrClosed) {
		return nil, ErrWallClosed
	}
	return img, err
}

// Stats returns per-stream and render counters.
func (w *Wall) Stats() Stats {
	w.mu.Lock()
	writers := slices.Clone(w.writers)
	w.mu.Unlock()

	s := Stats{Streams: make([]StreamStats, len(writers))}
	for id, wr := range writers {
		if wr == nil {
			region, _ := w.layout.Region(id)
			s.Streams[id] = StreamStats{ID: id, Region: region}
			continue
		}
		s.Streams[id] = wr.Stats()
	}
	s.Render = w.loop.Stats()
	qs := w.q.Stats()
	s.Commands, s.CommandErrors = qs.Executed, qs.Failed
	return s
}

// Close stops a running wall and releases surfaces, the pipeline and the
// atlas in reverse creation order. It closes the device only if the wall
// owns it. Close is idempotent.
func (w *Wall) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	if w.cancel != nil {
		w.cancel()
	}
	surfaces := w.surfaces
	w.surfaces = nil
	w.mu.Unlock()
	w.wg.Wait()

	_ = w.q.Do(context.Background(), func() error {
		for _, s := range slices.Backward(surfaces) {
			s.Release()
		}
		if w.pipeline != nil {
			w.dev.DestroyPipeline(w.pipeline)
			w.pipeline = nil
		}
		if w.atlas != nil {
			w.dev.DestroyImage(w.atlas)
			w.atlas = nil
		}
		if w.opts.ownDevice {
			w.dev.Close()
		}
		return nil
	})
	w.q.Close()
	untrackDevice(w.dev)
	Logger().Info("wall closed")
}
