package camwall

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/camwall/backend"
	"github.com/gogpu/camwall/frame"
)

// Writer copies the frames of one stream into its cell of the atlas.
//
// Each frame is fitted to the cell extent and copied with a single command
// on the wall's execution queue, so a render tick sees the cell either
// entirely before or entirely after an update. The writer releases every
// frame it takes from its source, after handing it to the wall's forward
// hook if one is set.
type Writer struct {
	id     int
	region CellRegion
	src    frame.Source
	wall   *Wall
	rs     *resampler

	copied   atomic.Uint64
	rejected atomic.Uint64
	failed   atomic.Uint64
	ended    atomic.Bool
	lastCopy atomic.Int64

	mu  sync.Mutex
	err error
}

func newWriter(w *Wall, id int, region CellRegion, src frame.Source) *Writer {
	return &Writer{
		id:     id,
		region: region,
		src:    src,
		wall:   w,
		rs:     newResampler(region.Extent(), w.opts.policy, w.opts.filter),
	}
}

// ID returns the stream id.
func (wr *Writer) ID() int { return wr.id }

// Region returns the cell the writer owns.
func (wr *Writer) Region() CellRegion { return wr.region }

// Run copies frames until the source ends or fails, or ctx is done.
// An ended stream returns nil and leaves its cell frozen on the last frame.
func (wr *Writer) Run(ctx context.Context) error {
	log := Logger().With("stream", wr.id)
	for {
		f, err := wr.src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			wr.ended.Store(true)
			if errors.Is(err, frame.ErrEnded) {
				log.Info("stream ended", "copied", wr.copied.Load())
				return nil
			}
			wr.setErr(err)
			log.Warn("stream source failed", "err", err)
			return fmt.Errorf("stream %d: %w", wr.id, err)
		}

		seq := f.Seq
		err = wr.write(ctx, f)
		if fwd := wr.wall.opts.forward; fwd != nil && (err == nil || errors.Is(err, ErrFrameRejected)) {
			fwd(wr.id, f)
		}
		f.Release()
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, ErrFrameRejected):
			wr.rejected.Add(1)
			log.Warn("frame rejected", "seq", seq, "err", err)
		case errors.Is(err, ErrWallClosed):
			return err
		default:
			wr.failed.Add(1)
			wr.setErr(err)
			log.Warn("frame copy failed", "seq", seq, "err", err)
		}
	}
}

// write fits f to the cell and copies it into the atlas. It does not
// release f.
func (wr *Writer) write(ctx context.Context, f *frame.Frame) error {
	img, err := wr.rs.fit(f)
	if err != nil {
		return err
	}
	if !fitsRegion(wr.region, img) {
		panic(fmt.Errorf("%w: stream %d frame %v does not fit %v",
			ErrOutOfBounds, wr.id, img.Bounds().Size(), wr.region))
	}

	err = wr.wall.copyRegion(ctx, wr.region.Origin(), img)
	if errors.Is(err, backend.ErrRegionOutOfBounds) {
		panic(fmt.Errorf("%w: stream %d: %w", ErrOutOfBounds, wr.id, err))
	}
	if err != nil {
		return err
	}
	wr.copied.Add(1)
	wr.lastCopy.Store(time.Now().UnixNano())
	Logger().Debug("frame copied", "stream", wr.id, "seq", f.Seq, "cell", wr.region)
	return nil
}

func (wr *Writer) setErr(err error) {
	wr.mu.Lock()
	wr.err = err
	wr.mu.Unlock()
}

// Stats returns the writer counters.
func (wr *Writer) Stats() StreamStats {
	s := StreamStats{
		ID:       wr.id,
		Attached: true,
		Region:   wr.region,
		Copied:   wr.copied.Load(),
		Rejected: wr.rejected.Load(),
		Failed:   wr.failed.Load(),
		Ended:    wr.ended.Load(),
	}
	if d, ok := wr.src.(interface{ Dropped() uint64 }); ok {
		s.Dropped = d.Dropped()
	}
	if ns := wr.lastCopy.Load(); ns != 0 {
		s.LastCopy = time.Unix(0, ns)
	}
	wr.mu.Lock()
	s.Err = wr.err
	wr.mu.Unlock()
	return s
}

// fitsRegion reports whether img covers r exactly.
func fitsRegion(r CellRegion, img *image.RGBA) bool {
	return img.Bounds().Size() == r.Extent()
}
