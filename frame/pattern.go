// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PatternConfig configures a synthetic camera.
type PatternConfig struct {
	// Stream is the stream id drawn into the label and used to pick the
	// background color.
	Stream int

	// Width and Height are the frame dimensions.
	Width, Height int

	// FPS paces Next. Zero or negative yields frames as fast as they are
	// pulled.
	FPS float64

	// Frames limits the stream length. Zero means unlimited.
	Frames int

	// Label overrides the default "CAM nn" label.
	Label string
}

// Pattern is a synthetic camera that renders a labelled test pattern: a
// stream-colored background, a sweeping bar and the frame number.
type Pattern struct {
	cfg    PatternConfig
	bg     color.RGBA
	seq    uint64
	ticker *time.Ticker
}

// NewPattern returns a synthetic camera source.
func NewPattern(cfg PatternConfig) *Pattern {
	if cfg.Label == "" {
		cfg.Label = fmt.Sprintf("CAM %02d", cfg.Stream)
	}
	p := &Pattern{cfg: cfg, bg: StreamColor(cfg.Stream)}
	if cfg.FPS > 0 {
		p.ticker = time.NewTicker(time.Duration(float64(time.Second) / cfg.FPS))
	}
	return p
}

// Next renders and returns the next pattern frame.
func (p *Pattern) Next(ctx context.Context) (*Frame, error) {
	if p.cfg.Frames > 0 && p.seq >= uint64(p.cfg.Frames) {
		p.Stop()
		return nil, ErrEnded
	}
	if p.ticker != nil {
		select {
		case <-p.ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.seq++
	f := p.render(p.seq)
	f.Seq = p.seq
	f.Timestamp = time.Now()
	return f, nil
}

// Stop releases the pacing ticker.
func (p *Pattern) Stop() {
	if p.ticker != nil {
		p.ticker.Stop()
	}
}

func (p *Pattern) render(seq uint64) *Frame {
	w, h := p.cfg.Width, p.cfg.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(p.bg), image.Point{}, draw.Src)

	if w > 0 {
		barW := max(w/16, 1)
		x := int(seq*4) % w
		bar := image.Rect(x, 0, x+barW, h).Intersect(img.Bounds())
		draw.Draw(img, bar, image.White, image.Point{}, draw.Src)
	}

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(4, face.Ascent+4),
	}
	d.DrawString(p.cfg.Label)
	d.Dot = fixed.P(4, face.Ascent+face.Height+6)
	d.DrawString(fmt.Sprintf("#%d", seq))

	return FromImage(img)
}

// StreamColor returns a stable, saturated background color for a stream id.
func StreamColor(id int) color.RGBA {
	palette := [...]color.RGBA{
		{R: 0xe6, G: 0x19, B: 0x4b, A: 0xff},
		{R: 0x3c, G: 0xb4, B: 0x4b, A: 0xff},
		{R: 0xff, G: 0xe1, B: 0x19, A: 0xff},
		{R: 0x43, G: 0x63, B: 0xd8, A: 0xff},
		{R: 0xf5, G: 0x82, B: 0x31, A: 0xff},
		{R: 0x91, G: 0x1e, B: 0xb4, A: 0xff},
		{R: 0x42, G: 0xd4, B: 0xf4, A: 0xff},
		{R: 0xf0, G: 0x32, B: 0xe6, A: 0xff},
		{R: 0xbf, G: 0xef, B: 0x45, A: 0xff},
		{R: 0x46, G: 0x99, B: 0x90, A: 0xff},
	}
	if id < 0 {
		id = -id
	}
	return palette[id%len(palette)]
}
