package camwall

import (
	"fmt"
	"image"
)

// Default grid settings. They match the 25-camera demo wall.
const (
	// DefaultStreams is the number of camera streams on the wall.
	DefaultStreams = 25

	// DefaultCellsPerRow is the number of cells in one atlas row.
	DefaultCellsPerRow = 5

	// DefaultCellWidth is the per-cell width in atlas pixels.
	DefaultCellWidth = 320

	// DefaultCellHeight is the per-cell height in atlas pixels.
	DefaultCellHeight = 240
)

// Config describes the fixed grid of the wall. It is decided once at startup
// and never renegotiated.
type Config struct {
	// Streams is the number of streams N. Stream ids are 0..N-1.
	Streams int

	// CellsPerRow is the number of cells in one atlas row.
	CellsPerRow int

	// CellWidth is the width of every cell in pixels.
	CellWidth int

	// CellHeight is the height of every cell in pixels.
	CellHeight int
}

// DefaultConfig returns the 25-stream, 5-per-row, 320x240 configuration.
func DefaultConfig() Config {
	return Config{
		Streams:     DefaultStreams,
		CellsPerRow: DefaultCellsPerRow,
		CellWidth:   DefaultCellWidth,
		CellHeight:  DefaultCellHeight,
	}
}

// Validate reports whether the configuration can produce a layout.
func (c Config) Validate() error {
	switch {
	case c.Streams <= 0:
		return fmt.Errorf("%w: streams must be positive, got %d", ErrInvalidLayout, c.Streams)
	case c.CellsPerRow <= 0:
		return fmt.Errorf("%w: cells per row must be positive, got %d", ErrInvalidLayout, c.CellsPerRow)
	case c.CellWidth <= 0 || c.CellHeight <= 0:
		return fmt.Errorf("%w: invalid cell extent %dx%d", ErrInvalidLayout, c.CellWidth, c.CellHeight)
	}
	return nil
}

// CellRegion is the rectangle of the atlas owned by one stream.
// It is computed once at setup and never changes.
type CellRegion struct {
	// X is the left edge in atlas pixels.
	X int
	// Y is the top edge in atlas pixels.
	Y int
	// Width is the cell width.
	Width int
	// Height is the cell height.
	Height int
}

// Origin returns the top-left corner of the region.
func (r CellRegion) Origin() image.Point {
	return image.Pt(r.X, r.Y)
}

// Extent returns the size of the region.
func (r CellRegion) Extent() image.Point {
	return image.Pt(r.Width, r.Height)
}

// Rect returns the region as an image.Rectangle.
func (r CellRegion) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Contains returns true if the point (x, y) is inside the region.
func (r CellRegion) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Overlaps returns true if the two regions share at least one pixel.
func (r CellRegion) Overlaps(o CellRegion) bool {
	return r.Rect().Overlaps(o.Rect())
}

// String returns a string representation of the region.
func (r CellRegion) String() string {
	return fmt.Sprintf("Cell(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// Layout maps stream ids to cells of the atlas.
//
// A stream id maps to grid column id mod CellsPerRow and grid row
// id div CellsPerRow. The atlas has CellsPerRow columns and
// ceil(Streams / CellsPerRow) rows; its size is derived from the grid and
// nothing else.
//
// Layout is immutable and safe for concurrent use.
type Layout struct {
	cfg     Config
	rows    int
	regions []CellRegion
}

// NewLayout validates cfg and computes every cell region.
//
// A grid never has more columns than streams: CellsPerRow is clamped to
// Streams, so a single stream owns the whole atlas.
func NewLayout(cfg Config) (*Layout, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.CellsPerRow = min(cfg.CellsPerRow, cfg.Streams)

	rows := (cfg.Streams + cfg.CellsPerRow - 1) / cfg.CellsPerRow
	l := &Layout{
		cfg:     cfg,
		rows:    rows,
		regions: make([]CellRegion, cfg.Streams),
	}

	for id := range cfg.Streams {
		col, row := l.Grid(id)
		l.regions[id] = CellRegion{
			X:      col * cfg.CellWidth,
			Y:      row * cfg.CellHeight,
			Width:  cfg.CellWidth,
			Height: cfg.CellHeight,
		}
	}

	return l, nil
}

// MustLayout is like NewLayout but panics on an invalid configuration.
func MustLayout(cfg Config) *Layout {
	l, err := NewLayout(cfg)
	if err != nil {
		panic(err)
	}
	return l
}

// Config returns the configuration the layout was built from, with
// CellsPerRow clamped to Streams.
func (l *Layout) Config() Config {
	return l.cfg
}

// Streams returns the number of streams N.
func (l *Layout) Streams() int {
	return l.cfg.Streams
}

// CellsPerRow returns the number of grid columns.
func (l *Layout) CellsPerRow() int {
	return l.cfg.CellsPerRow
}

// Rows returns the number of grid rows, ceil(N / CellsPerRow).
func (l *Layout) Rows() int {
	return l.rows
}

// Grid returns the grid column and row of a stream id. It does not check
// the id range.
func (l *Layout) Grid(id int) (col, row int) {
	return id % l.cfg.CellsPerRow, id / l.cfg.CellsPerRow
}

// Region returns the cell owned by stream id.
func (l *Layout) Region(id int) (CellRegion, error) {
	if id < 0 || id >= len(l.regions) {
		return CellRegion{}, fmt.Errorf("%w: %d not in [0, %d)", ErrUnknownStream, id, len(l.regions))
	}
	return l.regions[id], nil
}

// Regions returns a copy of all cell regions indexed by stream id.
func (l *Layout) Regions() []CellRegion {
	out := make([]CellRegion, len(l.regions))
	copy(out, l.regions)
	return out
}

// AtlasSize returns the atlas dimensions:
// CellsPerRow*CellWidth by Rows*CellHeight.
func (l *Layout) AtlasSize() (width, height int) {
	return l.cfg.CellsPerRow * l.cfg.CellWidth, l.rows * l.cfg.CellHeight
}

// Bounds returns the atlas rectangle anchored at the origin.
func (l *Layout) Bounds() image.Rectangle {
	w, h := l.AtlasSize()
	return image.Rect(0, 0, w, h)
}

// CheckAtlas verifies that an atlas of the given size matches the layout
// exactly. Any mismatch is a setup failure.
func (l *Layout) CheckAtlas(width, height int) error {
	w, h := l.AtlasSize()
	if width != w || height != h {
		return fmt.Errorf("%w: atlas is %dx%d, layout needs %dx%d",
			ErrAtlasSizeMismatch, width, height, w, h)
	}
	return nil
}
