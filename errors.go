package camwall

import "errors"

// Setup and steady-state errors.
var (
	// ErrCapabilityUnavailable is returned when no GPU device or camera
	// capability can be obtained. It is fatal to the whole wall.
	ErrCapabilityUnavailable = errors.New("camwall: capability unavailable")

	// ErrInvalidLayout is returned when the grid configuration cannot
	// produce a valid set of cells.
	ErrInvalidLayout = errors.New("camwall: invalid layout")

	// ErrAtlasSizeMismatch is returned at setup when the atlas image does not
	// have exactly the size derived from the layout.
	ErrAtlasSizeMismatch = errors.New("camwall: atlas size does not match layout")

	// ErrOutOfBounds reports a copy that would leave its cell. Writers treat it
	// as a programming error and panic.
	ErrOutOfBounds = errors.New("camwall: write outside cell region")

	// ErrFrameRejected is returned by the resampler when the reject policy is
	// active and a frame does not match the cell extent.
	ErrFrameRejected = errors.New("camwall: frame size does not match cell")

	// ErrUnknownStream is returned when a stream id is outside [0, N).
	ErrUnknownStream = errors.New("camwall: unknown stream id")

	// ErrStreamAttached is returned when a source is attached twice to the
	// same stream id.
	ErrStreamAttached = errors.New("camwall: stream already has a source")

	// ErrWallClosed is returned when operating on a closed wall.
	ErrWallClosed = errors.New("camwall: wall is closed")

	// ErrWallRunning is returned when Run is called on a running wall.
	ErrWallRunning = errors.New("camwall: wall is already running")

	// ErrSnapshotUnsupported is returned by Snapshot for surfaces that
	// cannot be read back.
	ErrSnapshotUnsupported = errors.New("camwall: surface does not support snapshots")
)
