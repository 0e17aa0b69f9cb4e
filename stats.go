package camwall

import (
	"time"

	"github.com/gogpu/camwall/render"
)

// StreamStats describes one stream of the wall.
type StreamStats struct {
	ID       int
	Attached bool
	Region   CellRegion

	// Copied counts frames written into the atlas.
	Copied uint64

	// Dropped counts frames overwritten in the stream's mailbox before the
	// writer took them. It is zero for sources that do not drop.
	Dropped uint64

	// Rejected counts frames refused by the ResampleReject policy.
	Rejected uint64

	// Failed counts copies the device refused.
	Failed uint64

	// Ended is set once the source has stopped producing frames.
	Ended bool

	// LastCopy is zero until the first copy.
	LastCopy time.Time

	// Err is the last source or copy error.
	Err error
}

// Stats is a snapshot of wall activity.
type Stats struct {
	Streams []StreamStats

	// Render holds the render loop counters.
	Render render.LoopStats

	// Commands counts device commands run by the execution queue, and
	// CommandErrors those that returned an error.
	Commands      uint64
	CommandErrors uint64
}

// Copied returns the total number of frames copied by all streams.
func (s Stats) Copied() uint64 {
	var n uint64
	for _, st := range s.Streams {
		n += st.Copied
	}
	return n
}

// Dropped returns the total number of dropped frames.
func (s Stats) Dropped() uint64 {
	var n uint64
	for _, st := range s.Streams {
		n += st.Dropped
	}
	return n
}

// Ended returns the number of streams whose source has ended.
func (s Stats) Ended() int {
	n := 0
	for _, st := range s.Streams {
		if st.Ended {
			n++
		}
	}
	return n
}
