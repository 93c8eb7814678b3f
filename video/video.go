// Package video provides the planar frame model the remapping engine
// operates on: pixel-format descriptors with chroma-subsampling
// exponents, and pool-backed refcounted frames with per-plane strides.
package video

import (
	"fmt"
	"sync/atomic"

	"github.com/deepteams/cuberemap/internal/pool"
)

// PixelFormat identifies a planar 8-bit pixel format.
type PixelFormat int

const (
	GRAY8 PixelFormat = iota
	YUV420P
	YUV422P
	YUV444P
	YUV440P
	YUV411P
	YUV410P
	YUVA420P
	YUVA422P
	YUVA444P
)

// Desc describes the plane geometry of a pixel format.
type Desc struct {
	Name        string
	PlaneCount  int
	Log2ChromaW int
	Log2ChromaH int
}

var descs = map[PixelFormat]Desc{
	GRAY8:    {"gray8", 1, 0, 0},
	YUV420P:  {"yuv420p", 3, 1, 1},
	YUV422P:  {"yuv422p", 3, 1, 0},
	YUV444P:  {"yuv444p", 3, 0, 0},
	YUV440P:  {"yuv440p", 3, 0, 1},
	YUV411P:  {"yuv411p", 3, 2, 0},
	YUV410P:  {"yuv410p", 3, 2, 2},
	YUVA420P: {"yuva420p", 4, 1, 1},
	YUVA422P: {"yuva422p", 4, 1, 0},
	YUVA444P: {"yuva444p", 4, 0, 0},
}

// Desc returns the descriptor for f. Unknown formats return a zero
// descriptor with PlaneCount 0.
func (f PixelFormat) Desc() Desc { return descs[f] }

// Valid reports whether f names a supported format.
func (f PixelFormat) Valid() bool { return descs[f].PlaneCount > 0 }

func (f PixelFormat) String() string {
	if d, ok := descs[f]; ok {
		return d.Name
	}
	return fmt.Sprintf("pixfmt(%d)", int(f))
}

// ParsePixelFormat resolves a format by its option-string name.
func ParsePixelFormat(name string) (PixelFormat, error) {
	for f, d := range descs {
		if d.Name == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("video: unknown pixel format %q", name)
}

// PlaneDims returns the dimensions of plane p for an image of w×h,
// applying the ceiling chroma shift to the chroma planes.
func (f PixelFormat) PlaneDims(p, w, h int) (pw, ph int) {
	d := descs[f]
	if p == 1 || p == 2 {
		return ceilShift(w, d.Log2ChromaW), ceilShift(h, d.Log2ChromaH)
	}
	return w, h
}

func ceilShift(v, shift int) int {
	return (v + (1 << shift) - 1) >> shift
}

// Frame is one planar video frame. Data holds up to four
// independently-allocated planes, row-major, top-down, with Linesize
// bytes per row.
type Frame struct {
	Format PixelFormat
	Width  int
	Height int

	Data     [4][]byte
	Linesize [4]int

	PTS      int64
	Duration int64

	refs   atomic.Int32
	pooled bool
}

// NewFrame acquires a frame with pool-backed plane buffers. The frame
// starts with a single reference.
func NewFrame(format PixelFormat, w, h int) (*Frame, error) {
	d := format.Desc()
	if d.PlaneCount == 0 {
		return nil, fmt.Errorf("video: unknown pixel format %v", format)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("video: invalid frame size %dx%d", w, h)
	}
	f := &Frame{Format: format, Width: w, Height: h, pooled: true}
	for p := 0; p < d.PlaneCount; p++ {
		pw, ph := format.PlaneDims(p, w, h)
		f.Linesize[p] = pw
		f.Data[p] = pool.Get(pw * ph)
	}
	f.refs.Store(1)
	return f, nil
}

// PlaneHeight returns the row count of plane p.
func (f *Frame) PlaneHeight(p int) int {
	_, ph := f.Format.PlaneDims(p, f.Width, f.Height)
	return ph
}

// Ref adds a reference and returns f.
func (f *Frame) Ref() *Frame {
	f.refs.Add(1)
	return f
}

// Unref drops one reference. When the last reference is released the
// plane buffers return to the pool and must not be touched again.
func (f *Frame) Unref() {
	if f == nil {
		return
	}
	if f.refs.Add(-1) != 0 {
		return
	}
	if f.pooled {
		for p := range f.Data {
			if f.Data[p] != nil {
				pool.Put(f.Data[p])
				f.Data[p] = nil
			}
		}
	}
}

// Writable reports whether the caller holds the only reference, i.e.
// whether writing into the planes cannot be observed elsewhere.
func (f *Frame) Writable() bool {
	return f.refs.Load() == 1
}

// CopyProps copies frame metadata (not pixel data) from src.
func (f *Frame) CopyProps(src *Frame) {
	f.PTS = src.PTS
	f.Duration = src.Duration
}
