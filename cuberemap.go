package cuberemap

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/deepteams/cuberemap/internal/geom"
	"github.com/deepteams/cuberemap/internal/remap"
	"github.com/deepteams/cuberemap/video"
)

// Remapper converts frames between sphere layouts. It is created for
// one negotiated link geometry (dimensions and pixel format); the
// per-pixel weight maps are built on the first Remap call, when the
// actual input strides are known, and reused verbatim afterwards.
type Remapper struct {
	opts   Options
	mapper *geom.Mapper

	inW, inH   int
	outW, outH int
	format     video.PixelFormat
	threads    int

	mu          sync.Mutex
	maps        [2]*remap.PlaneMap
	srcLinesize [2]int
	built       bool
}

// New validates the configuration against the negotiated link
// geometry. outW/outH of 0 default to the input dimensions.
func New(opts *Options, inW, inH, outW, outH int, format video.PixelFormat) (*Remapper, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if inW <= 0 || inH <= 0 {
		return nil, fmt.Errorf("%w: input size %dx%d", ErrInvalidConfig, inW, inH)
	}
	if outW == 0 && outH == 0 {
		outW, outH = inW, inH
	}
	if outW <= 0 || outH <= 0 {
		return nil, fmt.Errorf("%w: output size %dx%d", ErrInvalidConfig, outW, outH)
	}
	if !format.Valid() {
		return nil, fmt.Errorf("%w: unknown pixel format %v", ErrInvalidConfig, format)
	}
	threads := opts.Threads
	if threads == 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	return &Remapper{
		opts:    *opts,
		mapper:  geom.NewMapper(opts.geomConfig()),
		inW:     inW,
		inH:     inH,
		outW:    outW,
		outH:    outH,
		format:  format,
		threads: threads,
	}, nil
}

// OutputSize returns the negotiated output dimensions.
func (r *Remapper) OutputSize() (w, h int) { return r.outW, r.outH }

// buildMaps constructs the luma and chroma plane maps from the first
// frame's strides.
func (r *Remapper) buildMaps(in *video.Frame) error {
	d := r.format.Desc()
	mapPlanes := 1
	if d.PlaneCount > 1 {
		mapPlanes = 2
	}
	for mp := 0; mp < mapPlanes; mp++ {
		outW, outH := r.format.PlaneDims(mp, r.outW, r.outH)
		inW, inH := r.format.PlaneDims(mp, r.inW, r.inH)
		pm, err := remap.BuildPlaneMap(r.mapper, remap.Params{
			OutW:       outW,
			OutH:       outH,
			InW:        inW,
			InH:        inH,
			InLinesize: in.Linesize[mp],
			WSub:       r.opts.WSubdivisions,
			HSub:       r.opts.HSubdivisions,
		})
		if err != nil {
			return err
		}
		r.maps[mp] = pm
		r.srcLinesize[mp] = in.Linesize[mp]
	}
	return nil
}

// mapPlaneFor selects which weight map serves pixel-format plane p:
// the chroma planes share one map, everything else (luma, alpha) uses
// the full-resolution map.
func mapPlaneFor(p int) int {
	if p == 1 || p == 2 {
		return 1
	}
	return 0
}

// Remap produces the remapped frame for in. The input reference is
// released on success and on per-frame failures, mirroring a filter
// chain's ownership handoff. A map-build failure is fatal for the
// Remapper and leaves the input untouched, as does the rejection of a
// frame whose format or size differs from the configured one.
func (r *Remapper) Remap(in *video.Frame) (*video.Frame, error) {
	if in.Format != r.format || in.Width != r.inW || in.Height != r.inH {
		return nil, fmt.Errorf("cuberemap: frame %v %dx%d does not match configured %v %dx%d",
			in.Format, in.Width, in.Height, r.format, r.inW, r.inH)
	}

	r.mu.Lock()
	if !r.built {
		if err := r.buildMaps(in); err != nil {
			r.mu.Unlock()
			return nil, err
		}
		r.built = true
	}
	r.mu.Unlock()

	out, err := video.NewFrame(r.format, r.outW, r.outH)
	if err != nil {
		in.Unref()
		return nil, err
	}
	out.CopyProps(in)

	d := r.format.Desc()
	for p := 0; p < d.PlaneCount; p++ {
		mp := mapPlaneFor(p)
		if in.Linesize[p] != r.srcLinesize[mp] {
			out.Unref()
			in.Unref()
			return nil, fmt.Errorf("cuberemap: plane %d linesize %d does not match map linesize %d",
				p, in.Linesize[p], r.srcLinesize[mp])
		}
		r.maps[mp].Resample(out.Data[p], in.Data[p], out.Linesize[p], r.threads)
	}

	in.Unref()
	return out, nil
}
