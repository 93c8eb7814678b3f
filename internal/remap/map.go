// Package remap builds and applies the per-pixel weight tables that
// drive the layout resampler. A plane map is computed once per stream
// from the negotiated geometry and then consumed read-only by the
// tile-parallel resampler.
package remap

import (
	"errors"
	"fmt"

	"github.com/deepteams/cuberemap/internal/geom"
)

// Pair packing: 24 bits of input byte offset, 8 bits of contribution
// count. Offsets beyond 24 bits would need a wider packing, which caps
// the addressable input plane at 16 MiB.
const (
	pairOffsetBits = 24
	maxPairOffset  = 1<<pairOffsetBits - 1
	maxSubdiv      = 16
)

// ErrPlaneTooLarge is returned when an input plane cannot be addressed
// by the 24-bit pair offsets.
var ErrPlaneTooLarge = errors.New("remap: input plane exceeds 24-bit pair offsets")

// Params describes the geometry of one plane map build.
type Params struct {
	OutW, OutH int // output plane dimensions
	InW, InH   int // input plane dimensions
	InLinesize int // input plane stride in bytes
	WSub, HSub int // super-sampling grid
}

// PlaneMap holds the precomputed resampling weights for one output
// plane. Weights[k] for pixel i live in Pairs[Idx[i]:Idx[i+1]], each
// entry packing (offset << 8 | count). The counts of every pixel sum
// to Subs exactly.
type PlaneMap struct {
	W, H int
	Subs int

	InLinesize int
	InH        int

	Idx   []uint32
	Pairs []uint32
}

// BuildPlaneMap walks every output pixel of the plane, super-samples
// it on the WSub×HSub grid through the mapper, and accumulates the
// compact per-pixel weight list.
func BuildPlaneMap(m *geom.Mapper, p Params) (*PlaneMap, error) {
	if p.OutW <= 0 || p.OutH <= 0 || p.InW <= 0 || p.InH <= 0 {
		return nil, fmt.Errorf("remap: invalid plane dimensions %dx%d -> %dx%d", p.InW, p.InH, p.OutW, p.OutH)
	}
	if p.WSub < 1 || p.WSub > maxSubdiv || p.HSub < 1 || p.HSub > maxSubdiv {
		return nil, fmt.Errorf("remap: subdivisions %dx%d out of range [1,%d]", p.WSub, p.HSub, maxSubdiv)
	}
	if p.WSub*p.HSub > 255 {
		// A pair count must fit in 8 bits.
		return nil, fmt.Errorf("remap: %dx%d sub-samples overflow the 8-bit pair counts", p.WSub, p.HSub)
	}
	if p.InLinesize < p.InW {
		return nil, fmt.Errorf("remap: linesize %d smaller than plane width %d", p.InLinesize, p.InW)
	}
	if maxOff := (p.InH-1)*p.InLinesize + (p.InW - 1); maxOff > maxPairOffset {
		return nil, fmt.Errorf("%w: %d bytes", ErrPlaneTooLarge, maxOff+1)
	}

	subs := p.WSub * p.HSub
	pm := &PlaneMap{
		W:          p.OutW,
		H:          p.OutH,
		Subs:       subs,
		InLinesize: p.InLinesize,
		InH:        p.InH,
		Idx:        make([]uint32, p.OutW*p.OutH+1),
		Pairs:      make([]uint32, 0, p.OutW*p.OutH),
	}

	// Scratch accumulator for one pixel: at most subs distinct offsets.
	offs := make([]uint32, 0, subs)
	cnts := make([]uint32, 0, subs)

	outW := float64(p.OutW)
	outH := float64(p.OutH)
	for i := 0; i < p.OutH; i++ {
		for j := 0; j < p.OutW; j++ {
			offs = offs[:0]
			cnts = cnts[:0]
			for suby := 0; suby < p.HSub; suby++ {
				y := (float64(i) + (float64(suby)+0.5)/float64(p.HSub)) / outH
				for subx := 0; subx < p.WSub; subx++ {
					x := (float64(j) + (float64(subx)+0.5)/float64(p.WSub)) / outW
					xin, yin, _ := m.Map(x, y)
					inX := int(xin * float64(p.InW))
					if inX >= p.InW {
						inX = p.InW - 1
					}
					if inX < 0 {
						inX = 0
					}
					inY := int(yin * float64(p.InH))
					if inY >= p.InH {
						inY = p.InH - 1
					}
					if inY < 0 {
						inY = 0
					}
					id := uint32(inY*p.InLinesize + inX)
					merged := false
					for k := range offs {
						if offs[k] == id {
							cnts[k]++
							merged = true
							break
						}
					}
					if !merged {
						offs = append(offs, id)
						cnts = append(cnts, 1)
					}
				}
			}
			for k := range offs {
				pm.Pairs = append(pm.Pairs, offs[k]<<8|cnts[k])
			}
			pm.Idx[i*p.OutW+j+1] = uint32(len(pm.Pairs))
		}
	}
	return pm, nil
}

// PairOffset decodes the input byte offset of a packed pair.
func PairOffset(pair uint32) int { return int(pair >> 8) }

// PairCount decodes the contribution count of a packed pair.
func PairCount(pair uint32) int { return int(pair & 0xff) }
