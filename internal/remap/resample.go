package remap

import "sync"

// tileSize is the edge of one square unit of parallel work, in output
// pixels.
const tileSize = 16

// Tiles returns the number of 16×16 tiles covering the plane.
func (pm *PlaneMap) Tiles() int {
	tilesX := (pm.W + tileSize - 1) / tileSize
	tilesY := (pm.H + tileSize - 1) / tileSize
	return tilesX * tilesY
}

// Resample produces the output plane from the input plane using the
// precomputed weights. The plane is partitioned into 16×16 tiles;
// worker j handles the tile range [T·j/J, T·(j+1)/J). Input offsets
// are baked into the pairs, so src must use the linesize the map was
// built with. The call blocks until every worker finishes.
func (pm *PlaneMap) Resample(dst, src []byte, dstLinesize, workers int) {
	tiles := pm.Tiles()
	if workers > tiles {
		workers = tiles
	}
	if workers <= 1 {
		pm.resampleTiles(dst, src, dstLinesize, 0, tiles)
		return
	}

	var wg sync.WaitGroup
	for j := 0; j < workers; j++ {
		lo := tiles * j / workers
		hi := tiles * (j + 1) / workers
		if lo == hi {
			continue
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			pm.resampleTiles(dst, src, dstLinesize, lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

// resampleTiles processes the half-open tile range [lo, hi). Tiles are
// disjoint in output, so concurrent calls on disjoint ranges never
// write the same byte.
func (pm *PlaneMap) resampleTiles(dst, src []byte, dstLinesize, lo, hi int) {
	tilesX := (pm.W + tileSize - 1) / tileSize
	subs := pm.Subs
	half := subs / 2
	for t := lo; t < hi; t++ {
		y0 := (t / tilesX) * tileSize
		x0 := (t % tilesX) * tileSize
		y1 := y0 + tileSize
		if y1 > pm.H {
			y1 = pm.H
		}
		x1 := x0 + tileSize
		if x1 > pm.W {
			x1 = pm.W
		}
		for i := y0; i < y1; i++ {
			row := i * pm.W
			out := i * dstLinesize
			for j := x0; j < x1; j++ {
				s := pm.Idx[row+j]
				e := pm.Idx[row+j+1]
				if e-s == 1 {
					dst[out+j] = src[pm.Pairs[s]>>8]
					continue
				}
				sum := 0
				for _, pair := range pm.Pairs[s:e] {
					sum += int(src[pair>>8]) * int(pair&0xff)
				}
				dst[out+j] = byte((sum + half) / subs)
			}
		}
	}
}
