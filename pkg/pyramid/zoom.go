package pyramid

// DefaultTileSize is the edge length of generated tiles in pixels.
const DefaultTileSize = 256

// zoomDepth is how many levels below maxZoom are generated. Shallower
// levels than that add little value for in-document maps.
const zoomDepth = 5

// ZoomRange computes the zoom levels for an image:
//
//	maxZoom = ceil(log2(max(width,height)/tileSize))
//	minZoom = max(0, maxZoom-5)
//
// Images no larger than one tile get a single level 0.
func ZoomRange(width, height, tileSize int) (minZoom, maxZoom int) {
	maxDim := width
	if height > maxDim {
		maxDim = height
	}
	// Integer ceil(log2(maxDim/tileSize)) without float rounding trouble.
	for size := tileSize; size < maxDim; size *= 2 {
		maxZoom++
	}
	minZoom = maxZoom - zoomDepth
	if minZoom < 0 {
		minZoom = 0
	}
	return minZoom, maxZoom
}

// LevelDims returns the scaled image dimensions at zoom level z, where the
// scale factor is 2^(z-maxZoom) and fractional pixels round up.
func LevelDims(width, height, z, maxZoom int) (scaledW, scaledH int) {
	shift := uint(maxZoom - z)
	ceilShift := func(v int) int {
		return (v + (1 << shift) - 1) >> shift
	}
	return ceilShift(width), ceilShift(height)
}

// LevelGrid returns the tile grid size at zoom level z.
func LevelGrid(width, height, tileSize, z, maxZoom int) (cols, rows int) {
	scaledW, scaledH := LevelDims(width, height, z, maxZoom)
	return ceilDiv(scaledW, tileSize), ceilDiv(scaledH, tileSize)
}

// TotalTiles returns the tile count across all levels of a pyramid.
func TotalTiles(width, height, tileSize, minZoom, maxZoom int) int {
	total := 0
	for z := minZoom; z <= maxZoom; z++ {
		cols, rows := LevelGrid(width, height, tileSize, z, maxZoom)
		total += cols * rows
	}
	return total
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
