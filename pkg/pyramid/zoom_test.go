package pyramid

import "testing"

func TestZoomRange(t *testing.T) {
	tests := []struct {
		name           string
		width, height  int
		tileSize       int
		wantMin, wantMax int
	}{
		{"single tile exact", 256, 256, 256, 0, 0},
		{"smaller than tile", 100, 64, 256, 0, 0},
		{"one level up", 257, 100, 256, 0, 1},
		{"two levels", 1024, 512, 256, 0, 2},
		{"large landscape image", 4096, 2048, 256, 0, 4},
		{"tall image drives zoom", 100, 4096, 256, 0, 4},
		{"depth capped at five below max", 50000, 50000, 256, 3, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMin, gotMax := ZoomRange(tt.width, tt.height, tt.tileSize)
			if gotMin != tt.wantMin || gotMax != tt.wantMax {
				t.Errorf("ZoomRange(%d,%d,%d) = (%d,%d), want (%d,%d)",
					tt.width, tt.height, tt.tileSize, gotMin, gotMax, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestLevelGrid(t *testing.T) {
	// 4096x2048 at tileSize 256: maxZoom 4, level-4 grid is 16x8.
	cols, rows := LevelGrid(4096, 2048, 256, 4, 4)
	if cols != 16 || rows != 8 {
		t.Errorf("level 4 grid = %dx%d, want 16x8", cols, rows)
	}

	// Each level halves (rounding up).
	cols, rows = LevelGrid(4096, 2048, 256, 3, 4)
	if cols != 8 || rows != 4 {
		t.Errorf("level 3 grid = %dx%d, want 8x4", cols, rows)
	}
	cols, rows = LevelGrid(4096, 2048, 256, 0, 4)
	if cols != 1 || rows != 1 {
		t.Errorf("level 0 grid = %dx%d, want 1x1", cols, rows)
	}
}

func TestLevelDimsRoundUp(t *testing.T) {
	// 601 pixels halved is 301 (round up), not 300.
	w, h := LevelDims(601, 399, 1, 2)
	if w != 301 || h != 200 {
		t.Errorf("LevelDims = (%d,%d), want (301,200)", w, h)
	}
}

func TestTotalTiles(t *testing.T) {
	// Grid counts per level for 4096x2048, tileSize 256:
	// z4: 16*8=128, z3: 8*4=32, z2: 4*2=8, z1: 2*1=2, z0: 1*1=1.
	if got := TotalTiles(4096, 2048, 256, 0, 4); got != 171 {
		t.Errorf("TotalTiles = %d, want 171", got)
	}

	// Single-tile image has exactly one tile at level 0.
	if got := TotalTiles(200, 120, 256, 0, 0); got != 1 {
		t.Errorf("TotalTiles small = %d, want 1", got)
	}
}

func TestGridMatchesScaledDimsProperty(t *testing.T) {
	// Tile count at each level must equal
	// ceil(scaledW/tileSize) * ceil(scaledH/tileSize).
	dims := [][2]int{{4096, 2048}, {1000, 700}, {257, 257}, {999, 1}}
	for _, d := range dims {
		w, h := d[0], d[1]
		minZoom, maxZoom := ZoomRange(w, h, 256)
		for z := minZoom; z <= maxZoom; z++ {
			scaledW, scaledH := LevelDims(w, h, z, maxZoom)
			cols, rows := LevelGrid(w, h, 256, z, maxZoom)
			if cols != ceilDiv(scaledW, 256) || rows != ceilDiv(scaledH, 256) {
				t.Errorf("dims %v z=%d: grid %dx%d does not match scaled %dx%d",
					d, z, cols, rows, scaledW, scaledH)
			}
		}
	}
}
