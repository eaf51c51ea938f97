package geom

import (
	"math"
	"testing"
)

const tol = 1e-9

func TestPixelToLogicalInvertsVerticalAxis(t *testing.T) {
	// The single most error-prone property: image rows grow downward,
	// logical y grows upward, so logical_y = imageHeight - pixelY.
	tests := []struct {
		name          string
		px, py        float64
		width, height int
		want          LatLng
	}{
		{"top-left corner", 0, 0, 4096, 2048, LatLng{Lat: 2048, Lng: 0}},
		{"bottom-left corner", 0, 2048, 4096, 2048, LatLng{Lat: 0, Lng: 0}},
		{"top-right corner", 4096, 0, 4096, 2048, LatLng{Lat: 2048, Lng: 4096}},
		{"bottom-right corner", 4096, 2048, 4096, 2048, LatLng{Lat: 0, Lng: 4096}},
		{"center", 2048, 1024, 4096, 2048, LatLng{Lat: 1024, Lng: 2048}},
		{"interior point", 100, 300, 800, 600, LatLng{Lat: 300, Lng: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PixelToLogical(tt.px, tt.py, tt.width, tt.height)
			if math.Abs(got.Lat-tt.want.Lat) > tol || math.Abs(got.Lng-tt.want.Lng) > tol {
				t.Errorf("PixelToLogical(%v,%v) = %+v, want %+v", tt.px, tt.py, got, tt.want)
			}
		})
	}
}

func TestPixelLogicalRoundTrip(t *testing.T) {
	width, height := 4096, 2048
	points := []struct{ px, py float64 }{
		{0, 0},
		{4096, 2048},
		{1, 1},
		{123.456, 789.012},
		{4095.999, 0.001},
	}
	for _, p := range points {
		l := PixelToLogical(p.px, p.py, width, height)
		px, py := LogicalToPixel(l, width, height)
		if math.Abs(px-p.px) > tol || math.Abs(py-p.py) > tol {
			t.Errorf("round trip (%v,%v) -> (%v,%v)", p.px, p.py, px, py)
		}
	}
}

func TestPercentToPixel(t *testing.T) {
	px, py := PercentToPixel(50, 50, 4096, 2048)
	if px != 2048 || py != 1024 {
		t.Errorf("PercentToPixel(50,50) = (%v,%v), want (2048,1024)", px, py)
	}

	px, py = PercentToPixel(0, 100, 800, 600)
	if px != 0 || py != 600 {
		t.Errorf("PercentToPixel(0,100) = (%v,%v), want (0,600)", px, py)
	}
}

func TestPercentRoundTrip(t *testing.T) {
	px, py := PercentToPixel(37.5, 12.25, 4096, 2048)
	gx, gy := PixelToPercent(px, py, 4096, 2048)
	if math.Abs(gx-37.5) > tol || math.Abs(gy-12.25) > tol {
		t.Errorf("percent round trip = (%v,%v)", gx, gy)
	}
}

func TestPixelToPercentZeroDimensions(t *testing.T) {
	gx, gy := PixelToPercent(10, 10, 0, 0)
	if gx != 0 || gy != 0 {
		t.Errorf("zero-dimension image should yield zero percent, got (%v,%v)", gx, gy)
	}
}

func TestImageBounds(t *testing.T) {
	b := ImageBounds(4096, 2048)
	if b.SouthWest != (LatLng{}) {
		t.Errorf("SouthWest = %+v, want origin", b.SouthWest)
	}
	if b.NorthEast.Lat != 2048 || b.NorthEast.Lng != 4096 {
		t.Errorf("NorthEast = %+v, want (2048, 4096)", b.NorthEast)
	}
}

func TestBoundsPad(t *testing.T) {
	b := ImageBounds(100, 100).Pad(0.1)
	if b.SouthWest.Lat != -10 || b.SouthWest.Lng != -10 {
		t.Errorf("SouthWest = %+v, want (-10,-10)", b.SouthWest)
	}
	if b.NorthEast.Lat != 110 || b.NorthEast.Lng != 110 {
		t.Errorf("NorthEast = %+v, want (110,110)", b.NorthEast)
	}
}

func TestBoundsContains(t *testing.T) {
	b := ImageBounds(100, 50)
	if !b.Contains(LatLng{Lat: 25, Lng: 50}) {
		t.Error("interior point should be contained")
	}
	if !b.Contains(LatLng{Lat: 0, Lng: 0}) {
		t.Error("corner should be contained (inclusive)")
	}
	if b.Contains(LatLng{Lat: 51, Lng: 50}) {
		t.Error("point above bounds should not be contained")
	}
}

func TestBoundsOf(t *testing.T) {
	if _, ok := BoundsOf(nil); ok {
		t.Error("BoundsOf(nil) should report no bounds")
	}

	b, ok := BoundsOf([]LatLng{
		{Lat: 10, Lng: 20},
		{Lat: -5, Lng: 40},
		{Lat: 3, Lng: -1},
	})
	if !ok {
		t.Fatal("BoundsOf should succeed with points")
	}
	want := Bounds{SouthWest: LatLng{Lat: -5, Lng: -1}, NorthEast: LatLng{Lat: 10, Lng: 40}}
	if b != want {
		t.Errorf("BoundsOf = %+v, want %+v", b, want)
	}
}
