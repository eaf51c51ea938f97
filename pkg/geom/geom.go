// Package geom maps image pixel space onto the logical plane the interactive
// map engine pans and zooms in.
//
// Image rows grow downward from a top-left origin; the engine's logical
// plane grows upward from a bottom-left origin. Every conversion in this
// package therefore inverts the vertical axis:
//
//	logical_y = imageHeight - pixelY
//
// All functions are pure and total. Percent conversions support markers
// placed as percentages of the image rather than absolute pixels.
package geom

import "math"

// LatLng is a point on the engine's logical plane. For image-mode maps the
// "latitude" is the (inverted) vertical pixel axis and the "longitude" the
// horizontal one; for geographic maps these are real degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is an axis-aligned rectangle on the logical plane, described by its
// south-west and north-east corners the way the engine expects.
type Bounds struct {
	SouthWest LatLng `json:"southWest"`
	NorthEast LatLng `json:"northEast"`
}

// Contains reports whether p lies within the bounds (inclusive).
func (b Bounds) Contains(p LatLng) bool {
	return p.Lat >= b.SouthWest.Lat && p.Lat <= b.NorthEast.Lat &&
		p.Lng >= b.SouthWest.Lng && p.Lng <= b.NorthEast.Lng
}

// Pad returns the bounds grown by ratio on every side. A ratio of 0.1 on a
// 100-unit-wide bounds adds 10 units left and right. Used to give panning a
// little slack beyond the image edge.
func (b Bounds) Pad(ratio float64) Bounds {
	dLat := (b.NorthEast.Lat - b.SouthWest.Lat) * ratio
	dLng := (b.NorthEast.Lng - b.SouthWest.Lng) * ratio
	return Bounds{
		SouthWest: LatLng{Lat: b.SouthWest.Lat - dLat, Lng: b.SouthWest.Lng - dLng},
		NorthEast: LatLng{Lat: b.NorthEast.Lat + dLat, Lng: b.NorthEast.Lng + dLng},
	}
}

// Extend returns bounds grown to include p.
func (b Bounds) Extend(p LatLng) Bounds {
	return Bounds{
		SouthWest: LatLng{Lat: math.Min(b.SouthWest.Lat, p.Lat), Lng: math.Min(b.SouthWest.Lng, p.Lng)},
		NorthEast: LatLng{Lat: math.Max(b.NorthEast.Lat, p.Lat), Lng: math.Max(b.NorthEast.Lng, p.Lng)},
	}
}

// BoundsOf returns the bounding box of the given points. The second return
// value is false when points is empty.
func BoundsOf(points []LatLng) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b := Bounds{SouthWest: points[0], NorthEast: points[0]}
	for _, p := range points[1:] {
		b = b.Extend(p)
	}
	return b, true
}

// ImageBounds returns the logical-plane bounds covering a width×height image:
// south-west corner at the origin, north-east at (height, width).
func ImageBounds(width, height int) Bounds {
	return Bounds{
		SouthWest: LatLng{Lat: 0, Lng: 0},
		NorthEast: LatLng{Lat: float64(height), Lng: float64(width)},
	}
}

// PixelToLogical converts a pixel coordinate (top-left origin, y growing
// downward) to a logical-plane point (bottom-left origin, y growing upward).
func PixelToLogical(px, py float64, width, height int) LatLng {
	_ = width // horizontal axis is not inverted
	return LatLng{Lat: float64(height) - py, Lng: px}
}

// LogicalToPixel converts a logical-plane point back to pixel coordinates.
// It is the exact inverse of PixelToLogical.
func LogicalToPixel(p LatLng, width, height int) (px, py float64) {
	_ = width
	return p.Lng, float64(height) - p.Lat
}

// PercentToPixel converts percentage-of-image coordinates (0..100 per axis)
// to pixel coordinates.
func PercentToPixel(pctX, pctY float64, width, height int) (px, py float64) {
	return pctX / 100 * float64(width), pctY / 100 * float64(height)
}

// PixelToPercent converts pixel coordinates to percentage-of-image
// coordinates. Zero-dimension images yield zero percentages rather than NaN.
func PixelToPercent(px, py float64, width, height int) (pctX, pctY float64) {
	if width > 0 {
		pctX = px / float64(width) * 100
	}
	if height > 0 {
		pctY = py / float64(height) * 100
	}
	return pctX, pctY
}
