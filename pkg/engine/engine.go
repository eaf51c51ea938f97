// Package engine defines the seam between map sessions and the rendering
// canvas they drive. A session never touches a concrete canvas directly; it
// talks to these interfaces, which keeps the lifecycle logic testable and
// the rendering backend swappable.
package engine

import (
	"github.com/tilecraft/atlas/pkg/geom"
)

// Container is the host element a map is mounted into. Size reports the
// current layout dimensions in pixels; both are zero until the host has
// laid the element out.
type Container interface {
	Size() (width, height int)
}

// CRS selects the coordinate reference system a canvas is built on.
type CRS int

const (
	// CRSGeographic is the default projected system for real-world maps.
	CRSGeographic CRS = iota

	// CRSSimple is a flat, unprojected plane for image maps. Latitude and
	// longitude are plain plane coordinates with no distortion toward the
	// poles.
	CRSSimple
)

func (c CRS) String() string {
	if c == CRSSimple {
		return "simple"
	}
	return "geographic"
}

// TileFunc resolves a tile address to a displayable URI. Implementations
// must never fail; unknown addresses resolve to a transparent placeholder.
type TileFunc func(z, x, y int) string

// MarkerSpec describes a marker to place on a map.
type MarkerSpec struct {
	Pos     geom.LatLng
	IconURI string // data URI or URL for the marker icon
	Tooltip string
	Link    string // navigation target, empty for informational markers
	MinZoom *int
	MaxZoom *int
	Layer   string
}

// MarkerHandle is a marker placed on a live map.
type MarkerHandle interface {
	// OnClick registers the navigation callback. Markers without a link
	// never receive clicks.
	OnClick(fn func(link string))
	Remove()
}

// LayerHandle is a tile or overlay layer attached to a live map.
type LayerHandle interface {
	Remove()
}

// Map is a live pannable, zoomable canvas.
type Map interface {
	SetView(center geom.LatLng, zoom int)
	Zoom() int
	SetZoom(zoom int)
	FitBounds(b geom.Bounds)
	SetMaxBounds(b geom.Bounds)

	// InvalidateSize tells the canvas to re-measure its container.
	InvalidateSize()

	// AddTiles attaches a virtual tile layer backed by fn.
	AddTiles(fn TileFunc) LayerHandle

	// AddTileServer attaches a remote tile layer from a URL template
	// with {z}/{x}/{y} placeholders.
	AddTileServer(urlTemplate string) LayerHandle

	// AddImageOverlay stretches a single image across bounds, beneath any
	// tile layers. uri is any reference the host can display, a vault
	// resource path included.
	AddImageOverlay(uri string, b geom.Bounds) LayerHandle

	AddMarker(spec MarkerSpec) MarkerHandle

	// Remove tears the canvas down and releases its resources.
	Remove()
}

// Options configure canvas construction.
type Options struct {
	// CRS defaults to CRSGeographic; image maps set CRSSimple.
	CRS CRS

	MinZoom     int
	MaxZoom     int
	Zoom        int
	Center      geom.LatLng
	ZoomControl bool
	DarkMode    bool
}

// Engine constructs live maps inside containers.
type Engine interface {
	NewMap(c Container, opts Options) (Map, error)
}
