// Package enginetest provides in-memory fakes for exercising session
// lifecycle logic without a real rendering canvas.
package enginetest

import (
	"sync"

	"github.com/tilecraft/atlas/pkg/engine"
	"github.com/tilecraft/atlas/pkg/geom"
)

// Container is a fake host element with a settable size.
type Container struct {
	mu     sync.Mutex
	width  int
	height int
}

// NewContainer returns a container with the given initial dimensions.
// Zero dimensions model an element the host has not laid out yet.
func NewContainer(width, height int) *Container {
	return &Container{width: width, height: height}
}

func (c *Container) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// Resize changes the reported dimensions.
func (c *Container) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = width, height
}

// Engine is a fake engine that records every map it creates.
type Engine struct {
	mu   sync.Mutex
	Maps []*Map

	// NewMapErr, when set, is returned by NewMap.
	NewMapErr error
}

func NewEngine() *Engine { return &Engine{} }

func (e *Engine) NewMap(c engine.Container, opts engine.Options) (engine.Map, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.NewMapErr != nil {
		return nil, e.NewMapErr
	}
	m := &Map{Opts: opts}
	e.Maps = append(e.Maps, m)
	return m, nil
}

// Map records every operation performed on it.
type Map struct {
	mu sync.Mutex

	Opts engine.Options

	Center    geom.LatLng
	ZoomLevel int
	Fitted    []geom.Bounds
	MaxBounds *geom.Bounds

	Invalidations int
	Removed       bool

	TileLayers   []*Layer
	ServerLayers []string
	Overlays     []*Overlay
	Markers      []*Marker
}

func (m *Map) SetView(center geom.LatLng, zoom int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Center = center
	m.ZoomLevel = zoom
}

func (m *Map) Zoom() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ZoomLevel
}

func (m *Map) SetZoom(zoom int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ZoomLevel = zoom
}

func (m *Map) FitBounds(b geom.Bounds) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Fitted = append(m.Fitted, b)
}

func (m *Map) SetMaxBounds(b geom.Bounds) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MaxBounds = &b
}

func (m *Map) InvalidateSize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidations++
}

// InvalidateCount reads the invalidation counter under the map's lock, for
// assertions that race with debounce timers.
func (m *Map) InvalidateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Invalidations
}

func (m *Map) AddTiles(fn engine.TileFunc) engine.LayerHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := &Layer{Tiles: fn}
	m.TileLayers = append(m.TileLayers, l)
	return l
}

func (m *Map) AddTileServer(urlTemplate string) engine.LayerHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ServerLayers = append(m.ServerLayers, urlTemplate)
	return &Layer{}
}

func (m *Map) AddImageOverlay(uri string, b geom.Bounds) engine.LayerHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := &Overlay{URI: uri, Bounds: b}
	m.Overlays = append(m.Overlays, o)
	return o
}

func (m *Map) AddMarker(spec engine.MarkerSpec) engine.MarkerHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	mk := &Marker{Spec: spec}
	m.Markers = append(m.Markers, mk)
	return mk
}

func (m *Map) Remove() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Removed = true
}

// Layer is a fake layer handle.
type Layer struct {
	Tiles   engine.TileFunc
	Removed bool
}

func (l *Layer) Remove() { l.Removed = true }

// Overlay is a fake image-overlay handle.
type Overlay struct {
	URI     string
	Bounds  geom.Bounds
	Removed bool
}

func (o *Overlay) Remove() { o.Removed = true }

// Marker is a fake marker handle.
type Marker struct {
	Spec    engine.MarkerSpec
	Click   func(link string)
	Removed bool
}

func (mk *Marker) OnClick(fn func(link string)) { mk.Click = fn }
func (mk *Marker) Remove()                      { mk.Removed = true }
