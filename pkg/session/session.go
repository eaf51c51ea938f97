// Package session manages the lifecycle of one live map: mount, initialize,
// render, destroy. A session owns the glue between the block parameters,
// the tile pipeline, marker discovery, and the rendering engine, and it is
// the only place that holds mutable map state.
package session

import (
	"bytes"
	"context"
	"image"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tilecraft/atlas/pkg/engine"
	"github.com/tilecraft/atlas/pkg/errors"
	"github.com/tilecraft/atlas/pkg/geom"
	"github.com/tilecraft/atlas/pkg/mapblock"
	"github.com/tilecraft/atlas/pkg/markers"
	"github.com/tilecraft/atlas/pkg/pyramid"
	"github.com/tilecraft/atlas/pkg/tilesource"
	"github.com/tilecraft/atlas/pkg/tilestore"
	"github.com/tilecraft/atlas/pkg/vault"
)

// State is the session lifecycle phase.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateDestroyed:
		return "destroyed"
	default:
		return "uninitialized"
	}
}

// Tile servers for geographic maps. A custom tileServer block parameter
// beats the dark variant, which beats the default.
const (
	DefaultTileServer = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	DarkTileServer    = "https://basemaps.cartocdn.com/dark_all/{z}/{x}/{y}.png"
)

const (
	// defaultPollInterval is the container dimension poll tick, one
	// display refresh at 60Hz. The wait itself has no deadline: a map in
	// a collapsed section stays pending until the host lays it out.
	defaultPollInterval = 16 * time.Millisecond

	defaultDecodeTimeout = 30 * time.Second

	// invalidateDebounce coalesces bursts of resize notifications into at
	// most one re-measure per display refresh.
	invalidateDebounce = defaultPollInterval

	// maxBoundsPad is the pan slack around an image map, as a ratio of
	// the image dimensions.
	maxBoundsPad = 0.5

	// fitBoundsPad is the slack around a marker bounding box when the
	// view is fit to markers.
	fitBoundsPad = 0.1

	defaultGeoZoom = 5
)

// Config wires a session's collaborators.
type Config struct {
	Params    *mapblock.Params
	Engine    engine.Engine
	Container engine.Container
	Vault     vault.Repository
	Store     *tilestore.Store
	Generator *pyramid.Generator
	Discover  *markers.Discoverer

	// OnNavigate is invoked when a linked marker is clicked.
	OnNavigate func(link string)

	// OnProgress receives pyramid generation progress for image maps.
	OnProgress pyramid.ProgressFunc

	PollInterval  time.Duration
	DecodeTimeout time.Duration
	Logger        *log.Logger
}

// ValidateAndSetDefaults checks required collaborators and fills optional
// ones.
func (c *Config) ValidateAndSetDefaults() error {
	if c.Params == nil {
		return errors.New(errors.ErrCodeInternal, "session config requires params")
	}
	if c.Engine == nil {
		return errors.New(errors.ErrCodeInternal, "session config requires an engine")
	}
	if c.Container == nil {
		return errors.New(errors.ErrCodeInternal, "session config requires a container")
	}
	if c.Params.Mode == mapblock.ModeImage {
		if c.Vault == nil || c.Store == nil || c.Generator == nil {
			return errors.New(errors.ErrCodeInternal, "image map sessions require vault, store, and generator")
		}
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.DecodeTimeout <= 0 {
		c.DecodeTimeout = defaultDecodeTimeout
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return nil
}

// Session is one live map. All exported methods are safe for concurrent
// use.
type Session struct {
	// id distinguishes session instances for the same map across mount
	// cycles in logs.
	id  string
	cfg Config

	mu       sync.Mutex
	state    State
	initDone chan struct{}
	initErr  error

	m           engine.Map
	overlay     engine.LayerHandle // image mode only
	markerSet   []engine.MarkerHandle
	initialZoom int
	minZoom     int
	maxZoom     int
	imageSize   image.Point // image mode only

	invalidateTimer *time.Timer
}

// New creates a session in the uninitialized state. Nothing is rendered
// until Initialize.
func New(cfg Config) (*Session, error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Session{id: uuid.NewString(), cfg: cfg}, nil
}

// ID returns the session's unique instance id.
func (s *Session) ID() string { return s.id }

// State reports the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Map exposes the live canvas, or nil before initialization.
func (s *Session) Map() engine.Map {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m
}

// Initialize brings the session to the ready state. It is reentrant:
// concurrent calls join the in-flight initialization, and calling it on a
// ready session is a no-op. A destroyed session initializes again from
// scratch, so sessions are reusable across mount cycles.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateReady:
		s.mu.Unlock()
		return nil
	case StateInitializing:
		done := s.initDone
		s.mu.Unlock()
		select {
		case <-done:
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.initErr
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.state = StateInitializing
	s.initDone = make(chan struct{})
	s.mu.Unlock()

	err := s.initialize(ctx)

	s.mu.Lock()
	if s.state == StateDestroyed {
		// Destroyed mid-flight: tear down whatever initialize built.
		for _, h := range s.markerSet {
			h.Remove()
		}
		s.markerSet = nil
		if s.overlay != nil {
			s.overlay.Remove()
			s.overlay = nil
		}
		if s.m != nil {
			s.m.Remove()
			s.m = nil
		}
		err = errors.New(errors.ErrCodeSessionDestroyed, "map session %s destroyed during initialization", s.cfg.Params.ID)
	} else if err != nil {
		s.state = StateUninitialized
	} else {
		s.state = StateReady
	}
	s.initErr = err
	close(s.initDone)
	s.mu.Unlock()
	return err
}

func (s *Session) initialize(ctx context.Context) error {
	start := time.Now()

	width, height, err := s.waitForContainer(ctx)
	if err != nil {
		return err
	}
	s.cfg.Logger.Debug("container ready", "map", s.cfg.Params.ID, "width", width, "height", height)

	var m engine.Map
	switch s.cfg.Params.Mode {
	case mapblock.ModeImage:
		m, err = s.initImageMap(ctx)
	default:
		m, err = s.initGeoMap(ctx)
	}
	if err != nil {
		return err
	}

	defs := s.resolveMarkers(ctx)
	handles := make([]engine.MarkerHandle, 0, len(defs))
	points := make([]geom.LatLng, 0, len(defs))
	for _, def := range defs {
		if h, pos, ok := s.placeMarker(m, def); ok {
			handles = append(handles, h)
			points = append(points, pos)
		}
	}

	// A geographic map without an explicit center fits the view to its
	// markers instead.
	if s.cfg.Params.Mode != mapblock.ModeImage && !s.hasExplicitCenter() {
		if b, ok := geom.BoundsOf(points); ok {
			m.FitBounds(b.Pad(fitBoundsPad))
		}
	}

	s.mu.Lock()
	s.m = m
	s.markerSet = handles
	s.mu.Unlock()

	s.cfg.Logger.Info("map session ready",
		"session", s.id, "map", s.cfg.Params.ID, "mode", s.cfg.Params.Mode,
		"markers", len(handles), "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// waitForContainer polls until the host has laid the container out. There
// is deliberately no deadline; cancellation is the only way out.
func (s *Session) waitForContainer(ctx context.Context) (int, int, error) {
	if w, h := s.cfg.Container.Size(); w > 0 && h > 0 {
		return w, h, nil
	}
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		case <-ticker.C:
			if w, h := s.cfg.Container.Size(); w > 0 && h > 0 {
				return w, h, nil
			}
		}
	}
}

func (s *Session) initImageMap(ctx context.Context) (engine.Map, error) {
	p := s.cfg.Params

	data, err := s.cfg.Vault.ReadBinary(ctx, p.Image)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeImageNotFound, err, "read map image %s", p.Image)
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeImageNotFound, "map image %s is empty", p.Image)
	}
	if err := s.checkDecodable(ctx, data); err != nil {
		return nil, err
	}

	hash, err := s.cfg.Generator.Generate(ctx, data, p.Image, s.cfg.OnProgress)
	if err != nil {
		return nil, err
	}
	src, err := tilesource.New(ctx, s.cfg.Store, hash, s.cfg.Logger)
	if err != nil {
		return nil, err
	}
	md := src.Metadata()

	minZoom, maxZoom := md.MinZoom, md.MaxZoom
	if p.MinZoom != nil {
		minZoom = *p.MinZoom
	}
	if p.MaxZoom != nil {
		maxZoom = *p.MaxZoom
	}
	zoom := minZoom
	if p.DefaultZoom != nil {
		zoom = clamp(*p.DefaultZoom, minZoom, maxZoom)
	}

	bounds := geom.ImageBounds(md.Width, md.Height)
	m, err := s.cfg.Engine.NewMap(s.cfg.Container, engine.Options{
		CRS:         engine.CRSSimple,
		MinZoom:     minZoom,
		MaxZoom:     maxZoom,
		Zoom:        zoom,
		ZoomControl: true,
		DarkMode:    p.DarkMode,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create canvas for %s", p.ID)
	}

	// The source image spans the full bounds beneath the tile layer, so
	// the map shows content while tiles resolve.
	overlay := m.AddImageOverlay(p.Image, bounds)

	// Tiles resolve long after initialization finishes, so the layer must
	// not inherit the init context's cancellation.
	tileCtx := context.WithoutCancel(ctx)
	m.AddTiles(func(z, x, y int) string {
		return src.Resolve(tileCtx, z, x, y).URI()
	})
	m.FitBounds(bounds)
	m.SetMaxBounds(bounds.Pad(maxBoundsPad))

	s.mu.Lock()
	s.overlay = overlay
	s.minZoom, s.maxZoom = minZoom, maxZoom
	s.initialZoom = m.Zoom()
	s.imageSize = image.Point{X: md.Width, Y: md.Height}
	s.mu.Unlock()
	return m, nil
}

func (s *Session) initGeoMap(ctx context.Context) (engine.Map, error) {
	p := s.cfg.Params

	minZoom, maxZoom := 0, 18
	if p.MinZoom != nil {
		minZoom = *p.MinZoom
	}
	if p.MaxZoom != nil {
		maxZoom = *p.MaxZoom
	}
	zoom := defaultGeoZoom
	if p.DefaultZoom != nil {
		zoom = *p.DefaultZoom
	}
	zoom = clamp(zoom, minZoom, maxZoom)

	var center geom.LatLng
	if p.Lat != nil && p.Long != nil {
		center = geom.LatLng{Lat: *p.Lat, Lng: *p.Long}
	}

	m, err := s.cfg.Engine.NewMap(s.cfg.Container, engine.Options{
		MinZoom:     minZoom,
		MaxZoom:     maxZoom,
		Zoom:        zoom,
		Center:      center,
		ZoomControl: true,
		DarkMode:    p.DarkMode,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create canvas for %s", p.ID)
	}

	m.AddTileServer(s.tileServer())
	m.SetView(center, zoom)

	s.mu.Lock()
	s.minZoom, s.maxZoom = minZoom, maxZoom
	s.initialZoom = zoom
	s.mu.Unlock()
	return m, nil
}

// tileServer picks the tile URL template: explicit parameter, then the dark
// variant when dark mode is on, then the default.
func (s *Session) tileServer() string {
	if s.cfg.Params.TileServer != "" {
		return s.cfg.Params.TileServer
	}
	if s.cfg.Params.DarkMode {
		return DarkTileServer
	}
	return DefaultTileServer
}

// checkDecodable verifies the image header decodes within the configured
// timeout. Undecodable bytes and hung decodes fail initialization with
// distinct codes.
func (s *Session) checkDecodable(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.DecodeTimeout)
	defer cancel()

	type result struct {
		err error
	}
	ch := make(chan result, 1)
	go func() {
		_, _, err := image.DecodeConfig(bytes.NewReader(data))
		ch <- result{err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return errors.Wrap(errors.ErrCodeDecodeFailed, r.err, "decode map image %s", s.cfg.Params.Image)
		}
		return nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return errors.New(errors.ErrCodeDecodeTimeout, "decoding map image %s exceeded %s", s.cfg.Params.Image, s.cfg.DecodeTimeout)
		}
		return ctx.Err()
	}
}

func (s *Session) resolveMarkers(ctx context.Context) []markers.Definition {
	p := s.cfg.Params
	if s.cfg.Discover == nil {
		return markers.Dedupe(p.Markers)
	}
	return s.cfg.Discover.Discover(ctx, markers.Options{
		MapID:       p.ID,
		Explicit:    p.Markers,
		MarkerFiles: p.MarkerFiles,
		TagFilters:  p.MarkerTags,
	})
}

// hasExplicitCenter reports whether the block parameters pin the view to a
// lat/long pair.
func (s *Session) hasExplicitCenter() bool {
	return s.cfg.Params.Lat != nil && s.cfg.Params.Long != nil
}

// placeMarker converts a marker definition to engine coordinates and adds
// it to the map. Markers whose position cannot be expressed in the map's
// coordinate space are skipped with a warning.
func (s *Session) placeMarker(m engine.Map, def markers.Definition) (engine.MarkerHandle, geom.LatLng, bool) {
	pos, ok := s.markerPos(def)
	if !ok {
		s.cfg.Logger.Warn("skipping marker with unusable position",
			"map", s.cfg.Params.ID, "marker", def.ID, "link", def.Link)
		return nil, geom.LatLng{}, false
	}

	h := m.AddMarker(engine.MarkerSpec{
		Pos:     pos,
		IconURI: def.Type.IconDataURI(def.IconColor, markers.DefaultIconSize),
		Tooltip: def.Description,
		Link:    def.Link,
		MinZoom: def.MinZoom,
		MaxZoom: def.MaxZoom,
		Layer:   def.Layer,
	})
	if def.Link != "" && s.cfg.OnNavigate != nil {
		h.OnClick(s.cfg.OnNavigate)
	}
	return h, pos, true
}

func (s *Session) markerPos(def markers.Definition) (geom.LatLng, bool) {
	if s.cfg.Params.Mode != mapblock.ModeImage {
		if def.Loc.Percent {
			return geom.LatLng{}, false
		}
		return geom.LatLng{Lat: def.Loc.X, Lng: def.Loc.Y}, true
	}

	s.mu.Lock()
	size := s.imageSize
	s.mu.Unlock()

	px, py := def.Loc.X, def.Loc.Y
	if def.Loc.Percent {
		px, py = geom.PercentToPixel(def.Loc.X, def.Loc.Y, size.X, size.Y)
	}
	return geom.PixelToLogical(px, py, size.X, size.Y), true
}

// ready returns the live map or an error describing why there is none.
func (s *Session) ready() (engine.Map, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateReady:
		return s.m, nil
	case StateDestroyed:
		return nil, errors.New(errors.ErrCodeSessionDestroyed, "map session %s is destroyed", s.cfg.Params.ID)
	default:
		return nil, errors.New(errors.ErrCodeInternal, "map session %s is not initialized", s.cfg.Params.ID)
	}
}

// ZoomIn increases the zoom by one level, clamped to the session's range.
func (s *Session) ZoomIn() error { return s.zoomBy(1) }

// ZoomOut decreases the zoom by one level, clamped to the session's range.
func (s *Session) ZoomOut() error { return s.zoomBy(-1) }

func (s *Session) zoomBy(delta int) error {
	m, err := s.ready()
	if err != nil {
		return err
	}
	s.mu.Lock()
	minZoom, maxZoom := s.minZoom, s.maxZoom
	s.mu.Unlock()
	m.SetZoom(clamp(m.Zoom()+delta, minZoom, maxZoom))
	return nil
}

// ResetZoom restores the initial zoom level.
func (s *Session) ResetZoom() error {
	m, err := s.ready()
	if err != nil {
		return err
	}
	s.mu.Lock()
	zoom := s.initialZoom
	s.mu.Unlock()
	m.SetZoom(zoom)
	return nil
}

// FitToMarkers pans and zooms so every placed marker is visible, with a
// little slack around the bounding box. A map with no markers is left
// alone.
func (s *Session) FitToMarkers(defs []markers.Definition) error {
	m, err := s.ready()
	if err != nil {
		return err
	}
	points := make([]geom.LatLng, 0, len(defs))
	for _, def := range defs {
		if pos, ok := s.markerPos(def); ok {
			points = append(points, pos)
		}
	}
	if b, ok := geom.BoundsOf(points); ok {
		m.FitBounds(b.Pad(fitBoundsPad))
	}
	return nil
}

// InvalidateSize asks the canvas to re-measure its container. Calls within
// the debounce window coalesce into one re-measure.
func (s *Session) InvalidateSize() error {
	m, err := s.ready()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalidateTimer != nil {
		s.invalidateTimer.Stop()
	}
	s.invalidateTimer = time.AfterFunc(invalidateDebounce, m.InvalidateSize)
	return nil
}

// Destroy tears the map down. The session can be initialized again
// afterwards; destroying an already destroyed or uninitialized session is
// a no-op.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalidateTimer != nil {
		s.invalidateTimer.Stop()
		s.invalidateTimer = nil
	}
	for _, h := range s.markerSet {
		h.Remove()
	}
	s.markerSet = nil
	if s.overlay != nil {
		s.overlay.Remove()
		s.overlay = nil
	}
	if s.m != nil {
		s.m.Remove()
		s.m = nil
	}
	s.state = StateDestroyed
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
