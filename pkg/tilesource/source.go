// Package tilesource adapts a stored tile pyramid to the tile-request
// contract of the interactive map engine.
//
// The engine asks for tiles by (zoom, x, y). Coordinates inside the
// generated grid resolve to the stored tile blob; everything else (levels
// beyond the pyramid, cells past the edge, tiles absent for any reason)
// resolves to a fixed 1x1 transparent placeholder. A missing tile is an
// absence of content, never an error.
package tilesource

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"

	"github.com/charmbracelet/log"

	"github.com/tilecraft/atlas/pkg/errors"
	"github.com/tilecraft/atlas/pkg/observability"
	"github.com/tilecraft/atlas/pkg/pyramid"
	"github.com/tilecraft/atlas/pkg/tilestore"
)

// PlaceholderPNG is a 1x1 fully transparent PNG.
var PlaceholderPNG = func() []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	return buf.Bytes()
}()

// PlaceholderDataURI is the placeholder as a browser-loadable data URI.
var PlaceholderDataURI = "data:image/png;base64," + base64.StdEncoding.EncodeToString(PlaceholderPNG)

// Ref is a resolvable tile resource reference. The zero value is the
// transparent placeholder.
type Ref struct {
	// Path is the vault path of the tile blob; empty for the placeholder.
	Path string `json:"path,omitempty"`
}

// IsPlaceholder reports whether the reference is the transparent placeholder.
func (r Ref) IsPlaceholder() bool { return r.Path == "" }

// URI returns a loadable reference for the tile: the vault path, or the
// placeholder data URI.
func (r Ref) URI() string {
	if r.IsPlaceholder() {
		return PlaceholderDataURI
	}
	return r.Path
}

// TileElement is the engine-side object that displays one tile, for engines
// that request a concrete element rather than a URL. Load begins loading ref
// and reports the outcome through exactly one of the two callbacks.
type TileElement interface {
	Load(ref Ref, onLoad func(), onError func(error))
}

// Source serves one pyramid's tiles to the map engine.
type Source struct {
	store  *tilestore.Store
	md     tilestore.Metadata
	logger *log.Logger
}

// New creates a tile source for the pyramid identified by hash. The pyramid
// must be valid (metadata present).
func New(ctx context.Context, store *tilestore.Store, hash string, logger *log.Logger) (*Source, error) {
	if logger == nil {
		logger = log.Default()
	}
	md, err := store.ReadMetadata(ctx, hash)
	if err != nil {
		return nil, err
	}
	if md == nil {
		return nil, errors.New(errors.ErrCodePyramidNotFound, "no valid pyramid for hash %s", hash)
	}
	return &Source{store: store, md: *md, logger: logger}, nil
}

// Metadata returns the pyramid's metadata record.
func (s *Source) Metadata() tilestore.Metadata { return s.md }

// Resolve maps (z,x,y) to a tile reference. It never fails: coordinates
// outside the generated grid, missing tiles, and even store errors all
// resolve to the placeholder (store errors are logged as diagnostics).
func (s *Source) Resolve(ctx context.Context, z, x, y int) Ref {
	if !s.inGrid(z, x, y) {
		observability.TileSource().OnTileMiss(ctx, s.md.ImageHash, z, x, y)
		return Ref{}
	}

	ok, err := s.store.TileExists(ctx, s.md.ImageHash, z, x, y)
	if err != nil {
		s.logger.Debug("tile existence check failed, serving placeholder",
			"hash", s.md.ImageHash, "z", z, "x", x, "y", y, "err", err)
		observability.TileSource().OnTileMiss(ctx, s.md.ImageHash, z, x, y)
		return Ref{}
	}
	if !ok {
		observability.TileSource().OnTileMiss(ctx, s.md.ImageHash, z, x, y)
		return Ref{}
	}

	observability.TileSource().OnTileHit(ctx, s.md.ImageHash, z, x, y)
	return Ref{Path: s.store.TilePath(s.md.ImageHash, z, x, y)}
}

// ReadTile returns the encoded tile bytes for (z,x,y), or the placeholder
// bytes when the tile is absent. Used by URL-template consumers such as the
// local tile endpoint.
func (s *Source) ReadTile(ctx context.Context, z, x, y int) []byte {
	if ref := s.Resolve(ctx, z, x, y); !ref.IsPlaceholder() {
		data, err := s.store.ReadTile(ctx, s.md.ImageHash, z, x, y)
		if err == nil && data != nil {
			return data
		}
		s.logger.Debug("tile read failed, serving placeholder",
			"hash", s.md.ImageHash, "z", z, "x", x, "y", y, "err", err)
	}
	return PlaceholderPNG
}

// Materialize resolves (z,x,y) and drives elem's load cycle. done is called
// exactly once; a load failure swaps in the placeholder and still counts as
// done, since a missing tile must never surface as a rendering error.
func (s *Source) Materialize(ctx context.Context, z, x, y int, elem TileElement, done func()) {
	ref := s.Resolve(ctx, z, x, y)
	elem.Load(ref, done, func(err error) {
		s.logger.Debug("tile load failed, falling back to placeholder",
			"hash", s.md.ImageHash, "z", z, "x", x, "y", y, "err", err)
		// The placeholder is inline data; its load cannot fail.
		elem.Load(Ref{}, done, func(error) { done() })
	})
}

// inGrid reports whether (z,x,y) lies within the generated pyramid.
func (s *Source) inGrid(z, x, y int) bool {
	if z < s.md.MinZoom || z > s.md.MaxZoom || x < 0 || y < 0 {
		return false
	}
	cols, rows := pyramid.LevelGrid(s.md.Width, s.md.Height, s.md.TileSize, z, s.md.MaxZoom)
	return x < cols && y < rows
}
