// Package pyramid decomposes a source image into a multi-resolution tile
// pyramid and writes it through the content-addressed tile store.
//
// Generation proceeds from the deepest zoom level (full resolution) down to
// the shallowest. Each level is sliced into tileSize×tileSize tiles; edge
// tiles keep the full canvas size with the uncovered area left transparent.
// The source image hash is the pyramid's identity: regenerating for
// byte-identical content short-circuits on the existing metadata record.
//
// Long generations cooperate with their host: after every ten tiles the
// generator calls its yield point, and an optional progress callback reports
// completion state. There is no cancellation token beyond the context; an
// abandoned generation leaves a metadata-less, therefore invalid, pyramid
// directory behind.
package pyramid

import (
	"bytes"
	"context"
	"image"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/singleflight"

	// Register decoders beyond the stdlib set so hand-drawn maps exported
	// in other formats still slice.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/tilecraft/atlas/pkg/buildinfo"
	"github.com/tilecraft/atlas/pkg/cache"
	"github.com/tilecraft/atlas/pkg/errors"
	"github.com/tilecraft/atlas/pkg/observability"
	"github.com/tilecraft/atlas/pkg/tilestore"
)

// Method identifies the generation algorithm in pyramid metadata.
const Method = "slice-scale"

// yieldEvery is how many tiles are written between yield points.
const yieldEvery = 10

// Progress reports generation state to the progress callback.
type Progress struct {
	TilesGenerated   int     `json:"tilesGenerated"`
	TotalTiles       int     `json:"totalTiles"`
	CurrentZoomIndex int     `json:"currentZoomIndex"`
	TotalZoomLevels  int     `json:"totalZoomLevels"`
	PercentComplete  float64 `json:"percentComplete"`
}

// ProgressFunc receives periodic generation progress.
type ProgressFunc func(Progress)

// YieldPoint suspends the generator briefly so the host stays responsive.
// It is called after every ten tiles. Implementations return a non-nil
// error to abort generation (typically the context's error).
type YieldPoint func(ctx context.Context) error

// GoscheduleYield is the default yield point: it hands the processor to
// other goroutines and honors context cancellation.
func GoscheduleYield(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}

// Generator slices source images into tile pyramids.
type Generator struct {
	store    *tilestore.Store
	tileSize int
	yield    YieldPoint
	logger   *log.Logger

	// group collapses concurrent in-process generations of the same hash.
	// There is deliberately no cross-process lock: duplicate work between
	// processes is idempotent, not corrupting.
	group singleflight.Group
}

// Option configures a Generator.
type Option func(*Generator)

// WithTileSize overrides the tile edge length.
func WithTileSize(size int) Option {
	return func(g *Generator) { g.tileSize = size }
}

// WithYieldPoint overrides the cooperative yield behavior, letting the same
// algorithm run under a different scheduling model.
func WithYieldPoint(y YieldPoint) Option {
	return func(g *Generator) { g.yield = y }
}

// WithLogger sets the generator's logger.
func WithLogger(l *log.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New creates a Generator writing through the given store.
func New(store *tilestore.Store, opts ...Option) *Generator {
	g := &Generator{
		store:    store,
		tileSize: DefaultTileSize,
		yield:    GoscheduleYield,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// TileSize returns the configured tile edge length.
func (g *Generator) TileSize() int { return g.tileSize }

// Generate builds the tile pyramid for source and returns its content hash.
// sourcePath is recorded in metadata for provenance only; identity is the
// hash of the bytes. onProgress may be nil.
//
// If a valid pyramid (metadata present) already exists for the content,
// Generate returns its hash without doing any work.
func (g *Generator) Generate(ctx context.Context, source []byte, sourcePath string, onProgress ProgressFunc) (string, error) {
	hash := cache.ShortHash(source)

	_, err, _ := g.group.Do(hash, func() (any, error) {
		return nil, g.generate(ctx, hash, source, sourcePath, onProgress)
	})
	if err != nil {
		return "", err
	}
	return hash, nil
}

func (g *Generator) generate(ctx context.Context, hash string, source []byte, sourcePath string, onProgress ProgressFunc) error {
	exists, err := g.store.Exists(ctx, hash)
	if err != nil {
		return err
	}
	if exists {
		g.logger.Debug("pyramid already generated", "hash", hash)
		observability.Generator().OnGenerateSkip(ctx, hash)
		return nil
	}

	img, err := imaging.Decode(bytes.NewReader(source))
	if err != nil {
		return errors.Wrap(errors.ErrCodeDecodeFailed, err, "decode %s", sourcePath)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return errors.New(errors.ErrCodeDecodeFailed, "%s decoded to zero dimensions", sourcePath)
	}

	minZoom, maxZoom := ZoomRange(width, height, g.tileSize)
	totalTiles := TotalTiles(width, height, g.tileSize, minZoom, maxZoom)
	totalLevels := maxZoom - minZoom + 1

	g.logger.Info("generating tile pyramid",
		"hash", hash,
		"size", [2]int{width, height},
		"zoom", [2]int{minZoom, maxZoom},
		"tiles", totalTiles)
	observability.Generator().OnGenerateStart(ctx, hash, width, height)
	start := time.Now()

	written := 0
	// Deepest level first: a reader of a half-generated pyramid may see
	// deep levels populated and shallow ones missing, which is why only
	// the metadata record, written last, marks the pyramid valid.
	for z := maxZoom; z >= minZoom; z-- {
		levelTiles, err := g.generateLevel(ctx, img, hash, z, maxZoom, &written, totalTiles, maxZoom-z, totalLevels, onProgress)
		if err != nil {
			observability.Generator().OnGenerateComplete(ctx, hash, written, time.Since(start), err)
			return err
		}
		g.logger.Debug("zoom level complete", "hash", hash, "zoom", z, "tiles", levelTiles)
		observability.Generator().OnLevelComplete(ctx, hash, z, levelTiles)
	}

	md := tilestore.Metadata{
		Width:       width,
		Height:      height,
		TileSize:    g.tileSize,
		MinZoom:     minZoom,
		MaxZoom:     maxZoom,
		ImageHash:   hash,
		SourcePath:  sourcePath,
		GeneratedAt: time.Now().UnixMilli(),
		Method:      Method,
		Version:     buildinfo.Version,
	}
	if err := g.store.WriteMetadata(ctx, hash, md); err != nil {
		observability.Generator().OnGenerateComplete(ctx, hash, written, time.Since(start), err)
		return err
	}

	if onProgress != nil {
		onProgress(Progress{
			TilesGenerated:   written,
			TotalTiles:       totalTiles,
			CurrentZoomIndex: totalLevels - 1,
			TotalZoomLevels:  totalLevels,
			PercentComplete:  100,
		})
	}
	g.logger.Info("pyramid generated", "hash", hash, "tiles", written,
		"duration", time.Since(start).Round(time.Millisecond))
	observability.Generator().OnGenerateComplete(ctx, hash, written, time.Since(start), nil)
	return nil
}

// generateLevel writes every tile of one zoom level.
func (g *Generator) generateLevel(ctx context.Context, img image.Image, hash string, z, maxZoom int, written *int, totalTiles, zoomIndex, totalLevels int, onProgress ProgressFunc) (int, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	shift := uint(maxZoom - z)
	scaledW, scaledH := LevelDims(width, height, z, maxZoom)
	cols, rows := LevelGrid(width, height, g.tileSize, z, maxZoom)

	levelTiles := 0
	for ty := 0; ty < rows; ty++ {
		for tx := 0; tx < cols; tx++ {
			tile := g.renderTile(img, shift, scaledW, scaledH, tx, ty)

			var buf bytes.Buffer
			if err := imaging.Encode(&buf, tile, imaging.PNG); err != nil {
				return levelTiles, errors.Wrap(errors.ErrCodeInternal, err, "encode tile %d/%d/%d", z, tx, ty)
			}
			if err := g.store.WriteTile(ctx, hash, z, tx, ty, buf.Bytes()); err != nil {
				return levelTiles, err
			}

			levelTiles++
			*written++
			if *written%yieldEvery == 0 {
				if err := g.yield(ctx); err != nil {
					return levelTiles, err
				}
				if onProgress != nil {
					onProgress(Progress{
						TilesGenerated:   *written,
						TotalTiles:       totalTiles,
						CurrentZoomIndex: zoomIndex,
						TotalZoomLevels:  totalLevels,
						PercentComplete:  float64(*written) / float64(totalTiles) * 100,
					})
				}
			}
		}
	}
	return levelTiles, nil
}

// renderTile draws one grid cell onto a full-size transparent canvas. The
// source region is addressed in original image coordinates (tile rectangle
// multiplied back up by the level's scale divisor), not in scaled
// coordinates, so no resampling error accumulates across levels.
func (g *Generator) renderTile(img image.Image, shift uint, scaledW, scaledH, tx, ty int) *image.NRGBA {
	// Content size on the scaled plane; edge tiles clip.
	destW := g.tileSize
	if remain := scaledW - tx*g.tileSize; remain < destW {
		destW = remain
	}
	destH := g.tileSize
	if remain := scaledH - ty*g.tileSize; remain < destH {
		destH = remain
	}

	bounds := img.Bounds()
	srcX := bounds.Min.X + (tx*g.tileSize)<<shift
	srcY := bounds.Min.Y + (ty*g.tileSize)<<shift
	srcW := g.tileSize << shift
	srcH := g.tileSize << shift
	if avail := bounds.Max.X - srcX; srcW > avail {
		srcW = avail
	}
	if avail := bounds.Max.Y - srcY; srcH > avail {
		srcH = avail
	}

	region := imaging.Crop(img, image.Rect(srcX, srcY, srcX+srcW, srcY+srcH))
	if shift > 0 {
		region = imaging.Resize(region, destW, destH, imaging.Lanczos)
	}

	// Canvas stays tileSize x tileSize even at edges; uncovered area is
	// transparent.
	canvas := image.NewNRGBA(image.Rect(0, 0, g.tileSize, g.tileSize))
	return imaging.Paste(canvas, region, image.Pt(0, 0))
}
