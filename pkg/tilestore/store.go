// Package tilestore persists tile pyramids content-addressed by a hash of
// the source image bytes.
//
// Layout inside the vault namespace:
//
//	{base}/{hash}/metadata.json
//	{base}/{hash}/{z}/{x}/{y}.png
//
// Only a fully written metadata record makes a pyramid valid: tiles are
// written first and metadata last, so a crash or abandoned generation leaves
// a metadata-less directory that readers treat as absent. The store exposes
// no update or delete operations; a changed source image hashes to a new
// directory and stale pyramids are left behind.
package tilestore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tilecraft/atlas/pkg/cache"
	"github.com/tilecraft/atlas/pkg/errors"
	"github.com/tilecraft/atlas/pkg/vault"
)

// TileExt is the encoded tile format extension.
const TileExt = "png"

// DefaultBasePath is where pyramids live inside a vault unless configured
// otherwise.
const DefaultBasePath = ".atlas/tiles"

// Metadata describes one generated pyramid. Written once, last, and never
// mutated.
type Metadata struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	TileSize    int    `json:"tileSize"`
	MinZoom     int    `json:"minZoom"`
	MaxZoom     int    `json:"maxZoom"`
	ImageHash   string `json:"imageHash"`
	SourcePath  string `json:"sourcePath"`
	GeneratedAt int64  `json:"generatedAt"` // epoch milliseconds
	Method      string `json:"method"`
	Version     string `json:"version"`
}

// Store is a content-addressed tile store over a vault's binary namespace.
// An optional cache accelerates metadata reads and existence checks; the
// vault remains the source of truth.
type Store struct {
	repo  vault.Repository
	base  string
	cache cache.Cache
}

// Option configures a Store.
type Option func(*Store)

// WithBasePath overrides the base path for pyramid storage.
func WithBasePath(base string) Option {
	return func(s *Store) { s.base = base }
}

// WithCache adds a read-through cache for metadata lookups.
func WithCache(c cache.Cache) Option {
	return func(s *Store) { s.cache = c }
}

// New creates a tile store backed by the given vault.
func New(repo vault.Repository, opts ...Option) *Store {
	s := &Store{
		repo:  repo,
		base:  DefaultBasePath,
		cache: cache.NewNullCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TilePath returns the deterministic vault path for one tile.
func (s *Store) TilePath(hash string, z, x, y int) string {
	return fmt.Sprintf("%s/%s/%d/%d/%d.%s", s.base, hash, z, x, y, TileExt)
}

// MetadataPath returns the vault path of a pyramid's metadata record.
func (s *Store) MetadataPath(hash string) string {
	return fmt.Sprintf("%s/%s/metadata.json", s.base, hash)
}

// Exists reports whether a valid pyramid exists for hash, judged solely by
// metadata presence. Half-written tile directories without metadata report
// false.
func (s *Store) Exists(ctx context.Context, hash string) (bool, error) {
	md, err := s.ReadMetadata(ctx, hash)
	if err != nil {
		return false, err
	}
	return md != nil, nil
}

// TileExists reports whether one tile blob is present. Missing tiles are a
// normal state, not an error.
func (s *Store) TileExists(ctx context.Context, hash string, z, x, y int) (bool, error) {
	return s.repo.Exists(ctx, s.TilePath(hash, z, x, y))
}

// WriteTile stores one encoded tile. Writes are full replaces of a
// deterministic path, so concurrent duplicate generations overwrite
// identical bytes rather than corrupting each other.
func (s *Store) WriteTile(ctx context.Context, hash string, z, x, y int, data []byte) error {
	if err := s.repo.WriteBinary(ctx, s.TilePath(hash, z, x, y), data); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, err, "write tile %s %d/%d/%d", hash, z, x, y)
	}
	return nil
}

// ReadTile loads one encoded tile. Returns nil bytes (no error) when the
// tile does not exist.
func (s *Store) ReadTile(ctx context.Context, hash string, z, x, y int) ([]byte, error) {
	p := s.TilePath(hash, z, x, y)
	ok, err := s.repo.Exists(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	data, err := s.repo.ReadBinary(ctx, p)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// WriteMetadata stores the pyramid metadata record, the final step of
// generation that marks the pyramid valid.
func (s *Store) WriteMetadata(ctx context.Context, hash string, md Metadata) error {
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal metadata for %s", hash)
	}
	if err := s.repo.WriteBinary(ctx, s.MetadataPath(hash), data); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, err, "write metadata for %s", hash)
	}
	_ = s.cache.Set(ctx, s.metadataCacheKey(hash), data, cache.TTLMetadata)
	return nil
}

// ReadMetadata loads a pyramid's metadata. Returns nil (no error) when no
// metadata record exists.
func (s *Store) ReadMetadata(ctx context.Context, hash string) (*Metadata, error) {
	key := s.metadataCacheKey(hash)
	if data, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		var md Metadata
		if err := json.Unmarshal(data, &md); err == nil {
			return &md, nil
		}
	}

	p := s.MetadataPath(hash)
	ok, err := s.repo.Exists(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	data, err := s.repo.ReadBinary(ctx, p)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreRead, err, "parse metadata for %s", hash)
	}
	_ = s.cache.Set(ctx, key, data, cache.TTLMetadata)
	return &md, nil
}

func (s *Store) metadataCacheKey(hash string) string {
	return "pyramid:meta:" + hash
}
