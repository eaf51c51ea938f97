package tilestore

import (
	"context"
	"testing"

	"github.com/tilecraft/atlas/pkg/cache"
	"github.com/tilecraft/atlas/pkg/vault"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	v, err := vault.NewFSVault(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSVault: %v", err)
	}
	return New(v)
}

func TestTilePathLayout(t *testing.T) {
	s := newTestStore(t)

	if got := s.TilePath("ab12cd34ef56ab78", 3, 5, 2); got != ".atlas/tiles/ab12cd34ef56ab78/3/5/2.png" {
		t.Errorf("TilePath = %q", got)
	}
	if got := s.MetadataPath("ab12cd34ef56ab78"); got != ".atlas/tiles/ab12cd34ef56ab78/metadata.json" {
		t.Errorf("MetadataPath = %q", got)
	}
}

func TestExistsRequiresMetadata(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	const hash = "ab12cd34ef56ab78"

	// Tiles alone do not make a pyramid valid.
	if err := s.WriteTile(ctx, hash, 0, 0, 0, []byte("tile")); err != nil {
		t.Fatalf("WriteTile: %v", err)
	}
	ok, err := s.Exists(ctx, hash)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("pyramid without metadata must not be valid")
	}

	md := Metadata{
		Width: 4096, Height: 2048, TileSize: 256,
		MinZoom: 0, MaxZoom: 4,
		ImageHash: hash, SourcePath: "maps/westeros.png",
		GeneratedAt: 1700000000000, Method: "slice-scale", Version: "1.0.0",
	}
	if err := s.WriteMetadata(ctx, hash, md); err != nil {
		t.Fatalf("WriteMetadata: %v", err)
	}

	ok, err = s.Exists(ctx, hash)
	if err != nil || !ok {
		t.Errorf("Exists after metadata: ok=%v err=%v", ok, err)
	}
}

func TestReadMetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	const hash = "1122334455667788"

	// Nil for unknown hash, not an error.
	md, err := s.ReadMetadata(ctx, hash)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if md != nil {
		t.Error("unknown hash should yield nil metadata")
	}

	want := Metadata{
		Width: 512, Height: 256, TileSize: 256,
		MinZoom: 0, MaxZoom: 1,
		ImageHash: hash, SourcePath: "maps/small.png",
		GeneratedAt: 1700000000000, Method: "slice-scale", Version: "1.0.0",
	}
	if err := s.WriteMetadata(ctx, hash, want); err != nil {
		t.Fatalf("WriteMetadata: %v", err)
	}

	got, err := s.ReadMetadata(ctx, hash)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if got == nil || *got != want {
		t.Errorf("ReadMetadata = %+v, want %+v", got, want)
	}
}

func TestTileRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	const hash = "deadbeefdeadbeef"

	// Missing tile reads as nil bytes, never an error.
	data, err := s.ReadTile(ctx, hash, 2, 1, 1)
	if err != nil {
		t.Fatalf("ReadTile miss: %v", err)
	}
	if data != nil {
		t.Error("missing tile should read as nil")
	}

	if err := s.WriteTile(ctx, hash, 2, 1, 1, []byte("png-bytes")); err != nil {
		t.Fatalf("WriteTile: %v", err)
	}

	// Overwriting the same deterministic path is a full replace.
	if err := s.WriteTile(ctx, hash, 2, 1, 1, []byte("png-bytes")); err != nil {
		t.Fatalf("idempotent WriteTile: %v", err)
	}

	data, err = s.ReadTile(ctx, hash, 2, 1, 1)
	if err != nil {
		t.Fatalf("ReadTile: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("ReadTile = %q", data)
	}

	ok, err := s.TileExists(ctx, hash, 2, 1, 1)
	if err != nil || !ok {
		t.Errorf("TileExists: ok=%v err=%v", ok, err)
	}
	ok, err = s.TileExists(ctx, hash, 2, 9, 9)
	if err != nil || ok {
		t.Errorf("TileExists out of grid: ok=%v err=%v", ok, err)
	}
}

func TestStoreWithCache(t *testing.T) {
	ctx := context.Background()
	v, err := vault.NewFSVault(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSVault: %v", err)
	}
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	s := New(v, WithCache(c), WithBasePath("tiles"))
	const hash = "cafec0ffeecafe00"

	md := Metadata{Width: 256, Height: 256, TileSize: 256, ImageHash: hash, Version: "1.0.0"}
	if err := s.WriteMetadata(ctx, hash, md); err != nil {
		t.Fatalf("WriteMetadata: %v", err)
	}

	got, err := s.ReadMetadata(ctx, hash)
	if err != nil || got == nil {
		t.Fatalf("ReadMetadata: got=%v err=%v", got, err)
	}
	if got.ImageHash != hash {
		t.Errorf("ImageHash = %q", got.ImageHash)
	}

	if got := s.TilePath(hash, 0, 0, 0); got != "tiles/cafec0ffeecafe00/0/0/0.png" {
		t.Errorf("TilePath with base override = %q", got)
	}
}
