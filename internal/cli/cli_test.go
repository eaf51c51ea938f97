package cli

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/tilecraft/atlas/pkg/cache"
	"github.com/tilecraft/atlas/pkg/pyramid"
	"github.com/tilecraft/atlas/pkg/tilestore"
	"github.com/tilecraft/atlas/pkg/vault"
)

func writeTestImage(t *testing.T, dir, name string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 80, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 80; x++ {
			img.Set(x, y, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestRunGeneratePlain(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, dir, "map.png")

	opts := &generateOpts{
		vaultDir: dir,
		tileSize: pyramid.DefaultTileSize,
		noCache:  true,
		plain:    true,
	}
	if err := runGenerate(context.Background(), "map.png", opts); err != nil {
		t.Fatalf("runGenerate: %v", err)
	}

	// A second run short-circuits on the existing pyramid.
	if err := runGenerate(context.Background(), "map.png", opts); err != nil {
		t.Fatalf("second runGenerate: %v", err)
	}
}

func TestRunGenerateMissingImage(t *testing.T) {
	opts := &generateOpts{vaultDir: t.TempDir(), tileSize: pyramid.DefaultTileSize, noCache: true, plain: true}
	if err := runGenerate(context.Background(), "nope.png", opts); err == nil {
		t.Fatal("expected an error for a missing image")
	}
}

func TestListPyramids(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo, err := vault.NewFSVault(dir)
	if err != nil {
		t.Fatalf("vault: %v", err)
	}
	store := tilestore.New(repo)

	if hashes, err := listPyramids(dir, ""); err != nil || len(hashes) != 0 {
		t.Fatalf("empty store: hashes=%v err=%v", hashes, err)
	}

	writeTestImage(t, dir, "map.png")
	data, err := os.ReadFile(filepath.Join(dir, "map.png"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	hash, err := pyramid.New(store).Generate(ctx, data, "map.png", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	hashes, err := listPyramids(dir, "")
	if err != nil {
		t.Fatalf("listPyramids: %v", err)
	}
	if len(hashes) != 1 || hashes[0] != hash {
		t.Errorf("hashes = %v, want [%s]", hashes, hash)
	}
	if len(hash) != cache.ShortHashLen {
		t.Errorf("hash length = %d", len(hash))
	}
}

func TestRunValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.toml")
	if err := os.WriteFile(good, []byte("image = \"maps/westeros.png\"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := runValidate(good); err != nil {
		t.Errorf("runValidate(good) = %v", err)
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("lat = 95.0\nlong = 0.0\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := runValidate(bad); err == nil {
		t.Error("runValidate(bad) should fail on an out-of-range latitude")
	}
}

func TestCacheDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-test")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-test", appName) {
		t.Errorf("dir = %q", dir)
	}
}
