package pyramid

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/tilecraft/atlas/pkg/cache"
	"github.com/tilecraft/atlas/pkg/tilestore"
	"github.com/tilecraft/atlas/pkg/vault"
)

// testImage encodes a width x height PNG with a simple gradient so tiles are
// distinguishable.
func testImage(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func newTestGenerator(t *testing.T, opts ...Option) (*Generator, *tilestore.Store) {
	t.Helper()
	v, err := vault.NewFSVault(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSVault: %v", err)
	}
	store := tilestore.New(v)
	return New(store, opts...), store
}

func TestGenerateSmallImageSingleTile(t *testing.T) {
	ctx := context.Background()
	g, store := newTestGenerator(t)

	// max(width,height) <= tileSize: one level, one tile.
	hash, err := g.Generate(ctx, testImage(t, 200, 120), "maps/small.png", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	md, err := store.ReadMetadata(ctx, hash)
	if err != nil || md == nil {
		t.Fatalf("ReadMetadata: md=%v err=%v", md, err)
	}
	if md.MaxZoom != 0 || md.MinZoom != 0 {
		t.Errorf("zoom range = (%d,%d), want (0,0)", md.MinZoom, md.MaxZoom)
	}
	if md.Width != 200 || md.Height != 120 {
		t.Errorf("dims = (%d,%d)", md.Width, md.Height)
	}
	if md.Method != Method {
		t.Errorf("Method = %q", md.Method)
	}

	ok, err := store.TileExists(ctx, hash, 0, 0, 0)
	if err != nil || !ok {
		t.Errorf("level-0 tile missing: ok=%v err=%v", ok, err)
	}
	ok, _ = store.TileExists(ctx, hash, 0, 1, 0)
	if ok {
		t.Error("single-tile pyramid should not have a second tile")
	}
}

func TestGenerateMultiLevel(t *testing.T) {
	ctx := context.Background()
	g, store := newTestGenerator(t)

	// 600x400 at tileSize 256: maxZoom 2.
	// z2: 3x2, z1: (300x200) 2x1, z0: (150x100) 1x1.
	hash, err := g.Generate(ctx, testImage(t, 600, 400), "maps/mid.png", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	md, err := store.ReadMetadata(ctx, hash)
	if err != nil || md == nil {
		t.Fatalf("ReadMetadata: md=%v err=%v", md, err)
	}
	if md.MinZoom != 0 || md.MaxZoom != 2 {
		t.Fatalf("zoom range = (%d,%d), want (0,2)", md.MinZoom, md.MaxZoom)
	}

	wantGrids := map[int][2]int{2: {3, 2}, 1: {2, 1}, 0: {1, 1}}
	for z, grid := range wantGrids {
		for ty := 0; ty < grid[1]; ty++ {
			for tx := 0; tx < grid[0]; tx++ {
				ok, err := store.TileExists(ctx, hash, z, tx, ty)
				if err != nil || !ok {
					t.Errorf("tile %d/%d/%d missing: ok=%v err=%v", z, tx, ty, ok, err)
				}
			}
		}
		// One past the grid edge must be absent.
		ok, _ := store.TileExists(ctx, hash, z, grid[0], 0)
		if ok {
			t.Errorf("unexpected tile %d/%d/0 beyond grid", z, grid[0])
		}
	}
}

func TestGeneratedTilesAreFullCanvas(t *testing.T) {
	ctx := context.Background()
	g, store := newTestGenerator(t)

	hash, err := g.Generate(ctx, testImage(t, 600, 400), "maps/mid.png", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// Edge tile (2,1) at z2 covers only 600-512=88 x 400-256=144 pixels of
	// content, but the canvas must still be 256x256.
	data, err := store.ReadTile(ctx, hash, 2, 2, 1)
	if err != nil || data == nil {
		t.Fatalf("ReadTile: err=%v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode tile: %v", err)
	}
	if img.Bounds().Dx() != 256 || img.Bounds().Dy() != 256 {
		t.Errorf("edge tile canvas = %dx%d, want 256x256", img.Bounds().Dx(), img.Bounds().Dy())
	}

	// Content is clipped: the area beyond the image edge stays transparent.
	_, _, _, a := img.At(255, 255).RGBA()
	if a != 0 {
		t.Error("area beyond image content should be transparent")
	}
	_, _, _, a = img.At(10, 10).RGBA()
	if a == 0 {
		t.Error("area inside image content should be opaque")
	}
}

func TestGenerateIdempotent(t *testing.T) {
	ctx := context.Background()
	g, store := newTestGenerator(t)
	src := testImage(t, 300, 300)

	hash1, err := g.Generate(ctx, src, "maps/a.png", nil)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	md1, _ := store.ReadMetadata(ctx, hash1)

	// Second call short-circuits on existing metadata: same hash, no
	// progress reported, metadata untouched.
	progressCalls := 0
	hash2, err := g.Generate(ctx, src, "maps/renamed-copy.png", func(Progress) { progressCalls++ })
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if hash1 != hash2 {
		t.Errorf("hashes differ: %s vs %s", hash1, hash2)
	}
	if progressCalls != 0 {
		t.Errorf("short-circuited generation reported progress %d times", progressCalls)
	}
	md2, _ := store.ReadMetadata(ctx, hash1)
	if md1.GeneratedAt != md2.GeneratedAt || md1.SourcePath != md2.SourcePath {
		t.Error("second call should not rewrite metadata")
	}
}

func TestGenerateReportsProgress(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGenerator(t)

	var updates []Progress
	_, err := g.Generate(ctx, testImage(t, 1024, 1024), "maps/big.png", func(p Progress) {
		updates = append(updates, p)
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// 1024x1024: z2 16 tiles, z1 4, z0 1 = 21 tiles; progress fires every
	// ten tiles plus a final 100% update.
	if len(updates) < 3 {
		t.Fatalf("expected at least 3 progress updates, got %d", len(updates))
	}
	final := updates[len(updates)-1]
	if final.PercentComplete != 100 {
		t.Errorf("final PercentComplete = %v", final.PercentComplete)
	}
	if final.TilesGenerated != final.TotalTiles || final.TotalTiles != 21 {
		t.Errorf("final counts = %d/%d, want 21/21", final.TilesGenerated, final.TotalTiles)
	}
	if final.TotalZoomLevels != 3 {
		t.Errorf("TotalZoomLevels = %d, want 3", final.TotalZoomLevels)
	}
	for _, p := range updates[:len(updates)-1] {
		if p.TilesGenerated%10 != 0 {
			t.Errorf("intermediate update at %d tiles, want multiples of 10", p.TilesGenerated)
		}
	}
}

func TestGenerateYields(t *testing.T) {
	ctx := context.Background()
	yields := 0
	g, _ := newTestGenerator(t, WithYieldPoint(func(ctx context.Context) error {
		yields++
		return ctx.Err()
	}))

	if _, err := g.Generate(ctx, testImage(t, 1024, 1024), "maps/big.png", nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// 21 tiles, yield after every 10.
	if yields != 2 {
		t.Errorf("yield calls = %d, want 2", yields)
	}
}

func TestGenerateAbortsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g, store := newTestGenerator(t, WithYieldPoint(func(ctx context.Context) error {
		cancel() // cancel at the first yield point
		return ctx.Err()
	}))

	src := testImage(t, 1024, 1024)
	if _, err := g.Generate(ctx, src, "maps/big.png", nil); err == nil {
		t.Fatal("cancelled generation should fail")
	}

	// The abandoned pyramid has no metadata and therefore is not valid,
	// even though some deep-level tiles were written before the cancel.
	ok, err := store.Exists(context.Background(), cache.ShortHash(src))
	if err != nil || ok {
		t.Errorf("abandoned pyramid must not be valid: ok=%v err=%v", ok, err)
	}
}

func TestGenerateRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGenerator(t)

	_, err := g.Generate(ctx, []byte("not an image"), "maps/bad.png", nil)
	if err == nil {
		t.Fatal("garbage input should fail decoding")
	}
}
