// Package pkg provides the core libraries for Atlas map rendering.
//
// # Overview
//
// Atlas slices large raster images into tile pyramids and drives
// interactive, pannable map canvases over them inside a document vault.
// The pkg directory is organized into four main areas:
//
//  1. Domain logic (pyramid generation, tile resolution, marker discovery)
//  2. Infrastructure (caching, content-addressed tile storage, vaults)
//  3. Boundary adapters (block parameters, coordinate geometry, map engine)
//  4. Orchestration (map sessions and their registry)
//
// # Architecture
//
// The typical data flow through Atlas:
//
//	Vault image bytes
//	         ↓
//	    [pyramid] package (hash, downscale, slice into tiles)
//	         ↓
//	    [tilestore] package (content-addressed tile + metadata layout)
//	         ↓
//	    [tilesource] package (tile requests, placeholder fallback)
//	         ↓
//	    [session] package (map lifecycle, markers, zoom, navigation)
//
// # Quick Start
//
// Generate a pyramid and serve its tiles to a map session:
//
//	import (
//	    "context"
//	    "github.com/tilecraft/atlas/pkg/mapblock"
//	    "github.com/tilecraft/atlas/pkg/pyramid"
//	    "github.com/tilecraft/atlas/pkg/session"
//	    "github.com/tilecraft/atlas/pkg/tilestore"
//	    "github.com/tilecraft/atlas/pkg/vault"
//	)
//
//	// 1. Parse the map block
//	params, _ := mapblock.Parse(`image = "maps/westeros.png"`)
//
//	// 2. Open the vault and tile store
//	repo, _ := vault.NewFSVault("/path/to/vault")
//	store := tilestore.New(repo)
//
//	// 3. Create and initialize a session
//	s, _ := session.New(session.Config{
//	    Params:    params,
//	    Engine:    eng,       // host map engine adapter
//	    Container: container, // host canvas element
//	    Vault:     repo,
//	    Store:     store,
//	    Generator: pyramid.New(store),
//	})
//	_ = s.Initialize(context.Background())
//
// # Main Packages
//
// ## Domain Logic
//
// [pyramid] - Tile pyramid generation: zoom-range math, per-level
// downscaling, tile slicing onto transparent canvases, progress hooks, and
// cooperative cancellation. Idempotent per content hash.
//
// [tilesource] - Virtual tile source matching the engine's tile-request
// contract. Misses of any kind resolve to a transparent placeholder, never
// an error.
//
// [markers] - Marker model, marker-string parsing, and the discovery
// pipeline that merges explicit, file-based, linked, coordinate-tagged, and
// tag-filtered markers from vault documents.
//
// ## Infrastructure
//
// [tilestore] - Content-addressed tile layout over a vault:
// {base}/{hash}/{z}/{x}/{y}.png with metadata.json written last as the
// validity marker.
//
// [cache] - Byte cache with file, Redis, and null backends, plus the
// SHA-256 content hashing used for pyramid addressing.
//
// [vault] - Document repository contract with TOML front matter, backed by
// the filesystem or MongoDB.
//
// ## Boundary Adapters
//
// [mapblock] - Typed map-block parameters parsed from TOML bodies, with
// mode inference, validation, and an Extra bucket for unknown keys.
//
// [geom] - Pure conversions between image pixel space and the engine's
// logical plane, plus bounds algebra.
//
// [engine] - The narrow interface Atlas consumes from the host's
// interactive map engine, with a recording fake in enginetest.
//
// ## Orchestration
//
// [session] - Map session lifecycle: initialization, tile and marker
// wiring, zoom operations, debounced resizing, teardown, and a Registry for
// looking sessions up by id.
//
// [observability] - Progress and source-completion hook types shared by the
// generator and discovery.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/pyramid/...    # Specific package
//
// [pyramid]: https://pkg.go.dev/github.com/tilecraft/atlas/pkg/pyramid
// [tilesource]: https://pkg.go.dev/github.com/tilecraft/atlas/pkg/tilesource
// [markers]: https://pkg.go.dev/github.com/tilecraft/atlas/pkg/markers
// [tilestore]: https://pkg.go.dev/github.com/tilecraft/atlas/pkg/tilestore
// [cache]: https://pkg.go.dev/github.com/tilecraft/atlas/pkg/cache
// [vault]: https://pkg.go.dev/github.com/tilecraft/atlas/pkg/vault
// [mapblock]: https://pkg.go.dev/github.com/tilecraft/atlas/pkg/mapblock
// [geom]: https://pkg.go.dev/github.com/tilecraft/atlas/pkg/geom
// [engine]: https://pkg.go.dev/github.com/tilecraft/atlas/pkg/engine
// [session]: https://pkg.go.dev/github.com/tilecraft/atlas/pkg/session
// [observability]: https://pkg.go.dev/github.com/tilecraft/atlas/pkg/observability
package pkg
