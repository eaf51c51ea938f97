// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about pyramid generation, tile serving, and
// marker discovery.
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetGeneratorHooks(&myGeneratorHooks{})
//	    // ... run application
//	}
package observability

import (
	"context"
	"sync"
	"time"
)

// GeneratorHooks receives events from tile pyramid generation.
type GeneratorHooks interface {
	// OnGenerateStart fires when a pyramid generation begins.
	OnGenerateStart(ctx context.Context, hash string, width, height int)

	// OnGenerateSkip fires when generation short-circuits on existing metadata.
	OnGenerateSkip(ctx context.Context, hash string)

	// OnLevelComplete fires after every tile of one zoom level is written.
	OnLevelComplete(ctx context.Context, hash string, zoom, tiles int)

	// OnGenerateComplete fires when metadata has been written (or generation failed).
	OnGenerateComplete(ctx context.Context, hash string, tiles int, duration time.Duration, err error)
}

// DiscoveryHooks receives events from the marker discovery pipeline.
type DiscoveryHooks interface {
	// OnSourceComplete fires per marker source with the number of markers it yielded.
	OnSourceComplete(ctx context.Context, source string, count int, err error)

	// OnDiscoveryComplete fires after deduplication with the final marker count.
	OnDiscoveryComplete(ctx context.Context, mapID string, total int, duration time.Duration)
}

// TileSourceHooks receives events from tile resolution.
type TileSourceHooks interface {
	// OnTileHit records a tile resolved from the store.
	OnTileHit(ctx context.Context, hash string, z, x, y int)

	// OnTileMiss records a tile resolved to the transparent placeholder.
	OnTileMiss(ctx context.Context, hash string, z, x, y int)
}

// NoopGeneratorHooks is a no-op implementation of GeneratorHooks.
type NoopGeneratorHooks struct{}

func (NoopGeneratorHooks) OnGenerateStart(context.Context, string, int, int) {}
func (NoopGeneratorHooks) OnGenerateSkip(context.Context, string)            {}
func (NoopGeneratorHooks) OnLevelComplete(context.Context, string, int, int) {}
func (NoopGeneratorHooks) OnGenerateComplete(context.Context, string, int, time.Duration, error) {
}

// NoopDiscoveryHooks is a no-op implementation of DiscoveryHooks.
type NoopDiscoveryHooks struct{}

func (NoopDiscoveryHooks) OnSourceComplete(context.Context, string, int, error)           {}
func (NoopDiscoveryHooks) OnDiscoveryComplete(context.Context, string, int, time.Duration) {}

// NoopTileSourceHooks is a no-op implementation of TileSourceHooks.
type NoopTileSourceHooks struct{}

func (NoopTileSourceHooks) OnTileHit(context.Context, string, int, int, int)  {}
func (NoopTileSourceHooks) OnTileMiss(context.Context, string, int, int, int) {}

var (
	mu              sync.RWMutex
	generatorHooks  GeneratorHooks  = NoopGeneratorHooks{}
	discoveryHooks  DiscoveryHooks  = NoopDiscoveryHooks{}
	tileSourceHooks TileSourceHooks = NoopTileSourceHooks{}
)

// SetGeneratorHooks registers generator hooks. Call at startup, before any
// generation runs.
func SetGeneratorHooks(h GeneratorHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = NoopGeneratorHooks{}
	}
	generatorHooks = h
}

// SetDiscoveryHooks registers discovery hooks.
func SetDiscoveryHooks(h DiscoveryHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = NoopDiscoveryHooks{}
	}
	discoveryHooks = h
}

// SetTileSourceHooks registers tile source hooks.
func SetTileSourceHooks(h TileSourceHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = NoopTileSourceHooks{}
	}
	tileSourceHooks = h
}

// Generator returns the registered generator hooks.
func Generator() GeneratorHooks {
	mu.RLock()
	defer mu.RUnlock()
	return generatorHooks
}

// Discovery returns the registered discovery hooks.
func Discovery() DiscoveryHooks {
	mu.RLock()
	defer mu.RUnlock()
	return discoveryHooks
}

// TileSource returns the registered tile source hooks.
func TileSource() TileSourceHooks {
	mu.RLock()
	defer mu.RUnlock()
	return tileSourceHooks
}
