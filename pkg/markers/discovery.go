package markers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/tilecraft/atlas/pkg/cache"
	"github.com/tilecraft/atlas/pkg/observability"
	"github.com/tilecraft/atlas/pkg/vault"
)

// Source names reported to discovery hooks.
const (
	SourceExplicit   = "explicit"
	SourceFile       = "file"
	SourceLinked     = "linked"
	SourceCoordinate = "coordinate"
	SourceTag        = "tag"
)

// Discoverer assembles markers for one map from every source the vault
// offers, in a fixed precedence order.
type Discoverer struct {
	repo   vault.Repository
	cache  cache.Cache
	logger *log.Logger
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithCache caches per-entity-type listings between discovery runs.
func WithCache(c cache.Cache) Option {
	return func(d *Discoverer) { d.cache = c }
}

// WithLogger sets the discoverer's logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Discoverer) { d.logger = l }
}

// NewDiscoverer creates a marker discoverer over the given vault.
func NewDiscoverer(repo vault.Repository, opts ...Option) *Discoverer {
	d := &Discoverer{
		repo:   repo,
		cache:  cache.NewNullCache(),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Options describes one discovery request.
type Options struct {
	// MapID identifies the map for linked-entity lookup. Empty disables
	// the linked stage.
	MapID string

	// Explicit markers from the map block. Highest precedence; never
	// silently dropped by a lower-priority duplicate.
	Explicit []Definition

	// MarkerFiles are vault paths of documents whose front matter defines
	// a marker. They rank with explicit markers, after them.
	MarkerFiles []string

	// TagFilters enables the tag stage: entities whose tags intersect
	// this set become markers. Empty disables the stage.
	TagFilters []string
}

// Discover resolves, merges, and deduplicates markers.
//
// Merge order (first occurrence wins on dedup by link):
//  1. explicit markers from the block parameters
//  2. marker files named by the block parameters
//  3. entities linked to the map id (direct or via related_maps)
//  4. entities carrying coordinate-like fields regardless of map linkage
//  5. entities whose tags intersect the caller's tag filters
//
// Entity-type listings are queried concurrently; a failing listing
// degrades to an empty result for that type rather than aborting the pass.
// Deduplication runs exactly once, at the end, over the concatenated list.
func (d *Discoverer) Discover(ctx context.Context, opts Options) []Definition {
	start := time.Now()
	observability.Discovery().OnSourceComplete(ctx, SourceExplicit, len(opts.Explicit), nil)

	listings := d.fetchListings(ctx)

	merged := make([]Definition, 0, len(opts.Explicit))
	merged = append(merged, opts.Explicit...)
	merged = append(merged, d.fileMarkers(ctx, opts.MarkerFiles)...)
	merged = append(merged, d.linkedMarkers(ctx, listings, opts.MapID)...)
	merged = append(merged, d.coordinateMarkers(ctx, listings)...)
	merged = append(merged, d.tagMarkers(ctx, listings, opts.TagFilters)...)

	out := Dedupe(merged)
	d.logger.Debug("marker discovery complete",
		"map", opts.MapID, "merged", len(merged), "deduped", len(out),
		"duration", time.Since(start).Round(time.Millisecond))
	observability.Discovery().OnDiscoveryComplete(ctx, opts.MapID, len(out), time.Since(start))
	return out
}

// listedEntityTypes are the entity listings discovery fetches. The empty
// string lists untyped documents, consulted only by the tag stage.
var listedEntityTypes = append(append([]string{}, vault.EntityTypes...), "")

// fetchListings queries every entity-type listing concurrently. Failures
// are isolated per type: one bad data source degrades rather than blocks
// marker rendering.
func (d *Discoverer) fetchListings(ctx context.Context) map[string][]*vault.Document {
	results := make([][]*vault.Document, len(listedEntityTypes))

	var g errgroup.Group
	for i, entityType := range listedEntityTypes {
		i, entityType := i, entityType
		g.Go(func() error {
			docs, err := d.listByEntity(ctx, entityType)
			if err != nil {
				d.logger.Warn("entity listing failed, continuing without it",
					"entity", entityType, "err", err)
				return nil
			}
			results[i] = docs
			return nil
		})
	}
	_ = g.Wait() // individual errors are already swallowed per type

	listings := make(map[string][]*vault.Document, len(listedEntityTypes))
	for i, entityType := range listedEntityTypes {
		listings[entityType] = results[i]
	}
	return listings
}

// listByEntity wraps the repository query with a short-lived cache, since a
// map session may trigger several discovery passes in quick succession.
func (d *Discoverer) listByEntity(ctx context.Context, entityType string) ([]*vault.Document, error) {
	key := "discover:list:" + entityType
	if data, hit, err := d.cache.Get(ctx, key); err == nil && hit {
		var docs []*vault.Document
		if err := json.Unmarshal(data, &docs); err == nil {
			return docs, nil
		}
	}

	docs, err := d.repo.ListByEntity(ctx, entityType)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(docs); err == nil {
		_ = d.cache.Set(ctx, key, data, cache.TTLDiscovery)
	}
	return docs, nil
}

// fileMarkers reads the named documents and converts each to a marker. A
// missing or coordinate-less document is skipped with a warning; the rest
// of the map still renders.
func (d *Discoverer) fileMarkers(ctx context.Context, paths []string) []Definition {
	var defs []Definition
	for _, p := range paths {
		doc, err := d.repo.Read(ctx, p)
		if err != nil {
			d.logger.Warn("marker file unreadable, skipping", "path", p, "err", err)
			continue
		}
		def, ok := FromDocument(doc)
		if !ok {
			d.logger.Warn("marker file has no coordinates, skipping", "path", p)
			continue
		}
		defs = append(defs, def)
	}
	observability.Discovery().OnSourceComplete(ctx, SourceFile, len(defs), nil)
	return defs
}

// linkedMarkers converts entities whose front matter references mapID,
// either directly or through their related-maps collection.
func (d *Discoverer) linkedMarkers(ctx context.Context, listings map[string][]*vault.Document, mapID string) []Definition {
	if mapID == "" {
		observability.Discovery().OnSourceComplete(ctx, SourceLinked, 0, nil)
		return nil
	}

	var defs []Definition
	for _, entityType := range vault.EntityTypes {
		for _, doc := range listings[entityType] {
			if !contains(doc.FrontMatter.Maps, mapID) && !contains(doc.FrontMatter.RelatedMaps, mapID) {
				continue
			}
			if def, ok := FromDocument(doc); ok {
				defs = append(defs, def)
			}
		}
	}
	observability.Discovery().OnSourceComplete(ctx, SourceLinked, len(defs), nil)
	return defs
}

// coordinateMarkers converts every typed entity carrying coordinate-like
// fields, regardless of map linkage.
func (d *Discoverer) coordinateMarkers(ctx context.Context, listings map[string][]*vault.Document) []Definition {
	var defs []Definition
	for _, entityType := range vault.EntityTypes {
		for _, doc := range listings[entityType] {
			if def, ok := FromDocument(doc); ok {
				defs = append(defs, def)
			}
		}
	}
	observability.Discovery().OnSourceComplete(ctx, SourceCoordinate, len(defs), nil)
	return defs
}

// tagMarkers converts entities whose tag collection intersects the filter
// set. Untyped documents convert to generic markers.
func (d *Discoverer) tagMarkers(ctx context.Context, listings map[string][]*vault.Document, filters []string) []Definition {
	if len(filters) == 0 {
		observability.Discovery().OnSourceComplete(ctx, SourceTag, 0, nil)
		return nil
	}

	var defs []Definition
	for _, entityType := range listedEntityTypes {
		for _, doc := range listings[entityType] {
			if !intersects(doc.FrontMatter.Tags, filters) {
				continue
			}
			if def, ok := FromDocument(doc); ok {
				defs = append(defs, def)
			}
		}
	}
	observability.Discovery().OnSourceComplete(ctx, SourceTag, len(defs), nil)
	return defs
}

func contains(list vault.StringList, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func intersects(a vault.StringList, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
