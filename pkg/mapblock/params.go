// Package mapblock parses the author-facing map configuration from a fenced
// code block into a validated, fully typed parameter value.
//
// Block bodies are TOML:
//
//	type = "image"
//	id = "westeros"
//	image = "maps/westeros.png"
//	marker = [
//	    "50,50,[[Throne Room]],Audience Hall",
//	    "25%,75%,[[Winterfell]]",
//	]
//
// Every recognized option is an enumerated, typed field; unknown keys land
// in a single Extra bucket for forward compatibility. Coercion and
// validation happen once, here at the boundary; the resulting Params value
// is immutable by convention and safe to hand around.
package mapblock

import (
	"github.com/BurntSushi/toml"

	"github.com/tilecraft/atlas/pkg/errors"
	"github.com/tilecraft/atlas/pkg/markers"
	"github.com/tilecraft/atlas/pkg/vault"
)

// Map modes.
const (
	ModeImage      = "image"
	ModeGeographic = "real"
)

// rawParams is the decode target before coercion.
type rawParams struct {
	Type        string           `toml:"type"`
	ID          string           `toml:"id"`
	Image       string           `toml:"image"`
	Height      string           `toml:"height"`
	Width       string           `toml:"width"`
	Lat         *float64         `toml:"lat"`
	Long        *float64         `toml:"long"`
	MinZoom     *int             `toml:"minZoom"`
	MaxZoom     *int             `toml:"maxZoom"`
	DefaultZoom *int             `toml:"defaultZoom"`
	TileServer  string           `toml:"tileServer"`
	DarkMode    bool             `toml:"darkMode"`
	Marker      vault.StringList `toml:"marker"`
	MarkerFile  vault.StringList `toml:"markerFile"`
	MarkerTag   vault.StringList `toml:"markerTag"`
}

// Params is the validated map configuration.
type Params struct {
	Mode        string // ModeImage or ModeGeographic
	ID          string
	Image       string // vault path of the source image (image mode)
	Height      string // CSS size of the rendered container, e.g. "500px"
	Width       string
	Lat         *float64
	Long        *float64
	MinZoom     *int
	MaxZoom     *int
	DefaultZoom *int
	TileServer  string
	DarkMode    bool

	// Markers are the explicit marker strings, parsed.
	Markers []markers.Definition

	// MarkerFiles and MarkerTags feed the discovery pipeline.
	MarkerFiles []string
	MarkerTags  []string

	// Extra holds unrecognized keys verbatim.
	Extra map[string]any
}

// Parse decodes and validates a map block body.
func Parse(body string) (*Params, error) {
	var raw rawParams
	md, err := toml.Decode(body, &raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidBlock, err, "parse map block")
	}

	p := &Params{
		Mode:        raw.Type,
		ID:          raw.ID,
		Image:       raw.Image,
		Height:      raw.Height,
		Width:       raw.Width,
		Lat:         raw.Lat,
		Long:        raw.Long,
		MinZoom:     raw.MinZoom,
		MaxZoom:     raw.MaxZoom,
		DefaultZoom: raw.DefaultZoom,
		TileServer:  raw.TileServer,
		DarkMode:    raw.DarkMode,
		MarkerFiles: raw.MarkerFile,
		MarkerTags:  raw.MarkerTag,
	}

	// Unspecified type defaults to image when an image key is present,
	// otherwise to a geographic map.
	if p.Mode == "" {
		if p.Image != "" {
			p.Mode = ModeImage
		} else {
			p.Mode = ModeGeographic
		}
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	for _, s := range raw.Marker {
		def, err := markers.Parse(s)
		if err != nil {
			return nil, err
		}
		p.Markers = append(p.Markers, def)
	}

	p.Extra = collectExtra(body, md)
	return p, nil
}

func (p *Params) validate() error {
	switch p.Mode {
	case ModeImage:
		if p.Image == "" {
			return errors.New(errors.ErrCodeInvalidBlock, "type=image requires an image key")
		}
		if err := errors.ValidateVaultPath(p.Image); err != nil {
			return err
		}
	case ModeGeographic:
		if p.Lat != nil {
			if err := errors.ValidateLatitude(*p.Lat); err != nil {
				return err
			}
		}
		if p.Long != nil {
			if err := errors.ValidateLongitude(*p.Long); err != nil {
				return err
			}
		}
	default:
		return errors.New(errors.ErrCodeInvalidBlock, "unknown map type %q (want image or real)", p.Mode)
	}

	if p.MinZoom != nil && p.MaxZoom != nil {
		if err := errors.ValidateZoomRange(*p.MinZoom, *p.MaxZoom); err != nil {
			return err
		}
	}
	if p.TileServer != "" {
		if err := errors.ValidateTileServerURL(p.TileServer); err != nil {
			return err
		}
	}
	return nil
}

// collectExtra gathers top-level keys the typed struct did not claim.
func collectExtra(body string, md toml.MetaData) map[string]any {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	var all map[string]any
	if _, err := toml.Decode(body, &all); err != nil {
		return nil
	}

	extra := make(map[string]any)
	for _, key := range undecoded {
		name := key[0] // top-level segment
		if v, ok := all[name]; ok {
			extra[name] = v
		}
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}
