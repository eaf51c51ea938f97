package mapblock

import (
	"testing"

	"github.com/tilecraft/atlas/pkg/errors"
)

func TestParseImageBlock(t *testing.T) {
	body := `
type = "image"
id = "westeros"
image = "maps/westeros.png"
height = "500px"
marker = [
    "50,50,[[Throne Room]],Audience Hall",
    "25%,75%,[[Winterfell]]",
]
`
	p, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Mode != ModeImage {
		t.Errorf("Mode = %q, want %q", p.Mode, ModeImage)
	}
	if p.ID != "westeros" || p.Image != "maps/westeros.png" || p.Height != "500px" {
		t.Errorf("unexpected identity fields: %+v", p)
	}
	if len(p.Markers) != 2 {
		t.Fatalf("Markers = %d, want 2", len(p.Markers))
	}
	if p.Markers[0].Link != "[[Throne Room]]" || p.Markers[0].Description != "Audience Hall" {
		t.Errorf("first marker = %+v", p.Markers[0])
	}
	if !p.Markers[1].Loc.Percent {
		t.Error("second marker should be percent-based")
	}
	if p.Extra != nil {
		t.Errorf("Extra = %v, want nil", p.Extra)
	}
}

func TestParseSingleMarkerString(t *testing.T) {
	p, err := Parse(`
image = "maps/essos.png"
marker = "10,20,[[Braavos]]"
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p.Markers) != 1 {
		t.Fatalf("Markers = %d, want 1", len(p.Markers))
	}
}

func TestParseModeInference(t *testing.T) {
	p, err := Parse(`image = "maps/westeros.png"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Mode != ModeImage {
		t.Errorf("Mode = %q, want image inferred from image key", p.Mode)
	}

	p, err = Parse(`lat = 51.5
long = -0.1`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Mode != ModeGeographic {
		t.Errorf("Mode = %q, want real inferred without image key", p.Mode)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"image mode without image", `type = "image"`, errors.ErrCodeInvalidBlock},
		{"unknown type", `type = "hologram"`, errors.ErrCodeInvalidBlock},
		{"latitude out of range", `lat = 95.0
long = 10.0`, errors.ErrCodeInvalidCoordinate},
		{"longitude out of range", `lat = 10.0
long = 181.0`, errors.ErrCodeInvalidCoordinate},
		{"traversal image path", `image = "../secrets.png"`, errors.ErrCodeInvalidPath},
		{"inverted zoom range", `image = "m.png"
minZoom = 5
maxZoom = 2`, errors.ErrCodeInvalidZoom},
		{"bad tile server scheme", `tileServer = "ftp://tiles.example/{z}/{x}/{y}.png"`, errors.ErrCodeInvalidBlock},
		{"malformed marker", `image = "m.png"
marker = "50"`, errors.ErrCodeInvalidMarker},
		{"not toml", `type = `, errors.ErrCodeInvalidBlock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.body)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestParseCollectsExtraKeys(t *testing.T) {
	p, err := Parse(`
image = "maps/westeros.png"
bounds = [12.0, 34.0]
experimental = true
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p.Extra) != 2 {
		t.Fatalf("Extra = %v, want 2 keys", p.Extra)
	}
	if v, ok := p.Extra["experimental"].(bool); !ok || !v {
		t.Errorf("Extra[experimental] = %v", p.Extra["experimental"])
	}
	if _, ok := p.Extra["bounds"]; !ok {
		t.Error("Extra missing bounds")
	}
}

func TestParseGeographicDefaults(t *testing.T) {
	p, err := Parse(`
type = "real"
lat = 39.0
long = -77.0
darkMode = true
tileServer = "https://tiles.example/{z}/{x}/{y}.png"
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Lat == nil || *p.Lat != 39.0 || p.Long == nil || *p.Long != -77.0 {
		t.Errorf("coordinates = %v/%v", p.Lat, p.Long)
	}
	if !p.DarkMode || p.TileServer == "" {
		t.Errorf("unexpected params: %+v", p)
	}
}
