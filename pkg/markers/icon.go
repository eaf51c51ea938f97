package markers

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"

	"github.com/fogleman/gg"
)

// DefaultIconSize is the rendered icon edge length in pixels.
const DefaultIconSize = 32

// DefaultColor returns the type's fill color when no override is present.
func (t Type) DefaultColor() string {
	switch t {
	case TypeLocation:
		return "#2f6f4f"
	case TypeCharacter:
		return "#2b5f9e"
	case TypeEvent:
		return "#b4532a"
	case TypeItem:
		return "#8a6d1f"
	case TypeGroup:
		return "#6a4f8f"
	default:
		return "#3f3f3f"
	}
}

// RenderIcon rasterizes the marker type's icon: a map pin filled with
// colorHex, with an inner glyph that identifies the type. An empty colorHex
// falls back to the type's default color.
func (t Type) RenderIcon(colorHex string, size int) image.Image {
	if size <= 0 {
		size = DefaultIconSize
	}
	if colorHex == "" {
		colorHex = t.DefaultColor()
	}

	dc := gg.NewContext(size, size)
	s := float64(size)
	cx, cy := s/2, s*0.38
	r := s * 0.30

	// Pin body: circle head with a tail down to the anchor point.
	dc.SetHexColor(colorHex)
	dc.DrawCircle(cx, cy, r)
	dc.MoveTo(cx-r*0.65, cy+r*0.70)
	dc.LineTo(cx, s*0.95)
	dc.LineTo(cx+r*0.65, cy+r*0.70)
	dc.ClosePath()
	dc.Fill()

	// Inner glyph per type, drawn in white.
	dc.SetHexColor("#ffffff")
	inner := r * 0.45
	switch t {
	case TypeLocation:
		dc.DrawCircle(cx, cy, inner)
		dc.Fill()
	case TypeCharacter:
		// Head above shoulders.
		dc.DrawCircle(cx, cy-inner*0.5, inner*0.55)
		dc.Fill()
		dc.DrawEllipse(cx, cy+inner*0.6, inner*0.9, inner*0.55)
		dc.Fill()
	case TypeEvent:
		// Four-pointed burst.
		dc.MoveTo(cx, cy-inner*1.2)
		dc.LineTo(cx+inner*0.35, cy-inner*0.35)
		dc.LineTo(cx+inner*1.2, cy)
		dc.LineTo(cx+inner*0.35, cy+inner*0.35)
		dc.LineTo(cx, cy+inner*1.2)
		dc.LineTo(cx-inner*0.35, cy+inner*0.35)
		dc.LineTo(cx-inner*1.2, cy)
		dc.LineTo(cx-inner*0.35, cy-inner*0.35)
		dc.ClosePath()
		dc.Fill()
	case TypeItem:
		dc.DrawRectangle(cx-inner*0.8, cy-inner*0.8, inner*1.6, inner*1.6)
		dc.Fill()
	case TypeGroup:
		// Three dots.
		dc.DrawCircle(cx-inner*0.8, cy+inner*0.4, inner*0.4)
		dc.DrawCircle(cx+inner*0.8, cy+inner*0.4, inner*0.4)
		dc.DrawCircle(cx, cy-inner*0.6, inner*0.4)
		dc.Fill()
	default:
		// Plain pin: a small ring.
		dc.DrawCircle(cx, cy, inner)
		dc.Stroke()
	}

	return dc.Image()
}

// IconDataURI renders the type's icon and encodes it as a PNG data URI,
// ready to hand to a map engine.
func (t Type) IconDataURI(colorHex string, size int) string {
	var buf bytes.Buffer
	if err := png.Encode(&buf, t.RenderIcon(colorHex, size)); err != nil {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
