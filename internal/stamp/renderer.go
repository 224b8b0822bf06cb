// Package stamp draws the folio and names onto the coupon base image.
package stamp

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ErrBaseImage is returned when the base coupon image cannot be loaded.
var ErrBaseImage = errors.New("base coupon image unavailable")

// JPEGQuality matches the encoder default of the tool that produced the
// existing coupons.
const JPEGQuality = 75

// Layout fixes where each text field is drawn. Points are the top-left corner
// of the text box in image pixels.
type Layout struct {
	Folio     image.Point
	Alumni    image.Point
	Recipient image.Point
	FontSize  float64
	Color     color.Color
}

// DefaultLayout returns the layout of the printed coupon.
func DefaultLayout() Layout {
	return Layout{
		Folio:     image.Pt(160, 28),
		Alumni:    image.Pt(400, 315),
		Recipient: image.Pt(430, 375),
		FontSize:  32,
		Color:     color.Black,
	}
}

// Renderer stamps coupons onto a base JPEG.
type Renderer struct {
	baseImagePath string
	fontPath      string
	layout        Layout
	logger        zerolog.Logger
}

// NewRenderer creates a Renderer. Assets are read on every Render call, so
// replacing them on disk takes effect without a restart.
func NewRenderer(baseImagePath, fontPath string, layout Layout, logger zerolog.Logger) *Renderer {
	return &Renderer{
		baseImagePath: baseImagePath,
		fontPath:      fontPath,
		layout:        layout,
		logger:        logger,
	}
}

// Render draws folio, the upper-cased alumni name and, when not blank, the
// upper-cased recipient name, and returns the JPEG-encoded result.
func (r *Renderer) Render(folio, alumni, recipient string) ([]byte, error) {
	base, err := r.loadBase()
	if err != nil {
		return nil, err
	}

	bounds := base.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, base, bounds.Min, draw.Src)

	face := r.loadFace()
	defer face.Close()

	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(r.layout.Color),
		Face: face,
	}
	drawAt(d, r.layout.Folio, folio)
	drawAt(d, r.layout.Alumni, strings.ToUpper(alumni))
	if recipient = strings.TrimSpace(recipient); recipient != "" {
		drawAt(d, r.layout.Recipient, strings.ToUpper(recipient))
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode coupon: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) loadBase() (image.Image, error) {
	f, err := os.Open(r.baseImagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBaseImage, err)
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrBaseImage, r.baseImagePath, err)
	}
	return img, nil
}

// loadFace parses the configured TrueType font. A missing or unreadable font
// falls back to the built-in 7x13 bitmap face instead of failing the request.
func (r *Renderer) loadFace() font.Face {
	face, err := r.openFace()
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("font_path", r.fontPath).
			Msg("cannot load font, using built-in default")
		return basicfont.Face7x13
	}
	return face
}

func (r *Renderer) openFace() (font.Face, error) {
	data, err := os.ReadFile(r.fontPath)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    r.layout.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// drawAt places text with its top-left corner at p; font.Drawer positions by
// baseline, so the face ascent is added.
func drawAt(d *font.Drawer, p image.Point, text string) {
	d.Dot = fixed.Point26_6{
		X: fixed.I(p.X),
		Y: fixed.I(p.Y) + d.Face.Metrics().Ascent,
	}
	d.DrawString(text)
}
