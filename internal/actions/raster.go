package actions

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"strings"

	"canvas/internal/object"

	"github.com/lucasb-eyer/go-colorful"
)

const defaultNoteColor = "#fff59d"

// RasterOptions: output size and background of a whole-scene export
type RasterOptions struct {
	Width      int
	Height     int
	Background string
}

func DefaultRasterOptions() RasterOptions {
	return RasterOptions{Width: 1280, Height: 720, Background: "#ffffff"}
}

type imageLoader func(ctx context.Context, src string) ([]byte, string, error)

// Rasterize draws objects bottom-up into a PNG. Rotation is ignored and text glyphs are
// not drawn; images that cannot be loaded become grey placeholders.
func Rasterize(ctx context.Context, objs []*object.Object, opts RasterOptions, load imageLoader) ([]byte, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", opts.Width, opts.Height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	if bg, ok := parseColor(opts.Background, 1); ok {
		fillRect(dst, 0, 0, float64(opts.Width), float64(opts.Height), bg)
	}

	for _, obj := range objs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		drawObject(ctx, dst, obj, load)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawObject(ctx context.Context, dst *image.RGBA, obj *object.Object, load imageLoader) {
	left, top, width, height := obj.Bounds()
	opacity := obj.Style.Opacity

	switch obj.Kind {
	case object.KindShape:
		drawShape(dst, obj, opacity)
	case object.KindNote:
		fill := obj.Note.Color
		if fill == "" {
			fill = defaultNoteColor
		}
		if c, ok := parseColor(fill, opacity); ok {
			fillRect(dst, left, top, width, height, c)
		}
	case object.KindImage:
		drawImage(ctx, dst, obj, load, left, top, width, height)
	case object.KindText:
		// no font rasterizer: text only contributes its background fill
		if c, ok := parseColor(obj.Style.Fill, opacity*0.15); ok && width > 0 && height > 0 {
			fillRect(dst, left, top, width, height, c)
		}
	}
}

func drawShape(dst *image.RGBA, obj *object.Object, opacity float64) {
	left, top, width, height := obj.Bounds()
	fill, hasFill := parseColor(obj.Style.Fill, opacity)
	stroke, hasStroke := parseColor(obj.Style.Stroke, opacity)
	strokeWidth := math.Max(obj.Style.StrokeWidth, 1)

	switch obj.Shape.Shape {
	case object.ShapeRect:
		if hasFill {
			fillRect(dst, left, top, width, height, fill)
		}
		if hasStroke && obj.Style.StrokeWidth > 0 {
			corners := []object.Point{
				{X: left, Y: top}, {X: left + width, Y: top},
				{X: left + width, Y: top + height}, {X: left, Y: top + height},
				{X: left, Y: top},
			}
			drawPolyline(dst, corners, strokeWidth, stroke)
		}
	case object.ShapeCircle, object.ShapeEllipse:
		rx, ry := width/2, height/2
		if obj.Shape.Shape == object.ShapeCircle && obj.Shape.Radius > 0 {
			rx = obj.Shape.Radius * obj.Geometry.ScaleX
			ry = obj.Shape.Radius * obj.Geometry.ScaleY
		}
		if hasFill && rx > 0 && ry > 0 {
			cx, cy := left+rx, top+ry
			fillWhere(dst, left, top, 2*rx, 2*ry, fill, func(x, y float64) bool {
				dx, dy := (x-cx)/rx, (y-cy)/ry
				return dx*dx+dy*dy <= 1
			})
		}
	case object.ShapeTriangle:
		if hasFill && width > 0 && height > 0 {
			ax, ay := left+width/2, top
			bx, by := left, top+height
			cx, cy := left+width, top+height
			fillWhere(dst, left, top, width, height, fill, func(x, y float64) bool {
				return insideTriangle(x, y, ax, ay, bx, by, cx, cy)
			})
		}
	case object.ShapeLine, object.ShapePath:
		c, ok := stroke, hasStroke
		if !ok {
			c, ok = fill, hasFill
		}
		if ok {
			drawPolyline(dst, obj.Shape.Points, strokeWidth, c)
		}
	}
}

func drawImage(ctx context.Context, dst *image.RGBA, obj *object.Object, load imageLoader, left, top, width, height float64) {
	placeholder := color.RGBA{R: 0xbd, G: 0xbd, B: 0xbd, A: 0xff}

	if load == nil || width <= 0 || height <= 0 {
		fillRect(dst, left, top, width, height, placeholder)
		return
	}

	data, _, err := load(ctx, obj.ImageURL())
	if err != nil {
		fillRect(dst, left, top, width, height, placeholder)
		return
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		fillRect(dst, left, top, width, height, placeholder)
		return
	}

	// nearest-neighbour scale into the object's box
	sb := src.Bounds()
	x0, y0, x1, y1 := clip(dst, left, top, width, height)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			sx := sb.Min.X + int((float64(x)+0.5-left)/width*float64(sb.Dx()))
			sy := sb.Min.Y + int((float64(y)+0.5-top)/height*float64(sb.Dy()))
			if sx >= sb.Max.X {
				sx = sb.Max.X - 1
			}
			if sy >= sb.Max.Y {
				sy = sb.Max.Y - 1
			}
			r, g, b, a := src.At(sx, sy).RGBA()
			blend(dst, x, y, color.RGBA{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(b >> 8),
				A: uint8(float64(a>>8) * obj.Style.Opacity),
			})
		}
	}
}

// parseColor: "#rgb"/"#rrggbb" via go-colorful plus a few CSS names.
// "" and "transparent" mean no paint.
func parseColor(s string, opacity float64) (color.RGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "transparent" || s == "none" {
		return color.RGBA{}, false
	}
	if named, ok := namedColors[s]; ok {
		s = named
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, false
	}
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: uint8(math.Round(clamp01(opacity) * 255))}, true
}

var namedColors = map[string]string{
	"black":  "#000000",
	"white":  "#ffffff",
	"red":    "#ff0000",
	"green":  "#008000",
	"blue":   "#0000ff",
	"yellow": "#ffff00",
	"orange": "#ffa500",
	"purple": "#800080",
	"gray":   "#808080",
	"grey":   "#808080",
}

func fillRect(dst *image.RGBA, left, top, width, height float64, c color.RGBA) {
	fillWhere(dst, left, top, width, height, c, nil)
}

// fillWhere paints pixels of the box whose centre satisfies inside (nil: all)
func fillWhere(dst *image.RGBA, left, top, width, height float64, c color.RGBA, inside func(x, y float64) bool) {
	x0, y0, x1, y1 := clip(dst, left, top, width, height)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if inside == nil || inside(float64(x)+0.5, float64(y)+0.5) {
				blend(dst, x, y, c)
			}
		}
	}
}

func drawPolyline(dst *image.RGBA, pts []object.Point, width float64, c color.RGBA) {
	half := width / 2
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
		if steps == 0 {
			steps = 1
		}
		for s := 0; s <= steps; s++ {
			t := float64(s) / float64(steps)
			x := a.X + (b.X-a.X)*t
			y := a.Y + (b.Y-a.Y)*t
			fillRect(dst, x-half, y-half, width, width, c)
		}
	}
}

func clip(dst *image.RGBA, left, top, width, height float64) (x0, y0, x1, y1 int) {
	b := dst.Bounds()
	x0 = max(int(math.Floor(left)), b.Min.X)
	y0 = max(int(math.Floor(top)), b.Min.Y)
	x1 = min(int(math.Ceil(left+width)), b.Max.X)
	y1 = min(int(math.Ceil(top+height)), b.Max.Y)
	return x0, y0, x1, y1
}

// blend composites c over the pixel
func blend(dst *image.RGBA, x, y int, c color.RGBA) {
	if c.A == 0 {
		return
	}
	if c.A == 0xff {
		dst.SetRGBA(x, y, c)
		return
	}
	under := dst.RGBAAt(x, y)
	a := float64(c.A) / 255
	mix := func(top, bottom uint8) uint8 {
		return uint8(math.Round(float64(top)*a + float64(bottom)*(1-a)))
	}
	dst.SetRGBA(x, y, color.RGBA{
		R: mix(c.R, under.R),
		G: mix(c.G, under.G),
		B: mix(c.B, under.B),
		A: uint8(math.Min(255, float64(c.A)+float64(under.A)*(1-a))),
	})
}

func insideTriangle(px, py, ax, ay, bx, by, cx, cy float64) bool {
	sign := func(x1, y1, x2, y2, x3, y3 float64) float64 {
		return (x1-x3)*(y2-y3) - (x2-x3)*(y1-y3)
	}
	d1 := sign(px, py, ax, ay, bx, by)
	d2 := sign(px, py, bx, by, cx, cy)
	d3 := sign(px, py, cx, cy, ax, ay)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
