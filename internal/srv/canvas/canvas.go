package canvas

import (
	"github.com/hajimehoshi/bitmapfont/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"image"
	"image/color"
)

const (
	GlyphWidth = 6
	LineHeight = 12
	// Distance between the top of a line and its baseline
	baseline = 10
)

var (
	Black  = color.RGBA{0, 0, 0, 255}
	White  = color.RGBA{255, 255, 255, 255}
	Red    = color.RGBA{226, 72, 38, 255}
	Green  = color.RGBA{70, 235, 145, 255}
	Yellow = color.RGBA{255, 229, 0, 255}
	Grey   = color.RGBA{98, 116, 130, 255}
)

// Buffer is one frame: screens draw into it, the display device publishes it.
type Buffer struct {
	*image.RGBA
}

func NewBuffer(width, height int) *Buffer {
	buffer := &Buffer{RGBA: image.NewRGBA(image.Rect(0, 0, width, height))}
	buffer.Clear()
	return buffer
}

func (b *Buffer) Width() int {
	return b.Bounds().Dx()
}

func (b *Buffer) Height() int {
	return b.Bounds().Dy()
}

func (b *Buffer) Clear() {
	draw.Draw(b.RGBA, b.Bounds(), &image.Uniform{Black}, image.Point{}, draw.Src)
}

func (b *Buffer) SetPixel(x, y int, c color.Color) {
	b.Set(x, y, c)
}

// Line draws a segment with Bresenham's algorithm, both ends included.
func (b *Buffer) Line(x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		b.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// Rect draws the outline of r, Max excluded like image.Rectangle.
func (b *Buffer) Rect(r image.Rectangle, c color.Color) {
	if r.Empty() {
		return
	}
	b.Line(r.Min.X, r.Min.Y, r.Max.X-1, r.Min.Y, c)
	b.Line(r.Min.X, r.Max.Y-1, r.Max.X-1, r.Max.Y-1, c)
	b.Line(r.Min.X, r.Min.Y, r.Min.X, r.Max.Y-1, c)
	b.Line(r.Max.X-1, r.Min.Y, r.Max.X-1, r.Max.Y-1, c)
}

func (b *Buffer) FillRect(r image.Rectangle, c color.Color) {
	draw.Draw(b.RGBA, r, &image.Uniform{c}, image.Point{}, draw.Src)
}

func TextWidth(label string) int {
	return len([]rune(label)) * GlyphWidth
}

// Text draws label with its top left corner at (x, y).
func (b *Buffer) Text(x, y int, label string, c color.Color) {
	drawer := &font.Drawer{
		Dst:  b.RGBA,
		Src:  image.NewUniform(c),
		Face: bitmapfont.Face,
		Dot:  fixed.P(x, y+baseline),
	}
	drawer.DrawString(label)
}

func (b *Buffer) CenteredText(y int, label string, c color.Color) {
	b.Text((b.Width()-TextWidth(label))/2, y, label, c)
}

// BigText draws label magnified scale times, top left corner at (x, y).
func (b *Buffer) BigText(x, y int, label string, scale int, c color.Color) {
	if scale < 1 {
		scale = 1
	}
	small := NewBuffer(TextWidth(label), LineHeight)
	draw.Draw(small.RGBA, small.Bounds(), image.Transparent, image.Point{}, draw.Src)
	small.Text(0, 0, label, c)

	target := image.Rect(x, y, x+small.Width()*scale, y+small.Height()*scale)
	draw.NearestNeighbor.Scale(b.RGBA, target, small.RGBA, small.Bounds(), draw.Over, nil)
}

func (b *Buffer) CenteredBigText(y int, label string, scale int, c color.Color) {
	b.BigText((b.Width()-TextWidth(label)*scale)/2, y, label, scale, c)
}

// Sprite copies img with its top left corner at (x, y).
func (b *Buffer) Sprite(x, y int, img image.Image) {
	draw.Draw(b.RGBA, img.Bounds().Sub(img.Bounds().Min).Add(image.Pt(x, y)), img, img.Bounds().Min, draw.Over)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
