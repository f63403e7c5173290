package canvas

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func litPixels(b *Buffer, r image.Rectangle) int {
	count := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if b.RGBAAt(x, y) != Black {
				count++
			}
		}
	}
	return count
}

func TestNewBufferIsBlack(t *testing.T) {
	b := NewBuffer(64, 32)
	assert.Equal(t, 64, b.Width())
	assert.Equal(t, 32, b.Height())
	assert.Zero(t, litPixels(b, b.Bounds()))
}

func TestLineIncludesBothEnds(t *testing.T) {
	b := NewBuffer(16, 16)
	b.Line(2, 3, 12, 9, White)

	assert.Equal(t, White, b.RGBAAt(2, 3))
	assert.Equal(t, White, b.RGBAAt(12, 9))
	assert.Equal(t, 11, litPixels(b, b.Bounds()))
}

func TestRectAndFillRect(t *testing.T) {
	b := NewBuffer(16, 16)
	b.Rect(image.Rect(0, 0, 4, 4), White)
	assert.Equal(t, 12, litPixels(b, b.Bounds()))
	assert.Equal(t, Black, b.RGBAAt(1, 1))

	b.Clear()
	b.FillRect(image.Rect(0, 0, 4, 4), Red)
	assert.Equal(t, 16, litPixels(b, b.Bounds()))
}

func TestTextStaysInItsBox(t *testing.T) {
	b := NewBuffer(64, 32)
	b.Text(0, 0, "12:34", White)

	lit := litPixels(b, image.Rect(0, 0, TextWidth("12:34"), LineHeight+2))
	assert.NotZero(t, lit)
	assert.Equal(t, lit, litPixels(b, b.Bounds()))
}

func TestBigTextIsMagnified(t *testing.T) {
	small := NewBuffer(128, 64)
	small.Text(0, 0, "8", White)
	big := NewBuffer(128, 64)
	big.BigText(0, 0, "8", 2, White)

	assert.Equal(t, 4*litPixels(small, small.Bounds()), litPixels(big, big.Bounds()))
}

func TestSprite(t *testing.T) {
	sprite := NewBuffer(3, 3)
	sprite.FillRect(sprite.Bounds(), Green)

	b := NewBuffer(10, 10)
	b.Sprite(5, 5, sprite)
	assert.Equal(t, Green, b.RGBAAt(5, 5))
	assert.Equal(t, Green, b.RGBAAt(7, 7))
	assert.Equal(t, 9, litPixels(b, b.Bounds()))
}
