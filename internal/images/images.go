package images

import (
	"fmt"
	"github.com/sirupsen/logrus"
	"image"
	"image/color"
	"strings"
)

// Sprites are drawn as text masks: '#' is lit, '.' is transparent.

const wifiMask = `
..#####..
.#.....#.
#..###..#
..#...#..
....#....
...###...
....#....`

const errorMask = `
....#....
...#.#...
..#.#.#..
..#.#.#..
.#.....#.
.#..#..#.
#########`

const hotspotMask = `
#.......#
#..###..#
#.#...#.#
#...#...#
#.#...#.#
#..###..#
#.......#`

const ballMask = `
.##.
####
####
.##.`

var WifiImage image.Image
var ErrorImage image.Image
var HotspotImage image.Image
var BallImage image.Image

func init() {
	var err error

	WifiImage, err = decodeMask(wifiMask, color.RGBA{255, 255, 255, 255})
	if err != nil {
		logrus.Panicf("Can't load wifi image: %v", err)
	}

	ErrorImage, err = decodeMask(errorMask, color.RGBA{226, 72, 38, 255})
	if err != nil {
		logrus.Panicf("Can't load error image: %v", err)
	}

	HotspotImage, err = decodeMask(hotspotMask, color.RGBA{255, 229, 0, 255})
	if err != nil {
		logrus.Panicf("Can't load hotspot image: %v", err)
	}

	BallImage, err = decodeMask(ballMask, color.RGBA{255, 255, 255, 255})
	if err != nil {
		logrus.Panicf("Can't load ball image: %v", err)
	}
}

func decodeMask(mask string, c color.Color) (image.Image, error) {
	rows := strings.Split(strings.TrimSpace(mask), "\n")
	width := len(rows[0])
	img := image.NewRGBA(image.Rect(0, 0, width, len(rows)))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("mask row %d has %d cells, expected %d", y, len(row), width)
		}
		for x, cell := range row {
			switch cell {
			case '#':
				img.Set(x, y, c)
			case '.':
			default:
				return nil, fmt.Errorf("mask row %d: unexpected cell %q", y, cell)
			}
		}
	}
	return img, nil
}
