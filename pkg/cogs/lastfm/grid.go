package lastfm

import (
	"image"
	"image/color"
	"strings"

	draw "golang.org/x/image/draw"
)

var (
	canvasColor      = color.RGBA{18, 18, 18, 255}
	placeholderBase  = color.RGBA{24, 24, 24, 255}
	placeholderCheck = color.RGBA{36, 36, 36, 255}
)

// placeholderTile draws a neutral checker for albums with missing art.
func placeholderTile(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	step := max(4, size/10)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := placeholderBase
			if (x/step+y/step)%2 == 0 {
				c = placeholderCheck
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// squareRect returns the centered square crop of b.
func squareRect(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w == h {
		return b
	}
	if w > h {
		left := b.Min.X + (w-h)/2
		return image.Rect(left, b.Min.Y, left+h, b.Min.Y+h)
	}
	top := b.Min.Y + (h-w)/2
	return image.Rect(b.Min.X, top, b.Min.X+w, top+w)
}

// composeGrid lays tiles onto a dark canvas, center-cropping each to a
// square and resampling to cell by cell pixels.
func composeGrid(tiles []image.Image, cols, cell int) *image.RGBA {
	if cols < 1 {
		cols = 1
	}
	rows := (len(tiles) + cols - 1) / cols
	canvas := image.NewRGBA(image.Rect(0, 0, cols*cell, rows*cell))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: canvasColor}, image.Point{}, draw.Src)

	for idx, tile := range tiles {
		r := idx / cols
		c := idx % cols
		dst := image.Rect(c*cell, r*cell, (c+1)*cell, (r+1)*cell)
		draw.CatmullRom.Scale(canvas, dst, tile, squareRect(tile.Bounds()), draw.Over, nil)
	}
	return canvas
}

// albumLabels renders "Album — Artist" lines with fallbacks for blank
// metadata.
func albumLabels(albums []Album) []string {
	labels := make([]string, 0, len(albums))
	for _, a := range albums {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			name = "Unknown Album"
		}
		artist := strings.TrimSpace(a.Artist.Name)
		if artist == "" {
			artist = "Unknown Artist"
		}
		labels = append(labels, name+" — "+artist)
	}
	return labels
}
