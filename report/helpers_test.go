package report

import (
	"image"
	"image/color"

	"github.com/gogpu/ggshot/canvas"
)

func newScreen() *canvas.Canvas {
	c := canvas.NewFilled(16, 16, color.White)
	c.DrawRect(image.Rect(2, 2, 8, 8), color.NRGBA{G: 0x80, A: 0xff})
	return c
}
