package main

import (
	"flag"
	"image"
	"image/color"
	"log"

	"github.com/gogpu/ggshot/canvas"
)

// runDemo renders a settings screen with the canvas primitives. It is a
// quick way to produce golden and actual images for trying the other
// commands.
func runDemo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	var (
		width  = fs.Int("width", 480, "image width")
		height = fs.Int("height", 320, "image height")
		output = fs.String("o", "demo.png", "output file")
		accent = fs.String("accent", "blue", "accent color: blue, green or red")
	)
	_ = fs.Parse(args)

	c := canvas.NewFilled(*width, *height, color.White)
	defer c.Release()

	ac := accentColor(*accent)
	drawAppBar(c, *width, ac)
	drawSettings(c, *width, ac)
	c.DrawLabel(image.Rect(0, 0, *width, 48), "app bar", canvas.Style{
		Size:       11,
		Background: color.NRGBA{R: 0xff, G: 0xf5, B: 0x9d, A: 0xff},
		Padding:    2,
	})

	if err := c.Save(*output, 1, map[string]string{"generator": "ggshot demo"}); err != nil {
		return err
	}
	log.Printf("demo saved to %s (%dx%d)", *output, *width, *height)
	return nil
}

func accentColor(name string) color.NRGBA {
	switch name {
	case "green":
		return color.NRGBA{R: 0x43, G: 0xa0, B: 0x47, A: 0xff}
	case "red":
		return color.NRGBA{R: 0xe5, G: 0x39, B: 0x35, A: 0xff}
	default:
		return color.NRGBA{R: 0x1e, G: 0x88, B: 0xe5, A: 0xff}
	}
}

func drawAppBar(c *canvas.Canvas, w int, ac color.NRGBA) {
	c.DrawRect(image.Rect(0, 0, w, 48), ac)
	c.DrawText(image.Pt(16, 14), "Settings", canvas.Style{Size: 18, Color: color.White})
}

func drawSettings(c *canvas.Canvas, w int, ac color.NRGBA) {
	divider := color.NRGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
	rows := []string{"Notifications", "Dark mode", "Language"}
	for i, label := range rows {
		y := 64 + i*48
		c.DrawText(image.Pt(16, y+10), label, canvas.Style{Size: 14, Color: color.Black})

		// Switch track with the knob on for even rows.
		track := image.Rect(w-64, y+8, w-20, y+28)
		c.DrawRect(track, divider)
		knob := image.Rect(track.Min.X, track.Min.Y, track.Min.X+20, track.Max.Y)
		if i%2 == 0 {
			c.DrawRect(track, ac)
			knob = image.Rect(track.Max.X-20, track.Min.Y, track.Max.X, track.Max.Y)
		}
		c.DrawRect(knob, color.White)
		c.StrokeRect(knob, divider, 1)

		c.DrawLine(image.Pt(16, y+44), image.Pt(w-16, y+44), divider, 1)
	}
}
