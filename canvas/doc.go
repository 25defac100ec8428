// Package canvas provides the raster surface a UI tree is rendered into.
//
// # Deferred drawing
//
// Draw calls do not touch pixels. Each call appends a typed command to a
// queue and extends the canvas' used area; the queue is flushed before any
// pixel read (Image, Encode, Save, Scaled). Overlay labels are queued
// separately and placed after all base content is known, at the nearest
// free spot of a 50 px grid.
//
//	c := canvas.New(400, 300)
//	c.DrawRect(image.Rect(0, 0, 400, 40), color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff})
//	c.DrawText(image.Pt(8, 10), "Title", canvas.Style{Size: 16, Color: color.White})
//	c.DrawLabel(image.Rect(0, 0, 400, 40), "AppBar", canvas.Style{Size: 10})
//	err := c.Save("golden/title.png", 1, map[string]string{"class": "TitleTest"})
//
// # Auto-cropping
//
// The canvas tracks the furthest bottom-right point written to. Reads and
// saves are cropped to that point, so a canvas allocated larger than its
// content produces a tight image.
package canvas
