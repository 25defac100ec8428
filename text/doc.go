// Package text lays out and rasterizes short UI labels for a canvas.
//
// Strings are shaped with go-text/typesetting (HarfBuzz) and drawn from the
// font's glyph outlines with golang.org/x/image/vector. Layouts are cached
// per face by their NFC-normalized string, so drawing the same label many
// times shapes it once.
//
//	face := text.DefaultFace(14)
//	l := face.Layout("Submit")
//	face.Draw(dst, l, image.Pt(10, 10), color.Black)
package text
