package text

import (
	"image"
	"math"
	"strings"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/text/unicode/norm"
)

// Glyph is a positioned glyph. X is the pen position from the line start,
// Y is the offset from the baseline (positive is down).
type Glyph struct {
	ID   uint16
	X, Y float64
}

// Line is one shaped line of text.
type Line struct {
	Glyphs   []Glyph
	Width    float64
	Baseline float64 // distance from the layout top
}

// Layout is the result of shaping a string. Layouts are immutable and
// shared through the face cache.
type Layout struct {
	Text   string
	Lines  []Line
	Width  float64
	Height float64
}

// Size returns the pixel size of the layout box, rounded up.
func (l *Layout) Size() image.Point {
	return image.Pt(int(math.Ceil(l.Width)), int(math.Ceil(l.Height)))
}

// Layout shapes s. Lines are split on '\n'. The result is cached by the
// NFC form of s.
func (f *Face) Layout(s string) *Layout {
	key := norm.NFC.String(s)
	return f.layouts.GetOrCreate(key, func() *Layout {
		return f.layout(key)
	})
}

func (f *Face) layout(s string) *Layout {
	l := &Layout{Text: s}
	ascent, lineHeight := f.Ascent(), f.LineHeight()
	for i, part := range strings.Split(s, "\n") {
		glyphs, width := f.shapeLine([]rune(part))
		l.Lines = append(l.Lines, Line{
			Glyphs:   glyphs,
			Width:    width,
			Baseline: ascent + float64(i)*lineHeight,
		})
		l.Width = math.Max(l.Width, width)
	}
	l.Height = float64(len(l.Lines)-1)*lineHeight + ascent + f.Descent()
	return l
}

func (f *Face) shapeLine(runes []rune) ([]Glyph, float64) {
	if len(runes) == 0 {
		return nil, 0
	}
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      font.NewFace(f.shaper),
		Size:      toFixed(f.size),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}

	hb := f.shaperPool.Get().(*shaping.HarfbuzzShaper)
	out := hb.Shape(input)
	f.shaperPool.Put(hb)

	glyphs := make([]Glyph, 0, len(out.Glyphs))
	var x float64
	for _, g := range out.Glyphs {
		glyphs = append(glyphs, Glyph{
			ID: uint16(g.GlyphID), //nolint:gosec // glyph ids of TrueType fonts fit in 16 bits
			X:  x + fromFixed(g.XOffset),
			Y:  -fromFixed(g.YOffset),
		})
		x += fromFixed(g.Advance)
	}
	return glyphs, x
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
