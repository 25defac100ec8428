package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/gogpu/ggshot/text"
)

// CommandType identifies the type of a queued draw command.
type CommandType uint8

const (
	CmdFillRect   CommandType = iota // Fill a rectangle
	CmdStrokeRect                    // Outline a rectangle
	CmdLine                          // Draw a line segment
	CmdImage                         // Draw an image, resampled to a rectangle
	CmdText                          // Draw text at a fixed position
	CmdLabel                         // Draw overlay text at a free position
)

var commandTypeNames = [...]string{
	CmdFillRect:   "FillRect",
	CmdStrokeRect: "StrokeRect",
	CmdLine:       "Line",
	CmdImage:      "Image",
	CmdText:       "Text",
	CmdLabel:      "Label",
}

// String returns the string representation of a CommandType.
func (t CommandType) String() string {
	if int(t) < len(commandTypeNames) {
		return commandTypeNames[t]
	}
	return "Unknown"
}

// Command is a queued draw operation. Commands are executed in queue order
// when the canvas is flushed.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType

	// Bounds returns the region the command may write to.
	Bounds() image.Rectangle

	apply(c *Canvas)
}

// FillRectCommand fills a rectangle with a solid color.
type FillRectCommand struct {
	Rect  image.Rectangle
	Color color.Color
}

// Type implements Command.
func (FillRectCommand) Type() CommandType { return CmdFillRect }

// Bounds implements Command.
func (cmd FillRectCommand) Bounds() image.Rectangle { return cmd.Rect.Canon() }

func (cmd FillRectCommand) apply(c *Canvas) {
	draw.Draw(c.img, cmd.Bounds(), image.NewUniform(cmd.Color), image.Point{}, draw.Over)
}

// StrokeRectCommand outlines a rectangle. The stroke lies inside Rect.
type StrokeRectCommand struct {
	Rect  image.Rectangle
	Color color.Color
	Width int
}

// Type implements Command.
func (StrokeRectCommand) Type() CommandType { return CmdStrokeRect }

// Bounds implements Command.
func (cmd StrokeRectCommand) Bounds() image.Rectangle { return cmd.Rect.Canon() }

func (cmd StrokeRectCommand) apply(c *Canvas) {
	r := cmd.Bounds()
	w := max(cmd.Width, 1)
	if 2*w >= r.Dx() || 2*w >= r.Dy() {
		FillRectCommand{Rect: r, Color: cmd.Color}.apply(c)
		return
	}
	src := image.NewUniform(cmd.Color)
	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w),
		image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y+w, r.Min.X+w, r.Max.Y-w),
		image.Rect(r.Max.X-w, r.Min.Y+w, r.Max.X, r.Max.Y-w),
	} {
		draw.Draw(c.img, edge, src, image.Point{}, draw.Over)
	}
}

// LineCommand draws an anti-aliased segment between pixel centers.
type LineCommand struct {
	From, To image.Point
	Color    color.Color
	Width    float64
}

// Type implements Command.
func (LineCommand) Type() CommandType { return CmdLine }

// Bounds implements Command.
func (cmd LineCommand) Bounds() image.Rectangle {
	pad := int(math.Ceil(cmd.width()/2)) + 1
	return image.Rectangle{Min: cmd.From, Max: cmd.To}.Canon().Inset(-pad)
}

func (cmd LineCommand) width() float64 {
	if cmd.Width <= 0 || math.IsNaN(cmd.Width) {
		return 1
	}
	return cmd.Width
}

func (cmd LineCommand) apply(c *Canvas) {
	b := cmd.Bounds().Intersect(c.img.Rect)
	if b.Empty() {
		return
	}
	x0 := float64(cmd.From.X-b.Min.X) + 0.5
	y0 := float64(cmd.From.Y-b.Min.Y) + 0.5
	x1 := float64(cmd.To.X-b.Min.X) + 0.5
	y1 := float64(cmd.To.Y-b.Min.Y) + 0.5
	half := cmd.width() / 2

	// Normal and direction scaled to half the width; a zero-length line
	// becomes a square dot.
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	nx, ny := 0.0, half
	ex, ey := half, 0.0
	if length > 0 {
		nx, ny = -dy/length*half, dx/length*half
		ex, ey = 0, 0
	}

	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.MoveTo(float32(x0+nx-ex), float32(y0+ny-ey))
	z.LineTo(float32(x1+nx+ex), float32(y1+ny+ey))
	z.LineTo(float32(x1-nx+ex), float32(y1-ny+ey))
	z.LineTo(float32(x0-nx-ex), float32(y0-ny-ey))
	z.ClosePath()
	z.Draw(c.img, b, image.NewUniform(cmd.Color), image.Point{})
}

// ImageCommand draws Src into Rect, resampling bilinearly when the sizes
// differ.
type ImageCommand struct {
	Rect image.Rectangle
	Src  image.Image
}

// Type implements Command.
func (ImageCommand) Type() CommandType { return CmdImage }

// Bounds implements Command.
func (cmd ImageCommand) Bounds() image.Rectangle { return cmd.Rect.Canon() }

func (cmd ImageCommand) apply(c *Canvas) {
	if cmd.Src == nil {
		return
	}
	r := cmd.Bounds()
	sb := cmd.Src.Bounds()
	if r.Size() == sb.Size() {
		draw.Draw(c.img, r, cmd.Src, sb.Min, draw.Over)
		return
	}
	xdraw.BiLinear.Scale(c.img, r, cmd.Src, sb, draw.Over, nil)
}

// TextCommand draws a shaped layout with its box top-left at At.
type TextCommand struct {
	At     image.Point
	Layout *text.Layout
	Face   *text.Face
	Style  Style
}

// Type implements Command.
func (TextCommand) Type() CommandType { return CmdText }

// Bounds implements Command.
func (cmd TextCommand) Bounds() image.Rectangle {
	return image.Rectangle{Min: cmd.At, Max: cmd.At.Add(boxSize(cmd.Layout, cmd.Style))}
}

func (cmd TextCommand) apply(c *Canvas) {
	drawText(c, cmd.At, cmd.Layout, cmd.Face, cmd.Style)
}

// LabelCommand draws overlay text near Anchor. The final position is
// chosen at flush time from the free grid points left by base content.
type LabelCommand struct {
	Anchor image.Rectangle
	Layout *text.Layout
	Face   *text.Face
	Style  Style
}

// Type implements Command.
func (LabelCommand) Type() CommandType { return CmdLabel }

// Bounds implements Command. The position is not known before flush, so
// Bounds reports the label box at the anchor.
func (cmd LabelCommand) Bounds() image.Rectangle {
	at := cmd.Anchor.Canon().Min
	return image.Rectangle{Min: at, Max: at.Add(boxSize(cmd.Layout, cmd.Style))}
}

func (cmd LabelCommand) apply(c *Canvas) {
	size := boxSize(cmd.Layout, cmd.Style)
	at := c.placeLabel(cmd.Anchor.Canon().Min, size)
	drawText(c, at, cmd.Layout, cmd.Face, cmd.Style)
}

func boxSize(l *text.Layout, s Style) image.Point {
	p := max(s.Padding, 0)
	return l.Size().Add(image.Pt(2*p, 2*p))
}

func drawText(c *Canvas, at image.Point, l *text.Layout, face *text.Face, s Style) {
	if s.Background != nil {
		r := image.Rectangle{Min: at, Max: at.Add(boxSize(l, s))}
		draw.Draw(c.img, r, image.NewUniform(s.Background), image.Point{}, draw.Over)
	}
	p := max(s.Padding, 0)
	face.Draw(c.img, l, at.Add(image.Pt(p, p)), s.color())
}
