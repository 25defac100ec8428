package gif

import (
	"image/color"
	"time"
)

// Option configures an Encoder.
type Option func(*Encoder)

// WithDelay sets the display time of every frame. GIF stores delays in
// hundredths of a second; the value is rounded to that unit.
func WithDelay(d time.Duration) Option {
	return func(e *Encoder) {
		e.delay = max(d, 0)
	}
}

// WithRepeat sets the loop count. 0 loops forever; -1 writes no loop
// extension so the animation plays once.
func WithRepeat(n int) Option {
	return func(e *Encoder) {
		e.repeat = max(n, -1)
	}
}

// WithQuality sets the quantizer sample factor. 1 samples every pixel and
// gives the best palette; 30 is fastest. Values out of range are clamped.
func WithQuality(sample int) Option {
	return func(e *Encoder) {
		e.sample = min(max(sample, MinSample), MaxSample)
	}
}

// WithTransparent marks the palette entry closest to c as transparent.
func WithTransparent(c color.Color) Option {
	return func(e *Encoder) {
		e.transparent = c
	}
}

// WithDispose sets the disposal method (0-7) written into every frame's
// graphic control extension. Without it, frames with a transparent color
// restore to background (2) and others use 0.
func WithDispose(method int) Option {
	return func(e *Encoder) {
		e.dispose = method & 7
	}
}
