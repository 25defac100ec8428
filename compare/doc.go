// Package compare measures pixel differences between two canvases and
// decides whether a screenshot changed.
//
// A [Comparator] counts the pixels whose color distance exceeds a small
// tolerance, a [ThresholdValidator] turns that count into a changed or
// unchanged verdict, and [Composite] renders the golden | diff | actual
// triptych written next to a changed golden image.
package compare
