// Package capture runs screenshot captures against golden images.
//
// A [Pipeline] takes a rendered [canvas.Canvas] and a golden path and,
// depending on its [TaskType], records the golden image or compares the
// canvas with it. Every capture yields exactly one [Result]:
//
//	Recorded   golden image written
//	Added      no golden image; compare and actual images written
//	Changed    differs beyond the threshold; compare and actual images written
//	Unchanged  matches the golden image
//
// Task types combine three facets:
//
//	TaskType          Recording  Comparing  Verifying
//	None              -          -          -
//	Record            x          -          -
//	Compare           -          x          -
//	Verify            -          -          x
//	VerifyAndRecord   x          -          x
//	CompareAndRecord  x          x          -
//
// Recording alone writes the golden image. Comparing or verifying writes
// <golden>_compare.png (golden | diff | new) and the new image, which goes
// to <golden>_actual.png or, when also recording, over the golden image.
// Verifying turns Added and Changed results into *VerificationError.
//
// Results marshal to the JSON form used by package report.
package capture
