// Package ggshot provides screenshot regression testing for rendered UI.
//
// # Overview
//
// A caller renders a UI tree into a [canvas.Canvas] and hands it to a
// [capture.Pipeline]. The pipeline compares the canvas with the previously
// accepted ("golden") image and reports one of four outcomes:
//
//   - Recorded: the golden image was written
//   - Added: there was no golden image yet
//   - Changed: the image differs beyond the configured threshold
//   - Unchanged: the image matches the golden image
//
// # Quick Start
//
//	c := canvas.New(320, 200)
//	c.DrawRect(image.Rect(0, 0, 320, 48), color.NRGBA{R: 0x21, G: 0x96, B: 0xf3, A: 0xff})
//	c.DrawText(image.Pt(8, 12), "Settings", canvas.Style{Size: 18, Color: color.White})
//
//	p := capture.New(capture.WithTaskType(capture.Verify))
//	res, err := p.Capture(c, "testdata/settings_header.png")
//
// # Packages
//
// The module is organized into:
//   - canvas: raster surface with a deferred draw queue and auto-cropping
//   - compare: pixel comparator, threshold validator and diff compositor
//   - gif: animated GIF encoder (neural-net quantizer and LZW)
//   - capture: task types, capture results and the capture pipeline
//   - naming: collision-free output names
//   - report: result aggregation and the JSON report format
//   - config: YAML and environment configuration
//
// # Logging
//
// ggshot is silent by default. Call [SetLogger] to receive diagnostics
// from all sub-packages.
package ggshot

// Version information
const (
	// Version is the current version of the module
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
