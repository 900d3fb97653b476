// Package veld is the display core of a vector graphics editor: a retained
// drawing tree mirroring an SVG document for interactive display, hit
// testing, and raster export.
//
// The root package holds the value layer shared by every subsystem: points,
// affine transforms, rectangles and integer rectangles, paths, premultiplied
// RGBA pixmaps, and the DrawContext abstraction that rendering targets
// implement. The subsystems live in subpackages:
//
//   - render: the drawing tree (items, incremental update, layered
//     compositing with clips, masks, filters and budgeted caching) and the
//     pattern tile engine.
//   - sweep: intersection-free polygon construction via a sweepline, boolean
//     operations, offsetting and winding queries.
//   - async: cancellable progress reporters and a main-loop channel.
//   - trace: orchestration of bitmap-to-vector tracing engines.
//
// veld produces no log output by default. Call SetLogger to enable logging.
package veld
