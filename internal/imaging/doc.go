// Package imaging turns decoded CBF frames into things a person or a model
// can look at: false-color renderings, crops, grid overlays, statistics and
// 16-bit TIFF exports.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with the origin at the top-left corner:
// X is the column (the fastest-varying CBF dimension) and Y is the row.
// For regions, (X1, Y1) is inclusive and (X2, Y2) is exclusive.
//
// # Masked Pixels
//
// Pixel-array detectors mark module gaps and dead pixels with negative
// counts. Statistics and display windows ignore them, and renderings paint
// them MaskColor.
//
// # Thread Safety
//
// FrameCache is safe for concurrent use. Frames it returns are shared and
// must be treated as read-only; every function here only reads its input.
package imaging
