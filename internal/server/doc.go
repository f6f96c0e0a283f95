// Package server implements the MCP (Model Context Protocol) server for CBF
// detector frames.
//
// This package provides a JSON-RPC 2.0 server that exposes CBF reading,
// analysis, rendering and rewriting through the MCP protocol, so an AI
// client can inspect diffraction images by their raw counts instead of by
// eye.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Frame Information:
//   - cbf_load: Decode a frame and describe it
//   - cbf_dimensions: Get width and height
//   - cbf_header: List header keys and values
//
// Pixel Operations:
//   - cbf_sample_pixel: Raw count at a pixel
//   - cbf_sample_pixels_multi: Raw counts at labeled points
//
// Statistics:
//   - cbf_stats: Intensity statistics and histogram
//   - cbf_compare_regions: Compare two regions
//   - cbf_measure_distance: Measure between points
//
// Rendering:
//   - cbf_render: False-colour PNG of the frame
//   - cbf_crop: Rendered rectangular region
//   - cbf_crop_quadrant: Rendered named region (top-left, center, etc.)
//   - cbf_grid_overlay: Rendered frame with coordinate grid
//
// Export:
//   - cbf_export_tiff: 16-bit TIFF of the raw counts
//   - cbf_write: Re-encode to a new CBF file with header edits
//
// # Frame Caching
//
// Decoded frames are kept in a least-recently-used cache sized by the
// [cache] frames setting. Frames are cached by path; a frame written by
// cbf_write replaces any cached copy of its output path.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Every tool call is logged at debug level, failures at warn. Logs go to the
// logger given to New; stdout carries only protocol traffic.
//
// # Usage
//
//	cfg, err := config.LoadEnv(afero.NewOsFs(), "")
//	...
//	srv, err := server.New(afero.NewOsFs(), cfg, logger)
//	...
//	if err := srv.Run(); err != nil {
//	    level.Error(logger).Log("err", err)
//	}
package server
