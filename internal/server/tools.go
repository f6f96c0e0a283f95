package server

import (
	"github.com/ironsheep/cbf-tools-mcp/internal/imaging"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func object(props map[string]interface{}, required ...string) map[string]interface{} {
	if required == nil {
		required = []string{}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

func withDefault(p map[string]interface{}, def interface{}) map[string]interface{} {
	p["default"] = def
	return p
}

func pathProp() map[string]interface{} {
	return prop("string", "Absolute path to the CBF file (.cbf or .cbf.gz)")
}

func regionProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"x1": prop("integer", "Left edge X coordinate (0-based)"),
			"y1": prop("integer", "Top edge Y coordinate (0-based)"),
			"x2": prop("integer", "Right edge X coordinate (exclusive)"),
			"y2": prop("integer", "Bottom edge Y coordinate (exclusive)"),
		},
		"required": []string{"x1", "y1", "x2", "y2"},
	}
}

// renderProps are the display settings shared by every tool returning a
// picture. Omitted values come from the server configuration.
func renderProps(props map[string]interface{}) map[string]interface{} {
	props["colormap"] = map[string]interface{}{
		"type":        "string",
		"enum":        imaging.ColormapNames(),
		"description": "False-colour map. Default from configuration (" + imaging.DefaultColormap + ")",
	}
	props["low_percentile"] = prop("number", "Percentile of valid pixels mapped to the low end of the colormap")
	props["high_percentile"] = prop("number", "Percentile of valid pixels mapped to the high end of the colormap")
	props["gamma"] = prop("number", "Gamma correction; values above 1 brighten faint pixels")
	props["blur_sigma"] = prop("number", "Gaussian blur radius applied before colouring; 0 disables")
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Frame Information
		{
			Name:        "cbf_load",
			Description: "Load a CBF detector frame and return its dimensions, element type, binary size, header key count and file size. The decoded frame is cached for subsequent calls.",
			InputSchema: object(map[string]interface{}{
				"path": pathProp(),
			}, "path"),
		},
		{
			Name:        "cbf_dimensions",
			Description: "Get the width (fastest dimension) and height (second dimension) of a CBF frame in pixels.",
			InputSchema: object(map[string]interface{}{
				"path": pathProp(),
			}, "path"),
		},
		{
			Name:        "cbf_header",
			Description: "List the header of a CBF frame as ordered key/value pairs: CIF data names and binary section MIME fields. Also names the data names left unknown (? or .) and lists CIF loop columns.",
			InputSchema: object(map[string]interface{}{
				"path":   pathProp(),
				"prefix": prop("string", "Only return keys starting with this prefix (case-insensitive), e.g. \"_diffrn\" or \"X-Binary\""),
			}, "path"),
		},

		// Pixel Operations
		{
			Name:        "cbf_sample_pixel",
			Description: "Get the raw integer count at a pixel. Negative values mark module gaps (-1) and bad pixels (-2).",
			InputSchema: object(map[string]interface{}{
				"path": pathProp(),
				"x":    prop("integer", "X coordinate (0-based, from left)"),
				"y":    prop("integer", "Y coordinate (0-based, from top)"),
			}, "path", "x", "y"),
		},
		{
			Name:        "cbf_sample_pixels_multi",
			Description: "Get raw counts at several labeled points in one call, e.g. a beam centre and nearby spots.",
			InputSchema: object(map[string]interface{}{
				"path": pathProp(),
				"points": map[string]interface{}{
					"type":        "array",
					"description": "Points to sample",
					"items": object(map[string]interface{}{
						"x":     prop("integer", "X coordinate"),
						"y":     prop("integer", "Y coordinate"),
						"label": prop("string", "Optional label echoed in the result"),
					}, "x", "y"),
				},
			}, "path", "points"),
		},

		// Statistics
		{
			Name:        "cbf_stats",
			Description: "Intensity statistics (min, max, mean, standard deviation, percentiles, masked pixel count) over the whole frame or a region. Masked pixels are excluded from every figure but the count.",
			InputSchema: object(map[string]interface{}{
				"path":   pathProp(),
				"region": regionProp("Optional region; the whole frame when omitted"),
				"percentiles": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "number"},
					"description": "Percentiles to report. Default [1, 50, 99, 99.9]",
				},
				"histogram_bins": prop("integer", "When positive, also return an equal-width histogram with this many bins"),
			}, "path"),
		},
		{
			Name:        "cbf_compare_regions",
			Description: "Compare intensity statistics of two regions of a frame. Reports the mean difference (region1 minus region2), the mean ratio (region1 over region2) and the pixel correlation.",
			InputSchema: object(map[string]interface{}{
				"path":    pathProp(),
				"region1": regionProp("First region"),
				"region2": regionProp("Second region"),
			}, "path", "region1", "region2"),
		},
		{
			Name:        "cbf_measure_distance",
			Description: "Measure the distance and angle in pixels between two points on a frame.",
			InputSchema: object(map[string]interface{}{
				"path": pathProp(),
				"x1":   prop("integer", "First point X"),
				"y1":   prop("integer", "First point Y"),
				"x2":   prop("integer", "Second point X"),
				"y2":   prop("integer", "Second point Y"),
			}, "path", "x1", "y1", "x2", "y2"),
		},

		// Rendering
		{
			Name:        "cbf_render",
			Description: "Render the frame as a false-colour PNG. Intensities are windowed between two percentiles of the valid pixels; masked pixels are drawn in blue.",
			InputSchema: object(renderProps(map[string]interface{}{
				"path":  pathProp(),
				"scale": withDefault(prop("number", "Optional scale factor, e.g. 0.25 to shrink a large frame"), 1.0),
			}), "path"),
		},
		{
			Name:        "cbf_crop",
			Description: "Render a rectangular region of the frame as a PNG. The intensity window is taken from the whole frame so crops stay comparable.",
			InputSchema: object(renderProps(map[string]interface{}{
				"path":  pathProp(),
				"x1":    prop("integer", "Left edge X coordinate (0-based)"),
				"y1":    prop("integer", "Top edge Y coordinate (0-based)"),
				"x2":    prop("integer", "Right edge X coordinate (exclusive)"),
				"y2":    prop("integer", "Bottom edge Y coordinate (exclusive)"),
				"scale": withDefault(prop("number", "Optional scale factor (e.g., 4.0 to zoom into a spot)"), 1.0),
			}), "path", "x1", "y1", "x2", "y2"),
		},
		{
			Name:        "cbf_crop_quadrant",
			Description: "Render a named part of the frame (top-left, top-right, bottom-left, bottom-right, top-half, bottom-half, left-half, right-half, center).",
			InputSchema: object(renderProps(map[string]interface{}{
				"path": pathProp(),
				"region": map[string]interface{}{
					"type":        "string",
					"enum":        imaging.Quadrants,
					"description": "Named region to extract",
				},
				"scale": withDefault(prop("number", "Optional scale factor. Default 1.0"), 1.0),
			}), "path", "region"),
		},
		{
			Name:        "cbf_grid_overlay",
			Description: "Render the frame with a coordinate grid to help locate pixels for other tools.",
			InputSchema: object(renderProps(map[string]interface{}{
				"path":             pathProp(),
				"grid_spacing":     withDefault(prop("integer", "Pixels between grid lines"), 100),
				"show_coordinates": withDefault(prop("boolean", "Label grid intersections with coordinates"), true),
				"grid_color":       withDefault(prop("string", "Grid line color as hex, optionally with alpha"), "#FF000080"),
			}), "path"),
		},

		// Export
		{
			Name:        "cbf_export_tiff",
			Description: "Write the raw counts of a frame or region to a 16-bit grayscale TIFF. Values outside 0..65535 are clamped and counted.",
			InputSchema: object(map[string]interface{}{
				"path":   pathProp(),
				"output": prop("string", "Absolute path of the TIFF file to write"),
				"region": regionProp("Optional region; the whole frame when omitted"),
			}, "path", "output"),
		},
		{
			Name:        "cbf_write",
			Description: "Re-encode a frame to a new CBF file, optionally cropped to a region and with header keys set or removed. Keys starting with \"_\" are CIF data names; other keys become free-form header lines. An output ending in .gz is gzip-compressed.",
			InputSchema: object(map[string]interface{}{
				"path":   pathProp(),
				"output": prop("string", "Absolute path of the CBF file to write"),
				"region": regionProp("Optional region; the written frame holds only these pixels"),
				"set": map[string]interface{}{
					"type":                 "object",
					"description":          "Header keys to set",
					"additionalProperties": map[string]interface{}{"type": "string"},
				},
				"delete": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Header keys to remove",
				},
			}, "path", "output"),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
