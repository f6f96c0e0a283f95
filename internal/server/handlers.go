package server

import (
	"encoding/json"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/go-kit/log/level"

	"github.com/ironsheep/cbf-tools-mcp/internal/cbf"
	"github.com/ironsheep/cbf-tools-mcp/internal/cif"
	"github.com/ironsheep/cbf-tools-mcp/internal/imaging"
)

const (
	defaultGridSpacing = 100
	defaultGridColor   = "#FF000080"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "cbf_load", "cbf_render").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	logger := level.Debug(s.logger)
	if err != nil {
		logger = level.Warn(s.logger)
	}
	logger.Log("msg", "tool call", "tool", params.Name, "duration", time.Since(start), "err", err)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches a tool call to its handler. Handlers decode their
// arguments, apply defaults, load the frame through the cache and call into
// the imaging package.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Frame Information
	case "cbf_load":
		return s.handleLoad(args)
	case "cbf_dimensions":
		return s.handleDimensions(args)
	case "cbf_header":
		return s.handleHeader(args)

	// Pixel Operations
	case "cbf_sample_pixel":
		return s.handleSamplePixel(args)
	case "cbf_sample_pixels_multi":
		return s.handleSamplePixelsMulti(args)

	// Statistics
	case "cbf_stats":
		return s.handleStats(args)
	case "cbf_compare_regions":
		return s.handleCompareRegions(args)
	case "cbf_measure_distance":
		return s.handleMeasureDistance(args)

	// Rendering
	case "cbf_render":
		return s.handleRender(args)
	case "cbf_crop":
		return s.handleCrop(args)
	case "cbf_crop_quadrant":
		return s.handleCropQuadrant(args)
	case "cbf_grid_overlay":
		return s.handleGridOverlay(args)

	// Export
	case "cbf_export_tiff":
		return s.handleExportTIFF(args)
	case "cbf_write":
		return s.handleWrite(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) load(path string) (*cbf.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return s.cache.Load(path)
}

// === Frame Information Handlers ===

func (s *Server) handleLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return imaging.LoadFrameInfo(s.cache, a.Path)
}

func (s *Server) handleDimensions(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type headerArgs struct {
	Path   string `json:"path"`
	Prefix string `json:"prefix"`
}

type headerResult struct {
	Path    string      `json:"path"`
	Count   int         `json:"count"`
	Entries []cbf.Entry `json:"entries"`
	// Unknown lists CIF data names holding the "?" or "." placeholder.
	Unknown []string `json:"unknown,omitempty"`
	// Loops maps each matching loop column to its values in row order.
	Loops []map[string][]string `json:"loops,omitempty"`
}

func (s *Server) handleHeader(args json.RawMessage) (interface{}, error) {
	var a headerArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}
	entries := img.Header.Entries(a.Prefix)
	res := &headerResult{Path: a.Path, Count: len(entries), Entries: entries}
	if img.CIF == nil {
		return res, nil
	}

	prefix := strings.ToLower(a.Prefix)
	matches := func(key string) bool { return strings.HasPrefix(strings.ToLower(key), prefix) }
	for _, key := range img.CIF.Keys() {
		if matches(key) && !img.CIF.Exists(key) {
			res.Unknown = append(res.Unknown, key)
		}
	}
	for _, loop := range img.CIF.Loops() {
		columns := make(map[string][]string)
		for _, key := range loop.Keys {
			if matches(key) {
				columns[key] = loop.Column(key)
			}
		}
		if len(columns) > 0 {
			res.Loops = append(res.Loops, columns)
		}
	}
	return res, nil
}

// === Pixel Handlers ===

type samplePixelArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleSamplePixel(args json.RawMessage) (interface{}, error) {
	var a samplePixelArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SamplePixel(img.Data, a.X, a.Y)
}

type pointArg struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label"`
}

type samplePixelsMultiArgs struct {
	Path   string     `json:"path"`
	Points []pointArg `json:"points"`
}

func (s *Server) handleSamplePixelsMulti(args json.RawMessage) (interface{}, error) {
	var a samplePixelsMultiArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Points) == 0 {
		return nil, fmt.Errorf("at least one point is required")
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}
	points := make([]imaging.LabeledPoint, len(a.Points))
	for i, p := range a.Points {
		points[i] = imaging.LabeledPoint{X: p.X, Y: p.Y, Label: p.Label}
	}
	return imaging.SamplePixelsMulti(img.Data, points)
}

// === Statistics Handlers ===

type statsArgs struct {
	Path          string          `json:"path"`
	Region        *imaging.Region `json:"region"`
	Percentiles   []float64       `json:"percentiles"`
	HistogramBins int             `json:"histogram_bins"`
}

type statsResult struct {
	*imaging.StatsResult
	Histogram []imaging.HistogramBin `json:"histogram,omitempty"`
}

func (s *Server) handleStats(args json.RawMessage) (interface{}, error) {
	var a statsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}
	stats, err := imaging.Stats(img.Data, a.Region, a.Percentiles)
	if err != nil {
		return nil, err
	}
	res := &statsResult{StatsResult: stats}
	if a.HistogramBins > 0 {
		hist, err := imaging.Histogram(img.Data, a.HistogramBins, a.Region)
		if err != nil {
			return nil, err
		}
		res.Histogram = hist.Bins
	}
	return res, nil
}

type compareRegionsArgs struct {
	Path    string         `json:"path"`
	Region1 imaging.Region `json:"region1"`
	Region2 imaging.Region `json:"region2"`
}

func (s *Server) handleCompareRegions(args json.RawMessage) (interface{}, error) {
	var a compareRegionsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.CompareRegions(img.Data, a.Region1, a.Region2)
}

type measureDistanceArgs struct {
	Path string `json:"path"`
	X1   int    `json:"x1"`
	Y1   int    `json:"y1"`
	X2   int    `json:"x2"`
	Y2   int    `json:"y2"`
}

func (s *Server) handleMeasureDistance(args json.RawMessage) (interface{}, error) {
	var a measureDistanceArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.MeasureDistance(img.Data,
		imaging.Point{X: a.X1, Y: a.Y1}, imaging.Point{X: a.X2, Y: a.Y2})
}

// === Rendering Handlers ===

// renderArgs override the configured render options. Omitted fields keep
// the configured value.
type renderArgs struct {
	Colormap       *string  `json:"colormap"`
	LowPercentile  *float64 `json:"low_percentile"`
	HighPercentile *float64 `json:"high_percentile"`
	Gamma          *float64 `json:"gamma"`
	BlurSigma      *float64 `json:"blur_sigma"`
}

func (r renderArgs) apply(base imaging.RenderOptions) imaging.RenderOptions {
	if r.Colormap != nil {
		base.Colormap = *r.Colormap
	}
	if r.LowPercentile != nil {
		base.LowPercentile = *r.LowPercentile
	}
	if r.HighPercentile != nil {
		base.HighPercentile = *r.HighPercentile
	}
	if r.Gamma != nil {
		base.Gamma = *r.Gamma
	}
	if r.BlurSigma != nil {
		base.BlurSigma = *r.BlurSigma
	}
	base.Scale = 1
	return base
}

// renderFrame draws the whole frame at its native size.
func (s *Server) renderFrame(path string, r renderArgs) (image.Image, error) {
	img, err := s.load(path)
	if err != nil {
		return nil, err
	}
	out, _, err := imaging.Render(img.Data, r.apply(s.render))
	return out, err
}

type renderToolArgs struct {
	Path  string  `json:"path"`
	Scale float64 `json:"scale"`
	renderArgs
}

func (s *Server) handleRender(args json.RawMessage) (interface{}, error) {
	var a renderToolArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}
	opts := a.apply(s.render)
	if a.Scale != 0 {
		opts.Scale = a.Scale
	}
	return imaging.RenderPNG(img.Data, opts)
}

type cropArgs struct {
	Path  string  `json:"path"`
	X1    int     `json:"x1"`
	Y1    int     `json:"y1"`
	X2    int     `json:"x2"`
	Y2    int     `json:"y2"`
	Scale float64 `json:"scale"`
	renderArgs
}

func (s *Server) handleCrop(args json.RawMessage) (interface{}, error) {
	var a cropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	frame, err := s.renderFrame(a.Path, a.renderArgs)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(frame, imaging.Region{X1: a.X1, Y1: a.Y1, X2: a.X2, Y2: a.Y2}, a.Scale)
}

type cropQuadrantArgs struct {
	Path   string  `json:"path"`
	Region string  `json:"region"`
	Scale  float64 `json:"scale"`
	renderArgs
}

func (s *Server) handleCropQuadrant(args json.RawMessage) (interface{}, error) {
	var a cropQuadrantArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	frame, err := s.renderFrame(a.Path, a.renderArgs)
	if err != nil {
		return nil, err
	}
	return imaging.CropQuadrant(frame, a.Region, a.Scale)
}

type gridOverlayArgs struct {
	Path            string `json:"path"`
	GridSpacing     int    `json:"grid_spacing"`
	ShowCoordinates *bool  `json:"show_coordinates"`
	GridColor       string `json:"grid_color"`
	renderArgs
}

func (s *Server) handleGridOverlay(args json.RawMessage) (interface{}, error) {
	var a gridOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.GridSpacing == 0 {
		a.GridSpacing = defaultGridSpacing
	}
	if a.GridColor == "" {
		a.GridColor = defaultGridColor
	}
	showCoords := a.ShowCoordinates == nil || *a.ShowCoordinates
	frame, err := s.renderFrame(a.Path, a.renderArgs)
	if err != nil {
		return nil, err
	}
	return imaging.GridOverlay(frame, a.GridSpacing, showCoords, a.GridColor)
}

// === Export Handlers ===

type exportTIFFArgs struct {
	Path   string          `json:"path"`
	Output string          `json:"output"`
	Region *imaging.Region `json:"region"`
}

func (s *Server) handleExportTIFF(args json.RawMessage) (interface{}, error) {
	var a exportTIFFArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Output == "" {
		return nil, fmt.Errorf("output is required")
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.ExportTIFF16(s.cache.Fs(), a.Output, img.Data, a.Region)
}

type writeArgs struct {
	Path   string            `json:"path"`
	Output string            `json:"output"`
	Region *imaging.Region   `json:"region"`
	Set    map[string]string `json:"set"`
	Delete []string          `json:"delete"`
}

type writeResult struct {
	Path          string `json:"path"`
	Output        string `json:"output"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	HeaderKeys    int    `json:"header_keys"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

func (s *Server) handleWrite(args json.RawMessage) (interface{}, error) {
	var a writeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Output == "" {
		return nil, fmt.Errorf("output is required")
	}
	if a.Output == a.Path {
		return nil, fmt.Errorf("output must differ from path")
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}

	// The cached frame is shared, so edits go to copies.
	header := img.Header.Clone()
	doc := cif.NewDocument()
	if img.CIF != nil {
		doc = img.CIF.Clone()
	}
	for _, k := range a.Delete {
		header.Delete(k)
		doc.Delete(k)
	}
	header.Update(a.Set)

	data := img.Data
	if a.Region != nil {
		if data, err = imaging.CropSamples(img.Data, *a.Region); err != nil {
			return nil, err
		}
	}
	out := &cbf.Image{Name: a.Output, Header: header, Data: data, CIF: doc}

	fs := s.cache.Fs()
	if err := cbf.WriteFile(fs, a.Output, out, cbf.WithLogger(s.logger)); err != nil {
		return nil, err
	}
	s.cache.Evict(a.Output)

	stat, err := fs.Stat(a.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to stat output: %w", err)
	}
	return &writeResult{
		Path:          a.Path,
		Output:        a.Output,
		Width:         data.Cols,
		Height:        data.Rows,
		HeaderKeys:    header.Len(),
		FileSizeBytes: stat.Size(),
	}, nil
}
