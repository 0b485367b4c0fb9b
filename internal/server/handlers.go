package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"

	"github.com/disintegration/imaging"

	seatsanalyzer "github.com/ironsheep/seats-analyzer"
	seatsimaging "github.com/ironsheep/seats-analyzer/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "seats_detect").
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

	result, err := s.executeTool(params.Name, params.Arguments)
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

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "seats_version":
		return s.handleVersion()

	// Images
	case "seats_load_image":
		return s.handleLoadImage(args)
	case "seats_evict_image":
		return s.handleEvictImage(args)
	case "seats_crop":
		return s.handleCrop(args)

	// Pipeline
	case "seats_detect":
		return s.handleDetect(args)
	case "seats_classify":
		return s.handleClassify(args)
	case "seats_analyze":
		return s.handleAnalyze(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Shared argument shapes ===

type pathArgs struct {
	Path string `json:"path"`
}

type roiArgs struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type positionArgs struct {
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
	Angle  float32 `json:"angle"`
}

func (p positionArgs) rect() seatsanalyzer.RotatedRect {
	return seatsanalyzer.RotatedRect{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height, Angle: p.Angle}
}

func (s *Server) load(path string) (*seatsanalyzer.Image, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	return s.cache.Load(path)
}

// === Image Handlers ===

// VersionResult describes the bound module.
type VersionResult struct {
	Module  string `json:"module"`
	Version string `json:"version"`
	Session string `json:"session"`
}

func (s *Server) handleVersion() (interface{}, error) {
	return VersionResult{
		Module:  s.table.Module(),
		Version: s.table.Version(),
		Session: s.session.ID(),
	}, nil
}

// ImageInfo describes a loaded image.
type ImageInfo struct {
	Path       string `json:"path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	ColorModel string `json:"color_model"`
	DataType   string `json:"data_type"`
}

func (s *Server) handleLoadImage(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}
	return ImageInfo{
		Path:       a.Path,
		Width:      img.Width,
		Height:     img.Height,
		ColorModel: img.ColorModel.String(),
		DataType:   img.DataType.String(),
	}, nil
}

func (s *Server) handleEvictImage(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	s.cache.Evict(a.Path)
	return map[string]interface{}{"evicted": a.Path, "cached": s.cache.Len()}, nil
}

type cropArgs struct {
	Path     string       `json:"path"`
	Position positionArgs `json:"position"`
	Scale    float64      `json:"scale"`
}

// CropResult is a region rendered as PNG.
type CropResult struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Data   string `json:"data"`
}

func (s *Server) handleCrop(args json.RawMessage) (interface{}, error) {
	var a cropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Scale < 0 {
		return nil, fmt.Errorf("scale must be positive, got %v", a.Scale)
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}
	src, err := img.ToGo()
	if err != nil {
		return nil, err
	}

	p := a.Position
	crop, err := seatsimaging.CropRotated(src, float64(p.X), float64(p.Y), float64(p.Width), float64(p.Height), float64(p.Angle))
	if err != nil {
		return nil, err
	}
	if a.Scale != 1.0 {
		w := int(float64(crop.Bounds().Dx()) * a.Scale)
		h := int(float64(crop.Bounds().Dy()) * a.Scale)
		if w < 1 || h < 1 {
			return nil, fmt.Errorf("scaled crop is empty")
		}
		crop = imaging.Resize(crop, w, h, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, crop); err != nil {
		return nil, fmt.Errorf("failed to encode crop: %w", err)
	}
	return CropResult{
		Width:  crop.Bounds().Dx(),
		Height: crop.Bounds().Dy(),
		Format: "png",
		Data:   base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// === Pipeline Handlers ===

type detectArgs struct {
	Path string   `json:"path"`
	RoI  *roiArgs `json:"roi,omitempty"`
}

func (a detectArgs) roi() *seatsanalyzer.RoI {
	if a.RoI == nil {
		return nil
	}
	return &seatsanalyzer.RoI{X: a.RoI.X, Y: a.RoI.Y, Width: a.RoI.Width, Height: a.RoI.Height}
}

// DetectResult lists the detections of one image.
type DetectResult struct {
	Count      int                       `json:"count"`
	Detections []seatsanalyzer.Detection `json:"detections"`
}

func (s *Server) handleDetect(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}

	res, err := s.session.Detect(img, a.roi())
	if err != nil {
		return nil, err
	}
	defer res.Release()

	dets := res.Detections()
	if dets == nil {
		dets = []seatsanalyzer.Detection{}
	}
	return DetectResult{Count: res.Len(), Detections: dets}, nil
}

type classifyArgs struct {
	Path     string       `json:"path"`
	Position positionArgs `json:"position"`
	Label    string       `json:"label"`
}

func (s *Server) handleClassify(args json.RawMessage) (interface{}, error) {
	var a classifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Label == "" {
		a.Label = string(seatsanalyzer.LabelWindow)
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}
	return s.session.Classify(img, a.Position.rect(), seatsanalyzer.Label(a.Label))
}

// AnalysisResult is one detection with its classification or error.
type AnalysisResult struct {
	Detection      seatsanalyzer.Detection             `json:"detection"`
	Classification *seatsanalyzer.ClassificationResult `json:"classification,omitempty"`
	Error          string                              `json:"error,omitempty"`
}

func (s *Server) handleAnalyze(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}

	out, err := s.session.Analyze(img, a.roi())
	if err != nil {
		return nil, err
	}
	results := make([]AnalysisResult, len(out))
	for i, an := range out {
		results[i] = AnalysisResult{Detection: an.Detection, Classification: an.Classification}
		if an.Err != nil {
			results[i].Error = an.Err.Error()
		}
	}
	return results, nil
}
