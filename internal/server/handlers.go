package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/edge-sweep/internal/imaging"
	"github.com/ironsheep/edge-sweep/internal/report"
	"github.com/ironsheep/edge-sweep/internal/sweep"
)

// Thresholds used by edge_detect when the caller omits them.
const (
	defaultLow  = 100
	defaultHigh = 200
)

var errMissingPath = errors.New("path is required")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "edge_sweep").
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
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"tool": params.Name,
		}).WithError(err).Warn("Tool execution failed")
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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(ctx, args)
	case "edge_detect":
		return s.handleEdgeDetect(ctx, args)
	case "edge_sweep":
		return s.handleEdgeSweep(ctx, args)
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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// loadGray fetches path through the cache, applies the configured downscale
// and returns the grayscale working image with its description.
func (s *Server) loadGray(ctx context.Context, path string) (*image.Gray, imaging.Info, error) {
	if path == "" {
		return nil, imaging.Info{}, errMissingPath
	}
	img, format, err := s.cache.Load(ctx, path)
	if err != nil {
		return nil, imaging.Info{}, err
	}
	img = imaging.FitWithin(img, s.cfg.MaxDimension)
	return imaging.ToGray(img), imaging.Describe(img, format), nil
}

// detector builds the configured detector, optionally overriding blur.
func (s *Server) detector(blur *bool) (sweep.Detector, error) {
	b := s.cfg.Detector.Blur
	if blur != nil {
		b = *blur
	}
	return imaging.NewDetector(s.cfg.Detector.Name, b)
}

// === image_load ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

type imageLoadResult struct {
	Path string `json:"path"`
	imaging.Info
}

func (s *Server) handleImageLoad(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errMissingPath
	}
	img, format, err := s.cache.Load(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	return &imageLoadResult{Path: a.Path, Info: imaging.Describe(img, format)}, nil
}

// === edge_detect ===

type edgeDetectArgs struct {
	Path        string   `json:"path"`
	Low         *float64 `json:"low"`
	High        *float64 `json:"high"`
	Blur        *bool    `json:"blur"`
	IncludeMask *bool    `json:"include_mask"`
}

type edgeDetectResult struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Low         float64 `json:"low"`
	High        float64 `json:"high"`
	EdgePixels  int     `json:"edge_pixels"`
	TotalPixels int     `json:"total_pixels"`
	Density     float64 `json:"edge_density"`
	Ratio       string  `json:"threshold_ratio"`
	Mask        string  `json:"mask_base64,omitempty"`
}

func (s *Server) handleEdgeDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a edgeDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	pair := sweep.ThresholdPair{Low: defaultLow, High: defaultHigh}
	if a.Low != nil {
		pair.Low = *a.Low
	}
	if a.High != nil {
		pair.High = *a.High
	}

	gray, info, err := s.loadGray(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	d, err := s.detector(a.Blur)
	if err != nil {
		return nil, err
	}

	rep, err := sweep.NewController(d, s.logger).Run(gray, []sweep.Case{{Pair: pair}})
	if err != nil {
		return nil, err
	}
	res := rep.Results[0]

	out := &edgeDetectResult{
		Width:       info.Width,
		Height:      info.Height,
		Low:         pair.Low,
		High:        pair.High,
		EdgePixels:  res.EdgePixels,
		TotalPixels: res.TotalPixels,
		Density:     res.Density,
		Ratio:       report.FormatRatio(pair.Ratio()),
	}
	if a.IncludeMask == nil || *a.IncludeMask {
		encoded, err := imaging.EncodePNGBase64(res.Mask)
		if err != nil {
			return nil, err
		}
		out.Mask = encoded
	}
	return out, nil
}

// === edge_sweep ===

type sweepPairArgs struct {
	Low         float64 `json:"low"`
	High        float64 `json:"high"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
}

type edgeSweepArgs struct {
	Path  string          `json:"path"`
	Pairs []sweepPairArgs `json:"pairs"`
	Blur  *bool           `json:"blur"`
}

type rankingEntry struct {
	Index   int     `json:"index"`
	Label   string  `json:"label,omitempty"`
	Low     float64 `json:"low"`
	High    float64 `json:"high"`
	Density float64 `json:"edge_density"`
}

type edgeSweepResult struct {
	Width   int                `json:"width"`
	Height  int                `json:"height"`
	Results []sweep.EdgeResult `json:"results"`
	Ranking []rankingEntry     `json:"ranking"`
	Summary sweep.Summary      `json:"summary"`
}

func (s *Server) handleEdgeSweep(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a edgeSweepArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	cases := s.cfg.SweepCases()
	if len(a.Pairs) > 0 {
		cases = make([]sweep.Case, len(a.Pairs))
		for i, p := range a.Pairs {
			cases[i] = sweep.Case{
				Pair:        sweep.ThresholdPair{Low: p.Low, High: p.High},
				Label:       p.Label,
				Description: p.Description,
			}
		}
	}

	gray, _, err := s.loadGray(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	d, err := s.detector(a.Blur)
	if err != nil {
		return nil, err
	}

	rep, err := sweep.NewController(d, s.logger).Run(gray, cases)
	if err != nil {
		return nil, err
	}

	ranked := rep.Ranked()
	ranking := make([]rankingEntry, len(ranked))
	for i, r := range ranked {
		ranking[i] = rankingEntry{
			Index:   r.Index,
			Label:   r.Case.Label,
			Low:     r.Case.Pair.Low,
			High:    r.Case.Pair.High,
			Density: r.Density,
		}
	}

	return &edgeSweepResult{
		Width:   rep.Width,
		Height:  rep.Height,
		Results: rep.Results,
		Ranking: ranking,
		Summary: rep.Summary(),
	}, nil
}
