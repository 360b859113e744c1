package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is shared by every tool: all of them operate on one image.
var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file, or an http(s) URL",
}

var blurProperty = map[string]interface{}{
	"type":        "boolean",
	"description": "Apply a 5x5 Gaussian blur before gradient computation. Defaults to the server configuration.",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image (file or URL) and return its dimensions, channel count and format. The image is cached for subsequent calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "edge_detect",
			Description: "Run Canny edge detection with one threshold pair. Returns edge pixel count, edge density and the binary edge mask as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"low": map[string]interface{}{
						"type":        "number",
						"description": "Low hysteresis threshold (gradient magnitude). Default 100",
						"minimum":     0,
					},
					"high": map[string]interface{}{
						"type":        "number",
						"description": "High hysteresis threshold (gradient magnitude). Default 200",
						"minimum":     0,
					},
					"blur": blurProperty,
					"include_mask": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the base64 PNG mask in the result. Default true",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "edge_sweep",
			Description: "Run Canny edge detection once per threshold pair and compare edge densities. Returns per-pair results in input order, a ranking by density and summary statistics. Omit 'pairs' to use the configured default sweep.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"pairs": map[string]interface{}{
						"type":        "array",
						"description": "Threshold pairs to evaluate, in order",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"low":         map[string]interface{}{"type": "number", "minimum": 0},
								"high":        map[string]interface{}{"type": "number", "minimum": 0},
								"label":       map[string]interface{}{"type": "string"},
								"description": map[string]interface{}{"type": "string"},
							},
							"required": []string{"low", "high"},
						},
					},
					"blur": blurProperty,
				},
				"required": []string{"path"},
			},
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
