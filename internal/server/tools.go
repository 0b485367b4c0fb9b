package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Path to the image file, as read by the analyzer module",
	}
}

func roiProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Optional search area. A negative width or height selects the full image extent in that dimension.",
		"properties": map[string]interface{}{
			"x":      map[string]interface{}{"type": "integer"},
			"y":      map[string]interface{}{"type": "integer"},
			"width":  map[string]interface{}{"type": "integer"},
			"height": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"x", "y", "width", "height"},
	}
}

func positionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Rotated rectangle: centre x/y, width, height and clockwise angle in degrees, as returned by seats_detect",
		"properties": map[string]interface{}{
			"x":      map[string]interface{}{"type": "number"},
			"y":      map[string]interface{}{"type": "number"},
			"width":  map[string]interface{}{"type": "number"},
			"height": map[string]interface{}{"type": "number"},
			"angle":  map[string]interface{}{"type": "number", "default": 0},
		},
		"required": []string{"x", "y", "width", "height"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "seats_version",
			Description: "Report the linked analyzer module, its version string and the session id.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Images
		{
			Name:        "seats_load_image",
			Description: "Read an image through the analyzer module and keep it cached for later calls. Returns size and pixel layout.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "seats_evict_image",
			Description: "Free a cached image. The next call naming the path reads it again.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "seats_crop",
			Description: "Cut a rotated rectangle out of an image, straighten it and return it as base64-encoded PNG. Use it to look at a detected windshield.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty(),
					"position": positionProperty(),
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "position"},
			},
		},

		// Pipeline
		{
			Name:        "seats_detect",
			Description: "Run the detection stage. Returns every detection with its confidence, rotated position and label; windshields are labelled \"window\".",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"roi":  roiProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "seats_classify",
			Description: "Run the classification stage on one windshield. Returns left, middle and right seat results for occupied, driver, belt and phone; each result is \"0\", \"1\", \"?\" or empty when not implemented for the seat.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty(),
					"position": positionProperty(),
					"label": map[string]interface{}{
						"type":        "string",
						"description": "Detection label. Only \"window\" is supported.",
						"default":     "window",
					},
				},
				"required": []string{"path", "position"},
			},
		},
		{
			Name:        "seats_analyze",
			Description: "Detect windshields and classify each of them in one call.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"roi":  roiProperty(),
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
