package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func confirmProperty(action string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": "Set to true to " + action + " even if there are unsaved changes. All changes will be lost! Default false",
		"default":     false,
	}
}

func emptySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Session
		{
			Name:        "image_open",
			Description: "Open an image file for editing. It becomes the baseline and the saturation resets to 1.0. Fails if there are unsaved changes unless confirm is true.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file (PNG, JPEG, GIF, BMP, TIFF or WebP). An empty path cancels the open",
					},
					"confirm": confirmProperty("open"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_adjust",
			Description: "Set the saturation factor applied to the opened image. 0 is grayscale, 1 is unchanged, 2 doubles saturation. The factor is always applied to the baseline, never on top of an earlier adjustment.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"factor": map[string]interface{}{
						"type":        "number",
						"description": "Saturation factor between 0.0 and 2.0",
						"minimum":     0.0,
						"maximum":     2.0,
					},
					"wait": map[string]interface{}{
						"type":        "boolean",
						"description": "Wait for the preview to render and report its saturation statistics. Default false",
						"default":     false,
					},
				},
				"required": []string{"factor"},
			},
		},
		{
			Name:        "image_discard",
			Description: "Discard unsaved changes and return the saturation to 1.0. Fails if there are unsaved changes unless confirm is true.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"confirm": confirmProperty("discard"),
				},
			},
		},
		{
			Name:        "image_save",
			Description: "Save the adjusted image as a JPEG file. The saved image becomes the new baseline.",
			InputSchema: emptySchema(),
		},

		// Inspection
		{
			Name:        "image_preview",
			Description: "Return the current preview as a base64-encoded PNG, upright and fitted into max_dimension pixels, together with its saturation statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"max_dimension": map[string]interface{}{
						"type":        "integer",
						"description": "Largest width or height of the returned preview. 0 uses the server default",
					},
				},
			},
		},
		{
			Name:        "image_sample_color",
			Description: "Get the color of the current preview at the given upright pixel coordinates. Returns hex, RGBA, and HSL values.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based)",
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "image_info",
			Description: "Get the upright dimensions, color depth, orientation and scale of the opened image.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "session_state",
			Description: "Get the editing state (empty, clean or dirty), the current factor and which controls are enabled.",
			InputSchema: emptySchema(),
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
