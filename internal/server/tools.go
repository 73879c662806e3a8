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
		"description": "Absolute path to a DICOM file or an exported raster image (PNG, JPEG, GIF, TIFF)",
	}
}

func sliceProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Zero-based slice index. Defaults to the profile's slice, or 0 without a profile",
	}
}

func profileProperty(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": desc,
	}
}

func rectSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Rectangle covering rows [x, x+w) and columns [y, y+h)",
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "integer"},
			"w": map[string]interface{}{"type": "integer"},
			"y": map[string]interface{}{"type": "integer"},
			"h": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"x", "w", "y", "h"},
	}
}

func circleSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "integer", "description": "Centre row"},
			"y": map[string]interface{}{"type": "integer", "description": "Centre column"},
			"r": map[string]interface{}{"type": "integer", "description": "Radius in pixels"},
		},
		"required": []string{"x", "y"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Volumes and profiles
		{
			Name:        "phantom_load",
			Description: "Load a phantom scan and return slice count, matrix size, format and DICOM pixel spacing. The volume is cached for subsequent calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "phantom_profiles",
			Description: "List the analysis profiles (phantom + sequence presets) with their slice, thresholds, ROI window, mm/pixel and SNR rectangles.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Core pipeline
		{
			Name:        "phantom_detect_circles",
			Description: "Detect fiducial circles on a slice: threshold + erosion edge extraction, template voting over radii, greedy non-overlapping selection. Parameters come from a profile, the detector defaults, or explicit arguments (explicit wins).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"slice":   sliceProperty(),
					"profile": profileProperty("Optional profile name or alias supplying parameters"),
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Foreground fraction: pixels below threshold x max are foreground. Default 0.3",
					},
					"circumference_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Minimum fraction of template points that must vote, in (0, 1]. Default 0.5",
					},
					"rmin": map[string]interface{}{
						"type":        "integer",
						"description": "Smallest radius searched. Default 6",
					},
					"rmax": map[string]interface{}{
						"type":        "integer",
						"description": "Largest radius searched. Default 7. At most 64 radii may be searched",
					},
					"steps": map[string]interface{}{
						"type":        "integer",
						"description": "Angular samples per radius, 1 to 1440. Default 100",
					},
					"window": map[string]interface{}{
						"type":        "object",
						"description": "Optional ROI: centres must satisfy min_x < x < max_x and min_y < y < max_y (x = row, y = column)",
						"properties": map[string]interface{}{
							"min_x": map[string]interface{}{"type": "integer"},
							"min_y": map[string]interface{}{"type": "integer"},
							"max_x": map[string]interface{}{"type": "integer"},
							"max_y": map[string]interface{}{"type": "integer"},
						},
					},
					"use_profile_window": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply the profile's ROI window when no explicit window is given",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "phantom_geometry",
			Description: "Compute distances in mm between row-adjacent circles, rounded to 0.1 mm (half to even), plus count/mean/min/max.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"circles": map[string]interface{}{
						"type":  "array",
						"items": circleSchema(),
					},
					"mm_per_pixel": map[string]interface{}{
						"type":        "number",
						"description": "Pixel size in mm. Taken from the profile when omitted",
					},
					"profile": profileProperty("Optional profile supplying mm_per_pixel"),
				},
				"required": []string{"circles"},
			},
		},
		{
			Name:        "phantom_snr_cnr",
			Description: "Measure SNR and CNR on a slice. Noise pixels from all noise rectangles are pooled; SNR = signal mean / noise std, CNR = (signal mean - noise mean) / noise std.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"slice":   sliceProperty(),
					"profile": profileProperty("Optional profile supplying the rectangles"),
					"noise_rects": map[string]interface{}{
						"type":  "array",
						"items": rectSchema(),
					},
					"signal_rect": rectSchema(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "phantom_analyze",
			Description: "Run a full profile analysis: circles inside the ROI window, adjacent distances with mean, SNR and CNR. Saved to run history when enabled.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"profile": profileProperty("Profile name or alias, e.g. \"T2 domed\" or \"t2d\""),
					"slice":   sliceProperty(),
				},
				"required": []string{"path", "profile"},
			},
		},

		// Visual inspection
		{
			Name:        "phantom_overlay",
			Description: "Render the slice upscaled with detected circles, the ROI window (yellow), noise rectangles (red) and signal rectangle (green). Returns base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"profile": profileProperty("Optional profile; without one, all circles found with default parameters are drawn"),
					"slice":   sliceProperty(),
					"scale": map[string]interface{}{
						"type":        "integer",
						"description": "Integer upscaling factor. Default 4",
					},
					"contrast": map[string]interface{}{
						"type":        "number",
						"description": "Contrast change in percent, -100 to 100. Default 0",
					},
					"labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Number circles in acceptance order. Default true",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "phantom_distance_plot",
			Description: "Bar chart of fiducial distances with an optional nominal spacing line. Pass distances directly, or a path and profile to analyze first. Returns base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"distances_mm": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "number"},
					},
					"path":    pathProperty(),
					"profile": profileProperty("Optional profile supplying the nominal spacing, or the analysis when distances are omitted"),
					"slice":   sliceProperty(),
					"nominal_mm": map[string]interface{}{
						"type":        "number",
						"description": "Nominal spacing reference line in mm; 0 disables it",
					},
					"title": map[string]interface{}{
						"type":        "string",
						"description": "Chart title",
					},
				},
			},
		},
		{
			Name:        "phantom_crop",
			Description: "Crop a rectangle of a slice (rows [x, x+w), columns [y, y+h)), window it to 8-bit and return base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty(),
					"slice": sliceProperty(),
					"x":     map[string]interface{}{"type": "integer", "description": "First row"},
					"w":     map[string]interface{}{"type": "integer", "description": "Number of rows"},
					"y":     map[string]interface{}{"type": "integer", "description": "First column"},
					"h":     map[string]interface{}{"type": "integer", "description": "Number of columns"},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 4.0 to enlarge). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "x", "w", "y", "h"},
			},
		},
		{
			Name:        "phantom_probe",
			Description: "Read the intensity at a pixel, its fraction of the slice maximum, and whether the detector would treat it as foreground (below threshold x max).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"slice":   sliceProperty(),
					"profile": profileProperty("Optional profile supplying slice and threshold"),
					"row":     map[string]interface{}{"type": "integer"},
					"col":     map[string]interface{}{"type": "integer"},
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Foreground fraction. Defaults to the profile's, or 0.3",
					},
				},
				"required": []string{"path", "row", "col"},
			},
		},

		// History
		{
			Name:        "phantom_history",
			Description: "List stored analysis runs, newest first. Requires PHANTOM_QA_DB.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"profile": profileProperty("Optional profile filter"),
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of runs. Default 20; negative for all",
						"default":     20,
					},
				},
			},
		},
		{
			Name:        "phantom_trend",
			Description: "Render an HTML line chart of mean distance, SNR and CNR over stored runs of one profile. Requires PHANTOM_QA_DB.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"profile": profileProperty("Profile name or alias"),
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Use only the most recent runs. Default all",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Write the page here instead of returning the HTML inline",
					},
				},
				"required": []string{"profile"},
			},
		},

		// OCR
		{
			Name:        "phantom_identify_profile",
			Description: "Work out which profile a scan belongs to: first from the DICOM Series Description, otherwise by OCR of annotation text burned into an exported screenshot.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"region": map[string]interface{}{
						"type":        "object",
						"description": "Optional area holding the annotation, in image pixel coordinates",
						"properties": map[string]interface{}{
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
							"x2": map[string]interface{}{"type": "integer"},
							"y2": map[string]interface{}{"type": "integer"},
						},
						"required": []string{"x1", "y1", "x2", "y2"},
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code. Default \"eng\"",
						"default":     "eng",
					},
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
