package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
	"os"

	"github.com/ironsheep/phantom-qa-mcp/internal/analysis"
	"github.com/ironsheep/phantom-qa-mcp/internal/detection"
	"github.com/ironsheep/phantom-qa-mcp/internal/imaging"
	"github.com/ironsheep/phantom-qa-mcp/internal/ocr"
	"github.com/ironsheep/phantom-qa-mcp/internal/profile"
	"github.com/ironsheep/phantom-qa-mcp/internal/report"
	"github.com/ironsheep/phantom-qa-mcp/internal/store"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "phantom_load", "phantom_analyze").
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
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Resolves the optional profile and applies default values
//  3. Loads volumes from cache as needed
//  4. Calls the appropriate detection/imaging/analysis/report function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Volumes and profiles
	case "phantom_load":
		return s.handleLoad(args)
	case "phantom_profiles":
		return s.handleProfiles(args)

	// Core pipeline
	case "phantom_detect_circles":
		return s.handleDetectCircles(args)
	case "phantom_geometry":
		return s.handleGeometry(args)
	case "phantom_snr_cnr":
		return s.handleSNRCNR(args)
	case "phantom_analyze":
		return s.handleAnalyze(args)

	// Visual inspection
	case "phantom_overlay":
		return s.handleOverlay(args)
	case "phantom_distance_plot":
		return s.handleDistancePlot(args)
	case "phantom_crop":
		return s.handleCrop(args)
	case "phantom_probe":
		return s.handleProbe(args)

	// History
	case "phantom_history":
		return s.handleHistory(args)
	case "phantom_trend":
		return s.handleTrend(args)

	// OCR
	case "phantom_identify_profile":
		return s.handleIdentifyProfile(args)

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

// ErrHistoryDisabled is returned by the history tools when no database is
// configured.
var ErrHistoryDisabled = errors.New("run history is disabled; set PHANTOM_QA_DB")

// resolveProfile returns the named profile, or nil for an empty name.
func (s *Server) resolveProfile(name string) (*profile.Profile, error) {
	if name == "" {
		return nil, nil
	}
	return s.profiles.Get(name)
}

// sliceIndex picks the explicit index, then the profile's, then 0.
func sliceIndex(explicit *int, p *profile.Profile) int {
	if explicit != nil {
		return *explicit
	}
	if p != nil {
		return p.Slice
	}
	return 0
}

func (s *Server) loadSlice(path string, explicit *int, p *profile.Profile) (*imaging.Slice, int, error) {
	idx := sliceIndex(explicit, p)
	sl, err := imaging.LoadSlice(s.cache, path, idx)
	if err != nil {
		return nil, 0, err
	}
	return sl, idx, nil
}

func (s *Server) analysisOptions(slice *int) analysis.Options {
	return analysis.Options{
		Workers:       s.cfg.Workers,
		SliceOverride: slice,
		Debug:         s.cfg.Debug(),
	}
}

// === Volume and Profile Handlers ===

type loadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleLoad(args json.RawMessage) (interface{}, error) {
	var a loadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return imaging.LoadVolumeInfo(s.cache, a.Path)
}

type profilesResult struct {
	Profiles []*profile.Profile `json:"profiles"`
}

func (s *Server) handleProfiles(args json.RawMessage) (interface{}, error) {
	return &profilesResult{Profiles: s.profiles.All()}, nil
}

// === Core Pipeline Handlers ===

type detectCirclesArgs struct {
	Path    string `json:"path"`
	Slice   *int   `json:"slice"`
	Profile string `json:"profile"`

	// Explicit parameters override the profile's (or the defaults).
	Threshold              *float64 `json:"threshold"`
	CircumferenceThreshold *float64 `json:"circumference_threshold"`
	RMin                   *int     `json:"rmin"`
	RMax                   *int     `json:"rmax"`
	Steps                  *int     `json:"steps"`

	// Window restricts the reported circles. UseProfileWindow applies the
	// profile's window when no explicit one is given.
	Window           *detection.Window `json:"window"`
	UseProfileWindow bool              `json:"use_profile_window"`
}

type detectCirclesResult struct {
	SliceIndex int              `json:"slice_index"`
	Params     detection.Params `json:"params"`
	*detection.DetectResult

	Window   *detection.Window  `json:"window,omitempty"`
	InWindow []detection.Circle `json:"in_window,omitempty"`
}

func (s *Server) handleDetectCircles(args json.RawMessage) (interface{}, error) {
	var a detectCirclesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.resolveProfile(a.Profile)
	if err != nil {
		return nil, err
	}

	params := detection.DefaultParams()
	params.Workers = s.cfg.Workers
	if p != nil {
		params = p.Params(s.cfg.Workers)
	}
	if a.Threshold != nil {
		params.Threshold = *a.Threshold
	}
	if a.CircumferenceThreshold != nil {
		params.CircumferenceThreshold = *a.CircumferenceThreshold
	}
	if a.RMin != nil {
		params.RMin = *a.RMin
	}
	if a.RMax != nil {
		params.RMax = *a.RMax
	}
	if a.Steps != nil {
		params.Steps = *a.Steps
	}

	sl, idx, err := s.loadSlice(a.Path, a.Slice, p)
	if err != nil {
		return nil, err
	}

	det, err := detection.DetectCircles(sl, params)
	if err != nil {
		return nil, err
	}

	res := &detectCirclesResult{SliceIndex: idx, Params: params, DetectResult: det}
	window := a.Window
	if window == nil && a.UseProfileWindow && p != nil {
		w := p.Window()
		window = &w
	}
	if window != nil {
		res.Window = window
		res.InWindow = window.Filter(det.Circles)
	}
	return res, nil
}

type geometryArgs struct {
	Circles    []detection.Circle `json:"circles"`
	MMPerPixel float64            `json:"mm_per_pixel"`
	Profile    string             `json:"profile"`
}

type geometryResult struct {
	Distances []float64                 `json:"distances_mm"`
	Summary   detection.DistanceSummary `json:"summary"`
}

func (s *Server) handleGeometry(args json.RawMessage) (interface{}, error) {
	var a geometryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MMPerPixel == 0 && a.Profile != "" {
		p, err := s.profiles.Get(a.Profile)
		if err != nil {
			return nil, err
		}
		a.MMPerPixel = p.MMPerPixel
	}
	if a.MMPerPixel <= 0 {
		return nil, fmt.Errorf("mm_per_pixel must be positive (or name a profile)")
	}

	d := detection.Distances(a.Circles, a.MMPerPixel)
	return &geometryResult{Distances: d, Summary: detection.Summarize(d)}, nil
}

type snrArgs struct {
	Path       string         `json:"path"`
	Slice      *int           `json:"slice"`
	Profile    string         `json:"profile"`
	NoiseRects []imaging.Rect `json:"noise_rects"`
	SignalRect *imaging.Rect  `json:"signal_rect"`
}

type snrResult struct {
	SliceIndex int            `json:"slice_index"`
	NoiseRects []imaging.Rect `json:"noise_rects"`
	SignalRect imaging.Rect   `json:"signal_rect"`
	*imaging.SNRResult
}

func (s *Server) handleSNRCNR(args json.RawMessage) (interface{}, error) {
	var a snrArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.resolveProfile(a.Profile)
	if err != nil {
		return nil, err
	}

	noise := a.NoiseRects
	if len(noise) == 0 && p != nil {
		noise = p.NoiseRects
	}
	var signal imaging.Rect
	switch {
	case a.SignalRect != nil:
		signal = *a.SignalRect
	case p != nil:
		signal = p.SignalRect
	default:
		return nil, fmt.Errorf("signal_rect is required without a profile")
	}

	sl, idx, err := s.loadSlice(a.Path, a.Slice, p)
	if err != nil {
		return nil, err
	}

	r, err := imaging.SNRCNR(sl, noise, signal)
	if err != nil {
		return nil, err
	}
	return &snrResult{SliceIndex: idx, NoiseRects: noise, SignalRect: signal, SNRResult: r}, nil
}

type analyzeArgs struct {
	Path    string `json:"path"`
	Profile string `json:"profile"`
	Slice   *int   `json:"slice"`
}

type analyzeResult struct {
	*analysis.Result

	// RunID is set when the run was saved to history.
	RunID string `json:"run_id,omitempty"`
}

func (s *Server) handleAnalyze(args json.RawMessage) (interface{}, error) {
	var a analyzeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Profile == "" {
		return nil, fmt.Errorf("profile is required")
	}

	res, err := s.analyze(a.Path, a.Profile, a.Slice)
	if err != nil {
		return nil, err
	}

	out := &analyzeResult{Result: res}
	if s.history != nil {
		run := store.FromResult(res, a.Path)
		if err := s.history.Insert(run); err != nil {
			return nil, err
		}
		out.RunID = run.RunID
	}
	return out, nil
}

func (s *Server) analyze(path, profileName string, slice *int) (*analysis.Result, error) {
	p, err := s.profiles.Get(profileName)
	if err != nil {
		return nil, err
	}
	vol, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	return analysis.AnalyzeVolume(vol, p, s.analysisOptions(slice))
}

// === Visual Inspection Handlers ===

type overlayArgs struct {
	Path     string  `json:"path"`
	Profile  string  `json:"profile"`
	Slice    *int    `json:"slice"`
	Scale    int     `json:"scale"`
	Contrast float64 `json:"contrast"`
	Labels   *bool   `json:"labels"`
}

type overlayResult struct {
	*imaging.PNGResult
	SliceIndex int                `json:"slice_index"`
	Circles    []detection.Circle `json:"circles"`
}

func (s *Server) handleOverlay(args json.RawMessage) (interface{}, error) {
	var a overlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.resolveProfile(a.Profile)
	if err != nil {
		return nil, err
	}

	sl, idx, err := s.loadSlice(a.Path, a.Slice, p)
	if err != nil {
		return nil, err
	}

	opts := report.OverlayOptions{
		Scale:    a.Scale,
		Contrast: a.Contrast,
		Labels:   a.Labels == nil || *a.Labels,
	}
	if p != nil {
		res, err := analysis.AnalyzeSlice(sl, p, s.analysisOptions(nil))
		if err != nil {
			return nil, err
		}
		opts.Circles = res.Circles
		opts.Window = &res.Window
		opts.NoiseRects = p.NoiseRects
		opts.SignalRect = &p.SignalRect
	} else {
		params := detection.DefaultParams()
		params.Workers = s.cfg.Workers
		det, err := detection.DetectCircles(sl, params)
		if err != nil {
			return nil, err
		}
		opts.Circles = det.Circles
	}

	png, err := report.RenderOverlayPNG(sl, opts)
	if err != nil {
		return nil, err
	}
	return &overlayResult{PNGResult: png, SliceIndex: idx, Circles: opts.Circles}, nil
}

type distancePlotArgs struct {
	Distances []float64 `json:"distances_mm"`
	Path      string    `json:"path"`
	Profile   string    `json:"profile"`
	Slice     *int      `json:"slice"`
	NominalMM *float64  `json:"nominal_mm"`
	Title     string    `json:"title"`
}

func (s *Server) handleDistancePlot(args json.RawMessage) (interface{}, error) {
	var a distancePlotArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	distances := a.Distances
	var nominal float64
	if a.Profile != "" {
		p, err := s.profiles.Get(a.Profile)
		if err != nil {
			return nil, err
		}
		nominal = p.NominalSpacingMM
		if a.Title == "" {
			a.Title = p.Name + " fiducial spacing"
		}
		if len(distances) == 0 && a.Path != "" {
			res, err := s.analyze(a.Path, a.Profile, a.Slice)
			if err != nil {
				return nil, err
			}
			distances = res.Distances
		}
	}
	if a.NominalMM != nil {
		nominal = *a.NominalMM
	}
	return report.DistancePlot(distances, nominal, a.Title)
}

type cropArgs struct {
	Path  string  `json:"path"`
	Slice *int    `json:"slice"`
	X     int     `json:"x"`
	W     int     `json:"w"`
	Y     int     `json:"y"`
	H     int     `json:"h"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleCrop(args json.RawMessage) (interface{}, error) {
	var a cropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	sl, _, err := s.loadSlice(a.Path, a.Slice, nil)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(sl, imaging.Rect{X: a.X, W: a.W, Y: a.Y, H: a.H}, a.Scale)
}

type probeArgs struct {
	Path      string   `json:"path"`
	Slice     *int     `json:"slice"`
	Profile   string   `json:"profile"`
	Row       int      `json:"row"`
	Col       int      `json:"col"`
	Threshold *float64 `json:"threshold"`
}

func (s *Server) handleProbe(args json.RawMessage) (interface{}, error) {
	var a probeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.resolveProfile(a.Profile)
	if err != nil {
		return nil, err
	}

	threshold := detection.DefaultParams().Threshold
	if p != nil {
		threshold = p.Threshold
	}
	if a.Threshold != nil {
		threshold = *a.Threshold
	}

	sl, _, err := s.loadSlice(a.Path, a.Slice, p)
	if err != nil {
		return nil, err
	}
	return imaging.Probe(sl, a.Row, a.Col, threshold)
}

// === History Handlers ===

type historyArgs struct {
	Profile string `json:"profile"`
	Limit   int    `json:"limit"`
}

type historyResult struct {
	Runs []*store.Run `json:"runs"`
}

// resolveProfileName canonicalizes a profile name or alias for history
// queries. Names that are no longer registered are passed through so old
// runs remain reachable.
func (s *Server) resolveProfileName(name string) string {
	if name == "" {
		return ""
	}
	if p, err := s.profiles.Get(name); err == nil {
		return p.Name
	}
	return name
}

func (s *Server) handleHistory(args json.RawMessage) (interface{}, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	var a historyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Limit == 0 {
		a.Limit = 20
	}

	runs, err := s.history.List(s.resolveProfileName(a.Profile), a.Limit)
	if err != nil {
		return nil, err
	}
	return &historyResult{Runs: runs}, nil
}

type trendArgs struct {
	Profile    string `json:"profile"`
	Limit      int    `json:"limit"`
	OutputPath string `json:"output_path"`
}

type trendResult struct {
	Profile string `json:"profile"`
	Runs    int    `json:"runs"`

	// Exactly one of HTML and OutputPath is set.
	HTML       string `json:"html,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
}

func (s *Server) handleTrend(args json.RawMessage) (interface{}, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	var a trendArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Profile == "" {
		return nil, fmt.Errorf("profile is required")
	}
	name := s.resolveProfileName(a.Profile)

	runs, err := s.history.List(name, a.Limit)
	if err != nil {
		return nil, err
	}

	page, err := report.TrendPage(name, trendPoints(runs))
	if err != nil {
		return nil, err
	}

	out := &trendResult{Profile: name, Runs: len(runs)}
	if a.OutputPath != "" {
		if err := os.WriteFile(a.OutputPath, page, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write trend page: %w", err)
		}
		out.OutputPath = a.OutputPath
	} else {
		out.HTML = string(page)
	}
	return out, nil
}

// trendPoints converts newest-first runs into chronological chart points.
func trendPoints(runs []*store.Run) []report.TrendPoint {
	points := make([]report.TrendPoint, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		r := runs[i]
		pt := report.TrendPoint{Time: r.CreatedAt, MeanMM: r.MeanDistanceMM, SNR: math.NaN(), CNR: math.NaN()}
		if r.SNR != nil {
			pt.SNR = *r.SNR
		}
		if r.CNR != nil {
			pt.CNR = *r.CNR
		}
		points = append(points, pt)
	}
	return points
}

// === OCR Handlers ===

type identifyArgs struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Region   *struct {
		X1 int `json:"x1"`
		Y1 int `json:"y1"`
		X2 int `json:"x2"`
		Y2 int `json:"y2"`
	} `json:"region"`
}

type identifyResult struct {
	// Source is "dicom" when the Series Description matched, "ocr" otherwise.
	Source string     `json:"source"`
	Text   string     `json:"text"`
	Found  bool       `json:"found"`
	Match  *ocr.Match `json:"match,omitempty"`
	Words  []ocr.Word `json:"words,omitempty"`
}

func (s *Server) handleIdentifyProfile(args json.RawMessage) (interface{}, error) {
	var a identifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = "eng"
	}

	vol, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	if vol.SeriesDescription != "" {
		if m, err := ocr.IdentifyProfile(vol.SeriesDescription, s.profiles); err == nil {
			return &identifyResult{Source: "dicom", Text: vol.SeriesDescription, Found: true, Match: m}, nil
		}
	}

	sl, err := vol.Slice(0)
	if err != nil {
		return nil, err
	}
	var region *image.Rectangle
	if a.Region != nil {
		r := image.Rect(a.Region.X1, a.Region.Y1, a.Region.X2, a.Region.Y2)
		region = &r
	}

	text, err := ocr.ReadText(sl.ToGray(), region, a.Language)
	if err != nil {
		return nil, err
	}

	out := &identifyResult{Source: "ocr", Text: text.FullText, Words: text.Words}
	m, err := ocr.IdentifyProfile(text.FullText, s.profiles)
	switch {
	case err == nil:
		out.Found = true
		out.Match = m
	case !errors.Is(err, ocr.ErrNoProfileMatch):
		return nil, err
	}
	return out, nil
}
