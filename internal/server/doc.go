// Package server implements the MCP (Model Context Protocol) server for MRI
// phantom quality assurance.
//
// This package provides a JSON-RPC 2.0 server that exposes the circle
// detector, the geometry and SNR/CNR measurements, and the run history
// through the MCP protocol, so an assistant can run and inspect phantom QA
// without a human driving a notebook.
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
// Volumes and profiles:
//   - phantom_load: Load a scan and report its shape and spacing
//   - phantom_profiles: List analysis profiles
//
// Core pipeline:
//   - phantom_detect_circles: Edge extraction, voting and selection on a slice
//   - phantom_geometry: Adjacent distances for given circles
//   - phantom_snr_cnr: Signal and contrast to noise ratios
//   - phantom_analyze: Full profile run, saved to history when enabled
//
// Visual inspection:
//   - phantom_overlay: Annotated, upscaled slice
//   - phantom_distance_plot: Bar chart of distances
//   - phantom_crop: Windowed crop of a region
//   - phantom_probe: Intensity and threshold test at a pixel
//
// History (requires PHANTOM_QA_DB):
//   - phantom_history: Stored runs
//   - phantom_trend: HTML trend chart for one profile
//
// OCR:
//   - phantom_identify_profile: Match a scan to a profile
//
// # Volume Caching
//
// Loaded volumes are cached by path and reused across tool calls. The cache
// persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(cfg, registry, history)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
