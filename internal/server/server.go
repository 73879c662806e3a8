package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/phantom-qa-mcp/internal/config"
	"github.com/ironsheep/phantom-qa-mcp/internal/imaging"
	"github.com/ironsheep/phantom-qa-mcp/internal/profile"
	"github.com/ironsheep/phantom-qa-mcp/internal/store"
)

// Version is reported in the initialize handshake.
const Version = "0.1.0"

// Server answers MCP requests for phantom QA tools. Loaded volumes are cached
// across calls, so repeated analysis of one file decodes it once.
type Server struct {
	cache    *imaging.VolumeCache
	profiles *profile.Registry
	cfg      *config.Config

	// history is nil when run history is disabled.
	history *store.Store
}

// MCPRequest is one JSON-RPC 2.0 message read from the client. Notifications
// carry no ID.
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse carries either Result or Error, never both.
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError is the JSON-RPC error object. Data holds the underlying Go error
// text.
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance.
//
// A nil cfg uses defaults (one worker, no debug logging), a nil registry uses
// the built-in profiles, and a nil history store disables phantom_history and
// phantom_trend.
func New(cfg *config.Config, profiles *profile.Registry, history *store.Store) *Server {
	if cfg == nil {
		cfg = &config.Config{Workers: 1}
	}
	if profiles == nil {
		profiles = profile.DefaultRegistry()
	}
	return &Server{
		cache:    imaging.NewVolumeCache(),
		profiles: profiles,
		cfg:      cfg,
		history:  history,
	}
}

// Run serves stdio until the client closes stdin.
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve processes newline-delimited JSON-RPC requests from r until EOF,
// writing one response line per request to w.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// tool arguments can carry long profile JSON
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("[server] dropping unparseable request: %v", err)
			continue
		}

		if s.cfg.Debug() {
			log.Printf("[server] %s id=%v", req.Method, req.ID)
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Printf("[server] encode %s response: %v", req.Method, err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading requests: %w", err)
	}

	return nil
}

// handleRequest dispatches on method. It returns nil for notifications.
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize advertises the tools capability only.
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "phantom-qa-mcp",
				"version": Version,
			},
		},
	}
}
