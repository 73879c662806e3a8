package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/phantom-qa-mcp/internal/config"
	"github.com/ironsheep/phantom-qa-mcp/internal/detection"
	"github.com/ironsheep/phantom-qa-mcp/internal/imaging"
	"github.com/ironsheep/phantom-qa-mcp/internal/profile"
	"github.com/ironsheep/phantom-qa-mcp/internal/store"
)

// syntheticProfile matches createPhantomFile: the window keeps the two rings
// in column 30 and drops the one at column 50.
func syntheticProfile() *profile.Profile {
	return &profile.Profile{
		Name:                         "synthetic",
		Aliases:                      []string{"syn"},
		Slice:                        0,
		Threshold:                    0.5,
		CircleCircumferenceThreshold: 0.5,
		MinPixelX:                    25,
		MaxPixelX:                    35,
		MinPixelY:                    5,
		MaxPixelY:                    55,
		MMPerPixel:                   1.5,
		NoiseRects:                   []imaging.Rect{{X: 0, W: 4, Y: 0, H: 4}},
		SignalRect:                   imaging.Rect{X: 50, W: 4, Y: 10, H: 4},
		NominalSpacingMM:             30,
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := profile.NewRegistry()
	if err := reg.Register(syntheticProfile()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return New(&config.Config{Workers: 1}, reg, nil)
}

func newHistoryServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"), false)
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	s := newTestServer(t)
	s.history = st
	return s
}

// createPhantomFile writes a 60x60 16-bit PNG: background 10000, radius-6
// rings of 0 at (15,30), (35,30) and (30,50), and a 9000/11000 striped noise
// patch in rows 0-3, columns 0-3.
func createPhantomFile(t *testing.T) string {
	t.Helper()

	img := image.NewGray16(image.Rect(0, 0, 60, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			img.SetGray16(x, y, color.Gray16{Y: 10000})
		}
	}
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			v := uint16(9000)
			if col%2 == 1 {
				v = 11000
			}
			img.SetGray16(col, row, color.Gray16{Y: v})
		}
	}

	tmpl, err := detection.NewTemplate(6, 6, 100)
	if err != nil {
		t.Fatalf("NewTemplate failed: %v", err)
	}
	for _, c := range [][2]int{{15, 30}, {35, 30}, {30, 50}} {
		for _, o := range tmpl.Offsets {
			img.SetGray16(c[1]+o.DY, c[0]+o.DX, color.Gray16{Y: 0})
		}
	}

	path := filepath.Join(t.TempDir(), "phantom.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool sends a tools/call request through handleRequest.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// callToolOK calls a tool, fails on an error response, and decodes the text
// content into out.
func callToolOK(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) {
	t.Helper()

	resp := callTool(t, s, name, args)
	if resp.Error != nil {
		t.Fatalf("%s: unexpected error: %s: %v", name, resp.Error.Message, resp.Error.Data)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("%s: result should be a map, got %T", name, resp.Result)
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("%s: unexpected content %v", name, result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("%s: content type: got %v, want text", name, content[0]["type"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("%s: failed to decode result: %v\n%s", name, err, text)
	}
}

// callToolErr calls a tool and returns the error response, failing if the
// call succeeded.
func callToolErr(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPError {
	t.Helper()

	resp := callTool(t, s, name, args)
	if resp.Error == nil {
		t.Fatalf("%s: expected an error response", name)
	}
	return resp.Error
}
