package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/phantom-qa-mcp/internal/analysis"
	phantomimg "github.com/ironsheep/phantom-qa-mcp/internal/imaging"
	"github.com/ironsheep/phantom-qa-mcp/internal/profile"
	"github.com/ironsheep/phantom-qa-mcp/internal/report"
	"github.com/ironsheep/phantom-qa-mcp/internal/store"
)

// stringList collects a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ", ") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type analyzeOutput struct {
	*analysis.Result
	RunID       string `json:"run_id,omitempty"`
	OverlayPath string `json:"overlay_path,omitempty"`
}

// runAnalyze implements the analyze subcommand: every named profile is run
// independently against one file.
func runAnalyze(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	var (
		file     = fs.String("file", "", "DICOM or image file to analyze")
		slice    = fs.Int("slice", -1, "override the profiles' slice index")
		overlay  = fs.String("overlay", "", "write an annotated PNG to this path")
		asJSON   = fs.Bool("json", false, "print results as JSON")
		profiles stringList
	)
	fs.Var(&profiles, "profile", "profile name or alias (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *file == "" {
		return errors.New("-file is required")
	}
	if len(profiles) == 0 {
		return errors.New("at least one -profile is required")
	}

	cfg, reg, history, err := setup()
	if err != nil {
		return err
	}
	if history != nil {
		defer history.Close()
	}

	selected := make([]*profile.Profile, 0, len(profiles))
	for _, name := range profiles {
		p, err := reg.Get(name)
		if err != nil {
			return err
		}
		selected = append(selected, p)
	}

	vol, err := phantomimg.NewVolumeCache().Load(*file)
	if err != nil {
		return err
	}

	opts := analysis.Options{Workers: cfg.Workers, Debug: cfg.Debug()}
	if *slice >= 0 {
		opts.SliceOverride = slice
	}
	results, err := analysis.AnalyzeAll(vol, selected, opts)
	if err != nil {
		return err
	}

	outputs := make([]*analyzeOutput, 0, len(results))
	for i, res := range results {
		out := &analyzeOutput{Result: res}

		if history != nil {
			run := store.FromResult(res, *file)
			if err := history.Insert(run); err != nil {
				return err
			}
			out.RunID = run.RunID
		}

		if *overlay != "" {
			path := overlayPath(*overlay, res.Profile, len(results))
			if err := writeOverlay(vol, res, selected[i], path); err != nil {
				return err
			}
			out.OverlayPath = path
		}

		if res.SNRError != "" {
			log.Printf("[analyze] %s: SNR/CNR not measured: %s", res.Profile, res.SNRError)
		}
		outputs = append(outputs, out)
	}

	if *asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outputs)
	}
	for _, out := range outputs {
		printResult(w, out)
	}
	return nil
}

// overlayPath returns out unchanged for a single profile, and inserts the
// profile name before the extension when several profiles share one flag.
func overlayPath(out, profileName string, n int) string {
	if n <= 1 {
		return out
	}
	ext := filepath.Ext(out)
	slug := strings.ReplaceAll(strings.ToLower(profileName), " ", "_")
	return strings.TrimSuffix(out, ext) + "_" + slug + ext
}

func writeOverlay(vol *phantomimg.Volume, res *analysis.Result, p *profile.Profile, path string) error {
	s, err := vol.Slice(res.SliceIndex)
	if err != nil {
		return err
	}
	img, err := report.RenderOverlay(s, report.OverlayOptions{
		Circles:    res.Circles,
		Window:     &res.Window,
		NoiseRects: p.NoiseRects,
		SignalRect: &p.SignalRect,
		Labels:     true,
	})
	if err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to write overlay: %w", err)
	}
	return nil
}

func printResult(w io.Writer, out *analyzeOutput) {
	res := out.Result
	fmt.Fprintf(w, "%s (slice %d)\n", res.Profile, res.SliceIndex)
	fmt.Fprintf(w, "  circles: %d in window, %d detected\n", len(res.Circles), res.Detected)
	for _, c := range res.Circles {
		fmt.Fprintf(w, "    x=%d y=%d r=%d score=%.2f\n", c.X, c.Y, c.R, c.Score)
	}

	dists := make([]string, len(res.Distances))
	for i, d := range res.Distances {
		dists[i] = fmt.Sprintf("%.1f", d)
	}
	fmt.Fprintf(w, "  distances (mm): [%s]\n", strings.Join(dists, ", "))
	if res.Summary.Count > 0 {
		fmt.Fprintf(w, "  mean distance (mm): %.2f\n", res.Summary.MeanMM)
	}

	if res.SNR != nil {
		fmt.Fprintf(w, "  SNR: %.2f\n", res.SNR.SNR)
		fmt.Fprintf(w, "  CNR: %.2f\n", res.SNR.CNR)
	} else {
		fmt.Fprintf(w, "  SNR/CNR: %s\n", res.SNRError)
	}

	if out.RunID != "" {
		fmt.Fprintf(w, "  run: %s\n", out.RunID)
	}
	if out.OverlayPath != "" {
		fmt.Fprintf(w, "  overlay: %s\n", out.OverlayPath)
	}
}
