package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/phantom-qa-mcp/internal/config"
	"github.com/ironsheep/phantom-qa-mcp/internal/profile"
	"github.com/ironsheep/phantom-qa-mcp/internal/server"
	"github.com/ironsheep/phantom-qa-mcp/internal/store"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("phantom-qa-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "analyze":
			setupLogging()
			if err := runAnalyze(os.Args[2:], os.Stdout); err != nil {
				log.Fatalf("analyze: %v", err)
			}
			return
		}
	}

	setupLogging()

	cfg, reg, history, err := setup()
	if err != nil {
		log.Fatalf("Startup error: %v", err)
	}
	if history != nil {
		defer history.Close()
	}

	if cfg.Debug() {
		log.Printf("Phantom QA MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		log.Printf("Profiles: %v, workers: %d, history: %t", reg.Names(), cfg.Workers, cfg.HistoryEnabled())
	}

	srv := server.New(cfg, reg, history)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printHelp() {
	fmt.Println("phantom-qa-mcp - MCP server for MRI phantom quality assurance")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  phantom-qa-mcp [options]           Serve MCP over stdin/stdout")
	fmt.Println("  phantom-qa-mcp analyze [flags]     Analyze a scan from the command line")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Analyze flags:")
	fmt.Println("  -file PATH       DICOM or image file (required)")
	fmt.Println("  -profile NAME    Profile to run; repeat for several (required)")
	fmt.Println("  -slice N         Override the profiles' slice index")
	fmt.Println("  -overlay OUT     Write an annotated PNG (one profile only)")
	fmt.Println("  -json            Print results as JSON")
	fmt.Println()
	fmt.Println("Environment variables (also read from .env):")
	fmt.Printf("  %s=debug    Enable debug logging\n", config.EnvLogLevel)
	fmt.Printf("  %s=PATH            SQLite run history (disabled when unset)\n", config.EnvDB)
	fmt.Printf("  %s=PATH      JSON file of extra profiles\n", config.EnvProfiles)
	fmt.Printf("  %s=N          Goroutines used for circle voting\n", config.EnvWorkers)
	fmt.Println()
	fmt.Println("Configure the server in your MCP client (e.g., Claude Desktop).")
}

// setupLogging sends logs to stderr; stdout is for MCP protocol and
// analyze output.
func setupLogging() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
}

// setup loads configuration, the profile registry and, when configured, the
// history store.
func setup() (*config.Config, *profile.Registry, *store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	reg := profile.DefaultRegistry()
	if cfg.ProfilesPath != "" {
		if err := reg.LoadFile(cfg.ProfilesPath); err != nil {
			return nil, nil, nil, err
		}
	}

	var history *store.Store
	if cfg.HistoryEnabled() {
		history, err = store.Open(cfg.DBPath, cfg.Debug())
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return cfg, reg, history, nil
}
