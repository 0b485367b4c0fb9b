package main

import (
	"fmt"
	"log"
	"os"

	seatsanalyzer "github.com/ironsheep/seats-analyzer"
	"github.com/ironsheep/seats-analyzer/internal/monitoring"
	"github.com/ironsheep/seats-analyzer/internal/server"
	"github.com/ironsheep/seats-analyzer/native"
	"github.com/ironsheep/seats-analyzer/reference"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("seatsanalyzer-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("seatsanalyzer-mcp - MCP server for seats analysis")
			fmt.Println()
			fmt.Println("Usage: seatsanalyzer-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  SEATS_ANALYZER_CONFIG=<path>          Module configuration file (required)")
			fmt.Println("  SEATS_ANALYZER_BACKEND=reference      reference (default) or native")
			fmt.Println("  SEATS_ANALYZER_LIBRARY=<path>         Shared library for the native backend")
			fmt.Println("  SEATS_ANALYZER_LOG_LEVEL=debug        Enable debug logging")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if monitoring.DebugEnabled() {
		log.Printf("Seats Analyzer MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	os.Exit(run())
}

// run serves until stdin closes and returns the exit code. Every resource is
// released by a deferred call before it returns.
func run() int {
	configPath := os.Getenv("SEATS_ANALYZER_CONFIG")
	if configPath == "" {
		log.Print("SEATS_ANALYZER_CONFIG is not set")
		return 1
	}

	module, closeModule, err := openModule(os.Getenv("SEATS_ANALYZER_BACKEND"), os.Getenv("SEATS_ANALYZER_LIBRARY"))
	if err != nil {
		log.Printf("Failed to open module: %v", err)
		return 1
	}
	defer closeModule()

	table, err := seatsanalyzer.Link(module)
	if err != nil {
		log.Printf("Failed to link module: %v", err)
		return 1
	}
	session, err := table.Initialize(configPath, nil)
	if err != nil {
		log.Printf("Failed to initialize session: %v", err)
		return 1
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("Failed to close session: %v", err)
		}
	}()
	monitoring.Debugf("Session %s on %s %s", session.ID(), table.Module(), table.Version())

	srv := server.New(table, session, server.Options{Version: Version})
	defer srv.Close()
	if err := srv.Run(); err != nil {
		log.Printf("Server error: %v", err)
		return 1
	}
	return 0
}

// openModule returns the module for backend and a function releasing it.
// The native module is closed only after the session and images are gone.
func openModule(backend, library string) (seatsanalyzer.Module, func(), error) {
	switch backend {
	case "", "reference":
		return reference.New(), func() {}, nil
	case "native":
		if library == "" {
			return nil, nil, fmt.Errorf("SEATS_ANALYZER_LIBRARY is required for the native backend")
		}
		m, err := native.Open(library)
		if err != nil {
			return nil, nil, err
		}
		return m, func() {
			if err := m.Close(); err != nil {
				log.Printf("Failed to close module: %v", err)
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", backend)
}
