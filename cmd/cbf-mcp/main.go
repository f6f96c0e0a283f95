package main

import (
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/afero"

	"github.com/ironsheep/cbf-tools-mcp/internal/config"
	"github.com/ironsheep/cbf-tools-mcp/internal/logging"
	"github.com/ironsheep/cbf-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := ""
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("cbf-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		case "--config":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "cbf-mcp: --config needs a file")
				os.Exit(2)
			}
			configPath = os.Args[2]
		default:
			fmt.Fprintf(os.Stderr, "cbf-mcp: unknown argument %q\n", os.Args[1])
			os.Exit(2)
		}
	}

	fs := afero.NewOsFs()
	cfg, err := config.LoadEnv(fs, configPath)
	if err != nil {
		// No configured logger yet.
		fmt.Fprintf(os.Stderr, "cbf-mcp: %v\n", err)
		os.Exit(1)
	}

	// stdout is for MCP protocol
	logger := log.With(logging.Stderr(cfg.Log), "component", "cbf-mcp")
	level.Debug(logger).Log("msg", "starting", "version", Version, "built", BuildTime, "commit", GitCommit)

	srv, err := server.New(fs, cfg, logger)
	if err != nil {
		level.Error(logger).Log("msg", "invalid configuration", "err", err)
		os.Exit(1)
	}
	if err := srv.Run(); err != nil {
		level.Error(logger).Log("msg", "server error", "err", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("cbf-mcp - MCP server for CBF detector frames")
	fmt.Println()
	fmt.Println("Usage: cbf-mcp [--config FILE]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config FILE    TOML configuration file")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=FILE          Configuration file when --config is not given\n", config.EnvConfigPath)
	fmt.Printf("  %s=debug      Log level (debug, info, warn, error)\n", logging.EnvLogLevel)
	fmt.Printf("  %s=json      Log format (logfmt, json)\n", logging.EnvLogFormat)
	fmt.Printf("  %s=false  Omit log timestamps\n", logging.EnvLogTimestamp)
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
