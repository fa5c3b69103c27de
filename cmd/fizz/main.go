package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jkingston/fizz/internal/shell/cli"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	emitJSON := flag.Bool("json", false, "Emit the parsed model as JSON")
	quiet := flag.Bool("quiet", false, "Only report error diagnostics")
	flag.Parse()

	// Handle version flag
	if *showVersion {
		fmt.Printf("fizz %s (built %s)\n", Version, BuildTime)
		return cli.ExitSuccess
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: fizz [flags] <compose-file>")
		return cli.ExitIOError
	}

	// Load configuration
	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return cli.ExitIOError
	}

	// Setup logger
	logger := SetupLogger(cfg)
	logger.Debug("starting fizz",
		"version", Version,
		"config", *configPath,
	)

	runner := cli.NewRunner(logger, os.Stdout, os.Stderr)
	return runner.Run(cli.Options{
		Path:             flag.Arg(0),
		EmitJSON:         *emitJSON || cfg.Output.JSON,
		Quiet:            *quiet || cfg.Output.Quiet,
		SilentExtensions: cfg.Parser.SilentExtensions,
		RestartWarnings:  cfg.Parser.RestartWarnings,
		DiagnosticLimit:  cfg.Parser.MaxDiagnostics,
		Environ:          os.Environ(),
	})
}
