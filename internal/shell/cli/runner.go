// Package cli implements the imperative shell around the compose parsing
// core: file reading, environment capture, diagnostic output, and exit code
// mapping. All parsing logic lives in internal/core/compose.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jkingston/fizz/internal/core/compose"
)

// Exit codes returned by Run.
const (
	ExitSuccess     = 0
	ExitDiagnostics = 1
	ExitIOError     = 2
)

// Options controls a single check run.
type Options struct {
	// Path is the compose file to parse.
	Path string

	// EmitJSON writes the parsed model as JSON to the output writer when
	// parsing succeeds.
	EmitJSON bool

	// Quiet suppresses warning and hint diagnostics; errors are always
	// written.
	Quiet bool

	// SilentExtensions skips top-level x-* extension keys without warning.
	SilentExtensions bool

	// RestartWarnings warns on unrecognized restart policy values.
	RestartWarnings bool

	// DiagnosticLimit bounds diagnostic retention; zero keeps the core
	// default.
	DiagnosticLimit int

	// Environ is the process environment in KEY=VALUE form. Tests inject a
	// fixed slice; the binary passes os.Environ().
	Environ []string
}

// Runner checks compose files and reports diagnostics.
type Runner struct {
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer
}

// NewRunner creates a Runner writing the model to out and diagnostics to
// errOut.
func NewRunner(logger *slog.Logger, out, errOut io.Writer) *Runner {
	return &Runner{logger: logger, out: out, errOut: errOut}
}

// Run parses the compose file named in opts and returns the process exit
// code: 0 when the model was produced (warnings allowed), 1 when parsing
// produced errors or the YAML was malformed, 2 when the file could not be
// read or output could not be written.
func (r *Runner) Run(opts Options) int {
	data, err := os.ReadFile(opts.Path)
	if err != nil {
		r.logger.Error("failed to read compose file", "path", opts.Path, "error", err)
		return ExitIOError
	}

	env := EnvironMap(opts.Environ)

	var parseOpts []compose.Option
	if opts.SilentExtensions {
		parseOpts = append(parseOpts, compose.WithSilentExtensions())
	}
	if opts.RestartWarnings {
		parseOpts = append(parseOpts, compose.WithRestartPolicyWarnings())
	}
	if opts.DiagnosticLimit > 0 {
		parseOpts = append(parseOpts, compose.WithDiagnosticLimit(opts.DiagnosticLimit))
	}

	res, parseErr := compose.Parse(data, env, parseOpts...)

	if err := r.writeDiagnostics(opts, res.Diagnostics); err != nil {
		r.logger.Error("failed to write diagnostics", "error", err)
		return ExitIOError
	}
	if dropped := res.Diagnostics.Dropped(); dropped > 0 {
		r.logger.Warn("diagnostics dropped", "count", dropped)
	}

	if parseErr != nil {
		fmt.Fprintf(r.errOut, "%s: error: %v\n", opts.Path, parseErr)
		return ExitDiagnostics
	}
	if res.Diagnostics.HasErrors() {
		return ExitDiagnostics
	}

	r.logger.Debug("compose file parsed",
		"path", opts.Path,
		"services", len(res.File.Services),
		"warnings", res.Diagnostics.Count(),
	)

	if opts.EmitJSON {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.File); err != nil {
			r.logger.Error("failed to encode model", "error", err)
			return ExitIOError
		}
	}

	return ExitSuccess
}

// writeDiagnostics renders diagnostics in source order. In quiet mode only
// errors are written.
func (r *Runner) writeDiagnostics(opts Options, diags *compose.Diagnostics) error {
	if !opts.Quiet {
		return diags.WriteAll(opts.Path, r.errOut)
	}
	for _, d := range diags.Items() {
		if d.Severity != compose.SeverityError {
			continue
		}
		var err error
		if d.Pos != nil {
			_, err = fmt.Fprintf(r.errOut, "%s:%d:%d: %s: %s\n",
				opts.Path, d.Pos.Line+1, d.Pos.Column+1, d.Severity, d.Message)
		} else {
			_, err = fmt.Fprintf(r.errOut, "%s: %s: %s\n", opts.Path, d.Severity, d.Message)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// EnvironMap converts KEY=VALUE pairs into a map. Later duplicates win,
// matching process environment semantics. Entries without '=' are ignored.
func EnvironMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, entry := range environ {
		if key, value, ok := strings.Cut(entry, "="); ok && key != "" {
			env[key] = value
		}
	}
	return env
}
