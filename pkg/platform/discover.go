package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// The discovery failure strings below mirror the CLI's current wording.
// There is no structured contract behind them; they are pinned by tests so
// drift in the external tool shows up as a test failure, not silent loss of
// the guidance messages.
var writabilitySignatures = []string{
	"permission denied",
	"read-only file system",
	"no such file or directory",
}

const (
	noPathsSignature      = "0 paths discovered"
	bufferSignature       = "output buffer exceeded"
	defaultDiscoverOutput = "openapi.yml"
)

// DiscoverOptions drives the source-code-to-OpenAPI extraction.
type DiscoverOptions struct {
	Sources []string
	Root    string
	Output  string
	Upload  bool
	// Verbose is accepted for schema compatibility but never honored: the
	// CLI's verbose discovery output can exceed the subprocess buffer.
	Verbose bool
}

// DiscoverAPI runs the CLI's endpoint discovery over the given source files.
// Relative source paths are resolved against Root; the output path is
// redirected to the temp directory when its directory is missing, is the
// filesystem root, or is not writable.
func (c *Client) DiscoverAPI(ctx context.Context, opts DiscoverOptions, format Format) (string, error) {
	if len(opts.Sources) == 0 {
		return "", &ValidationError{Msg: "at least one source path is required"}
	}
	if strings.TrimSpace(opts.Root) == "" {
		return "", &ValidationError{Msg: "project root is required"}
	}

	sources := make([]string, len(opts.Sources))
	for i, s := range opts.Sources {
		if filepath.IsAbs(s) {
			sources[i] = s
		} else {
			sources[i] = filepath.Join(opts.Root, s)
		}
	}

	outPath := resolveOutputPath(opts.Output)

	args := []string{discoverCommand}
	args = append(args, sources...)
	args = append(args, "-o", outPath)
	if !opts.Upload {
		args = append(args, "--no-upload")
	}

	out, err := c.ExecuteCommand(ctx, args, format, false)
	if err != nil {
		return "", classifyDiscoverErr(err, outPath)
	}
	return fmt.Sprintf("OpenAPI specification written to %s\n\n%s", outPath, out), nil
}

// resolveOutputPath keeps the requested path when its directory exists and
// is writable, and otherwise redirects to the temp directory under the same
// base name.
func resolveOutputPath(requested string) string {
	if requested == "" {
		requested = defaultDiscoverOutput
	}
	dir := filepath.Dir(requested)
	base := filepath.Base(requested)

	if dir == string(os.PathSeparator) {
		return filepath.Join(os.TempDir(), base)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return filepath.Join(os.TempDir(), base)
	}
	probe, err := os.CreateTemp(dir, ".specter-write-probe-*")
	if err != nil {
		return filepath.Join(os.TempDir(), base)
	}
	probeName := probe.Name()
	_ = probe.Close()
	_ = os.Remove(probeName)
	return requested
}

// classifyDiscoverErr maps the known discovery failure signatures to
// guidance errors; anything unrecognized passes through unchanged.
func classifyDiscoverErr(err error, outPath string) error {
	msg := err.Error()
	if strings.Contains(msg, noPathsSignature) {
		return fmt.Errorf("no API endpoints were found in the supplied sources; check that the paths point at route or controller files: %w", err)
	}
	for _, sig := range writabilitySignatures {
		if strings.Contains(msg, sig) {
			return fmt.Errorf("cannot write the OpenAPI output to %s; pick a writable output directory: %w", outPath, err)
		}
	}
	if strings.Contains(msg, bufferSignature) {
		return fmt.Errorf("discovery output was too large; reduce the number of source files per run: %w", err)
	}
	return err
}
