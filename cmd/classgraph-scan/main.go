// Copyright 2026 The Classgraph Authors
// SPDX-License-Identifier: Apache-2.0

// classgraph-scan walks a JVM classpath and module path and lists the
// resources on it.
//
// The classpath to scan comes from, in order of precedence: positional
// arguments, a --profile file (JSONC), or the CLASSPATH environment
// variable. Host settings (worker count, temp directory, JRE location,
// output defaults) come from a YAML config file named by --config or
// the CLASSGRAPH_CONFIG environment variable; without one, built-in
// defaults apply.
//
// The listing is plain resource paths (text), or a structured report
// (json, cbor). A --snapshot file records the scanned elements for
// later drift comparison; --fingerprint adds BLAKE3 content digests
// to it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/zlataovce/classgraph/lib/codec"
	"github.com/zlataovce/classgraph/lib/config"
	"github.com/zlataovce/classgraph/lib/scan"
	"github.com/zlataovce/classgraph/lib/scanprofile"
	"github.com/zlataovce/classgraph/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		profilePath  string
		configPath   string
		accept       []string
		reject       []string
		modulePath   []string
		workers      int
		outputPath   string
		format       string
		snapshotPath string
		fingerprint  bool
		verbose      bool
	)

	flagSet := pflag.NewFlagSet("classgraph-scan", pflag.ContinueOnError)
	flagSet.StringVar(&profilePath, "profile", "", "path to a JSONC scan profile")
	flagSet.StringVar(&configPath, "config", "", "path to the YAML config file (default: $CLASSGRAPH_CONFIG)")
	flagSet.StringArrayVar(&accept, "accept", nil, "accept pattern (package root or file path), repeatable")
	flagSet.StringArrayVar(&reject, "reject", nil, "reject pattern, repeatable")
	flagSet.StringArrayVar(&modulePath, "module-path", nil, "module path entry, repeatable")
	flagSet.IntVar(&workers, "workers", 0, "scan worker count (0 picks a default from the CPU count)")
	flagSet.StringVar(&outputPath, "output", "", "write the listing to this file instead of stdout")
	flagSet.StringVar(&format, "format", "", "listing format: text, json, or cbor (default from config)")
	flagSet.StringVar(&snapshotPath, "snapshot", "", "write a snapshot of the scanned elements to this file")
	flagSet.BoolVar(&fingerprint, "fingerprint", false, "include BLAKE3 element fingerprints in the snapshot")
	flagSet.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match other classgraph
	// binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("classgraph-scan %s\n", version.Info())
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}

	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logLevel := cfg.SlogLevel()
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	if format == "" {
		format = cfg.Output.Format
	}
	if format != "text" && format != "json" && format != "cbor" {
		return fmt.Errorf("unknown format %q (want text, json, or cbor)", format)
	}

	if err := cfg.EnsureTempDir(); err != nil {
		return err
	}

	opts := scan.Options{
		Workers:  cfg.Workers,
		TempDir:  cfg.TempDir,
		JavaHome: cfg.JavaHome,
		Logger:   logger,
	}

	if profilePath != "" {
		profile, err := scanprofile.ReadFile(profilePath)
		if err != nil {
			return err
		}
		if issues := scanprofile.Validate(profile); len(issues) > 0 {
			return fmt.Errorf("invalid profile %s:\n  %s", profilePath, strings.Join(issues, "\n  "))
		}
		profile.Apply(&opts)
	}

	// Flags override profile values.
	if len(accept) > 0 {
		opts.Accept = accept
	}
	if len(reject) > 0 {
		opts.Reject = reject
	}
	if len(modulePath) > 0 {
		opts.ModulePath = modulePath
	}
	if workers > 0 {
		opts.Workers = workers
	}

	// Positional arguments are path-separator lists; together they
	// replace classpath discovery outright.
	if args := flagSet.Args(); len(args) > 0 {
		var override []string
		for _, arg := range args {
			for _, entry := range filepath.SplitList(arg) {
				if entry != "" {
					override = append(override, entry)
				}
			}
		}
		if len(override) == 0 {
			return fmt.Errorf("classpath arguments contain no entries")
		}
		opts.OverrideClasspath = override
	}

	// Set up signal handling.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	started := time.Now()
	result, err := scan.Scan(ctx, opts)
	if err != nil {
		return err
	}
	defer result.Close()

	logger.Debug("scan finished",
		"elements", len(result.Elements()),
		"resources", len(result.Resources()),
		"elapsed", time.Since(started),
	)

	out := io.Writer(os.Stdout)
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	switch format {
	case "text":
		err = writeText(out, result)
	case "json":
		err = writeJSON(out, result)
	case "cbor":
		err = writeCBOR(out, result)
	}
	if err != nil {
		return fmt.Errorf("writing listing: %w", err)
	}

	if snapshotPath != "" {
		if err := writeSnapshot(result, snapshotPath, fingerprint, cfg.Output.Compress, logger); err != nil {
			return err
		}
	}

	return nil
}

// loadConfig resolves the CLI configuration: an explicit --config path
// wins, then CLASSGRAPH_CONFIG, then built-in defaults.
func loadConfig(configPath string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	switch {
	case configPath != "":
		cfg, err = config.LoadFile(configPath)
	case os.Getenv("CLASSGRAPH_CONFIG") != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// reportElement is one classpath element in the structured listing.
type reportElement struct {
	Location     string    `json:"location" cbor:"location"`
	Module       string    `json:"module,omitempty" cbor:"module,omitempty"`
	Kind         string    `json:"kind" cbor:"kind"`
	Skipped      bool      `json:"skipped,omitempty" cbor:"skipped,omitempty"`
	LastModified time.Time `json:"last_modified" cbor:"last_modified"`
}

// reportResource is one accepted resource in the structured listing.
// Size is negative when the element cannot tell without reading.
type reportResource struct {
	Path    string `json:"path" cbor:"path"`
	Element string `json:"element" cbor:"element"`
	Size    int64  `json:"size" cbor:"size"`
}

// scanReport is the structured listing for json and cbor output.
type scanReport struct {
	Elements  []reportElement  `json:"elements" cbor:"elements"`
	Resources []reportResource `json:"resources" cbor:"resources"`
}

func buildReport(result *scan.Result) *scanReport {
	report := &scanReport{}
	for _, info := range result.Elements() {
		report.Elements = append(report.Elements, reportElement{
			Location:     info.Location,
			Module:       info.Module,
			Kind:         info.Kind.String(),
			Skipped:      info.Skipped,
			LastModified: info.LastModified,
		})
	}
	for _, res := range result.Resources() {
		report.Resources = append(report.Resources, reportResource{
			Path:    res.Path(),
			Element: res.Element().Location,
			Size:    res.Length(),
		})
	}
	return report
}

// writeText prints the distinct accepted resource paths, one per
// line, in classpath order.
func writeText(out io.Writer, result *scan.Result) error {
	for _, path := range result.Paths() {
		if _, err := fmt.Fprintln(out, path); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(out io.Writer, result *scan.Result) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildReport(result))
}

func writeCBOR(out io.Writer, result *scan.Result) error {
	return codec.NewEncoder(out).Encode(buildReport(result))
}

// snapshotCompression picks the snapshot compression from the file
// extension, falling back to the configured default.
func snapshotCompression(path, configured string) (scan.Compression, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return scan.CompressionZstd, nil
	case ".lz4":
		return scan.CompressionLZ4, nil
	}
	return scan.ParseCompression(configured)
}

func writeSnapshot(result *scan.Result, path string, fingerprint bool, configuredCompression string, logger *slog.Logger) error {
	snap := result.Snapshot()
	if fingerprint {
		if err := result.Fingerprint(snap); err != nil {
			return fmt.Errorf("fingerprinting elements: %w", err)
		}
	}

	compression, err := snapshotCompression(path, configuredCompression)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := snap.Write(file, compression); err != nil {
		file.Close()
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return err
	}

	logger.Debug("snapshot written",
		"path", path,
		"compression", compression.String(),
		"elements", len(snap.Elements),
	)
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `classgraph-scan — walk a JVM classpath and list the resources on it.

The classpath to scan comes from, in order of precedence: positional
arguments (path-separator lists), a --profile file, or the CLASSPATH
environment variable. Flags override profile values. Host settings
(workers, temp directory, JRE location, output defaults) come from a
YAML config file named by --config or CLASSGRAPH_CONFIG.

Elements that cannot be opened are skipped with a warning on stderr;
the scan still succeeds. The exit code is non-zero only when the scan
as a whole cannot run.

Usage:
  classgraph-scan [flags] [classpath...]

Examples:
  # Scan the CLASSPATH environment variable
  classgraph-scan

  # Scan a fat jar, keeping only application classes
  classgraph-scan --accept com/example app.jar

  # Scan per a profile and write a fingerprinted snapshot
  classgraph-scan --profile scan.jsonc --snapshot before.cbor.zst --fingerprint

  # Structured listing for tooling
  classgraph-scan --format json 'app.jar:libs/util.jar'

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
