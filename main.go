package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sambeau/webcore/build"
	"github.com/sambeau/webcore/config"
	webcerrors "github.com/sambeau/webcore/pkg/webc/errors"
	"github.com/sambeau/webcore/pkg/webc/format"
	"github.com/sambeau/webcore/pkg/webc/parser"
	"github.com/sambeau/webcore/pkg/webc/repl"
	"github.com/sambeau/webcore/server"
)

// Version is set at build time via -ldflags
var Version = "0.1.0-dev"

// errReported means the details were already written to stderr.
var errReported = errors.New("failed")

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "%s\n", describeError(err))
		}
		os.Exit(1)
	}
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	if len(args) == 0 {
		printUsage(stdout)
		return nil
	}

	switch args[0] {
	case "build":
		return runBuild(ctx, args[1:], stdout, stderr, getenv)
	case "dev":
		return runDev(ctx, args[1:], stdout, stderr, getenv)
	case "check":
		return runCheck(args[1:], stdout, stderr, getenv)
	case "fmt":
		return runFmt(args[1:], stdout, stderr)
	case "repl":
		repl.Start(os.Stdin, stdout, Version)
		return nil
	case "version", "--version", "-version":
		fmt.Fprintf(stdout, "webc version %s\n", Version)
		return nil
	case "help", "--help", "-help", "-h":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// projectFlags are shared by commands that load a project.
type projectFlags struct {
	dir        *string
	configPath *string
}

func addProjectFlags(flags *flag.FlagSet) projectFlags {
	return projectFlags{
		dir:        flags.String("dir", ".", "Project directory"),
		configPath: flags.String("config", "", "Path to config file"),
	}
}

func (pf projectFlags) load(getenv func(string) string) (*config.Config, string, error) {
	cfg, path, err := config.LoadWithPath(*pf.dir, *pf.configPath, getenv)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

func runBuild(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("build", flag.ContinueOnError)
	flags.SetOutput(stderr)
	pf := addProjectFlags(flags)
	var (
		pretty = flags.Bool("pretty", false, "Indent generated HTML")
		mode   = flags.String("mode", "", "Override app.mode (dev or prod)")
	)
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, _, err := pf.load(getenv)
	if err != nil {
		return err
	}
	if *mode != "" {
		cfg.App.Mode = *mode
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	printWarnings(stderr, cfg)

	b := build.New(cfg, stdout, stderr)
	b.Pretty = *pretty
	_, err = b.Build(ctx)
	return err
}

func runDev(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("dev", flag.ContinueOnError)
	flags.SetOutput(stderr)
	pf := addProjectFlags(flags)
	var (
		host = flags.String("host", "", "Override dev.host")
		port = flags.Int("port", 0, "Override dev.port")
		open = flags.Bool("open", false, "Open a browser once the server is up")
	)
	if err := flags.Parse(args); err != nil {
		return err
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, configFile, err := pf.load(getenv)
	if err != nil {
		return err
	}

	// Apply CLI overrides
	if *host != "" {
		cfg.Dev.Host = *host
	}
	if *port != 0 {
		cfg.Dev.Port = *port
	}
	if *open {
		cfg.Dev.Open = true
	}

	// Full validation after CLI overrides applied
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	printWarnings(stderr, cfg)

	srv, err := server.New(cfg, configFile, stdout, stderr)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	return srv.Run(ctx)
}

// runCheck parses the given files, or the whole project when none are
// given, and reports every syntax error.
func runCheck(args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("check", flag.ContinueOnError)
	flags.SetOutput(stderr)
	pf := addProjectFlags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}

	files := flags.Args()
	if len(files) == 0 {
		cfg, _, err := pf.load(getenv)
		if err != nil {
			return err
		}
		_, warnings, err := build.LoadDocument(cfg.Paths.Src)
		for _, w := range warnings {
			fmt.Fprintf(stderr, "[WARN] %s\n", w)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s: ok\n", cfg.Paths.Src)
		return nil
	}

	failed := 0
	for _, file := range files {
		if _, err := parser.ReadFile(file); err != nil {
			fmt.Fprintf(stderr, "%s\n", describeError(err))
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(stderr, "%d of %d file(s) have errors\n", failed, len(files))
		return errReported
	}
	return nil
}

func runFmt(args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("fmt", flag.ContinueOnError)
	flags.SetOutput(stderr)
	var (
		write = flags.Bool("w", false, "Write result to source file instead of stdout")
		list  = flags.Bool("l", false, "List files whose formatting differs")
	)
	if err := flags.Parse(args); err != nil {
		return err
	}

	files := flags.Args()
	if len(files) == 0 {
		return fmt.Errorf("fmt: no files specified")
	}

	failed := false
	for _, file := range files {
		if err := formatFile(file, *write, *list, stdout); err != nil {
			fmt.Fprintf(stderr, "%s\n", describeError(err))
			failed = true
		}
	}
	if failed {
		return errReported
	}
	return nil
}

func formatFile(file string, write, list bool, stdout io.Writer) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}
	source := string(content)

	formatted, err := format.Source(source)
	if err != nil {
		var we *webcerrors.WebcError
		if errors.As(err, &we) {
			return we.WithFile(file)
		}
		return err
	}
	changed := formatted != source

	switch {
	case list:
		if changed {
			fmt.Fprintln(stdout, file)
		}
	case write:
		if changed {
			if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", file, err)
			}
		}
	default:
		io.WriteString(stdout, formatted)
	}
	return nil
}

func printWarnings(w io.Writer, cfg *config.Config) {
	for _, warning := range config.Warnings(cfg) {
		fmt.Fprintf(w, "[WARN] %s\n", warning)
	}
}

// describeError renders build errors with position and hints when available.
func describeError(err error) string {
	var we *webcerrors.WebcError
	if errors.As(err, &we) {
		return we.PrettyString()
	}
	return "error: " + strings.TrimPrefix(err.Error(), "error: ")
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `webc - compiler for .webc component files

Usage:
  webc <command> [options]

Commands:
  build     Compile the project into the output directory
  dev       Build, serve and rebuild on change with live reload
  check     Check .webc files (or the whole project) for syntax errors
  fmt       Format .webc files
  repl      Compile snippets interactively
  version   Show version
  help      Show this help

Project options (build, dev, check):
  --dir DIR        Project directory (default: .)
  --config PATH    Path to config file (default: auto-detect)

Build options:
  --pretty         Indent generated HTML
  --mode MODE      Override app.mode (dev or prod)

Dev options:
  --host HOST      Override dev.host
  --port PORT      Override dev.port
  --open           Open a browser once the server is up

Fmt options:
  -w               Write result to source file instead of stdout
  -l               List files whose formatting differs

Config Resolution:
  1. --config flag
  2. WEBC_CONFIG environment variable
  3. webc.yaml, webc.yml or webc.toml in the project directory
  4. built-in defaults

Examples:
  webc build                 Build ./src into ./dist
  webc build --mode prod     Build with minified CSS
  webc dev --port 8080       Dev server on port 8080
  webc fmt -w src/pages/*.webc

`)
}
