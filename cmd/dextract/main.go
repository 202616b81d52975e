package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/dextract/internal/config"
	"github.com/standardbeagle/dextract/internal/debug"
	"github.com/standardbeagle/dextract/internal/display"
	dxerrors "github.com/standardbeagle/dextract/internal/errors"
	"github.com/standardbeagle/dextract/internal/extract"
	"github.com/standardbeagle/dextract/internal/languages"
	"github.com/standardbeagle/dextract/internal/mcp"
	"github.com/standardbeagle/dextract/internal/scan"
	"github.com/standardbeagle/dextract/internal/version"
	"github.com/standardbeagle/dextract/internal/watch"
	"github.com/standardbeagle/dextract/pkg/pathutil"
)

// exitInputPath is returned when the scan target is missing or not a regular file or directory
const exitInputPath = 2

var Version = version.Version

func init() {
	// -v is --verbose
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version",
		Usage: "print the version",
	}
}

// loadConfigWithOverrides loads configuration and applies CLI flag overrides.
// The config file is searched in --root, else in the scanned directory.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")

	rootDir := c.String("root")
	if rootDir == "" && c.Args().Present() {
		if info, err := os.Stat(c.Args().First()); err == nil && info.IsDir() {
			rootDir = c.Args().First()
		}
	}

	cfg, err := config.LoadWithRoot(configPath, rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludeFlags...)
	}
	if rootFlag := c.String("root"); rootFlag != "" {
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		cfg.Project.Root = absRoot
	}

	if s := c.String("max-file-size"); s != "" {
		size, err := config.ParseSize(s)
		if err != nil {
			return nil, dxerrors.NewConfigError("max-file-size", s, err)
		}
		cfg.Scan.MaxFileSize = size
	}
	if c.Bool("strict") {
		cfg.Scan.Strict = true
	}
	if c.Bool("verbose") {
		cfg.Scan.Verbose = true
	}
	if c.Bool("manifests") {
		cfg.Scan.Manifests = true
	}
	if c.IsSet("workers") {
		cfg.Scan.Workers = c.Int("workers")
	}
	if langs := c.StringSlice("lang"); len(langs) > 0 {
		cfg.Languages = langs
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func scanFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "max-file-size",
			Usage: "Skip files at or above this size (e.g. 5MB, 500KB, 1048576)",
		},
		&cli.BoolFlag{
			Name:    "strict",
			Aliases: []string{"s"},
			Usage:   "Drop relative imports where the language supports it",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Narrate every file and print the summary",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "Number of files read in parallel (default: number of CPUs)",
		},
		&cli.StringSliceFlag{
			Name:    "lang",
			Aliases: []string{"l"},
			Usage:   "Only scan these languages (repeatable, see 'dextract languages')",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: " + strings.Join(display.Formats, ", "),
			Value:   display.FormatText,
		},
		&cli.BoolFlag{
			Name:  "manifests",
			Usage: "Also read package.json dependency blocks",
		},
		&cli.BoolFlag{
			Name:  "watch",
			Usage: "Keep running and rescan when files change",
		},
		&cli.BoolFlag{
			Name:  "stats",
			Usage: "Print file counters and scan coverage",
		},
	}
}

func newApp() *cli.App {
	globalFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file path",
			Value:   config.FileName,
		},
		&cli.StringFlag{
			Name:    "root",
			Aliases: []string{"r"},
			Usage:   "Project root directory (overrides config)",
		},
		&cli.StringSliceFlag{
			Name:  "include",
			Usage: "Only scan files matching glob patterns (e.g., --include 'src/**')",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Exclude paths matching glob patterns (e.g., --exclude '**/vendor/**')",
		},
	}

	return &cli.App{
		Name:                   "dextract",
		Usage:                  "List the dependencies imported by the source files of a project",
		ArgsUsage:              "[path]",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags:                  append(globalFlags, scanFlags()...),
		Action:                 scanCommand,
		Commands: []*cli.Command{
			{
				Name:      "scan",
				Usage:     "Scan a file or directory for dependencies",
				ArgsUsage: "[path]",
				Flags:     scanFlags(),
				Action:    scanCommand,
			},
			{
				Name:    "languages",
				Aliases: []string{"langs"},
				Usage:   "List supported languages and their file extensions",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: languagesCommand,
			},
			{
				Name:  "config",
				Usage: "Configuration management",
				Subcommands: []*cli.Command{
					{
						Name:    "init",
						Aliases: []string{"i"},
						Usage:   "Write a configuration file with the default settings",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "output",
								Aliases: []string{"o"},
								Usage:   "Output file path (default: " + config.FileName + ")",
							},
							&cli.BoolFlag{
								Name:  "force",
								Usage: "Overwrite existing configuration file",
							},
						},
						Action: configInitCommand,
					},
					{
						Name:    "show",
						Aliases: []string{"s"},
						Usage:   "Show the effective configuration",
						Action:  configShowCommand,
					},
					{
						Name:    "validate",
						Aliases: []string{"v"},
						Usage:   "Validate configuration file",
						Action:  configValidateCommand,
					},
				},
			},
			{
				Name:  "mcp",
				Usage: "Start MCP (Model Context Protocol) server with stdio transport",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "debug-log",
						Usage: "Write debug output to a file under the temp directory (stdout is reserved for the protocol)",
					},
				},
				Action: mcpCommand,
			},
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, version.FullInfo())
					return nil
				},
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "[dextract] ERROR: %v\n", err)
		os.Exit(1)
	}
}

func scanCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	target := cfg.Project.Root
	if c.Args().Present() {
		target, err = filepath.Abs(c.Args().First())
		if err != nil {
			return cli.Exit(dxerrors.NewInputPathError(c.Args().First(), err).Error(), exitInputPath)
		}
	}

	opts, err := cfg.ScanOptions(target)
	if err != nil {
		return err
	}

	narrator := display.NewNarrator(c.App.ErrWriter)
	if cfg.Scan.Verbose {
		opts.Verbose = true
		opts.Observer = narrator
	}

	formatter, err := display.NewFormatter(display.FormatterOptions{
		Format:    c.String("format"),
		ShowStats: c.Bool("stats") || cfg.Scan.Verbose,
		Color:     display.UseColor(c.App.Writer),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Bool("watch") {
		opts.Cache = extract.NewCache(0)
	}
	scanner := scan.New(opts)

	result, err := scanner.Scan(ctx, target)
	if err != nil {
		if dxerrors.IsInputPathError(err) {
			return cli.Exit(err.Error(), exitInputPath)
		}
		return err
	}
	if err := emit(c, formatter, narrator, result, cfg.Scan.Verbose); err != nil {
		return err
	}

	if !c.Bool("watch") {
		return nil
	}
	return watchLoop(ctx, c, cfg, scanner, formatter, narrator, target, result)
}

// emit writes the formatted result and, outside verbose mode, a note about
// files that could not be read
func emit(c *cli.Context, formatter *display.Formatter, narrator *display.Narrator, result *scan.Result, verbose bool) error {
	if err := formatter.Write(c.App.Writer, result); err != nil {
		return err
	}
	var readErrs *dxerrors.MultiError
	if !verbose && errors.As(result.Err(), &readErrs) {
		narrator.Printf(display.Notice, "%d files could not be read (rerun with --verbose for details)", len(readErrs.Errors))
	}
	return nil
}

func watchLoop(ctx context.Context, c *cli.Context, cfg *config.Config, scanner *scan.Scanner,
	formatter *display.Formatter, narrator *display.Narrator, target string, initial *scan.Result) error {
	w, err := watch.New(scanner, watch.Options{
		Debounce: time.Duration(cfg.Scan.WatchDebounceMs) * time.Millisecond,
		OnBatch: func(events map[string]watch.EventType) {
			paths := make([]string, 0, len(events))
			for p := range events {
				paths = append(paths, p)
			}
			narrator.Printf(display.Information, "Changed: %s", strings.Join(pathutil.ToRelativeSorted(paths, target), ", "))
		},
		OnResult: func(result *scan.Result, changed bool) {
			if !changed {
				narrator.Printf(display.Information, "Dependencies unchanged")
				return
			}
			if err := emit(c, formatter, narrator, result, cfg.Scan.Verbose); err != nil {
				narrator.Printf(display.Error, "%v", err)
			}
		},
		OnError: func(err error) {
			narrator.Printf(display.Error, "rescan failed: %v", err)
		},
	})
	if err != nil {
		return err
	}

	w.Seed(initial)
	if err := w.Start(ctx, target); err != nil {
		_ = w.Stop()
		return err
	}
	narrator.Printf(display.Information, "Watching %s for changes (Ctrl+C to stop)", target)

	<-ctx.Done()
	return w.Stop()
}

func languagesCommand(c *cli.Context) error {
	rules := languages.Default().Rules()

	if c.Bool("json") {
		type entry struct {
			ID         string   `json:"id"`
			Name       string   `json:"name"`
			Extensions []string `json:"extensions"`
			Strategy   string   `json:"strategy"`
		}
		out := make([]entry, 0, len(rules))
		for _, r := range rules {
			out = append(out, entry{ID: r.Kind.String(), Name: r.Name, Extensions: r.Extensions, Strategy: r.Shape()})
		}
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEXTENSIONS\tSTRATEGY")
	for _, r := range rules {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Kind, r.Name, strings.Join(r.Extensions, " "), r.Shape())
	}
	return tw.Flush()
}

func configInitCommand(c *cli.Context) error {
	output := c.String("output")
	if output == "" {
		output = config.FileName
	}

	if !c.Bool("force") {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", output)
		}
	}

	cfg := config.Default()
	cfg.Project.Root = "."
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	if err := os.WriteFile(output, []byte(config.ToKDL(cfg)), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Configuration file created: %s\n", output)
	fmt.Fprintf(c.App.Writer, "\nCommon customizations:\n")
	fmt.Fprintf(c.App.Writer, "  - Raise the size ceiling: scan { max_file_size \"20MB\" }\n")
	fmt.Fprintf(c.App.Writer, "  - Add project exclusions: exclude { \"**/vendor/**\" }\n")
	fmt.Fprintf(c.App.Writer, "  - Restrict languages: languages { \"go\" \"python\" }\n")
	return nil
}

func configShowCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	_, err = io.WriteString(c.App.Writer, config.ToKDL(cfg))
	return err
}

func configValidateCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		fmt.Fprintf(c.App.Writer, "Configuration validation failed: %v\n", err)
		return err
	}

	var warnings []string
	if cfg.Scan.MaxFileSize < 10_000 {
		warnings = append(warnings, fmt.Sprintf("max_file_size is very low (%s), most source files will be skipped", config.FormatSize(cfg.Scan.MaxFileSize)))
	}
	if len(cfg.Include) > 0 && cfg.Scan.DetectBuildArtifacts {
		warnings = append(warnings, "include patterns are set; detected build output directories are still excluded")
	}

	fmt.Fprintf(c.App.Writer, "Configuration is valid (root %s)\n", cfg.Project.Root)
	for _, w := range warnings {
		fmt.Fprintf(c.App.Writer, "  warning: %s\n", w)
	}
	return nil
}

// startDebugLog opens the debug log file when enabled and reports its path
// on w. The returned func closes the file.
func startDebugLog(enabled bool, w io.Writer) (func(), error) {
	if !enabled {
		return func() {}, nil
	}
	logPath, err := debug.InitDebugLogFile()
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "dextract: debug log at %s\n", logPath)
	debug.LogMCP("debug log opened, version %s\n", version.Version)
	return func() { _ = debug.CloseDebugLog() }, nil
}

func mcpCommand(c *cli.Context) error {
	debug.SetMCPMode(true)

	closeLog, err := startDebugLog(c.Bool("debug-log"), c.App.ErrWriter)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return debug.Fatal("failed to load config: %v\n", err)
	}

	server, err := mcp.NewServer(cfg)
	if err != nil {
		return debug.Fatal("failed to create MCP server: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		return debug.Fatal("MCP server error: %v\n", err)
	}
	return nil
}
