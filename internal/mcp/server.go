// Package mcp exposes dependency scanning to MCP clients over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/dextract/internal/classify"
	"github.com/standardbeagle/dextract/internal/config"
	dbg "github.com/standardbeagle/dextract/internal/debug"
	"github.com/standardbeagle/dextract/internal/display"
	dxerrors "github.com/standardbeagle/dextract/internal/errors"
	"github.com/standardbeagle/dextract/internal/extract"
	"github.com/standardbeagle/dextract/internal/languages"
	"github.com/standardbeagle/dextract/internal/scan"
	"github.com/standardbeagle/dextract/internal/version"
	"github.com/standardbeagle/dextract/pkg/pathutil"
)

const (
	ToolScanDependencies = "scan_dependencies"
	ToolListLanguages    = "list_languages"
	ToolClassifyFile     = "classify_file"
)

// Server serves the dextract tools. Scans share one content cache, so
// repeated scans of an unchanged tree skip the regex work.
type Server struct {
	server *mcp.Server
	cfg    *config.Config
	cache  *extract.Cache

	handlers map[string]mcp.ToolHandler
}

// NewServer validates cfg and registers the tools. A nil cfg means the
// defaults rooted at the working directory.
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		cache:    extract.NewCache(0),
		handlers: make(map[string]mcp.ToolHandler),
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "dextract",
		Version: version.Version,
	}, nil)
	s.registerTools()

	return s, nil
}

func (s *Server) addTool(tool *mcp.Tool, handler mcp.ToolHandler) {
	wrapped := func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.recoverFromPanic(tool.Name, func() (*mcp.CallToolResult, error) {
			return handler(ctx, req)
		})
	}
	s.handlers[tool.Name] = wrapped
	s.server.AddTool(tool, wrapped)
}

func (s *Server) registerTools() {
	stringList := func(desc string) *jsonschema.Schema {
		return &jsonschema.Schema{
			Type:        "array",
			Description: desc,
			Items:       &jsonschema.Schema{Type: "string"},
		}
	}

	s.addTool(&mcp.Tool{
		Name:        ToolScanDependencies,
		Description: "Scan a file or directory and return the sorted set of imported dependencies with file counters and scan coverage.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "File or directory to scan; relative paths resolve against the project root (default: project root)",
				},
				"strict": {
					Type:        "boolean",
					Description: "Drop relative imports where the language supports it",
				},
				"max_file_size": {
					Types:       []string{"string", "integer"},
					Description: "Skip files at or above this size, e.g. \"5MB\" or 5000000",
				},
				"languages": stringList("Restrict to these languages (see list_languages)"),
				"include":   stringList("Only scan files matching these doublestar globs"),
				"exclude":   stringList("Skip paths matching these doublestar globs"),
				"manifests": {
					Type:        "boolean",
					Description: "Also read package.json dependency blocks",
				},
			},
		},
	}, s.handleScanDependencies)

	s.addTool(&mcp.Tool{
		Name:        ToolListLanguages,
		Description: "List the supported languages with their file extensions and extraction strategy.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleListLanguages)

	s.addTool(&mcp.Tool{
		Name:        ToolClassifyFile,
		Description: "Explain how a single file would be treated by a scan (scanned, non-source, too large or unsupported) and list its dependencies when it is scanned.",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"path"},
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "File to classify",
				},
				"strict": {
					Type:        "boolean",
					Description: "Use strict extraction for the dependency list",
				},
			},
		},
	}, s.handleClassifyFile)
}

func (s *Server) handleScanDependencies(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ScanParams
	if err := unmarshalArgs(req, &params); err != nil {
		return createErrorResponse(ToolScanDependencies, fmt.Errorf("invalid parameters: %w", err))
	}

	cfg := *s.cfg
	cfg.Scan.Strict = cfg.Scan.Strict || params.Strict
	cfg.Scan.Manifests = cfg.Scan.Manifests || params.Manifests
	if params.MaxFileSize > 0 {
		cfg.Scan.MaxFileSize = int64(params.MaxFileSize)
	}
	if len(params.Languages) > 0 {
		cfg.Languages = params.Languages
	}
	if len(params.Include) > 0 {
		cfg.Include = params.Include
	}
	if len(params.Exclude) > 0 {
		cfg.Exclude = append(slices.Clone(cfg.Exclude), params.Exclude...)
	}
	if err := config.ValidateConfig(&cfg); err != nil {
		return createErrorResponse(ToolScanDependencies, err)
	}

	root := s.resolvePath(params.Path)
	opts, err := cfg.ScanOptions(root)
	if err != nil {
		return createErrorResponse(ToolScanDependencies, err)
	}
	opts.Verbose = false
	opts.Cache = s.cache

	dbg.LogMCP("scan_dependencies root=%s strict=%v\n", root, opts.Strict)
	result, err := scan.New(opts).Scan(ctx, root)
	if err != nil {
		return createErrorResponse(ToolScanDependencies, err)
	}

	return createJSONResponse(display.NewReport(result, true))
}

// LanguageInfo describes one registry rule
type LanguageInfo struct {
	Name       string   `json:"name"`
	ID         string   `json:"id"`
	Extensions []string `json:"extensions"`
	Strategy   string   `json:"strategy"`
	Strict     bool     `json:"strict"`
	Enabled    bool     `json:"enabled"`
}

func (s *Server) handleListLanguages(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	enabled, err := languages.Default().Subset(s.cfg.Languages...)
	if err != nil {
		return createErrorResponse(ToolListLanguages, err)
	}

	out := make([]LanguageInfo, 0, languages.Default().Len())
	for _, rule := range languages.Default().Rules() {
		_, on := enabled.Lookup(rule.Kind.String())
		out = append(out, LanguageInfo{
			Name:       rule.Name,
			ID:         rule.Kind.String(),
			Extensions: rule.Extensions,
			Strategy:   rule.Shape(),
			Strict:     rule.HasStrict(),
			Enabled:    on,
		})
	}

	return createJSONResponse(map[string]interface{}{
		"languages":      out,
		"server_version": version.FullInfo(),
	})
}

// ClassifyResult is the classify_file response
type ClassifyResult struct {
	Path         string   `json:"path"`
	Outcome      string   `json:"outcome"`
	Language     string   `json:"language,omitempty"`
	LanguageHint string   `json:"language_hint,omitempty"`
	ConfigFile   bool     `json:"config_file"`
	Size         int64    `json:"size"`
	MaxFileSize  int64    `json:"max_file_size"`
	Dependencies []string `json:"dependencies,omitempty"`
}

func (s *Server) handleClassifyFile(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ClassifyParams
	if err := unmarshalArgs(req, &params); err != nil {
		return createErrorResponse(ToolClassifyFile, fmt.Errorf("invalid parameters: %w", err))
	}
	if params.Path == "" {
		return createErrorResponse(ToolClassifyFile, fmt.Errorf("path is required"))
	}

	path := s.resolvePath(params.Path)
	info, err := os.Stat(path)
	if err != nil {
		return createErrorResponse(ToolClassifyFile, dxerrors.NewInputPathError(path, err))
	}
	if info.IsDir() {
		return createErrorResponse(ToolClassifyFile, fmt.Errorf("%s is a directory", params.Path))
	}

	opts, err := s.cfg.ScanOptions(path)
	if err != nil {
		return createErrorResponse(ToolClassifyFile, err)
	}
	classifier := classify.New(classify.Options{
		IgnoredNames:      opts.IgnoredNames,
		IgnoredExtensions: opts.IgnoredExtensions,
		ConfigFileNames:   opts.ConfigFileNames,
		MaxFileSize:       opts.MaxFileSize,
		Registry:          opts.Registry,
	})

	cand := classify.NewCandidate(path, info.Size())
	decision := classifier.Classify(cand)

	out := ClassifyResult{
		Path:        pathutil.ToRelative(path, s.cfg.Project.Root),
		Outcome:     decision.Outcome.String(),
		ConfigFile:  decision.ConfigFile,
		Size:        info.Size(),
		MaxFileSize: classifier.MaxFileSize(),
	}

	if decision.Outcome != classify.Scan {
		out.LanguageHint = classify.LanguageHint(path)
		return createJSONResponse(out)
	}

	out.Language = decision.Rule.Name
	content, err := extract.ReadFile(path)
	if err != nil {
		return createErrorResponse(ToolClassifyFile, err)
	}
	out.Dependencies = s.cache.Extract(content, decision.Rule, params.Strict || s.cfg.Scan.Strict).Sorted()

	return createJSONResponse(out)
}

func (s *Server) resolvePath(p string) string {
	if p == "" {
		return s.cfg.Project.Root
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.cfg.Project.Root, p)
	}
	return filepath.Clean(p)
}

func unmarshalArgs(req *mcp.CallToolRequest, v interface{}) error {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	return json.Unmarshal(req.Params.Arguments, v)
}

// recoverFromPanic turns a handler panic into an error result so one bad
// request cannot take the server down
func (s *Server) recoverFromPanic(operation string, handler func() (*mcp.CallToolResult, error)) (result *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			dbg.LogMCP("PANIC RECOVERED in %s: %v\n%s\n", operation, r, debug.Stack())
			result, err = createErrorResponse(operation, fmt.Errorf("internal error: %v", r))
		}
	}()

	return handler()
}

// Start serves over stdio until ctx is cancelled or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	dbg.LogMCP("Starting MCP server with stdio transport (root %s)\n", s.cfg.Project.Root)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Config returns the validated configuration
func (s *Server) Config() *config.Config {
	return s.cfg
}
