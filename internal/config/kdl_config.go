package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	dxerrors "github.com/standardbeagle/dextract/internal/errors"
)

// LoadKDL loads dir/.dextract.kdl. A missing file returns nil, nil.
func LoadKDL(dir string) (*Config, error) {
	return LoadKDLFile(filepath.Join(dir, FileName), dir)
}

// LoadKDLFile loads a KDL config from path. A relative project root inside
// the file is resolved against dir.
func LoadKDLFile(path, dir string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if cfg.Project.Root != "" && !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Join(dir, cfg.Project.Root)
	}
	if cfg.Project.Root == "" {
		cfg.Project.Root = dir
	}
	cfg.Project.Root = filepath.Clean(absOr(cfg.Project.Root))

	return cfg, nil
}

// parseKDL reads a config document on top of the defaults
func parseKDL(content string) (*Config, error) {
	cfg := defaultRooted("")

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "project":
			for _, cn := range n.Children { // project { root "." name "foo" }
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "scan":
			if err := parseScanSection(cfg, n); err != nil {
				return nil, err
			}
		case "languages":
			cfg.Languages = collectStringArgs(n)
		case "ignored_names":
			cfg.IgnoredNames = collectStringArgs(n)
		case "ignored_extensions":
			cfg.IgnoredExtensions = collectStringArgs(n)
		case "ignore_extra":
			// appends to the defaults instead of replacing them
			for _, ext := range collectStringArgs(n) {
				if strings.HasPrefix(ext, ".") {
					cfg.IgnoredExtensions = append(cfg.IgnoredExtensions, ext)
				} else {
					cfg.IgnoredNames = append(cfg.IgnoredNames, ext)
				}
			}
		case "config_files":
			cfg.ConfigFileNames = collectStringArgs(n)
		case "include":
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		case "exclude":
			// Replace default exclusions if exclude block is present
			cfg.Exclude = collectStringArgs(n)
		}
	}

	return cfg, nil
}

func parseScanSection(cfg *Config, n *document.Node) error {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "max_file_size":
			if v, ok := firstIntArg(cn); ok {
				cfg.Scan.MaxFileSize = int64(v)
			}
			if s, ok := firstStringArg(cn); ok {
				size, err := parseSize(s)
				if err != nil {
					return dxerrors.NewConfigError("scan.max_file_size", s, err)
				}
				cfg.Scan.MaxFileSize = size
			}
		case "strict":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Scan.Strict = b
			}
		case "verbose":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Scan.Verbose = b
			}
		case "workers":
			if v, ok := firstIntArg(cn); ok {
				cfg.Scan.Workers = v
			}
		case "follow_symlinks":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Scan.FollowSymlinks = b
			}
		case "respect_gitignore":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Scan.RespectGitignore = b
			}
		case "detect_build_artifacts":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Scan.DetectBuildArtifacts = b
			}
		case "manifests":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Scan.Manifests = b
			}
		case "watch_debounce_ms":
			if v, ok := firstIntArg(cn); ok {
				cfg.Scan.WatchDebounceMs = v
			}
		}
	}
	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

// collectStringArgs accepts both `node "a" "b"` and `node { "a"; "b" }`
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// In KDL block format, strings are child nodes where the node name is the string value
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB" and plain byte
// counts. KB/MB/GB are decimal; KiB/MiB/GiB are binary.
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	numStr := s

	for _, unit := range []struct {
		suffix string
		mult   int64
	}{
		{"GIB", 1 << 30},
		{"MIB", 1 << 20},
		{"KIB", 1 << 10},
		{"GB", 1_000_000_000},
		{"MB", 1_000_000},
		{"KB", 1_000},
		{"B", 1},
	} {
		if strings.HasSuffix(s, unit.suffix) {
			multiplier = unit.mult
			numStr = strings.TrimSpace(strings.TrimSuffix(s, unit.suffix))
			break
		}
	}

	if f, err := strconv.ParseFloat(numStr, 64); err == nil && strings.Contains(numStr, ".") {
		if f < 0 {
			return 0, fmt.Errorf("negative size %q", s)
		}
		return int64(f * float64(multiplier)), nil
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if num < 0 {
		return 0, fmt.Errorf("negative size %q", s)
	}

	return num * multiplier, nil
}

// ParseSize is parseSize for flag values
func ParseSize(s string) (int64, error) {
	return parseSize(s)
}

// FormatSize renders n the way parseSize reads it back
func FormatSize(n int64) string {
	switch {
	case n > 0 && n%1_000_000_000 == 0:
		return strconv.FormatInt(n/1_000_000_000, 10) + "GB"
	case n > 0 && n%1_000_000 == 0:
		return strconv.FormatInt(n/1_000_000, 10) + "MB"
	case n > 0 && n%1_000 == 0:
		return strconv.FormatInt(n/1_000, 10) + "KB"
	default:
		return strconv.FormatInt(n, 10)
	}
}

// ToKDL renders cfg as a .dextract.kdl document
func ToKDL(cfg *Config) string {
	var sb strings.Builder
	q := strconv.Quote

	fmt.Fprintf(&sb, "version %d\n\n", cfg.Version)

	sb.WriteString("project {\n")
	if cfg.Project.Root != "" {
		fmt.Fprintf(&sb, "    root %s\n", q(cfg.Project.Root))
	}
	if cfg.Project.Name != "" {
		fmt.Fprintf(&sb, "    name %s\n", q(cfg.Project.Name))
	}
	sb.WriteString("}\n\n")

	s := cfg.Scan
	sb.WriteString("scan {\n")
	fmt.Fprintf(&sb, "    max_file_size %s\n", q(FormatSize(s.MaxFileSize)))
	fmt.Fprintf(&sb, "    strict %t\n", s.Strict)
	fmt.Fprintf(&sb, "    verbose %t\n", s.Verbose)
	fmt.Fprintf(&sb, "    workers %d\n", s.Workers)
	fmt.Fprintf(&sb, "    follow_symlinks %t\n", s.FollowSymlinks)
	fmt.Fprintf(&sb, "    respect_gitignore %t\n", s.RespectGitignore)
	fmt.Fprintf(&sb, "    detect_build_artifacts %t\n", s.DetectBuildArtifacts)
	fmt.Fprintf(&sb, "    manifests %t\n", s.Manifests)
	fmt.Fprintf(&sb, "    watch_debounce_ms %d\n", s.WatchDebounceMs)
	sb.WriteString("}\n")

	writeList(&sb, "languages", cfg.Languages)
	writeList(&sb, "ignored_names", cfg.IgnoredNames)
	writeList(&sb, "ignored_extensions", cfg.IgnoredExtensions)
	writeList(&sb, "config_files", cfg.ConfigFileNames)
	writeList(&sb, "include", cfg.Include)
	writeList(&sb, "exclude", cfg.Exclude)

	return sb.String()
}

func writeList(sb *strings.Builder, name string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s {\n", name)
	for _, v := range values {
		fmt.Fprintf(sb, "    %s\n", strconv.Quote(v))
	}
	sb.WriteString("}\n")
}
