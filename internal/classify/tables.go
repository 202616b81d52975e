package classify

// DefaultIgnoredNames are base names (without extension) that are never source files
var DefaultIgnoredNames = []string{
	".gitignore",
	".DS_Store",
	"README",
	"LICENSE",
	"MAINTAINERS",
	"BUGS",
	"CONTRIBUTING",
	"CONTRIBUTORS",
	"AUTHORS",
	"PATENTS",
	"Dockerfile",
	"Makefile",
}

// DefaultIgnoredExtensions are data, document and build-script extensions.
// .json is listed, so package manifests are skipped unless callers remove it.
var DefaultIgnoredExtensions = []string{
	".png", ".ico", ".jpg", ".svg", ".tiff",
	".yml", ".yaml", ".rst", ".json", ".xml", ".html", ".har",
	".properties", ".plist", ".all", ".txt",
	".doc", ".xls", ".ppt", ".docx", ".xlsx", ".pptx", ".csv",
	".jmx", ".cmd", ".sh", ".mod", ".sum", ".tpl",
	".npy", ".npz", ".ini", ".inc",
}

// DefaultConfigFileNames are flagged as configuration in decisions
var DefaultConfigFileNames = []string{
	"Dockerfile",
	"docker-compose.yml",
	"docker-compose.yaml",
	"Makefile",
	".gitignore",
	".dockerignore",
	".editorconfig",
}

// WithoutExtension returns exts minus the given extensions, in order
func WithoutExtension(exts []string, drop ...string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		keep := true
		for _, d := range drop {
			if e == d {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, e)
		}
	}
	return out
}
