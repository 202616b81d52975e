package languages

import "regexp"

var (
	includeRegular = regexp.MustCompile(`#[ \t]*include[ \t]*[<"](?P<dependency>[^<>"\s]+)[">]`)
	// relative includes ("./x.h", "../x.h", "/abs/x.h") are dropped
	includeStrict = regexp.MustCompile(`#[ \t]*include[ \t]*[<"](?P<dependency>[^<>"\s./][^<>"\s]*)[">]`)
)

func builtinRules() []Rule {
	return []Rule{
		{
			Kind:       KindCPP,
			Name:       "C++",
			Extensions: []string{".cpp", ".hpp", ".cc", ".cxx", ".hh"},
			Patterns: Patterns{
				Regular: includeRegular,
				Strict:  includeStrict,
			},
		},
		{
			Kind:       KindC,
			Name:       "C",
			Extensions: []string{".c", ".h"},
			Patterns: Patterns{
				Regular: includeRegular,
				Strict:  includeStrict,
			},
		},
		{
			Kind:       KindGo,
			Name:       "Go",
			Extensions: []string{".go"},
			Patterns: Patterns{
				// a one-line list, a parenthesised list closed by a ")" on its own
				// line (comments inside may contain parentheses), or a single spec
				Container: regexp.MustCompile(`(?m)^[ \t]*import[ \t]*(?P<block>\([ \t]*(?:[\w.]+[ \t]+)?"[^"\n]+"[ \t]*\)|\((?s:.*?)^[ \t]*\)|(?:[\w.]+[ \t]+)?"[^"\n]+")`),
				Internal:  regexp.MustCompile(`(?m)^[\s(]*(?:[\w.]+[ \t]+)?"(?P<dependency>[^"\n]+)"`),
			},
		},
		{
			Kind:       KindJava,
			Name:       "Java",
			Extensions: []string{".java"},
			Patterns: Patterns{
				Regular: regexp.MustCompile(`(?m)^[ \t]*import[ \t]+(?:static[ \t]+)?(?P<dependency>[\w.*$]+)[ \t]*;`),
			},
		},
		{
			Kind:       KindPython,
			Name:       "Python",
			Extensions: []string{".py", ".pyi"},
			Patterns: Patterns{
				// private modules (leading underscore) are never reported
				Regular: regexp.MustCompile(`(?m)^[ \t]*(?:import|from)[ \t]+(?P<dependency>\.*[^_.\s#][\w.]*)`),
				Strict:  regexp.MustCompile(`(?m)^[ \t]*(?:import|from)[ \t]+(?P<dependency>[^_.\s#][\w.]*)`),
			},
		},
		{
			Kind:       KindJavaScriptManifest,
			Name:       "JavaScript",
			Extensions: []string{".json"},
			Patterns: Patterns{
				Container: regexp.MustCompile(`"dependencies"\s*:\s*\{(?P<block>[^{}]*)\}`),
				Internal:  regexp.MustCompile(`"(?P<dependency>[^"_.][^"]*)"\s*:`),
			},
		},
	}
}
