package output

import (
	"path"
	"strings"

	"github.com/quantmind-br/repo2llm/internal/domain"
)

// languages maps a lowercase extension to a fence language tag
var languages = map[string]string{
	".go":         "go",
	".mod":        "go",
	".py":         "python",
	".pyi":        "python",
	".rb":         "ruby",
	".rs":         "rust",
	".java":       "java",
	".kt":         "kotlin",
	".kts":        "kotlin",
	".scala":      "scala",
	".swift":      "swift",
	".c":          "c",
	".h":          "c",
	".cc":         "cpp",
	".cpp":        "cpp",
	".cxx":        "cpp",
	".hpp":        "cpp",
	".cs":         "csharp",
	".fs":         "fsharp",
	".js":         "javascript",
	".mjs":        "javascript",
	".cjs":        "javascript",
	".jsx":        "jsx",
	".ts":         "typescript",
	".tsx":        "tsx",
	".vue":        "vue",
	".svelte":     "svelte",
	".php":        "php",
	".pl":         "perl",
	".lua":        "lua",
	".r":          "r",
	".dart":       "dart",
	".ex":         "elixir",
	".exs":        "elixir",
	".erl":        "erlang",
	".hs":         "haskell",
	".clj":        "clojure",
	".ml":         "ocaml",
	".zig":        "zig",
	".sh":         "bash",
	".bash":       "bash",
	".zsh":        "zsh",
	".fish":       "fish",
	".ps1":        "powershell",
	".bat":        "batch",
	".sql":        "sql",
	".graphql":    "graphql",
	".proto":      "protobuf",
	".html":       "html",
	".htm":        "html",
	".xml":        "xml",
	".svg":        "xml",
	".css":        "css",
	".scss":       "scss",
	".sass":       "sass",
	".less":       "less",
	".json":       "json",
	".jsonc":      "jsonc",
	".yaml":       "yaml",
	".yml":        "yaml",
	".toml":       "toml",
	".ini":        "ini",
	".cfg":        "ini",
	".env":        "bash",
	".md":         "markdown",
	".mdx":        "mdx",
	".rst":        "rst",
	".tex":        "latex",
	".tf":         "hcl",
	".hcl":        "hcl",
	".dockerfile": "dockerfile",
	".gradle":     "groovy",
	".groovy":     "groovy",
}

// filenames maps well-known extensionless basenames to a fence language
var filenames = map[string]string{
	"Dockerfile":  "dockerfile",
	"Makefile":    "makefile",
	"GNUmakefile": "makefile",
	"Jenkinsfile": "groovy",
	"Vagrantfile": "ruby",
	"Gemfile":     "ruby",
	"Rakefile":    "ruby",
}

// Language returns the fence language for a path. Unknown extensions yield
// an empty tag.
func Language(p string) string {
	if lang, ok := filenames[path.Base(p)]; ok {
		return lang
	}
	return languages[strings.ToLower(domain.Extension(p))]
}
