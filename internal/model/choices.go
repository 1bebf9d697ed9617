package model

import "slices"

const (
	DefaultLanguage = "python"
	DefaultStyle    = "friendly"
)

// Languages is the fixed set of language identifiers a snippet may declare.
// The values are the lexer names used by syntax highlighters, sorted. Common
// short aliases (js, py, rb, ts) are accepted next to the full names.
var Languages = []string{
	"abap", "ada", "apl", "bash", "bat", "c", "clojure", "cmake", "coffeescript",
	"common-lisp", "console", "cpp", "csharp", "css", "cython", "d", "dart", "diff",
	"django", "docker", "elixir", "elm", "erlang", "fortran", "fsharp", "gdscript",
	"glsl", "go", "graphql", "groovy", "haskell", "hcl", "html", "http", "ini",
	"java", "javascript", "js", "json", "jsx", "julia", "kotlin", "lua", "make",
	"markdown", "matlab", "nasm", "nginx", "nim", "nix", "objective-c", "ocaml",
	"perl", "php", "postgresql", "powershell", "prolog", "protobuf", "py",
	"pycon", "python", "python2", "r", "racket", "rb", "rst", "ruby", "rust",
	"sass", "scala", "scheme", "scss", "solidity", "sql", "swift", "tcl",
	"terraform", "tex", "text", "toml", "ts", "tsx", "typescript", "vbnet", "verilog", "vhdl", "vim",
	"xml", "yaml", "zig",
}

// Styles is the fixed set of highlighting style names, sorted.
var Styles = []string{
	"abap", "algol", "algol_nu", "arduino", "autumn", "borland", "bw", "coffee",
	"colorful", "default", "dracula", "emacs", "friendly", "friendly_grayscale",
	"fruity", "github-dark", "gruvbox-dark", "gruvbox-light", "igor", "inkpot",
	"lightbulb", "lilypond", "lovelace", "manni", "material", "monokai", "murphy",
	"native", "nord", "nord-darker", "one-dark", "paraiso-dark", "paraiso-light",
	"pastie", "perldoc", "rainbow_dash", "rrt", "sas", "solarized-dark",
	"solarized-light", "staroffice", "stata-dark", "stata-light", "tango", "trac",
	"vim", "vs", "xcode", "zenburn",
}

// IsLanguage reports whether name is one of Languages.
func IsLanguage(name string) bool {
	_, ok := slices.BinarySearch(Languages, name)
	return ok
}

// IsStyle reports whether name is one of Styles.
func IsStyle(name string) bool {
	_, ok := slices.BinarySearch(Styles, name)
	return ok
}
