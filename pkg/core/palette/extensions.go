package palette

import "strings"

// Neutral is the fill for files whose extension has no known color.
const Neutral = "#CED6E0"

// extensionColors maps file extensions to the language colors published by
// github/linguist.
var extensionColors = map[string]string{
	"asm":        "#6E4C13",
	"astro":      "#ff5a03",
	"bash":       "#89e051",
	"bat":        "#C1F12E",
	"c":          "#555555",
	"cc":         "#f34b7d",
	"cjs":        "#f1e05a",
	"clj":        "#db5855",
	"cljs":       "#db5855",
	"cmake":      "#DA3434",
	"coffee":     "#244776",
	"cpp":        "#f34b7d",
	"cs":         "#178600",
	"css":        "#563d7c",
	"csv":        "#237346",
	"cxx":        "#f34b7d",
	"d":          "#ba595e",
	"dart":       "#00B4AB",
	"dockerfile": "#384d54",
	"ejs":        "#a91e50",
	"elm":        "#60B5CC",
	"erb":        "#701516",
	"erl":        "#B83998",
	"ex":         "#6e4a7e",
	"exs":        "#6e4a7e",
	"f90":        "#4d41b1",
	"fs":         "#b845fc",
	"gd":         "#355570",
	"go":         "#00ADD8",
	"gradle":     "#02303A",
	"graphql":    "#e10098",
	"groovy":     "#4298b8",
	"h":          "#555555",
	"haml":       "#ece2a9",
	"hcl":        "#844FBA",
	"hpp":        "#f34b7d",
	"hs":         "#5e5086",
	"html":       "#e34c26",
	"hx":         "#df7900",
	"ipynb":      "#DA5B0B",
	"java":       "#b07219",
	"jl":         "#a270ba",
	"js":         "#f1e05a",
	"json":       "#292929",
	"jsonc":      "#292929",
	"jsx":        "#f1e05a",
	"kt":         "#A97BFF",
	"kts":        "#A97BFF",
	"less":       "#1d365d",
	"liquid":     "#67b8de",
	"lua":        "#000080",
	"m":          "#438eff",
	"md":         "#083fa1",
	"mdx":        "#fcb32c",
	"mjs":        "#f1e05a",
	"mk":         "#427819",
	"ml":         "#3be133",
	"mm":         "#6866fb",
	"nim":        "#ffc200",
	"nix":        "#7e7eff",
	"php":        "#4F5D95",
	"pl":         "#0298c3",
	"ps1":        "#012456",
	"pug":        "#a86454",
	"py":         "#3572A5",
	"pyi":        "#3572A5",
	"r":          "#198CE7",
	"rb":         "#701516",
	"rs":         "#dea584",
	"rst":        "#141414",
	"sass":       "#a53b70",
	"scala":      "#c22d40",
	"scss":       "#c6538c",
	"sh":         "#89e051",
	"sol":        "#AA6746",
	"sql":        "#e38c00",
	"svelte":     "#ff3e00",
	"svg":        "#ff9900",
	"swift":      "#F05138",
	"tex":        "#3D6117",
	"tf":         "#844FBA",
	"toml":       "#9c4221",
	"ts":         "#3178c6",
	"tsx":        "#3178c6",
	"twig":       "#c1d026",
	"vb":         "#945db7",
	"vim":        "#199f4b",
	"vue":        "#41b883",
	"xml":        "#0060ac",
	"yaml":       "#cb171e",
	"yml":        "#cb171e",
	"zig":        "#ec915c",
	"zsh":        "#89e051",
}

// ExtensionColor returns the known color for ext. Lookups are
// case-insensitive.
func ExtensionColor(ext string) (string, bool) {
	c, ok := extensionColors[strings.ToLower(ext)]
	return c, ok
}

// Recognized reports whether ext has a known color.
func Recognized(ext string) bool {
	_, ok := ExtensionColor(ext)
	return ok
}

// TypeColor returns the fill for a file with extension ext, or Neutral.
func TypeColor(ext string) string {
	if c, ok := ExtensionColor(ext); ok {
		return c
	}
	return Neutral
}

// DominantExtension returns the most frequent non-empty extension in exts.
// Ties resolve to the extension seen first.
func DominantExtension(exts []string) string {
	counts := make(map[string]int, len(exts))
	var order []string
	for _, e := range exts {
		if e == "" {
			continue
		}
		if counts[e] == 0 {
			order = append(order, e)
		}
		counts[e]++
	}
	best, bestCount := "", 0
	for _, e := range order {
		if counts[e] > bestCount {
			best, bestCount = e, counts[e]
		}
	}
	return best
}
