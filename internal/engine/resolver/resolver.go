package resolver

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"manifold/internal/shared/util"
)

type aliasRule struct {
	prefix string
	target string // source-root-relative directory
}

// Resolver turns raw import specifiers into absolute file paths inside the
// source root. External packages, runtime built-ins and out-of-root targets
// resolve to nothing; a failed resolution simply omits the edge.
type Resolver struct {
	sourceRoot string
	aliases    []aliasRule
	extensions []string
}

func NewResolver(sourceRoot string, aliases map[string]string, extensions []string) *Resolver {
	rules := make([]aliasRule, 0, len(aliases))
	for prefix, target := range aliases {
		rules = append(rules, aliasRule{prefix: prefix, target: target})
	}
	// Longest prefix wins so "@/components/" can shadow "@/".
	sort.Slice(rules, func(i, j int) bool {
		if len(rules[i].prefix) != len(rules[j].prefix) {
			return len(rules[i].prefix) > len(rules[j].prefix)
		}
		return rules[i].prefix < rules[j].prefix
	})

	return &Resolver{
		sourceRoot: filepath.Clean(sourceRoot),
		aliases:    rules,
		extensions: append([]string(nil), extensions...),
	}
}

// Resolve maps a raw specifier, imported from fromFile, to an absolute path
// inside the source root. The second return is false when the specifier is
// external, built-in, unresolvable, or out of root.
func (r *Resolver) Resolve(specifier, fromFile string) (string, bool) {
	specifier = strings.TrimSpace(specifier)
	if specifier == "" || IsBuiltin(specifier) {
		return "", false
	}

	candidate := r.rewriteAlias(specifier)
	switch {
	case candidate != "":
	case strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") || specifier == "." || specifier == "..":
		candidate = filepath.Join(filepath.Dir(fromFile), filepath.FromSlash(specifier))
	case filepath.IsAbs(specifier):
		candidate = filepath.Clean(specifier)
	default:
		// Bare package name: external, out of scope.
		return "", false
	}

	resolved, ok := r.probe(candidate)
	if !ok {
		return "", false
	}
	if !r.withinRoot(resolved) {
		return "", false
	}
	return resolved, true
}

func (r *Resolver) rewriteAlias(specifier string) string {
	for _, rule := range r.aliases {
		if strings.HasPrefix(specifier, rule.prefix) {
			rest := strings.TrimPrefix(specifier, rule.prefix)
			return filepath.Join(r.sourceRoot, filepath.FromSlash(rule.target), filepath.FromSlash(rest))
		}
	}
	return ""
}

// probe applies extension/index-file probing. A specifier that already
// carries an extension is the single candidate; traversal drops it later if
// it does not exist.
func (r *Resolver) probe(candidate string) (string, bool) {
	if filepath.Ext(candidate) != "" {
		return candidate, true
	}

	for _, ext := range r.extensions {
		direct := candidate + ext
		if fileExists(direct) {
			return direct, true
		}
		index := filepath.Join(candidate, "index"+ext)
		if fileExists(index) {
			return index, true
		}
	}
	return "", false
}

func (r *Resolver) withinRoot(path string) bool {
	return util.HasPathPrefix(filepath.ToSlash(path), filepath.ToSlash(r.sourceRoot))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
