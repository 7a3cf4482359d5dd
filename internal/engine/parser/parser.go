package parser

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"manifold/internal/shared/observability"
)

// Extractor pulls raw import specifiers out of a parsed syntax tree.
type Extractor interface {
	Extract(root *sitter.Node, source []byte) []string
}

// Parser maps file paths to grammars and extractors and produces the set of
// raw import specifiers a file references.
type Parser struct {
	loader     *GrammarLoader
	extractors map[string]Extractor
	extensions map[string]string // extension -> language
}

func NewParser() *Parser {
	js := &JavaScriptExtractor{}
	return &Parser{
		loader: NewGrammarLoader(),
		extractors: map[string]Extractor{
			"javascript": js,
			"typescript": js,
			"tsx":        js,
			"css":        &CSSExtractor{},
		},
		extensions: map[string]string{
			".js":  "javascript",
			".jsx": "javascript",
			".mjs": "javascript",
			".cjs": "javascript",
			".ts":  "typescript",
			".mts": "typescript",
			".cts": "typescript",
			".tsx": "tsx",
			".css": "css",
		},
	}
}

// ParseImports returns the distinct raw import specifiers referenced by the
// given file content. Non-module kinds yield no specifiers, and a file that
// fails to parse is treated as having no dependencies rather than as an error.
func (p *Parser) ParseImports(path string, content []byte) []string {
	lang := p.detectLanguage(path)
	if lang == "" {
		return nil
	}

	grammar := p.loader.Language(lang)
	extractor := p.extractors[lang]
	if grammar == nil || extractor == nil {
		return nil
	}

	start := time.Now()
	defer func() {
		observability.ParsingDuration.WithLabelValues(lang).Observe(time.Since(start).Seconds())
	}()

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	specifiers := extractor.Extract(tree.RootNode(), content)
	sort.Strings(specifiers)
	return specifiers
}

// IsModulePath reports whether the path names a kind this parser can extract
// imports from.
func (p *Parser) IsModulePath(path string) bool {
	return p.detectLanguage(path) != ""
}

func (p *Parser) detectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return p.extensions[ext]
}

// SupportedExtensions lists the extensions of parseable module kinds, sorted.
func (p *Parser) SupportedExtensions() []string {
	out := make([]string, 0, len(p.extensions))
	for ext := range p.extensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
