package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// CSSExtractor collects @import targets so stylesheet dependencies
// participate in segment closures.
type CSSExtractor struct{}

func (e *CSSExtractor) Extract(root *sitter.Node, source []byte) []string {
	ctx := &ExtractionContext{Source: source}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"import_statement": e.extractImport,
	})
	engine.Walk(ctx, root)
	return ctx.Specifiers
}

func (e *CSSExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	if target, ok := firstImportTarget(ctx, node); ok {
		ctx.AddSpecifier(target)
	}
	return true
}

// firstImportTarget finds the @import target: either a quoted string value or
// the argument of a url() call.
func firstImportTarget(ctx *ExtractionContext, node *sitter.Node) (string, bool) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "string_value":
			return ctx.Text(child), true
		case "call_expression":
			if target, ok := urlArgument(ctx, child); ok {
				return target, true
			}
		}
	}
	return "", false
}

func urlArgument(ctx *ExtractionContext, call *sitter.Node) (string, bool) {
	for i := uint(0); i < call.ChildCount(); i++ {
		child := call.Child(i)
		if child.Kind() != "arguments" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			arg := child.Child(j)
			if arg.Kind() == "string_value" || arg.Kind() == "plain_value" {
				return ctx.Text(arg), true
			}
		}
	}
	return "", false
}
