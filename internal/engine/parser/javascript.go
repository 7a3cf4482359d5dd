package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// JavaScriptExtractor collects raw import specifiers from JS/TS/TSX syntax
// trees: static imports, re-exports, require() calls, and dynamic import()
// expressions. Computed specifiers are skipped; they cannot be resolved
// statically.
type JavaScriptExtractor struct{}

func (e *JavaScriptExtractor) Extract(root *sitter.Node, source []byte) []string {
	ctx := &ExtractionContext{Source: source}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"import_statement": e.extractSource,
		"export_statement": e.extractSource,
		"call_expression":  e.extractCall,
	})
	engine.Walk(ctx, root)
	return ctx.Specifiers
}

// extractSource handles `import ... from "m"`, `import "m"` and
// `export ... from "m"`. Plain export declarations carry no source field.
func (e *JavaScriptExtractor) extractSource(ctx *ExtractionContext, node *sitter.Node) bool {
	source := node.ChildByFieldName("source")
	if source == nil {
		return false
	}
	if source.Kind() == "string" {
		ctx.AddSpecifier(ctx.Text(source))
	}
	return true
}

// extractCall handles `require("m")` and dynamic `import("m")`.
func (e *JavaScriptExtractor) extractCall(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return false
	}

	isRequire := fn.Kind() == "identifier" && ctx.Text(fn) == "require"
	isDynamicImport := fn.Kind() == "import"
	if !isRequire && !isDynamicImport {
		return false
	}

	args := node.ChildByFieldName("arguments")
	if args == nil {
		return false
	}
	for i := uint(0); i < args.ChildCount(); i++ {
		arg := args.Child(i)
		switch arg.Kind() {
		case "string":
			ctx.AddSpecifier(ctx.Text(arg))
			return false
		case "template_string":
			if literal, ok := literalTemplate(ctx, arg); ok {
				ctx.AddSpecifier(literal)
			}
			return false
		case "(", ")", ",", "comment":
			continue
		default:
			// First argument is computed; nothing to extract.
			return false
		}
	}
	return false
}

// literalTemplate returns the text of a template string that carries no
// substitutions, which makes it as good as a plain literal.
func literalTemplate(ctx *ExtractionContext, node *sitter.Node) (string, bool) {
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == "template_substitution" {
			return "", false
		}
	}
	return ctx.Text(node), true
}
