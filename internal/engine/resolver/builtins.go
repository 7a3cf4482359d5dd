package resolver

import "strings"

// nodeBuiltins are runtime-provided modules; importing them never creates a
// file edge.
var nodeBuiltins = map[string]bool{
	"assert": true, "async_hooks": true, "buffer": true, "child_process": true,
	"cluster": true, "console": true, "constants": true, "crypto": true,
	"dgram": true, "diagnostics_channel": true, "dns": true, "domain": true,
	"events": true, "fs": true, "http": true, "http2": true, "https": true,
	"inspector": true, "module": true, "net": true, "os": true, "path": true,
	"perf_hooks": true, "process": true, "punycode": true, "querystring": true,
	"readline": true, "repl": true, "stream": true, "string_decoder": true,
	"timers": true, "tls": true, "trace_events": true, "tty": true, "url": true,
	"util": true, "v8": true, "vm": true, "wasi": true, "worker_threads": true,
	"zlib": true,
}

// IsBuiltin reports whether the specifier names a runtime built-in module,
// including the explicit "node:" scheme and subpaths like "fs/promises".
func IsBuiltin(specifier string) bool {
	if strings.HasPrefix(specifier, "node:") {
		return true
	}
	base := specifier
	if idx := strings.IndexByte(base, '/'); idx >= 0 {
		base = base[:idx]
	}
	return nodeBuiltins[base]
}
