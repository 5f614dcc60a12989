// Package web holds the page that hosts the WebAssembly build.
package web

import "embed"

// Files is index.html. The server adds edrefis.wasm and wasm_exec.js
// from the build output under /dist/.
//
//go:embed index.html
var Files embed.FS
