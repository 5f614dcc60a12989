// Package shaders embeds the WGSL programs used by gfx.
package shaders

import _ "embed"

//go:embed quad.wgsl
var Quad string

//go:embed tiles.wgsl
var Tiles string
