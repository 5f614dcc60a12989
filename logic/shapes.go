package logic

type pieceMap [][]bool

const (
	o = false // empty
	x = true  // filled
)

var shapeMaps = [7][4]pieceMap{
	ShapeI: {
		{{o, o, o, o}, {x, x, x, x}, {o, o, o, o}, {o, o, o, o}},
		{{o, o, x, o}, {o, o, x, o}, {o, o, x, o}, {o, o, x, o}},
		{{o, o, o, o}, {x, x, x, x}, {o, o, o, o}, {o, o, o, o}},
		{{o, o, x, o}, {o, o, x, o}, {o, o, x, o}, {o, o, x, o}},
	},
	ShapeO: {
		{{o, o, o, o}, {o, x, x, o}, {o, x, x, o}, {o, o, o, o}},
		{{o, o, o, o}, {o, x, x, o}, {o, x, x, o}, {o, o, o, o}},
		{{o, o, o, o}, {o, x, x, o}, {o, x, x, o}, {o, o, o, o}},
		{{o, o, o, o}, {o, x, x, o}, {o, x, x, o}, {o, o, o, o}},
	},
	ShapeT: {
		{{o, o, o}, {x, x, x}, {o, x, o}},
		{{o, x, o}, {x, x, o}, {o, x, o}},
		{{o, o, o}, {o, x, o}, {x, x, x}},
		{{o, x, o}, {o, x, x}, {o, x, o}},
	},
	ShapeZ: {
		{{o, o, o}, {x, x, o}, {o, x, x}},
		{{o, o, x}, {o, x, x}, {o, x, o}},
		{{o, o, o}, {x, x, o}, {o, x, x}},
		{{o, o, x}, {o, x, x}, {o, x, o}},
	},
	ShapeS: {
		{{o, o, o}, {o, x, x}, {x, x, o}},
		{{x, o, o}, {x, x, o}, {o, x, o}},
		{{o, o, o}, {o, x, x}, {x, x, o}},
		{{x, o, o}, {x, x, o}, {o, x, o}},
	},
	ShapeJ: {
		{{o, o, o}, {x, x, x}, {o, o, x}},
		{{o, x, o}, {o, x, o}, {x, x, o}},
		{{o, o, o}, {x, o, o}, {x, x, x}},
		{{o, x, x}, {o, x, o}, {o, x, o}},
	},
	ShapeL: {
		{{o, o, o}, {x, x, x}, {x, o, o}},
		{{x, x, o}, {o, x, o}, {o, x, o}},
		{{o, o, o}, {o, o, x}, {x, x, x}},
		{{o, x, o}, {o, x, o}, {o, x, x}},
	},
}
