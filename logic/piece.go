package logic

import "fmt"

type Rotation uint8

const (
	R0 Rotation = iota
	R90
	R180
	R270
)

func (r Rotation) CW() Rotation  { return (r + 1) % 4 }
func (r Rotation) CCW() Rotation { return (r + 3) % 4 }

func (r Rotation) String() string {
	return fmt.Sprintf("R%d", int(r%4)*90)
}

type Shape uint8

const (
	ShapeI Shape = iota
	ShapeO
	ShapeT
	ShapeZ
	ShapeS
	ShapeJ
	ShapeL
)

func (s Shape) String() string {
	return string("IOTZSJL"[s%7])
}

// ShapeOf maps a block colour to its tetromino.
func ShapeOf(color Block) Shape {
	switch color {
	case Red:
		return ShapeI
	case Orange:
		return ShapeL
	case Yellow:
		return ShapeO
	case Green:
		return ShapeZ
	case Cyan:
		return ShapeT
	case Blue:
		return ShapeJ
	default:
		return ShapeS
	}
}

const (
	SpawnX = 3
	SpawnY = 0

	// LockTicks is how long a grounded piece may stay active.
	LockTicks = 30
	// GravityUnit is one row worth of gravity; rates are in 1/256 rows per tick.
	GravityUnit = 256
	// DAS is the number of ticks a direction must be held to auto-shift.
	DAS = 16
)

type Piece struct {
	Rotation           Rotation `json:"rotation"`
	Shape              Shape    `json:"shape"`
	Color              Block    `json:"color"`
	X                  int      `json:"x"`
	Y                  int      `json:"y"`
	TicksToNextGravity int      `json:"ticks_to_next_gravity"`
	TicksToLock        int      `json:"ticks_to_lock"`
}

func NewPiece(color Block) Piece {
	return Piece{
		Rotation:           R0,
		Shape:              ShapeOf(color),
		Color:              color,
		X:                  SpawnX,
		Y:                  SpawnY,
		TicksToNextGravity: GravityUnit,
		TicksToLock:        LockTicks,
	}
}

// Map returns the occupancy grid of the piece at rotation r.
func (p *Piece) Map(r Rotation) [][]bool {
	return shapeMaps[p.Shape][r%4]
}

// Cells calls fn with the well coordinates of every occupied cell of the
// piece at its current rotation.
func (p *Piece) Cells(fn func(x, y int)) {
	m := p.Map(p.Rotation)
	for ri, row := range m {
		for ci, filled := range row {
			if filled {
				fn(p.X+ci, p.Y+ri)
			}
		}
	}
}

func (p *Piece) DoSonic(well *Well, inputs *Inputs) {
	if !inputs.KeyJustPressed(Up) {
		return
	}
	for !p.CollidesWith(well, 0, 1, p.Rotation) {
		p.Y++
		p.TicksToLock = LockTicks
		p.TicksToNextGravity = GravityUnit
	}
}

func (p *Piece) DoHorizontal(well *Well, inputs *Inputs) {
	if inputs.KeyPressOrDAS(Left, DAS) {
		if !p.CollidesWith(well, -1, 0, p.Rotation) {
			p.X--
		}
	} else if inputs.KeyPressOrDAS(Right, DAS) {
		if !p.CollidesWith(well, 1, 0, p.Rotation) {
			p.X++
		}
	}
}

func (p *Piece) DoGravity(well *Well, inputs *Inputs, rate int, sounds Sounds) {
	if inputs.KeyPressed(Down) {
		p.TicksToNextGravity -= max(rate, GravityUnit)
	} else {
		p.TicksToNextGravity -= rate
	}

	if p.TicksToNextGravity <= 0 {
		for p.TicksToNextGravity <= 0 {
			if !p.CollidesWith(well, 0, 1, p.Rotation) {
				p.Y++
				p.TicksToLock = LockTicks
			}
			p.TicksToNextGravity += GravityUnit
		}
		p.TicksToNextGravity = GravityUnit
	}

	if p.CollidesWith(well, 0, 1, p.Rotation) {
		if p.TicksToLock == LockTicks {
			sounds.Land()
		}
		p.TicksToLock--
		p.TicksToNextGravity = GravityUnit
	}
}

// DoRotate tries the new rotation in place, then kicked one cell right,
// then one cell left.
func (p *Piece) DoRotate(well *Well, inputs *Inputs) {
	var to Rotation
	switch {
	case inputs.KeyJustPressed(CW):
		to = p.Rotation.CW()
	case inputs.KeyJustPressed(CCW):
		to = p.Rotation.CCW()
	default:
		return
	}
	for _, dx := range [...]int{0, 1, -1} {
		if !p.CollidesWith(well, dx, 0, to) {
			p.Rotation = to
			p.X += dx
			return
		}
	}
}

// DoLock writes the piece into the well when it is grounded and either its
// lock delay ran out or Down is held.
func (p *Piece) DoLock(well *Well, inputs *Inputs, sounds Sounds) bool {
	if !p.CollidesWith(well, 0, 1, p.Rotation) {
		return false
	}
	if p.TicksToLock != 0 && !inputs.KeyPressed(Down) {
		return false
	}
	p.lockTo(well)
	sounds.Lock()
	return true
}

func (p *Piece) lockTo(well *Well) {
	m := p.Map(p.Rotation)
	check := func(ri, ci int) bool {
		if ri < 0 || ci < 0 || ri >= len(m) || ci >= len(m[ri]) {
			return false
		}
		return m[ri][ci]
	}
	for ri, row := range m {
		for ci, filled := range row {
			if !filled {
				continue
			}
			x, y := p.X+ci, p.Y+ri
			if x < 0 || x >= WellCols || y < 0 || y >= WellRows {
				continue
			}
			well.Set(x, y, Tile{
				Color: p.Color,
				Directions: NewBlockDirections(
					check(ri-1, ci),
					check(ri+1, ci),
					check(ri, ci-1),
					check(ri, ci+1),
				),
			})
		}
	}
}

// CollidesWith reports whether the piece, moved by (dx, dy) and turned to r,
// overlaps a wall, the floor or a filled cell. Cells above the top of the
// well only collide with the side walls.
func (p *Piece) CollidesWith(well *Well, dx, dy int, r Rotation) bool {
	m := p.Map(r)
	for ri, row := range m {
		for ci, filled := range row {
			if !filled {
				continue
			}
			y := p.Y + dy + ri
			x := p.X + dx + ci
			if y >= WellRows || x >= WellCols || x < 0 {
				return true
			}
			if y < 0 {
				continue
			}
			if well.Blocks[y][x].Filled {
				return true
			}
		}
	}
	return false
}
