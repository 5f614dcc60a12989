package logic

// Sounds receives gameplay audio cues.
type Sounds interface {
	BlockSpawn(next Block)
	LineClear()
	Lock()
	Land()
}

// Cubes receives one call per tile removed by a line clear.
type Cubes interface {
	SpawnCube(x, y int, color Block)
}

// Nop ignores every hook.
type Nop struct{}

func (Nop) BlockSpawn(Block)          {}
func (Nop) LineClear()                {}
func (Nop) Lock()                     {}
func (Nop) Land()                     {}
func (Nop) SpawnCube(int, int, Block) {}
