package logic

// DefaultSeed is the seed every fresh randomizer starts from unless one is
// chosen explicitly.
const DefaultSeed uint32 = 10

// Randomizer is a history-based piece generator: it rerolls a few times to
// avoid repeating any of the last four pieces.
type Randomizer struct {
	Seed    uint32   `json:"seed"`
	History [4]uint8 `json:"history"`
}

func NewRandomizer(seed uint32) Randomizer {
	return Randomizer{
		Seed:    seed,
		History: [4]uint8{1, 1, 2, 2},
	}
}

var randomizerColors = [7]Block{Red, Green, Purple, Blue, Orange, Yellow, Cyan}

func (r *Randomizer) rand() uint32 {
	const (
		m    = 0x41C64E6D
		c    = 0x3039
		mask = 0x7FFF
	)
	r.Seed = r.Seed*m + c
	return (r.Seed >> 10) & mask
}

func (r *Randomizer) contains(v uint8) bool {
	for _, h := range r.History {
		if h == v {
			return true
		}
	}
	return false
}

func (r *Randomizer) NextPiece() Piece {
	var v uint8
	for range 5 {
		v = uint8(r.rand() % 7)
		if !r.contains(v) {
			break
		}
		v = uint8(r.rand() % 7)
	}

	copy(r.History[1:], r.History[:3])
	r.History[0] = v

	return NewPiece(randomizerColors[v])
}
