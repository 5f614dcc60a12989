// Package tui plays replays back in the terminal.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/edrefis/edrefis/logic"
	"github.com/edrefis/edrefis/replay"
)

const tickRate = 60

// Speeds are the playback rates +/- step through.
var Speeds = []float64{0.25, 0.5, 1, 2, 4, 8, 16}

const normalSpeed = 2

var blockColors = [logic.BlockCount]lipgloss.Color{
	logic.Red:    "#e84d4d",
	logic.Orange: "#f0903c",
	logic.Yellow: "#f2d745",
	logic.Green:  "#5ccf5c",
	logic.Cyan:   "#4cd3e0",
	logic.Blue:   "#4a6fe8",
	logic.Purple: "#b45ce0",
}

var (
	wellStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#888888"))
	panelStyle = lipgloss.NewStyle().PaddingLeft(2)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	valueStyle = lipgloss.NewStyle().Bold(true)
	overStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff5050"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	emptyCell  = lipgloss.NewStyle().Foreground(lipgloss.Color("#333333")).Render(" ·")
	blockCells [logic.BlockCount]string
	pieceCells [logic.BlockCount]string
)

func init() {
	for b, c := range blockColors {
		blockCells[b] = lipgloss.NewStyle().Foreground(c).Render("██")
		pieceCells[b] = lipgloss.NewStyle().Foreground(c).Render("▓▓")
	}
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/tickRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model replays one game. Space pauses, + and - change speed, . steps
// while paused, r restarts and q quits.
type Model struct {
	replay  *replay.Replay
	player  *replay.Player
	paused  bool
	speed   int
	pending float64
}

func New(r *replay.Replay) Model {
	return Model{
		replay: r,
		player: replay.NewPlayer(r),
		speed:  normalSpeed,
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "+", "=":
			m.speed = min(m.speed+1, len(Speeds)-1)
		case "-", "_":
			m.speed = max(m.speed-1, 0)
		case ".":
			if m.paused {
				m.player.Step(logic.Nop{}, logic.Nop{})
			}
		case "r":
			m.player = replay.NewPlayer(m.replay)
			m.pending = 0
		}
		return m, nil

	case tickMsg:
		if !m.paused {
			m.pending += Speeds[m.speed]
			for m.pending >= 1 {
				m.pending--
				if !m.player.Step(logic.Nop{}, logic.Nop{}) {
					m.pending = 0
					break
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

// Summary describes how far playback got.
func (m Model) Summary() replay.Summary {
	return m.player.Summary()
}

func (m Model) View() string {
	board := wellStyle.Render(renderWell(m.player.Field))
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, board, panelStyle.Render(m.panel())),
		helpStyle.Render("space pause · +/- speed · . step · r restart · q quit"),
	)
}

func (m Model) panel() string {
	field := m.player.Field
	summary := m.player.Summary()
	row := func(label, value string) string {
		return labelStyle.Render(label) + "\n" + valueStyle.Render(value) + "\n"
	}

	var b strings.Builder
	b.WriteString(row("Player", m.replay.Player))
	b.WriteString(row("Seed", fmt.Sprint(m.replay.Seed)))
	b.WriteString(row("Tick", fmt.Sprintf("%d / %d", summary.Ticks, m.replay.Ticks())))
	b.WriteString(row("Level", fmt.Sprint(field.Level)))
	b.WriteString(row("Lines", fmt.Sprint(field.Lines)))
	b.WriteString(row("Next", field.Next.Color.String()))
	speed := fmt.Sprintf("%gx", Speeds[m.speed])
	if m.paused {
		speed += " (paused)"
	}
	b.WriteString(row("Speed", speed))
	switch {
	case summary.GameOver:
		b.WriteString(overStyle.Render("GAME OVER"))
	case m.player.Done():
		b.WriteString(labelStyle.Render("end of replay"))
	}
	return b.String()
}

func renderWell(field *logic.Field) string {
	var active [logic.WellRows][logic.WellCols]bool
	var activeColor logic.Block
	if piece := field.Active(); piece != nil {
		activeColor = piece.Color
		piece.Cells(func(x, y int) {
			if x >= 0 && x < logic.WellCols && y >= 0 && y < logic.WellRows {
				active[y][x] = true
			}
		})
	}

	var b strings.Builder
	for y, row := range field.Well.Blocks {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x, cell := range row {
			switch {
			case active[y][x]:
				b.WriteString(pieceCells[activeColor])
			case cell.Filled:
				b.WriteString(blockCells[cell.Color])
			default:
				b.WriteString(emptyCell)
			}
		}
	}
	return b.String()
}

// Run plays r in the terminal until the user quits and returns how far
// playback got.
func Run(r *replay.Replay, opts ...tea.ProgramOption) (replay.Summary, error) {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	final, err := tea.NewProgram(New(r), opts...).Run()
	if err != nil {
		return replay.Summary{}, fmt.Errorf("replay viewer: %w", err)
	}
	return final.(Model).Summary(), nil
}
