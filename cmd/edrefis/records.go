//go:build !js

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/edrefis/edrefis"
	"github.com/edrefis/edrefis/store"
)

var recordsLimit int

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List the best recorded games",
	Args:  cobra.NoArgs,
	RunE:  runRecords,
}

func init() {
	recordsCmd.Flags().IntVarP(&recordsLimit, "limit", "n", 10, "Number of games to list")
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func runRecords(cmd *cobra.Command, args []string) error {
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	games, err := db.TopGames(cmd.Context(), recordsLimit)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no games recorded yet")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), recordsTable(games))
	return nil
}

func recordsTable(games []store.Game) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Player", "Level", "Lines", "Time", "Finished", "ID").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for i, g := range games {
		t.Row(
			strconv.Itoa(i+1),
			g.Player,
			strconv.FormatUint(uint64(g.Level), 10),
			strconv.FormatUint(uint64(g.Lines), 10),
			playTime(g.Ticks).String(),
			g.FinishedAt.Local().Format(time.DateTime),
			g.ID.String(),
		)
	}
	return t.Render()
}

func playTime(ticks uint64) time.Duration {
	return (time.Duration(ticks) * edrefis.TickPeriod).Round(10 * time.Millisecond)
}
