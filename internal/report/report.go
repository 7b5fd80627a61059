package report

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/user/hundred-acre-realm/internal/scoring"
	"github.com/user/hundred-acre-realm/internal/types"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFA500")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Padding(0, 1)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5FD75F")).
		Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3C3C3C"))

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
)

const statusColumn = 1

// Batch renders one row per processed session and a closing tally
func Batch(results []types.SessionSummary) string {
	rows := make([][]string, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.Status == types.StatusFailed {
			failed++
		}
		rows = append(rows, []string{
			r.Name,
			r.Status,
			strconv.Itoa(r.DayCount),
			strconv.Itoa(r.CharacterCount),
			r.Title,
			r.Error,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("SESSION", "STATUS", "DAYS", "CHARACTERS", "TITLE", "ERROR").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == statusColumn && row >= 0 && row < len(rows) {
				if rows[row][statusColumn] == types.StatusFailed {
					return failedStyle
				}
				return okStyle
			}
			return cellStyle
		})

	tally := summaryStyle.Render(fmt.Sprintf("%d sessions, %d succeeded, %d failed",
		len(results), len(results)-failed, failed))

	return lipgloss.JoinVertical(lipgloss.Left, t.String(), tally)
}

// Scores renders the final score breakdown, highest total first
func Scores(records map[string]scoring.Record) string {
	ranked := scoring.Ranking(records)
	rows := make([][]string, 0, len(ranked))
	for _, r := range ranked {
		rows = append(rows, []string{
			r.Character,
			strconv.Itoa(r.GreatTreasures.BasicScore + r.GreatTreasures.BonusScore),
			strconv.Itoa(r.Spells.BasicScore + r.Spells.BonusScore),
			strconv.Itoa(r.Fame.BasicScore + r.Fame.BonusScore),
			strconv.Itoa(r.Notoriety.BasicScore + r.Notoriety.BonusScore),
			strconv.Itoa(r.Gold.BasicScore + r.Gold.BonusScore),
			strconv.Itoa(r.TotalScore),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("CHARACTER", "GT", "SPELLS", "FAME", "NOTORIETY", "GOLD", "TOTAL").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}
