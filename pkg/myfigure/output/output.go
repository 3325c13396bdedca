// Package output serializes workbook outlier reports.
package output

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/ukaji3/myfigure-go/pkg/myfigure/models"
)

// ToJSON serializes a WorkbookReport to JSON.
func ToJSON(report *models.WorkbookReport, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(report, "", "  ")
	}
	return json.Marshal(report)
}

// ToTable renders the outliers of a WorkbookReport as a terminal table,
// one row per outlier, sheets in name order.
func ToTable(report *models.WorkbookReport) (string, error) {
	data := pterm.TableData{
		{"Sheet", "Chart", "Group", "Bar", "Series", "Side", "Value", "Range"},
	}

	sheets := make([]string, 0, len(report.Sheets))
	for name := range report.Sheets {
		sheets = append(sheets, name)
	}
	sort.Strings(sheets)

	for _, sheet := range sheets {
		for _, rep := range report.Sheets[sheet] {
			for _, rec := range rep.Outliers {
				data = append(data, []string{
					sheet,
					rep.Chart.Name,
					groupName(rep.Chart, rec),
					strconv.Itoa(rec.BarIndex),
					seriesName(rep.Chart, rec),
					sideStyle(rec.Side).Sprint(string(rec.Side)),
					rec.Label,
					fmt.Sprintf("[%g, %g]", rep.Range.Min, rep.Range.Max),
				})
			}
		}
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return "", err
	}
	summary := fmt.Sprintf("%s: %d outliers", pterm.Bold.Sprint(report.BookName), report.OutlierCount())
	return table + "\n" + summary + "\n", nil
}

func groupName(chart models.Chart, rec models.OutlierRecord) string {
	for _, s := range chart.Series {
		if rec.GroupIndex < len(s.Categories) && s.Categories[rec.GroupIndex] != "" {
			return s.Categories[rec.GroupIndex]
		}
	}
	return strconv.Itoa(rec.GroupIndex)
}

func seriesName(chart models.Chart, rec models.OutlierRecord) string {
	if rec.BarIndex < len(chart.Series) {
		return chart.Series[rec.BarIndex].Name
	}
	return ""
}

func sideStyle(side models.Side) *pterm.Style {
	if side == models.SideHigh {
		return pterm.NewStyle(pterm.FgRed)
	}
	return pterm.NewStyle(pterm.FgBlue)
}
