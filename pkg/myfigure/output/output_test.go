package output

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/myfigure-go/pkg/myfigure/models"
)

func sampleReport() *models.WorkbookReport {
	chart := models.Chart{
		Name:      "Chart 1",
		ChartType: "Bar",
		Series: []models.ChartSeries{
			{Name: "Control", Categories: []string{"d1", "d2"}, Values: []float64{1, 50}},
			{Name: "Treated", Values: []float64{math.Inf(1), 2}},
		},
	}
	return &models.WorkbookReport{
		BookName: "book.xlsx",
		Sheets: map[string][]models.ChartReport{
			"Sheet1": {{
				Chart: chart,
				Range: models.VisibleRange{Min: 0, Max: 10},
				Outliers: []models.OutlierRecord{
					{GroupIndex: 1, BarIndex: 0, Mean: 50, Side: models.SideHigh, X: 0.8, Y: 0.98, Label: "50.00"},
					{GroupIndex: 0, BarIndex: 1, Mean: math.Inf(1), Side: models.SideHigh, X: 0.2, Y: 0.98, Label: "inf"},
				},
			}},
		},
	}
}

func TestToJSON(t *testing.T) {
	data, err := ToJSON(sampleReport(), false)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\n")

	var decoded models.WorkbookReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "book.xlsx", decoded.BookName)
	recs := decoded.Sheets["Sheet1"][0].Outliers
	require.Len(t, recs, 2)
	assert.True(t, math.IsInf(recs[1].Mean, 1))
	assert.True(t, math.IsInf(decoded.Sheets["Sheet1"][0].Chart.Series[1].Values[0], 1))

	pretty, err := ToJSON(sampleReport(), true)
	require.NoError(t, err)
	assert.Contains(t, string(pretty), "\n  \"book_name\": \"book.xlsx\"")
}

func TestToTable(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	table, err := ToTable(sampleReport())
	require.NoError(t, err)

	for _, want := range []string{"Sheet1", "Chart 1", "d2", "Control", "Treated", "50.00", "inf", "[0, 10]", "book.xlsx: 2 outliers"} {
		assert.Contains(t, table, want)
	}
}

func TestToTableEmpty(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	table, err := ToTable(&models.WorkbookReport{BookName: "empty.xlsx"})
	require.NoError(t, err)
	assert.Contains(t, table, "Sheet")
	assert.Contains(t, table, "empty.xlsx: 0 outliers")
}
