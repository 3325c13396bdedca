package myfigure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOptionsAreValid(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(o *Options)
		err    error
	}{
		{"zero rows", func(o *Options) { o.Rows = 0 }, ErrInvalidOption},
		{"negative cols", func(o *Options) { o.Cols = -1 }, ErrInvalidOption},
		{"zero width", func(o *Options) { o.Width = 0 }, ErrInvalidOption},
		{"zero height", func(o *Options) { o.Height = 0 }, ErrInvalidOption},
		{"zero legend columns", func(o *Options) { o.LegendNcols = []int{0} }, ErrInvalidOption},
		{"unknown legend location", func(o *Options) { o.LegendLoc = []string{"somewhere"} }, ErrInvalidOption},
		{"unknown palette", func(o *Options) { o.ColorPalette = "neon" }, ErrInvalidOption},
		{"unknown style", func(o *Options) { o.Style = "fancy" }, ErrInvalidOption},
		{"negative decimals", func(o *Options) { o.OutlierDecimals = -1 }, ErrInvalidOption},
		{"too few letters", func(o *Options) { o.Rows = 2; o.AnnotateLetters = []string{"a"} }, ErrSizeMismatch},
		{"legend location is case insensitive", func(o *Options) { o.LegendLoc = []string{"Upper Left"} }, nil},
		{"palette is case insensitive", func(o *Options) { o.ColorPalette = "Colorblind" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.modify(&o)
			err := o.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestAnalyzeOptionsIncludeEmpty(t *testing.T) {
	o := DefaultAnalyzeOptions()
	assert.False(t, o.ShouldIncludeEmpty())

	yes := true
	o.IncludeEmpty = &yes
	assert.True(t, o.ShouldIncludeEmpty())
}

func TestNewTheme(t *testing.T) {
	o := DefaultOptions()
	o.ColorPaletteNColors = 3
	o.Style = "darkgrid"
	theme, err := NewTheme(o)
	assert.NoError(t, err)
	assert.Len(t, theme.Palette, 3)
	assert.True(t, theme.Grid)
	assert.Equal(t, theme.Color(0), theme.Color(3))

	o.TextFont = "DejaVu Serif"
	theme, err = NewTheme(o)
	assert.NoError(t, err)
	assert.Equal(t, "Serif", string(theme.Font.Variant))
}
