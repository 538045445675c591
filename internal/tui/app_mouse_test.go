package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/salesdash/internal/tui/components"
)

func TestTabAtXMatchesTabWidths(t *testing.T) {
	n := len(components.Tabs)
	for active := 0; active < n; active++ {
		a := App{activeTab: active}
		pos := 0

		for i := 0; i < n; i++ {
			w := tabWidthForTest(i)
			x := pos + w/2 // midpoint inside this tab
			require.Equal(t, i, a.tabAtX(x), "active=%d x=%d", active, x)
			pos += w
			if i < n-1 {
				pos++ // separator
			}
		}

		assert.Equal(t, -1, a.tabAtX(pos+5), "active=%d x past last tab", active)
	}
}

func tabWidthForTest(tabIdx int) int {
	nameWidths := []int{
		len("Overview"),
		len("Breakdown"),
		len("Monthly"),
	}
	return nameWidths[tabIdx] + 2 // horizontal padding in tab renderer
}
