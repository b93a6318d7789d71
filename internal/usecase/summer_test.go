package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/swe-api/internal/domain"
)

// bareSpan fills one calendar year of a pixel with snow except for days
// [from, from+n) of that year.
func bareSpan(c *domain.Cube, yearStart, from, n, r, col int) {
	for d := 0; d < 365; d++ {
		v := 20.0
		if d >= from && d < from+n {
			v = 0
		}
		c.Set(yearStart+d, r, col, v)
	}
}

func TestAnalyzeSummers(t *testing.T) {
	// 2001 and 2002 are both 365 days long
	c := domain.NewCube(730, 1, 3)
	bareSpan(c, 0, 150, 60, 0, 0)
	bareSpan(c, 365, 150, 70, 0, 0)
	bareSpan(c, 0, 160, 40, 0, 1)
	bareSpan(c, 365, 160, 30, 0, 1)
	c.MarkOcean(0, 2)

	res, change, err := AnalyzeSummers(c, time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, []int{2001, 2002}, res.Years)
	assert.InDelta(t, 50.0, res.MeanLength[2001], 1e-9)
	assert.InDelta(t, 50.0, res.MeanLength[2002], 1e-9)
	assert.InDelta(t, 10.0, change.At(0, 0, 0), 1e-9)
	assert.InDelta(t, -10.0, change.At(0, 0, 1), 1e-9)
	assert.True(t, domain.IsOcean(change.At(0, 0, 2)))

	require.NotNil(t, res.MeanChange)
	assert.InDelta(t, 0.0, *res.MeanChange, 1e-9)
	assert.Equal(t, 2, res.ChangePixels)
}

func TestAnalyzeSummers_SingleYear(t *testing.T) {
	c := domain.NewCube(365, 1, 1)
	bareSpan(c, 0, 100, 10, 0, 0)

	res, _, err := AnalyzeSummers(c, time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, res.MeanChange)
	assert.Equal(t, 0, res.ChangePixels)
	assert.InDelta(t, 10.0, res.MeanLength[2005], 1e-9)
}

func TestAnalyzeSummers_NeedsStart(t *testing.T) {
	_, _, err := AnalyzeSummers(domain.NewCube(2, 1, 1), time.Time{})
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}
