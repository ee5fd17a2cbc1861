package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/arbor/internal/instant"
)

var fixedNow = time.Date(2025, time.June, 10, 14, 30, 0, 0, time.UTC)

func testParser() *Parser {
	return New(instant.New(
		instant.WithClock(func() time.Time { return fixedNow }),
		instant.WithLocation(time.UTC),
	))
}

func ptr(n int) *int { return &n }

func TestParse_PriorityAndDue(t *testing.T) {
	res := testParser().Parse("Buy milk due tomorrow 5pm p2")

	assert.Equal(t, "Buy milk", res.Content)
	require.NotNil(t, res.Priority)
	assert.Equal(t, 2, *res.Priority)
	require.NotNil(t, res.Due)
	assert.True(t, res.Due.Equal(time.Date(2025, time.June, 11, 17, 0, 0, 0, time.UTC)), "due = %v", res.Due)
	assert.Nil(t, res.Start)
	assert.Empty(t, res.Warnings)
}

func TestParse_UnresolvedDueIsKept(t *testing.T) {
	res := testParser().Parse("abc due zzzzz")

	assert.Equal(t, "abc due zzzzz", res.Content)
	assert.Nil(t, res.Due)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "zzzzz")
}

func TestParse_OutOfRangePriority(t *testing.T) {
	res := testParser().Parse("call bob p9")

	assert.Equal(t, "call bob p9", res.Content)
	assert.Nil(t, res.Priority)
}

func TestParse_DueThenStartSplitAtKeyword(t *testing.T) {
	res := testParser().Parse("Plan trip due friday start tomorrow P1")

	assert.Equal(t, "Plan trip", res.Content)
	assert.Equal(t, ptr(1), res.Priority)
	require.NotNil(t, res.Due)
	require.NotNil(t, res.Start)
	assert.Equal(t, time.Friday, res.Due.Weekday())
	assert.True(t, res.Start.Equal(time.Date(2025, time.June, 11, 9, 0, 0, 0, time.UTC)), "start = %v", res.Start)
}

func TestParse_StartBoundedByUnresolvedDue(t *testing.T) {
	res := testParser().Parse("write report start today due whenever")

	assert.Equal(t, "write report due whenever", res.Content)
	require.NotNil(t, res.Start)
	assert.Nil(t, res.Due)
	assert.Len(t, res.Warnings, 1)
}

func TestParse_PriorityNeedsWordBoundary(t *testing.T) {
	for _, in := range []string{"setup2", "top3", "p2x"} {
		res := testParser().Parse(in)
		assert.Nil(t, res.Priority, in)
		assert.Equal(t, in, res.Content)
	}

	res := testParser().Parse("p0")
	assert.Equal(t, ptr(0), res.Priority)
	assert.Equal(t, "", res.Content)
}

func TestParse_NoMiniLanguage(t *testing.T) {
	res := testParser().Parse("  just   some\ttext  ")
	assert.Equal(t, "just some text", res.Content)
	assert.Nil(t, res.Priority)
	assert.Nil(t, res.Due)
	assert.Nil(t, res.Start)
}

func TestParse_KeywordInsideWordIgnored(t *testing.T) {
	res := testParser().Parse("overdue restart tomorrow")
	assert.Equal(t, "overdue restart tomorrow", res.Content)
	assert.Nil(t, res.Due)
	assert.Nil(t, res.Start)
}

func TestNormalize_PerLine(t *testing.T) {
	got := Normalize("first   line \n\t second\tline\n\nlast  ")
	assert.Equal(t, "first line\nsecond line\n\nlast", got)
}

func TestParse_MultiLineKeepsBreaks(t *testing.T) {
	res := testParser().Parse("shopping  list\n  eggs   and milk due tomorrow")
	assert.Equal(t, "shopping list\neggs and milk", res.Content)
	require.NotNil(t, res.Due)
}
