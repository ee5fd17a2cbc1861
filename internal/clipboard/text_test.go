package clipboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/arbor/internal/models"
)

func TestRenderUsesIndentAndGlyphs(t *testing.T) {
	snaps := []Snapshot{
		{Content: "a", Children: []Snapshot{
			{Content: "b", TaskStatus: models.TaskActive, Children: []Snapshot{{Content: "c"}}},
			{Content: "d", TaskStatus: models.TaskCancelled},
		}},
		{Content: "e"},
	}
	want := "a\n    ☐ b\n        c\n    ✗ d\ne"
	assert.Equal(t, want, Render(snaps, 4))
	assert.Equal(t, snaps, Parse(want, 4))
}

func TestParseMarkdownAndTabs(t *testing.T) {
	text := "- groceries\n\t- ☑ milk\n\t- eggs\n\n- chores\r\n        - too deep"
	got := Parse(text, 4)
	require.Len(t, got, 2)
	assert.Equal(t, "groceries", got[0].Content)
	require.Len(t, got[0].Children, 2)
	assert.Equal(t, models.TaskComplete, got[0].Children[0].TaskStatus)
	assert.Equal(t, "milk", got[0].Children[0].Content)
	assert.Equal(t, "eggs", got[0].Children[1].Content)

	require.Len(t, got[1].Children, 1, "a jump of two levels nests one level")
	assert.Equal(t, "too deep", got[1].Children[0].Content)
}

func TestYAMLKeepsTaskFields(t *testing.T) {
	p := 4
	snaps := []Snapshot{{Content: "x", TaskStatus: models.TaskComplete, Priority: &p,
		Children: []Snapshot{{Content: "y"}}}}
	data, err := MarshalYAML(snaps)
	require.NoError(t, err)
	got, err := UnmarshalYAML(data)
	require.NoError(t, err)
	assert.Equal(t, snaps, got)

	list, err := UnmarshalYAML([]byte("- content: bare\n"))
	require.NoError(t, err)
	assert.Equal(t, []Snapshot{{Content: "bare"}}, list)

	_, err = UnmarshalYAML([]byte("notes:\n  - content: x\n    status: maybe\n"))
	assert.Error(t, err)
}
