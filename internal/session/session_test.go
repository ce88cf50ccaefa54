package session

import (
	stderrors "errors"
	"testing"

	"github.com/mcncl/jsonsampler/internal/config"
	"github.com/mcncl/jsonsampler/internal/errors"
	"github.com/mcncl/jsonsampler/internal/models"
	"github.com/mcncl/jsonsampler/internal/parser"
	"github.com/mcncl/jsonsampler/internal/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) (*Session, []models.Document) {
	t.Helper()
	docs := []models.Document{
		parser.NewDocument("a.json", []byte(`{"id": 1, "user": {"name": "Ada", "email": "ada@example.com"}, "items": [{"sku": "A1", "qty": 2}]}`)),
		parser.NewDocument("b.json", []byte(`{"id": 2, "user": {"name": "Bob"}, "note": "late"}`)),
		parser.NewDocument("c.json", []byte(`{"id": `)),
	}
	s := New(nil, nil)
	s.Add(docs...)
	return s, docs
}

func TestSession_AddRebuilds(t *testing.T) {
	s, _ := newSession(t)

	pm := s.Properties()
	require.NotNil(t, pm)
	assert.Len(t, s.Documents(), 3)
	assert.Equal(t, "2/2", pm["id"].FrequencyText, "invalid documents do not count")
	assert.Equal(t, "1/2", pm["note"].FrequencyText)
	assert.True(t, pm["user"].HasChildren)
	assert.Empty(t, s.Expanded(), "collapsed by default")
}

func TestSession_EmptyHasNoProperties(t *testing.T) {
	s := New(nil, nil)
	assert.Nil(t, s.Properties())
	assert.Nil(t, s.Stats())
	assert.Nil(t, s.Tree())

	s.Add(parser.NewDocument("bad.json", []byte(`nope`)))
	assert.Nil(t, s.Properties())

	_, err := s.Template()
	assert.True(t, stderrors.Is(err, errors.ErrNoValidDocuments))
}

func TestSession_RemovePrunesSelection(t *testing.T) {
	s, docs := newSession(t)
	require.NoError(t, s.ApplyDelta([]string{"note", "user.name"}, selection.ModeSelect))
	require.NoError(t, s.SetArrayCount("items", 3))

	assert.True(t, s.Remove(docs[1].ID))
	assert.False(t, s.Remove("missing"))

	assert.Nil(t, s.Properties()["note"])
	assert.Equal(t, []string{"user", "user.name"}, s.Selection().Sorted())

	require.NoError(t, s.Toggle("items[0].sku"))
	assert.Equal(t, 3, s.ArrayConfig()["items"].Count, "counts for surviving arrays are kept")

	assert.True(t, s.Remove(docs[0].ID))
	assert.Nil(t, s.Properties())
	assert.Empty(t, s.Selection())
}

func TestSession_Clear(t *testing.T) {
	s, _ := newSession(t)
	s.SelectAll()
	s.Clear()
	assert.Empty(t, s.Documents())
	assert.Empty(t, s.Selection())
}

func TestSession_Toggle(t *testing.T) {
	s, _ := newSession(t)

	require.NoError(t, s.Toggle("user.email"))
	assert.Equal(t, []string{"user", "user.email"}, s.Selection().Sorted())
	assert.True(t, s.IsIndeterminate("user"))

	require.NoError(t, s.Toggle("user"))
	assert.Empty(t, s.Selection(), "deselecting a parent clears its descendants")

	err := s.Toggle("user.phone")
	assert.True(t, stderrors.Is(err, errors.ErrUnknownPath))
}

func TestSession_ApplyDeltaIsAtomic(t *testing.T) {
	s, _ := newSession(t)

	err := s.ApplyDelta([]string{"id", "nope"}, selection.ModeSelect)
	require.Error(t, err)
	assert.Empty(t, s.Selection(), "nothing changes when one path is unknown")

	require.NoError(t, s.ApplyDelta([]string{"id", "note"}, selection.ModeSelect))
	require.NoError(t, s.ApplyDelta([]string{"note"}, selection.ModeDeselect))
	assert.Equal(t, []string{"id"}, s.Selection().Sorted())

	info := s.SelectionInfo()
	assert.Equal(t, 1, info.Total)
	assert.Equal(t, 1, info.Required)

	s.ClearSelection()
	assert.Empty(t, s.Selection())
}

func TestSession_SetArrayCount(t *testing.T) {
	s, _ := newSession(t)

	require.NoError(t, s.SetArrayCount("items", 50))
	require.NoError(t, s.Toggle("items[0].sku"))
	assert.Equal(t, 10, s.ArrayConfig()["items"].Count, "clamped to max_count")

	require.NoError(t, s.SetArrayCount("items", 0))
	assert.Equal(t, 1, s.ArrayConfig()["items"].Count, "clamped to one")

	err := s.SetArrayCount("user", 2)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidArrayCount))

	err = s.SetArrayCount("missing", 2)
	assert.True(t, stderrors.Is(err, errors.ErrUnknownPath))

	s.ResetArrayCounts()
	assert.Equal(t, 2, s.ArrayConfig()["items"].Count, "back to default_count")
}

func TestSession_Template(t *testing.T) {
	s, _ := newSession(t)

	_, err := s.Template()
	assert.True(t, stderrors.Is(err, errors.ErrEmptySelection))

	require.NoError(t, s.ApplyDelta([]string{"user.name", "items[0].sku"}, selection.ModeSelect))
	require.NoError(t, s.SetArrayCount("items", 3))

	template, err := s.Template()
	require.NoError(t, err)

	obj, ok := template.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"name": "Ada"}, obj["user"])
	items, ok := obj["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 3)
	for _, item := range items {
		assert.Equal(t, map[string]any{"sku": "A1"}, item)
	}

	report, err := s.Accuracy()
	require.NoError(t, err)
	assert.True(t, report.IsExact)
}

func TestSession_Expansion(t *testing.T) {
	s, _ := newSession(t)

	assert.Len(t, s.Tree(), 4, "id, items, note and user are visible at the root")

	s.ToggleExpanded("user")
	assert.Len(t, s.Tree(), 6)

	s.ExpandAll()
	assert.Len(t, s.Tree(), len(s.Properties()))

	s.CollapseAll()
	assert.Len(t, s.Tree(), 4)

	s.ExpandToLevel(0)
	assert.Equal(t, []string{"items", "user"}, s.Expanded().Sorted())
}

func TestSession_InitialLevelFromConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Expansion.InitialLevel = 0

	s := New(cfg, nil)
	s.Add(parser.NewDocument("a.json", []byte(`{"user": {"address": {"city": "Paris"}}}`)))

	assert.Equal(t, []string{"user"}, s.Expanded().Sorted())
	assert.True(t, s.Properties()["user"].IsExpanded)
	assert.False(t, s.Properties()["user.address"].IsExpanded)
}

func TestSession_Stats(t *testing.T) {
	s, _ := newSession(t)
	stats := s.Stats()
	require.NotNil(t, stats)
	assert.Equal(t, len(s.Properties()), stats.TotalProperties)
	assert.Equal(t, 1, stats.MaxDepth)
}
