package analyzer

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mcncl/jsonsampler/internal/models"
	"github.com/mcncl/jsonsampler/internal/parser"
	"github.com/mcncl/jsonsampler/internal/path"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDocs(t *testing.T, samples ...string) []models.Document {
	t.Helper()
	docs := make([]models.Document, 0, len(samples))
	for i, sample := range samples {
		doc := parser.NewDocument(fmt.Sprintf("sample%d.json", i+1), []byte(sample))
		docs = append(docs, doc)
	}
	return docs
}

func TestTraverse_VisitsObjectMembersAndFirstArrayElement(t *testing.T) {
	root, err := parser.ParseString(`{
		"id": 1,
		"user": {"name": "Ada", "tags": ["x", "y"]},
		"items": [{"sku": "A", "qty": 2}, {"sku": "B", "extra": true}],
		"empty": [],
		"nothing": null
	}`)
	require.NoError(t, err)

	type visit struct {
		path  string
		key   string
		level int
	}
	var visits []visit
	Traverse(root, nil, func(p path.Path, value models.JSONValue, key string, level int) {
		visits = append(visits, visit{p.String(), key, level})
	})

	expected := []visit{
		{"empty", "empty", 0},
		{"id", "id", 0},
		{"items", "items", 0},
		{"items[0].qty", "qty", 1},
		{"items[0].sku", "sku", 1},
		{"nothing", "nothing", 0},
		{"user", "user", 0},
		{"user.name", "name", 1},
		{"user.tags", "tags", 1},
	}
	assert.Equal(t, expected, visits, "only the first array element is sampled")
}

func TestTraverse_RootArrayAndNestedArrays(t *testing.T) {
	root, err := parser.ParseString(`[{"id": 1, "grid": [[{"v": 1}]]}]`)
	require.NoError(t, err)

	var paths []string
	Traverse(root, nil, func(p path.Path, _ models.JSONValue, _ string, _ int) {
		paths = append(paths, p.String())
	})

	assert.Equal(t, []string{"[0].grid", "[0].grid[0][0].v", "[0].id"}, paths)
}

func TestTraverse_NilShortCircuits(t *testing.T) {
	called := false
	Traverse(nil, nil, func(path.Path, models.JSONValue, string, int) { called = true })
	assert.False(t, called)
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		name     string
		value    models.JSONValue
		expected models.PropertyType
	}{
		{"null", nil, models.TypeNull},
		{"array", models.JSONArray{}, models.TypeArray},
		{"object", models.JSONObject{}, models.TypeObject},
		{"boolean", true, models.TypeBoolean},
		{"date", "2024-03-01T10:20:30Z", models.TypeDate},
		{"date prefix only", "2024-03-01T10:20:30.123+02:00 extra", models.TypeDate},
		{"date without time is a string", "2024-03-01", models.TypeString},
		{"email", "ada@example.com", models.TypeEmail},
		{"url", "https://api.example.com/v1/items?page=2", models.TypeURL},
		{"mailto url", "mailto:ops", models.TypeURL},
		{"plain string", "hello world", models.TypeString},
		{"word with colon", "note: hello", models.TypeString},
		{"integer", json.Number("42"), models.TypeInteger},
		{"integral float literal", json.Number("1.0"), models.TypeInteger},
		{"number", json.Number("3.14"), models.TypeNumber},
		{"native float", 2.5, models.TypeNumber},
		{"native int", 7, models.TypeInteger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectType(tt.value))
		})
	}
}

func TestMerge_NoValidDocuments(t *testing.T) {
	assert.Nil(t, Merge(nil))
	assert.Nil(t, Merge(loadDocs(t, `{"broken": `)))
}

func TestMerge_FrequencyMissingAndStatus(t *testing.T) {
	docs := loadDocs(t,
		`{"id": 1, "name": "a", "email": "a@example.com", "note": "x"}`,
		`{"id": 2, "name": "b", "email": "b@example.com"}`,
		`{"id": 3, "name": "c"}`,
		`{"id": 4}`,
		`not json`,
	)

	pm := Merge(docs)
	require.NotNil(t, pm)
	require.Len(t, pm, 4)

	id := pm["id"]
	assert.Equal(t, 4, id.Frequency)
	assert.True(t, id.IsRequired)
	assert.Equal(t, "4/4", id.FrequencyText)
	assert.Equal(t, 100, id.FrequencyPercent)
	assert.Equal(t, models.StatusRequired, id.Status)
	assert.Empty(t, id.Missing)
	assert.Equal(t, models.TypeInteger, id.Type)

	name := pm["name"]
	assert.Equal(t, 75, name.FrequencyPercent)
	assert.Equal(t, models.StatusCommon, name.Status)
	assert.Equal(t, []string{"sample4.json"}, name.Missing)

	email := pm["email"]
	assert.Equal(t, models.TypeEmail, email.Type)
	assert.Equal(t, models.StatusOccasional, email.Status)
	assert.Equal(t, []string{"sample1.json", "sample2.json"}, email.Sources)
	assert.Equal(t, []string{"sample3.json", "sample4.json"}, email.Missing)

	note := pm["note"]
	assert.Equal(t, 25, note.FrequencyPercent)
	assert.Equal(t, models.StatusRare, note.Status)
	assert.False(t, note.IsRequired)
}

func TestMerge_ConflictsAreAnAuditTrail(t *testing.T) {
	docs := loadDocs(t,
		`{"value": 1}`,
		`{"value": "one"}`,
		`{"value": 1}`,
		`{"value": true}`,
	)

	prop := Merge(docs)["value"]
	require.NotNil(t, prop)
	assert.Equal(t, models.TypeMixed, prop.Type)
	require.Len(t, prop.Conflicts, 3, "every observation after the switch to mixed is recorded")
	assert.Equal(t, models.Conflict{
		Source:       "sample2.json",
		ExpectedType: models.TypeInteger,
		ActualType:   models.TypeString,
		Value:        "one",
	}, prop.Conflicts[0])
	assert.Equal(t, models.TypeMixed, prop.Conflicts[1].ExpectedType)
	assert.Equal(t, models.TypeBoolean, prop.Conflicts[2].ActualType)
}

func TestMerge_ExamplesCappedAtThree(t *testing.T) {
	docs := loadDocs(t, `{"n": 1}`, `{"n": 2}`, `{"n": 3}`, `{"n": 4}`)

	prop := Merge(docs)["n"]
	require.Len(t, prop.Examples, MaxExamples)
	assert.Equal(t, json.Number("1"), prop.Examples[0].Value)
	assert.Equal(t, "sample3.json", prop.Examples[2].Source)
	assert.Len(t, prop.Values, 4)
}

func TestMerge_ArraysOfObjects(t *testing.T) {
	docs := loadDocs(t,
		`{"orders": [{"id": 1, "lines": [{"sku": "A"}]}]}`,
		`{"orders": []}`,
	)

	pm := Merge(docs)
	require.NotNil(t, pm)
	assert.Contains(t, pm, "orders")
	assert.Contains(t, pm, "orders[0].id")
	assert.Contains(t, pm, "orders[0].lines[0].sku")

	assert.Equal(t, models.TypeArray, pm["orders"].Type)
	assert.Equal(t, 2, pm["orders"].Frequency)
	assert.Equal(t, 1, pm["orders[0].id"].Frequency)
	assert.Equal(t, 2, pm["orders[0].lines[0].sku"].Level)
	assert.Equal(t, "sku", pm["orders[0].lines[0].sku"].Key)
}

func TestMerge_Determinism(t *testing.T) {
	samples := []string{
		`{"a": {"b": 1, "c": [1, 2]}, "d": "2024-01-01T00:00:00Z"}`,
		`{"a": {"b": "x"}, "e": [{"f": null}]}`,
		`{"a": null, "d": "https://example.com"}`,
	}
	docs := loadDocs(t, samples...)

	first := Merge(docs)
	second := Merge(docs)
	assert.Equal(t, first, second)
}

func TestMerge_FrequencyInvariants(t *testing.T) {
	docs := loadDocs(t,
		`{"a": {"b": 1}, "list": [{"x": 1}]}`,
		`{"a": {"c": 2}}`,
		`{"list": [{"x": "s", "y": 2}], "z": null}`,
	)

	pm := Merge(docs)
	total := 3
	for p, prop := range pm {
		assert.Greater(t, prop.Frequency, 0, p)
		assert.LessOrEqual(t, prop.Frequency, total, p)
		assert.Equal(t, total, len(prop.Sources)+len(prop.Missing), p)
		if prop.Type == models.TypeMixed {
			assert.NotEmpty(t, prop.Conflicts, p)
		}
	}
}

func TestMerge_NullValuesAreObserved(t *testing.T) {
	pm := Merge(loadDocs(t, `{"z": null}`, `{"z": null}`))
	require.Contains(t, pm, "z")
	assert.Equal(t, models.TypeNull, pm["z"].Type)
	assert.Equal(t, 2, pm["z"].Frequency)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, models.StatusRequired, StatusFor(100))
	assert.Equal(t, models.StatusCommon, StatusFor(75))
	assert.Equal(t, models.StatusOccasional, StatusFor(50))
	assert.Equal(t, models.StatusRare, StatusFor(49))
}
