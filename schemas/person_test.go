package schemas

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestPersonInfo_BirthYearRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		year *int
	}{
		{"ce year", intPtr(1936)},
		{"bce year", intPtr(-469)},
		{"unknown", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := PersonInfo{
				BirthName:   "Socrates",
				BestKnownAs: "Socrates",
				BirthYear:   tc.year,
			}

			data, err := json.Marshal(p)
			require.NoError(t, err)

			var back PersonInfo
			require.NoError(t, json.Unmarshal(data, &back))

			if tc.year == nil {
				assert.Nil(t, back.BirthYear)
				assert.Contains(t, string(data), `"birth_year":null`)
			} else {
				require.NotNil(t, back.BirthYear)
				assert.Equal(t, *tc.year, *back.BirthYear)
			}
		})
	}
}

func TestNameReference_NilFieldsRoundTrip(t *testing.T) {
	ref := NameReference{Name: "Michael Dukakis"}

	data, err := json.Marshal(ref)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"relationship":null`)
	assert.Contains(t, string(data), `"url":null`)

	var back NameReference
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "Michael Dukakis", back.Name)
	assert.Nil(t, back.Relationship)
	assert.Nil(t, back.URL)
}

func TestNameReference_PopulatedFieldsRoundTrip(t *testing.T) {
	ref := NameReference{
		Name:         "Olympia Dukakis",
		Relationship: strPtr("cousin"),
		URL:          strPtr("https://en.wikipedia.org/wiki/Olympia_Dukakis"),
	}

	data, err := json.Marshal(ref)
	require.NoError(t, err)

	var back NameReference
	require.NoError(t, json.Unmarshal(data, &back))
	require.NotNil(t, back.Relationship)
	assert.Equal(t, "cousin", *back.Relationship)
	require.NotNil(t, back.URL)
	assert.Equal(t, *ref.URL, *back.URL)
}

func TestArticleNames_PreservesOrder(t *testing.T) {
	names := ArticleNames{Names: []NameReference{
		{Name: "First Mention"},
		{Name: "Second Mention"},
		{Name: "Third Mention"},
	}}

	data, err := json.Marshal(names)
	require.NoError(t, err)

	var back ArticleNames
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back.Names, 3)
	for i, want := range []string{"First Mention", "Second Mention", "Third Mention"} {
		assert.Equal(t, want, back.Names[i].Name)
	}
}

func TestFormatInstructions_EmbedsSchema(t *testing.T) {
	text, err := FormatInstructions(PersonInfoSchema())
	require.NoError(t, err)

	assert.True(t, strings.Contains(text, "JSON schema"))
	assert.Contains(t, text, `"birth_year"`)
	assert.Contains(t, text, "negative value for BCE")
	assert.Contains(t, text, `"assigned_gender_at_birth"`)
}

func TestArticleNamesSchema_RequiresAllFields(t *testing.T) {
	schema := ArticleNamesSchema()

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	names, ok := props["names"].(map[string]any)
	require.True(t, ok)
	item, ok := names["items"].(map[string]any)
	require.True(t, ok)

	required, ok := item["required"].([]string)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"name", "relationship", "url"}, required)
}
