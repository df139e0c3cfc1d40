package schemas

import (
	"encoding/json"
	"fmt"
)

// PersonInfoSchema returns the JSON schema describing PersonInfo, declared
// by hand so the field descriptions reach the model verbatim.
func PersonInfoSchema() map[string]any {
	return map[string]any{
		"title":       "PersonInfo",
		"description": "Information about a single person-entity.",
		"type":        "object",
		"properties": map[string]any{
			"birth_name": map[string]any{
				"type":        "string",
				"description": "Full birth name",
			},
			"best_known_as": map[string]any{
				"type":        "string",
				"description": "Name by which this person is most widely known",
			},
			"alternate_names": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "List of other or alternate names, such as aliases, pen names, noms de guerre, nicknames, etc.",
			},
			"best_known_for": map[string]any{
				"type":        "string",
				"description": "A one sentence description of why this person is noteworthy what they are known for",
			},
			"is_real": map[string]any{
				"type":        "boolean",
				"description": "True iff this entity is real (as opposed to fictional, imaginary, a character in a book or movie, etc.)",
			},
			"is_human": map[string]any{
				"type":        "boolean",
				"description": "True iff this entity is a human (as opposed to, say, an animal, pet, alien, monster, imaginary being, etc.)",
			},
			"birth_year": map[string]any{
				"type":        []string{"integer", "null"},
				"description": "Year of birth (if known). Use a negative value for BCE dates; positive for CE dates.",
			},
			"birth_month": map[string]any{
				"type":        []string{"integer", "null"},
				"description": "Month of birth (if known), starting with January = 1 through December = 12.",
			},
			"birth_day": map[string]any{
				"type":        []string{"integer", "null"},
				"description": "Day of birth, within month, in the range [1, 31].",
			},
			"assigned_gender_at_birth": map[string]any{
				"type":        "string",
				"description": "Entity's gender, as assigned at birth. Possible values: Male|Female|Nonbinary|Two spirit|Other|Unknown",
			},
			"gender_identity": map[string]any{
				"type":        "string",
				"description": "Entity's self-identified gender identity. May or may not be the same as their assigned gender at birth. Possible values: Male|Female|Nonbinary|Two spirit|Other|Unknown",
			},
			"continent_of_origin": map[string]any{
				"type":        "string",
				"description": "The continent or island on which they were born. Possible values: Africa|Asia|Australia|Europe|South America|North America|Antarctica|Island name",
			},
			"country_of_origin": map[string]any{
				"type":        "string",
				"description": "The country in which they were born (if any), as that country was known at the time of their birth. Country name, or null",
			},
			"locality_of_origin": map[string]any{
				"type":        "string",
				"description": "City or town or village name, or null",
			},
		},
		"required": []string{
			"birth_name", "best_known_as", "alternate_names", "best_known_for",
			"is_real", "is_human", "birth_year", "birth_month", "birth_day",
			"assigned_gender_at_birth", "gender_identity",
			"continent_of_origin", "country_of_origin", "locality_of_origin",
		},
	}
}

// NameReferenceSchema returns the JSON schema describing a single
// NameReference.
func NameReferenceSchema() map[string]any {
	return map[string]any{
		"title":       "NameReference",
		"description": "Records a single person's name, relationship, and a binding to a corresponding Wikipedia URL, if it has one.",
		"type":        "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "The person's name, as given in a single mention in the text of a Wikipedia article.",
			},
			"relationship": map[string]any{
				"type":        []string{"string", "null"},
				"description": `Relationship of this named entity to the head entity of the article. E.g., "mother", "brother", "employer", "opponent", etc. Multi-word relationship descriptions are acceptable when necessary (e.g., "brother and employee" or "third cousin, twice removed"), but prefer a single word when possible. If the relationship is not explicitly stated, or is unclear, don't guess - just return null.`,
			},
			"url": map[string]any{
				"type":        []string{"string", "null"},
				"description": "The URL associated with the name mention, if one is present. null if the name is a bare mention, with no URL link.",
			},
		},
		"required": []string{"name", "relationship", "url"},
	}
}

// ArticleNamesSchema returns the JSON schema describing ArticleNames.
func ArticleNamesSchema() map[string]any {
	return map[string]any{
		"title":       "ArticleNames",
		"description": "Stores a list of all person names encountered in an article.",
		"type":        "object",
		"properties": map[string]any{
			"names": map[string]any{
				"type":        "array",
				"items":       NameReferenceSchema(),
				"description": "List of all the names of people found in this article, with relationship and associated URL, if any.",
			},
		},
		"required": []string{"names"},
	}
}

// FormatInstructions renders a JSON schema into prompt text instructing
// the model to emit a conforming JSON instance.
func FormatInstructions(schema map[string]any) (string, error) {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}
	return fmt.Sprintf("The output should be formatted as a JSON instance that conforms to the JSON schema below.\n\n```\n%s\n```\nDo not wrap the JSON in markdown fences or add commentary.", data), nil
}
