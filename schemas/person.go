// Package schemas defines the structured output types for person research
// and the name references mined from article text.
package schemas

// PersonInfo holds structured information about a single person-entity.
type PersonInfo struct {
	// BirthName is the full birth name.
	BirthName string `json:"birth_name"`
	// BestKnownAs is the name by which this person is most widely known.
	BestKnownAs string `json:"best_known_as"`
	// AlternateNames lists other names such as aliases, pen names,
	// noms de guerre, or nicknames.
	AlternateNames []string `json:"alternate_names"`
	// BestKnownFor is a one sentence description of why this person is
	// noteworthy.
	BestKnownFor string `json:"best_known_for"`
	// IsReal is true iff this entity is real, as opposed to fictional.
	IsReal bool `json:"is_real"`
	// IsHuman is true iff this entity is a human, as opposed to an
	// animal, alien, monster, or imaginary being.
	IsHuman bool `json:"is_human"`
	// BirthYear is the year of birth if known. Negative values are BCE,
	// positive values CE. Nil when unknown.
	BirthYear *int `json:"birth_year"`
	// BirthMonth is the month of birth if known, January = 1 through
	// December = 12. Nil when unknown.
	BirthMonth *int `json:"birth_month"`
	// BirthDay is the day of birth within the month, in [1, 31]. Nil
	// when unknown.
	BirthDay *int `json:"birth_day"`
	// AssignedGenderAtBirth is the gender assigned at birth. One of
	// Male, Female, Nonbinary, Two spirit, Other, Unknown.
	AssignedGenderAtBirth string `json:"assigned_gender_at_birth"`
	// GenderIdentity is the self-identified gender identity, which may
	// differ from the assigned gender at birth.
	GenderIdentity string `json:"gender_identity"`
	// ContinentOfOrigin is the continent or island of birth.
	ContinentOfOrigin string `json:"continent_of_origin"`
	// CountryOfOrigin is the country of birth as it was known at the
	// time of birth.
	CountryOfOrigin string `json:"country_of_origin"`
	// LocalityOfOrigin is the city, town, or village of birth.
	LocalityOfOrigin string `json:"locality_of_origin"`
}

// NameReference records a single person's name as mentioned in article
// text, with its stated relationship to the article's head entity and a
// binding to a corresponding article URL, when either is present.
type NameReference struct {
	Name string `json:"name"`
	// Relationship of this named entity to the head entity of the
	// article, e.g. "mother" or "opponent". Nil when the relationship
	// is not explicitly stated; it is never guessed.
	Relationship *string `json:"relationship"`
	// URL associated with the name mention. Nil for a bare mention with
	// no link.
	URL *string `json:"url"`
}

// ArticleNames stores all person names encountered in an article, in the
// order they were first mentioned.
type ArticleNames struct {
	Names []NameReference `json:"names"`
}
