package analysis

// Category is the coarse content category of an application.
type Category string

const (
	CategoryGames         Category = "Games"
	CategoryEducation     Category = "Education"
	CategorySocialMedia   Category = "Social Media"
	CategoryEntertainment Category = "Entertainment"
	CategoryProductivity  Category = "Productivity"
	CategoryOther         Category = "Other"
	CategoryUnknown       Category = "Unknown"
)

// AgeRating is the recommended minimum audience for an application.
type AgeRating string

const (
	RatingEveryone AgeRating = "Everyone"
	Rating9Plus    AgeRating = "9+"
	Rating12Plus   AgeRating = "12+"
	Rating16Plus   AgeRating = "16+"
	Rating18Plus   AgeRating = "18+"
	RatingUnknown  AgeRating = "Unknown"
)

// AppAnalysis is the structured interpretation of a model answer.
type AppAnalysis struct {
	Category         Category
	IsAppropriate    bool
	AgeRating        AgeRating
	EducationalValue int
	Concerns         []string
	RawText          string
}

// Unknown returns the analysis used when no model answer is available:
// every field at its default, category Unknown.
func Unknown(rawText string) AppAnalysis {
	return AppAnalysis{
		Category:      CategoryUnknown,
		IsAppropriate: true,
		AgeRating:     RatingUnknown,
		RawText:       rawText,
	}
}
