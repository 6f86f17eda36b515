package entities

// Record is one open-house (JPO) entry as produced by the denormalized join
// over events, components, cities, regions, institutions and trainings.
//
// ID is the only field guaranteed to be present; every other column comes
// from a LEFT JOIN and may be null. JSON names follow the store's column
// names because the browser client consumes them as-is.
type Record struct {
	ID                     int64   `json:"id_jpo"`
	Date                   *string `json:"date"`
	Time                   *string `json:"heure"`
	ComponentID            *int64  `json:"id_composante"`
	ComponentName          *string `json:"nom_composante"`
	Address                *string `json:"adresse"`
	Coordinates            *string `json:"coordonnees"`
	CityID                 *int64  `json:"id_ville"`
	City                   *string `json:"nom_ville"`
	PostalCode             *string `json:"code_postal"`
	Region                 *string `json:"nom_region"`
	InstitutionID          *int64  `json:"id_etablissement"`
	Institution            *string `json:"nom_etablissement"`
	Phone                  *string `json:"tel"`
	Website                *string `json:"site_web"`
	DiplomaName            *string `json:"nom_diplome"`
	Duration               *int64  `json:"duree"`
	Title                  *string `json:"intitule"`
	Internships            *string `json:"stages"`
	InternshipsAbroad      *string `json:"stages_etranger"`
	Outcomes               *string `json:"debouches"`
	DoubleDegree           *string `json:"double_diplome"`
	InternationalRelations *string `json:"relations_internationales"`
}

// ScoredRecord is a Record annotated with its lexical relevance.
type ScoredRecord struct {
	Record
	RelevanceScore int `json:"relevanceScore"`
}

// FacetOptions lists the distinct values offered for each facet.
type FacetOptions struct {
	Regions      []string `json:"regions"`
	Cities       []string `json:"villes"`
	Institutions []string `json:"etablissements"`
	Diplomas     []string `json:"diplomes"`
}

// StringValue dereferences an optional column, returning "" when absent.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns a pointer to s. It exists for building fixtures.
func StringPtr(s string) *string {
	return &s
}
