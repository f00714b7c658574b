package corpus

// Verb constants for the corpus API.
const (
	VerbLIST     = "list"
	VerbSHOW     = "show"
	VerbSEARCH   = "search"
	VerbKEYWORDS = "keywords"
)

// AllVerbs returns a list of all valid verbs.
func AllVerbs() []string {
	return []string{
		VerbLIST,
		VerbSHOW,
		VerbSEARCH,
		VerbKEYWORDS,
	}
}

// IsValidVerb checks if a verb is valid.
func IsValidVerb(verb string) bool {
	for _, v := range AllVerbs() {
		if v == verb {
			return true
		}
	}
	return false
}
