package story

import "strings"

// Assemble fills the template structure with both contributions, verbatim.
// answer1 is the position-1 text, answer2 the position-2 text. Structures
// violating the one-occurrence-per-placeholder invariant are rejected by
// Catalog.Validate, not here.
func Assemble(structure, answer1, answer2 string) string {
	out := strings.Replace(structure, PlaceholderAnswer1, answer1, 1)
	return strings.Replace(out, PlaceholderAnswer2, answer2, 1)
}
