package story

import (
	"fmt"
	"strings"
)

// Placeholder tokens that every template structure must contain exactly once.
const (
	PlaceholderAnswer1 = "{answer1}"
	PlaceholderAnswer2 = "{answer2}"
)

// Template is a narrative skeleton. Structure holds both placeholders;
// Prompts[0] produces the text for {answer1} (position 1) and Prompts[1]
// the text for {answer2} (position 2).
type Template struct {
	Structure string    `json:"structure"`
	Prompts   [2]string `json:"prompts"`
}

// Catalog is the fixed set of templates a server draws from.
type Catalog []Template

// DefaultCatalog returns the built-in story templates.
func DefaultCatalog() Catalog {
	return Catalog{
		{
			Structure: "Scientists have discovered that {answer1} is the leading cause of {answer2}. More research is needed.",
			Prompts: [2]string{
				"What's something you do every day? (Example: 'drinking coffee' or 'checking my phone' or 'talking to myself')",
				"Name random absurd thing in noun phrase format(Example: 'a cat with human eyebrows' or 'asking pigeons for relationship advice' or 'sarguing with a toaster about life choices')",
			},
		},
		{
			Structure: "They say you can't put {answer1} into {answer2}, but I've been doing it for years.",
			Prompts: [2]string{
				"Describe the first thing you see when you wake up. Format: noun phrase. Example: 'my cat's sleepy face'",
				"Name a food or drink you like (Example: 'pickles' or 'strawberry milk' or 'cold pizza')",
			},
		},
	}
}

// Validate checks the one-occurrence-per-placeholder invariant for every
// template. Assemble assumes this has passed, so the catalog must be
// validated at load time.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("catalog is empty")
	}

	for i, t := range c {
		if n := strings.Count(t.Structure, PlaceholderAnswer1); n != 1 {
			return fmt.Errorf("template %d: %d occurrences of %s, want 1", i, n, PlaceholderAnswer1)
		}
		if n := strings.Count(t.Structure, PlaceholderAnswer2); n != 1 {
			return fmt.Errorf("template %d: %d occurrences of %s, want 1", i, n, PlaceholderAnswer2)
		}
		for j, p := range t.Prompts {
			if p == "" {
				return fmt.Errorf("template %d: prompt %d is empty", i, j)
			}
		}
	}

	return nil
}
