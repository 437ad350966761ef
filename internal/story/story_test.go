package story

import (
	"strings"
	"testing"
)

func TestAssembleReplacesBothPlaceholders(t *testing.T) {
	structure := "Scientists have discovered that {answer1} is the leading cause of {answer2}. More research is needed."

	got := Assemble(structure, "coffee", "a toaster")

	if strings.Contains(got, PlaceholderAnswer1) || strings.Contains(got, PlaceholderAnswer2) {
		t.Errorf("assembled story still contains a placeholder: %q", got)
	}
	if strings.Count(got, "coffee") != 1 {
		t.Errorf("expected answer1 exactly once in %q", got)
	}
	if strings.Count(got, "a toaster") != 1 {
		t.Errorf("expected answer2 exactly once in %q", got)
	}
}

func TestAssembleEveryCatalogTemplate(t *testing.T) {
	for i, tmpl := range DefaultCatalog() {
		got := Assemble(tmpl.Structure, "ALPHA", "BRAVO")

		if strings.Contains(got, PlaceholderAnswer1) || strings.Contains(got, PlaceholderAnswer2) {
			t.Errorf("template %d: placeholder left in %q", i, got)
		}
		if strings.Count(got, "ALPHA") != 1 || strings.Count(got, "BRAVO") != 1 {
			t.Errorf("template %d: answers not substituted exactly once in %q", i, got)
		}
	}
}

func TestAssembleDoesNotEscapeUserText(t *testing.T) {
	structure := "first {answer1} then {answer2}"
	a := `a "quoted" <thing>`
	b := "line\nbreak & {braces}"

	got := Assemble(structure, a, b)

	if !strings.Contains(got, a) || !strings.Contains(got, b) {
		t.Errorf("user text not carried verbatim: %q", got)
	}
}

func TestDefaultCatalogValidates(t *testing.T) {
	if err := DefaultCatalog().Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
}

func TestValidateRejectsBadTemplates(t *testing.T) {
	cases := []struct {
		name    string
		catalog Catalog
	}{
		{"empty catalog", Catalog{}},
		{"missing answer1", Catalog{{Structure: "only {answer2}", Prompts: [2]string{"a", "b"}}}},
		{"missing answer2", Catalog{{Structure: "only {answer1}", Prompts: [2]string{"a", "b"}}}},
		{"duplicate answer1", Catalog{{Structure: "{answer1} {answer1} {answer2}", Prompts: [2]string{"a", "b"}}}},
		{"duplicate answer2", Catalog{{Structure: "{answer1} {answer2} {answer2}", Prompts: [2]string{"a", "b"}}}},
		{"empty prompt", Catalog{{Structure: "{answer1} {answer2}", Prompts: [2]string{"a", ""}}}},
	}

	for _, tc := range cases {
		if err := tc.catalog.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}
