package vision

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var petNegativeStarts = []string{"no ", "none", "n/a", "there are no", "there is no", "not ", "are no"}

// Generic or garbage words the vision model likes to put in the entity
// list instead of actual pet names.
var petRejectWords = map[string]struct{}{
	"cats": {}, "cat": {}, "dogs": {}, "dog": {},
	"pets": {}, "pet": {}, "animals": {}, "animal": {},
	"etc": {}, "none": {}, "n/a": {},
	"visible": {}, "present": {},
	"bird": {}, "birds": {}, "fish": {},
	"other": {}, "unknown": {}, "there": {},
	"the": {}, "a": {}, "an": {},
}

var petTitler = cases.Title(language.English)

// ParsePetLabels extracts pet labels from the strict
// "Description: ... Entities: ..." response format. Negative statements
// and sentence fragments are filtered out; surviving labels are
// title-cased.
func ParsePetLabels(response string) []string {
	_, after, found := strings.Cut(response, "Entities:")
	if !found {
		return nil
	}
	section := strings.TrimSpace(after)
	lowered := strings.ToLower(section)
	for _, prefix := range petNegativeStarts {
		if strings.HasPrefix(lowered, prefix) {
			return nil
		}
	}
	switch lowered {
	case "", "none", "none.", "n/a":
		return nil
	}

	var labels []string
	for _, part := range strings.Split(section, ",") {
		cleaned := strings.NewReplacer(".", "", ")", "", "(", "").Replace(part)
		cleaned = strings.TrimSpace(cleaned)
		if !petLabelValid(cleaned) {
			continue
		}
		labels = append(labels, petTitler.String(cleaned))
	}
	return labels
}

func petLabelValid(label string) bool {
	if len(label) < 2 || len(label) >= 25 {
		return false
	}
	lowered := strings.ToLower(label)
	if _, rejected := petRejectWords[lowered]; rejected {
		return false
	}
	for _, fragment := range []string{"no ", "not ", "are ", "there ", "visible", "present"} {
		if strings.Contains(lowered, fragment) {
			return false
		}
	}
	for _, r := range label {
		if r != ' ' && !isAlnum(r) {
			return false
		}
	}
	return len(strings.Fields(label)) <= 3
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
