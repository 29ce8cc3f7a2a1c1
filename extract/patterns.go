package extract

import (
	"regexp"
	"strings"
)

type (
	// ShapeFunc inspects a candidate and returns a weight in [0,1] that is
	// multiplied by Scoring.ShapeBonus. span is the full matched text, content
	// the captured group.
	ShapeFunc func(content, span string) float64

	// Rule binds a capture pattern to a category. Specificity is a weight in
	// [0,1] multiplied by Scoring.SpecificityBonus for especially unambiguous
	// phrasings. Rules are evaluated in table order.
	Rule struct {
		Category    Category
		Pattern     *regexp.Regexp
		Specificity float64
		Shape       ShapeFunc
	}
)

var (
	capitalizedWordRe = regexp.MustCompile(`^[A-Z][a-zA-Z'-]*$`)
	cityStateRe       = regexp.MustCompile(`^[A-Z][a-zA-Z .'-]+,\s*[A-Z]{2}$`)
	atCompanyRe       = regexp.MustCompile(`(?i)\b(?:at|for)\s+[A-Z]`)
)

// identityShape rewards person-name shapes: two capitalized words score full
// weight, a single capitalized word half.
func identityShape(content, _ string) float64 {
	words := strings.Fields(content)
	capitalized := 0
	for _, w := range words {
		if capitalizedWordRe.MatchString(w) {
			capitalized++
		}
	}
	switch {
	case capitalized >= 2 && capitalized == len(words):
		return 1
	case capitalized >= 1:
		return 0.5
	default:
		return 0
	}
}

// locationShape rewards "City, ST" shapes.
func locationShape(content, _ string) float64 {
	if cityStateRe.MatchString(strings.TrimSpace(content)) {
		return 1
	}
	if words := strings.Fields(content); len(words) > 0 && capitalizedWordRe.MatchString(words[0]) {
		return 0.5
	}
	return 0
}

// workShape rewards "at Company" shapes in the matched span.
func workShape(content, span string) float64 {
	if atCompanyRe.MatchString(span) {
		return 1
	}
	if len(content) > 0 && content[0] >= 'A' && content[0] <= 'Z' {
		return 0.5
	}
	return 0
}

// DefaultRules is the ordered category→pattern table. The table is data: new
// rules extend it without touching the scoring algorithm.
func DefaultRules() []Rule {
	return []Rule{
		{CategoryIdentity, regexp.MustCompile(`\b(?i:my name is)\s+([A-Z][a-zA-Z'-]+(?:\s+[A-Z][a-zA-Z'-]+){0,2})`), 1, identityShape},
		{CategoryIdentity, regexp.MustCompile(`\b(?i:i(?:'m| am) called)\s+([A-Z][a-zA-Z'-]+(?:\s+[A-Z][a-zA-Z'-]+){0,2})`), 1, identityShape},
		{CategoryIdentity, regexp.MustCompile(`\b(?i:call me)\s+([A-Z][a-zA-Z'-]+)`), 0.5, identityShape},

		{CategoryLocation, regexp.MustCompile(`\b(?i:i live in)\s+([^.;!?\n]+)`), 1, locationShape},
		{CategoryLocation, regexp.MustCompile(`\b(?i:i(?:'m| am) based in)\s+([^.;!?\n]+)`), 1, locationShape},
		{CategoryLocation, regexp.MustCompile(`\b(?i:i(?:'m| am) from)\s+([^.;!?\n]+)`), 0.5, locationShape},

		{CategoryWork, regexp.MustCompile(`\b(?i:i work (?:at|for))\s+([^.,;!?\n]+)`), 1, workShape},
		{CategoryWork, regexp.MustCompile(`\b(?i:i work as an?)\s+([^.,;!?\n]+)`), 1, workShape},
		{CategoryWork, regexp.MustCompile(`\b(?i:my job is)\s+([^.;!?\n]+)`), 0.5, workShape},

		{CategoryPreference, regexp.MustCompile(`\b(?i:my favou?rite)\s+([^.;!?\n]+)`), 1, nil},
		{CategoryPreference, regexp.MustCompile(`\b(?i:i (?:really )?(?:love|like|enjoy|prefer))\s+([^.,;!?\n]+)`), 0.5, nil},
		{CategoryPreference, regexp.MustCompile(`\b(?i:i (?:hate|dislike|can(?:no|')t stand))\s+([^.,;!?\n]+)`), 0.5, nil},

		{CategoryEducation, regexp.MustCompile(`\b(?i:i graduated from)\s+([^.,;!?\n]+)`), 1, nil},
		{CategoryEducation, regexp.MustCompile(`\b(?i:i(?:'m| am) a student at)\s+([^.,;!?\n]+)`), 1, nil},
		{CategoryEducation, regexp.MustCompile(`\b(?i:i (?:study|studied|majored in))\s+([^.,;!?\n]+)`), 0.5, nil},

		{CategoryFamily, regexp.MustCompile(`\b(?i:my (?:wife|husband|partner|son|daughter|mom|mother|dad|father|brother|sister)(?:'s name)? is)\s+([^.,;!?\n]+)`), 1, nil},
		{CategoryFamily, regexp.MustCompile(`\b(?i:i have)\s+(\d+\s+(?:kids?|children|sons?|daughters?|brothers?|sisters?))\b`), 1, nil},

		{CategoryHobby, regexp.MustCompile(`\b(?i:my hobb(?:y|ies) (?:is|are))\s+([^.;!?\n]+)`), 1, nil},
		{CategoryHobby, regexp.MustCompile(`\b(?i:in my (?:free|spare) time,? i)\s+([^.;!?\n]+)`), 0.5, nil},
		{CategoryHobby, regexp.MustCompile(`\b(?i:i (?:play|collect))\s+([^.,;!?\n]+)`), 0, nil},

		{CategoryGoal, regexp.MustCompile(`\b(?i:my goal is to)\s+([^.;!?\n]+)`), 1, nil},
		{CategoryGoal, regexp.MustCompile(`\b(?i:i(?:'m| am) (?:planning|trying|working) (?:to|on))\s+([^.,;!?\n]+)`), 0.5, nil},
		{CategoryGoal, regexp.MustCompile(`\b(?i:i (?:want|plan|hope|aim) to)\s+([^.,;!?\n]+)`), 0.5, nil},

		{CategoryHealth, regexp.MustCompile(`\b(?i:i(?:'m| am) allergic to)\s+([^.,;!?\n]+)`), 1, nil},
		{CategoryHealth, regexp.MustCompile(`\b(?i:i(?:'m| am)) (?i:(vegetarian|vegan|gluten[- ]free|lactose intolerant))\b`), 1, nil},
		{CategoryHealth, regexp.MustCompile(`\b(?i:i was diagnosed with)\s+([^.,;!?\n]+)`), 1, nil},

		{CategoryTechnology, regexp.MustCompile(`\b(?i:i (?:code|program|develop) in)\s+([^.,;!?\n]+)`), 1, nil},
		{CategoryTechnology, regexp.MustCompile(`\b(?i:my (?:editor|ide|stack) is)\s+([^.;!?\n]+)`), 0.5, nil},
		{CategoryTechnology, regexp.MustCompile(`\b(?i:i use)\s+([^.,;!?\n]+)`), 0, nil},
	}
}
