package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/CoderCouple/context0/errors"
	"github.com/CoderCouple/context0/internal/stringutils"
)

type (
	// Scoring holds the confidence tuning constants. The values are empirical;
	// they are configurable rather than contractual, higher confidence simply
	// wins duplicate raises.
	Scoring struct {
		Base             float64
		LengthBonus      float64
		ShortLength      int
		LongLength       int
		ShapeBonus       float64
		SpecificityBonus float64
	}

	// Extractor turns free-form text into typed fact candidates using an
	// ordered pattern table.
	Extractor struct {
		rules   []Rule
		scoring Scoring

		minContentLen int
		maxContentLen int
	}

	// ExtractorOption configures an Extractor.
	ExtractorOption func(*Extractor)
)

// DefaultScoring returns the stock confidence constants.
func DefaultScoring() Scoring {
	return Scoring{
		Base:             0.5,
		LengthBonus:      0.1,
		ShortLength:      10,
		LongLength:       20,
		ShapeBonus:       0.2,
		SpecificityBonus: 0.2,
	}
}

func WithScoring(s Scoring) ExtractorOption {
	return func(e *Extractor) {
		e.scoring = s
	}
}

func WithRules(rules []Rule) ExtractorOption {
	return func(e *Extractor) {
		e.rules = rules
	}
}

func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		rules:         DefaultRules(),
		scoring:       DefaultScoring(),
		minContentLen: 3,
		maxContentLen: 200,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	quoteReplacer = strings.NewReplacer(
		"‘", "'",
		"’", "'",
		"“", `"`,
		"”", `"`,
	)
)

// Normalize collapses whitespace, normalizes quote characters, drops control
// characters and strips HTML-like tags.
func Normalize(text string) string {
	text = stringutils.SanitizeUnicodeString(text)
	text = htmlTagRe.ReplaceAllString(text, " ")
	text = quoteReplacer.Replace(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ExtractFacts evaluates the pattern table against text and returns the
// candidates in rule-match order. Unmatched text yields an empty list, not an
// error; only structurally invalid input errors.
func (e *Extractor) ExtractFacts(text string) ([]Fact, error) {
	if !utf8.ValidString(text) {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "text is not valid UTF-8")
	}

	normalized := Normalize(text)
	if normalized == "" {
		return nil, nil
	}

	var facts []Fact
	seen := map[string]int{}

	for _, r := range e.rules {
		for _, match := range r.Pattern.FindAllStringSubmatch(normalized, -1) {
			if len(match) < 2 {
				continue
			}
			content := strings.TrimSpace(match[1])
			if len(content) < e.minContentLen || len(content) > e.maxContentLen {
				continue
			}

			fact := Fact{
				Category:    r.Category,
				Content:     content,
				Confidence:  e.score(r, content, match[0]),
				MatchedSpan: match[0],
			}

			key := string(r.Category) + "\x00" + strings.ToLower(content)
			if i, ok := seen[key]; ok {
				if fact.Confidence > facts[i].Confidence {
					facts[i] = fact
				}
				continue
			}
			seen[key] = len(facts)
			facts = append(facts, fact)
		}
	}

	return facts, nil
}

// score computes the confidence for one candidate, clamped to [0,1].
func (e *Extractor) score(r Rule, content, span string) float64 {
	sc := e.scoring

	confidence := sc.Base
	if len(content) > sc.ShortLength {
		confidence += sc.LengthBonus
	}
	if len(content) > sc.LongLength {
		confidence += sc.LengthBonus
	}
	if r.Shape != nil {
		confidence += r.Shape(content, span) * sc.ShapeBonus
	}
	confidence += r.Specificity * sc.SpecificityBonus

	return clamp01(confidence)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
