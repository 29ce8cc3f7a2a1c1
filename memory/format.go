package memory

import (
	"strings"

	"github.com/CoderCouple/context0/extract"
	"github.com/samber/lo"
)

// FormatOptions tune the injection rendering. GroupByCategory defaults to
// true (nil means true), MaxLength to DefaultInjectionMaxLength.
type FormatOptions struct {
	GroupByCategory *bool `json:"groupByCategory,omitempty"`
	MaxLength       int   `json:"maxLength,omitempty"`
}

// DefaultInjectionMaxLength bounds the rendered injection block.
const DefaultInjectionMaxLength = 800

// FormatForInjection renders memories into a single bounded text block for
// appending to a prompt. Groups appear in the order their category first
// occurs in the input; within a group input order is preserved. The rendered
// output is truncated at line boundaries so its length never exceeds
// MaxLength; trailing lines and groups that do not fit are silently dropped.
// An empty input renders to "".
func FormatForInjection(memories []*Memory, opts FormatOptions) string {
	if len(memories) == 0 {
		return ""
	}

	maxLength := opts.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultInjectionMaxLength
	}

	var b strings.Builder

	// fits reports whether line (plus its separating newline) still fits,
	// appending it if so.
	fits := func(line string) bool {
		needed := len(line)
		if b.Len() > 0 {
			needed++
		}
		if b.Len()+needed > maxLength {
			return false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		return true
	}

	if !lo.FromPtrOr(opts.GroupByCategory, true) {
		for _, mem := range memories {
			if !fits("- " + mem.Content) {
				break
			}
		}
		return b.String()
	}

	groups := groupByCategory(memories)
	for _, group := range groups {
		header := "[" + titleCase(string(group.category)) + "]"
		first := "- " + group.memories[0].Content

		// A header never stands alone: the group is emitted only if its
		// first line fits too.
		needed := len(header) + 1 + len(first)
		if b.Len() > 0 {
			needed++
		}
		if b.Len()+needed > maxLength {
			return b.String()
		}
		fits(header)
		fits(first)

		for _, mem := range group.memories[1:] {
			if !fits("- " + mem.Content) {
				return b.String()
			}
		}
	}

	return b.String()
}

type categoryGroup struct {
	category extract.Category
	memories []*Memory
}

// groupByCategory buckets memories by category, keeping first-appearance
// order of the categories and input order within each bucket.
func groupByCategory(memories []*Memory) []categoryGroup {
	var groups []categoryGroup
	index := map[extract.Category]int{}

	for _, mem := range memories {
		i, ok := index[mem.Category]
		if !ok {
			i = len(groups)
			index[mem.Category] = i
			groups = append(groups, categoryGroup{category: mem.Category})
		}
		groups[i].memories = append(groups[i].memories, mem)
	}
	return groups
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
