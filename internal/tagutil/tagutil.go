package tagutil

import (
	"sort"
	"strings"
)

const (
	SuffixOriginal = "_o"
	SuffixCover    = "_c"
)

// Clean turns raw comma-separated tag input into canonical tokens: lowercase,
// trimmed, internal whitespace collapsed, quote characters stripped, empties
// dropped, duplicates removed. Output order is first-seen, but callers must
// not depend on it.
func Clean(raw string) []string {
	var out []string

	seen := make(map[string]bool)

	for _, piece := range strings.Split(raw, ",") {
		piece = strings.Map(func(r rune) rune {
			switch r {
			case '"', '\\':
				return -1
			default:
				return r
			}
		}, piece)

		tag := strings.Join(strings.Fields(strings.ToLower(piece)), " ")
		if tag == "" || seen[tag] {
			continue
		}

		seen[tag] = true
		out = append(out, tag)
	}

	return out
}

// Split takes already-cleaned tags and additionally emits each
// whitespace-separated word of every multi-word tag, so a two-word phrase
// matches both the full phrase and either component word in search.
func Split(tags []string) []string {
	var out []string

	seen := make(map[string]bool)

	add := func(tag string) {
		if tag == "" || seen[tag] {
			return
		}

		seen[tag] = true
		out = append(out, tag)
	}

	for _, tag := range tags {
		add(tag)
	}

	for _, tag := range tags {
		for _, word := range strings.Fields(tag) {
			add(word)
		}
	}

	return out
}

// Suffix appends a category suffix to every tag.
func Suffix(tags []string, suffix string) []string {
	out := make([]string, len(tags))

	for i, tag := range tags {
		out[i] = tag + suffix
	}

	return out
}

// TrimCategory strips the trailing two-character category suffix from a
// suffixed tag token.
func TrimCategory(tag string) string {
	if len(tag) < 2 {
		return tag
	}

	return tag[:len(tag)-2]
}

// Render produces the display string for a video's suffixed tag set. Tags are
// emitted longest-first with their suffix stripped, and a tag is skipped when
// it is already a substring of the accumulated output, so component words
// covered by a multi-word phrase are suppressed. Each emitted tag is followed
// by a single space.
func Render(tags []string) string {
	sorted := make([]string, len(tags))
	copy(sorted, tags)

	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})

	var b strings.Builder

	for _, tag := range sorted {
		name := TrimCategory(tag)
		if name == "" || strings.Contains(b.String(), name) {
			continue
		}

		b.WriteString(name)
		b.WriteString(" ")
	}

	return b.String()
}

// Difference returns the members of all that are not in existing, preserving
// the order of all.
func Difference(all, existing []string) []string {
	have := make(map[string]bool, len(existing))
	for _, e := range existing {
		have[e] = true
	}

	var out []string

	for _, e := range all {
		if !have[e] {
			out = append(out, e)
		}
	}

	return out
}
