package tagutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var cleanTests = []struct {
	name  string
	input string
	want  []string
}{
	{"empty", "", nil},
	{"single", "rock", []string{"rock"}},
	{"case_and_space_folding", "Rock, rock ,  ROCK  ", []string{"rock"}},
	{"internal_whitespace", "synth   pop", []string{"synth pop"}},
	{"drops_empty_pieces", ",, rock ,,", []string{"rock"}},
	{"strips_quotes", `ro"ck, ba\ckslash`, []string{"rock", "backslash"}},
	{"multiple", "Punk Rock, Ska", []string{"punk rock", "ska"}},
}

func TestClean(t *testing.T) {
	for _, tc := range cleanTests {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)
			a.Equal(tc.want, Clean(tc.input))
		})
	}
}

var splitTests = []struct {
	name  string
	input []string
	want  []string
}{
	{"empty", nil, nil},
	{"single_word", []string{"rock"}, []string{"rock"}},
	{"phrase", []string{"synth pop"}, []string{"synth pop", "synth", "pop"}},
	{"phrase_word_overlap", []string{"punk rock", "rock"}, []string{"punk rock", "rock", "punk"}},
}

func TestSplit(t *testing.T) {
	for _, tc := range splitTests {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)
			a.ElementsMatch(tc.want, Split(tc.input))
		})
	}
}

func TestSuffix(t *testing.T) {
	a := assert.New(t)

	a.Equal([]string{"rock_o", "ska_o"}, Suffix([]string{"rock", "ska"}, SuffixOriginal))
	a.Equal([]string{"rock_c"}, Suffix([]string{"rock"}, SuffixCover))
	a.Equal([]string{}, Suffix(nil, SuffixOriginal))
}

func TestTrimCategory(t *testing.T) {
	a := assert.New(t)

	a.Equal("rock", TrimCategory("rock_o"))
	a.Equal("punk rock", TrimCategory("punk rock_c"))
	a.Equal("x", TrimCategory("x"))
}

var renderTests = []struct {
	name  string
	input []string
	want  string
}{
	{"empty", nil, ""},
	{"single", []string{"rock_o"}, "rock "},
	{"phrase_suppresses_word", []string{"punk_o", "punk rock_o"}, "punk rock "},
	{"word_order_irrelevant", []string{"punk rock_o", "punk_o"}, "punk rock "},
	{"unrelated_tags_kept", []string{"ska_c", "punk rock_o"}, "punk rock ska "},
}

func TestRender(t *testing.T) {
	for _, tc := range renderTests {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)
			a.Equal(tc.want, Render(tc.input))
		})
	}
}

func TestDifference(t *testing.T) {
	a := assert.New(t)

	a.Equal([]string{"b_o"}, Difference([]string{"a_o", "b_o"}, []string{"a_o"}))
	a.Nil(Difference([]string{"a_o"}, []string{"a_o", "b_o"}))
	a.Equal([]string{"a_o"}, Difference([]string{"a_o"}, nil))
}
