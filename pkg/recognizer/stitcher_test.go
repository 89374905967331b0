package recognizer

import "testing"

func TestStitchTranscripts(t *testing.T) {
	tests := []struct {
		name     string
		parts    []string
		expected string
	}{
		{
			"single part",
			[]string{"hello world"},
			"hello world",
		},
		{
			"no overlap",
			[]string{"first segment", "second segment"},
			"first segment second segment",
		},
		{
			"boundary overlap removed",
			[]string{"the quick brown fox", "brown fox jumps over the dog"},
			"the quick brown fox jumps over the dog",
		},
		{
			"overlap match ignores case and punctuation",
			[]string{"Hello world.", "World again"},
			"Hello world. again",
		},
		{
			"repeat inside the audio is kept",
			[]string{"yes yes", "yes no"},
			"yes yes no",
		},
		{
			"segment fully contained in overlap",
			[]string{"a b c d", "c d"},
			"a b c d",
		},
		{
			"empty parts contribute nothing",
			[]string{"", "hello", ""},
			"hello",
		},
		{
			"unicode text",
			[]string{"привет, как дела", "как дела у тебя"},
			"привет, как дела у тебя",
		},
		{
			"nothing at all",
			nil,
			"",
		},
	}

	for _, test := range tests {
		if got := stitchTranscripts(test.parts); got != test.expected {
			t.Errorf("%s: stitchTranscripts(%q) = %q, expected %q", test.name, test.parts, got, test.expected)
		}
	}
}

func TestOverlapLenIsBounded(t *testing.T) {
	var prev, next []string
	for i := 0; i < 40; i++ {
		prev = append(prev, "word")
		next = append(next, "word")
	}

	if got := overlapLen(prev, next); got != maxBoundaryWords {
		t.Errorf("overlapLen = %d, expected cap at %d", got, maxBoundaryWords)
	}
}
