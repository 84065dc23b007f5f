package contentfilter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	f := New()

	tests := []struct {
		value string
		want  Category
	}{
		{"Robert'; DROP TABLE users", SQL},
		{"x' OR '1'='1", SQL},
		{"Smith -- comment", SQL},
		{"a /* b */ c", SQL},
		{"Ann Select", SQL},
		{"javascript:alert(1)", Script},
		{"Window", Script},
		{"onmouseover", Script},
		{"foo onclick=bar", Script},
		{"<script>", Script},
		{"<IFRAME", Markup},
		{"Div", Markup},
		{"Li", Markup},
		{"<b>bold</b>", Markup},
		{"&lt;", SQL},
		{`\x3c`, Encoding},
		{`\u003c`, Encoding},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok := f.Match(tt.value)
			require.True(t, ok, "expected %q to be rejected", tt.value)
			require.Equal(t, tt.want, got.Category)
			require.NotEmpty(t, got.Pattern)
		})
	}
}

func TestMatchAllowsOrdinaryNames(t *testing.T) {
	f := New()

	for _, value := range []string{
		"",
		"Mary Ann",
		"O'Brien",
		"Smith-Jones",
		"Anderson",
		"Isabel",
		"Norton",
		"Byron",
		"Tom & Jerry",
	} {
		t.Run(value, func(t *testing.T) {
			require.False(t, f.Contains(value), "expected %q to pass", value)
		})
	}
}

func TestWordsMatchesWholeWordsOnly(t *testing.T) {
	f := New()
	// "Orson" contains "or" but not as a word.
	require.False(t, f.Contains("Orson"))
	require.True(t, f.Contains("Orson or Welles"))
}

func TestLineEndingsAreNotMarkup(t *testing.T) {
	f := New()
	for _, value := range []string{"Ada\nLovelace", "Ada\rLovelace", "Ada\r\nLovelace"} {
		require.False(t, f.Contains(value), "expected %q to pass", value)
	}

	got, ok := f.Match("<b>Ada</b>\r\n")
	require.True(t, ok)
	require.Equal(t, Markup, got.Category)
}
