package titles

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripPublicationSuffix(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "pipe suffix",
			in:   "Markets Rally on Rate Cut Hopes | The Wall Street Journal",
			want: "Markets Rally on Rate Cut Hopes",
		},
		{
			name: "em dash suffix",
			in:   "Storm Clean-up Begins — The Guardian",
			want: "Storm Clean-up Begins",
		},
		{
			name: "en dash suffix",
			in:   "Election Results Delayed – Reuters",
			want: "Election Results Delayed",
		},
		{
			name: "hyphen suffix",
			in:   "New Species Found in Pacific - BBC News",
			want: "New Species Found in Pacific",
		},
		{
			name: "long dash tail kept",
			in:   "The Merger - and what it means for every customer in the region",
			want: "The Merger - and what it means for every customer in the region",
		},
		{
			name: "tail with sentence punctuation kept",
			in:   "Rates Rise - Again, and Fast.",
			want: "Rates Rise - Again, and Fast.",
		},
		{
			name: "tail longer than head kept",
			in:   "Why - This Particular Headline Stays",
			want: "Why - This Particular Headline Stays",
		},
		{
			name: "no separator",
			in:   "Plain Headline Without Suffix",
			want: "Plain Headline Without Suffix",
		},
		{
			name: "whitespace trimmed",
			in:   "  Padded Headline  ",
			want: "Padded Headline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, StripPublicationSuffix(tt.in))
		})
	}
}
