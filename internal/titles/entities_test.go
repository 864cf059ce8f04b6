package titles

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEntities(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"named entity", "Fish &amp; Chips", "Fish & Chips"},
		{"decimal reference", "It&#8217;s Official", "It’s Official"},
		{"hex reference", "A&#x2014;B", "A—B"},
		{"double encoded", "It&amp;amp;#8217;s Official", "It’s Official"},
		{"quotes", "&quot;Exclusive&quot; Interview", "\"Exclusive\" Interview"},
		{"no entities", "Plain Title", "Plain Title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DecodeEntities(tt.in))
		})
	}
}

func TestCleanTitle(t *testing.T) {
	require.Equal(t, "It’s Here", CleanTitle("  It&#8217;s \n\t Here  "))
	require.Equal(t, "One Two", CleanTitle("One    Two"))
	require.Equal(t, "", CleanTitle("   "))
}
