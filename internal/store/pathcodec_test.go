package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathCodec_RoundTrip(t *testing.T) {
	paths := []string{
		"",
		"/n/a.md",
		"/n/it's.md",
		"/n/'''triple.md",
		"'",
		"''",
		"/n/o'neil/'q'.md",
	}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			assert.Equal(t, p, DecodePath(EncodePath(p)))
		})
	}
}

func TestEncodePath_DoublesQuotes(t *testing.T) {
	assert.Equal(t, "/n/it''s.md", EncodePath("/n/it's.md"))
	assert.Equal(t, "''''''", EncodePath("'''"))
	assert.Equal(t, "/n/plain.md", EncodePath("/n/plain.md"))
}

func TestDecodePath_UndoublesPairs(t *testing.T) {
	assert.Equal(t, "/n/it's.md", DecodePath("/n/it''s.md"))
	assert.Equal(t, "'''", DecodePath("''''''"))
}
