package carriers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanPhoneNumber(t *testing.T) {
	cases := map[string]string{
		"9876543210":       "9876543210",
		"09876543210":      "9876543210",
		"919876543210":     "9876543210",
		"+919876543210":    "9876543210",
		"+91 98765 43210":  "9876543210",
		"98765-43210":      "9876543210",
		"0091 98765 43210": "9876543210",
		"12345":            "",
		"":                 "",
	}
	for input, expected := range cases {
		assert.Equal(t, expected, CleanPhoneNumber(input), "input %q", input)
	}
}

func TestSplitName(t *testing.T) {
	first, last := splitName("Asha Rao")
	assert.Equal(t, "Asha", first)
	assert.Equal(t, "Rao", last)

	first, last = splitName("Asha Kumari Rao")
	assert.Equal(t, "Asha", first)
	assert.Equal(t, "Kumari Rao", last)

	first, last = splitName("Asha")
	assert.Equal(t, "Asha", first)
	assert.Equal(t, ".", last)

	first, last = splitName("  ")
	assert.Equal(t, "Customer", first)
	assert.Equal(t, ".", last)
}
