package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccountCode(t *testing.T) {
	assert.Equal(t, "1012345", AccountCode("12345"))
	assert.Equal(t, "123456", AccountCode("123456"))
	assert.Equal(t, "1234", AccountCode("1234"))
	assert.Equal(t, "1012345", AccountCode(" 12345 "))
}

func TestVATNumber(t *testing.T) {
	assert.Equal(t, "DE123456789", VATNumber("DE-123.456.789", "DE", "CH"))
	assert.Equal(t, "", VATNumber("CHE-123.456.789", "ch", "CH"))
	assert.Equal(t, "ATU1", VATNumber(" ATU1 ", "AT", ""))
}

func TestDriftedIsPositional(t *testing.T) {
	assert.False(t, Drifted([]string{"a", "b"}, []string{"a", "b "}))
	assert.True(t, Drifted([]string{"a", "b"}, []string{"b", "a"}))
	assert.True(t, Drifted([]string{"a"}, []string{"a", ""}))
}

func TestAddressLine(t *testing.T) {
	assert.Equal(t, "Hauptstr. 1", AddressLine("Hauptstr.", "1"))
	assert.Equal(t, "Hauptstr.", AddressLine("Hauptstr.", ""))
}
