package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePortValid(t *testing.T) {
	port, err := parsePort("9000")
	assert.NoError(t, err)
	assert.Equal(t, 9000, port)
}

func TestParsePortRejectsNonNumeric(t *testing.T) {
	_, err := parsePort("abc")
	assert.Error(t, err)
}

func TestParsePortRejectsOutOfRange(t *testing.T) {
	_, err := parsePort("70000")
	assert.Error(t, err)

	_, err = parsePort("0")
	assert.Error(t, err)
}
