package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-coursetests/internal/coursetest"
)

func TestParseAlternatives(t *testing.T) {
	got, err := parseAlternatives([]string{"A=Paris", " b =Rome=Italy"})
	require.NoError(t, err)
	assert.Equal(t, []coursetest.Alternative{
		{Key: "A", Text: "Paris"},
		{Key: "b", Text: "Rome=Italy"},
	}, got)

	_, err = parseAlternatives([]string{"nokey"})
	assert.Error(t, err)
	_, err = parseAlternatives([]string{"=text"})
	assert.Error(t, err)
}
