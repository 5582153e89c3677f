package clix

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("limit", 0, "")
	fs.Int("offset", 0, "")

	require.NoError(t, fs.Parse([]string{"--offset", "5"}))
	p, err := ParsePagination(fs)
	require.NoError(t, err)
	assert.Equal(t, PaginationParams{Limit: 20, Offset: 5}, p)

	require.NoError(t, fs.Parse([]string{"--offset", "-1"}))
	_, err = ParsePagination(fs)
	assert.Error(t, err)
}

func TestParseList(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("must", "", "")
	fs.StringSlice("nice", nil, "")

	require.NoError(t, fs.Parse([]string{"--must", " Go, ,Postgres ", "--nice", "Redis", "--nice", " Kafka"}))

	must, err := ParseList(fs, "must")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Postgres"}, must)

	nice, err := ParseList(fs, "nice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Redis", "Kafka"}, nice)

	_, err = ParseList(fs, "missing")
	assert.Error(t, err)
}

func TestParseList_Empty(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("must", "", "")
	require.NoError(t, fs.Parse(nil))

	must, err := ParseList(fs, "must")
	require.NoError(t, err)
	assert.Empty(t, must)
	assert.NotNil(t, must)
}
