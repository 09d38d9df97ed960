// internal/catalog/implementation_test.go
package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildListQueryNoFilter(t *testing.T) {
	query, args, err := buildListQuery(Filter{})
	require.NoError(t, err)

	assert.Contains(t, query, `FROM "books"`)
	assert.Contains(t, query, `ORDER BY "added_on" DESC`)
	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)
}

func TestBuildListQueryGenreAndStatus(t *testing.T) {
	query, args, err := buildListQuery(Filter{Genre: "history", Status: StatusAvailable})
	require.NoError(t, err)

	assert.Contains(t, query, `"genre"`)
	assert.Contains(t, query, `"status"`)
	assert.Equal(t, []interface{}{"history", StatusAvailable}, args)
}

func TestBuildListQuerySearchMatchesTitleOrAuthor(t *testing.T) {
	query, args, err := buildListQuery(Filter{Query: "tolkien"})
	require.NoError(t, err)

	assert.Contains(t, query, "ILIKE")
	assert.Contains(t, query, `"title"`)
	assert.Contains(t, query, `"author"`)
	require.Len(t, args, 2)
	assert.Equal(t, "%tolkien%", args[0])
	assert.Equal(t, "%tolkien%", args[1])
}

func TestBuildListQueryUsesPositionalPlaceholders(t *testing.T) {
	query, _, err := buildListQuery(Filter{Genre: "thriller", Status: StatusUnavailable, Query: "king"})
	require.NoError(t, err)

	assert.Contains(t, query, "$1")
	assert.Contains(t, query, "$4")
	assert.False(t, strings.Contains(query, "?"), "placeholders must be numbered for postgres: %s", query)
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2024-07-01")
	require.NoError(t, err)
	assert.Equal(t, 2024, got.Year())

	_, err = parseDate("July 1st 2024")
	assert.Error(t, err)
}

func TestGenresListIsStable(t *testing.T) {
	assert.Len(t, Genres, 10)
	assert.Contains(t, Genres, "fiction")
	assert.Contains(t, Genres, "history")
}
