package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageDefaults(t *testing.T) {
	page, err := ParsePage("", "")
	require.NoError(t, err)
	assert.Equal(t, Page{Number: 1, Limit: DefaultLimit}, page)
	assert.Equal(t, 0, page.Offset())
}

func TestParsePageClampsLimit(t *testing.T) {
	page, err := ParsePage("3", "500")
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, page.Limit)
	assert.Equal(t, 200, page.Offset())
}

func TestParsePageRejectsGarbage(t *testing.T) {
	_, err := ParsePage("abc", "")
	assert.True(t, errors.Is(err, ErrInvalidPage))

	_, err = ParsePage("0", "")
	assert.True(t, errors.Is(err, ErrInvalidPage))

	_, err = ParsePage("1", "-5")
	assert.True(t, errors.Is(err, ErrInvalidLimit))
}

func TestSecondPageOfTwentyFive(t *testing.T) {
	page, err := ParsePage("2", "10")
	require.NoError(t, err)

	assert.Equal(t, 10, page.Offset())
	assert.Equal(t, "LIMIT 10 OFFSET 10", page.Clause())

	p := NewPagination(page, 25)
	assert.Equal(t, Pagination{Total: 25, Page: 2, Limit: 10, Pages: 3}, p)
}

func TestNewPaginationEmpty(t *testing.T) {
	p := NewPagination(Page{Number: 1, Limit: 10}, 0)
	assert.Equal(t, 0, p.Pages)
}

func TestFilterAndsIndependentPredicates(t *testing.T) {
	f := NewFilter().
		Contains("Choc", "name", "description").
		Equal("type", "cake").
		Equal("status", "")

	assert.Equal(t, "WHERE 1=1 AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?) AND type = ?", f.Where())
	assert.Equal(t, []any{"%choc%", "%choc%", "cake"}, f.Args())
}

func TestFilterEmpty(t *testing.T) {
	f := NewFilter().Contains("   ", "name").Equal("status", "")
	assert.Equal(t, "WHERE 1=1", f.Where())
	assert.Empty(t, f.Args())
}

func TestFilterEscapesWildcards(t *testing.T) {
	f := NewFilter().Contains("50%_off", "name")
	assert.Equal(t, []any{`%50\%\_off%`}, f.Args())
}
