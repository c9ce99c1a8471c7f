package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest_Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	p := FromRequest(req)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Equal(t, 0, p.Offset)
}

func TestFromRequest_ExplicitValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders?page=3&per_page=50", nil)
	p := FromRequest(req)

	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 50, p.PerPage)
	assert.Equal(t, 100, p.Offset)
}

func TestFromRequest_InvalidValuesFallBack(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders?page=-1&per_page=9999", nil)
	p := FromRequest(req)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
}

func TestNewResult_PageFlags(t *testing.T) {
	data := []string{"a", "b"}

	res := NewResult(data, 45, Params{Page: 2, PerPage: 20})
	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.HasNext)
	assert.True(t, res.HasPrev)

	first := NewResult(data, 45, Params{Page: 1, PerPage: 20})
	assert.False(t, first.HasPrev)

	last := NewResult(data, 45, Params{Page: 3, PerPage: 20})
	assert.False(t, last.HasNext)
}
