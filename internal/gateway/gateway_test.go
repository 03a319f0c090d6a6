package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_Decode(t *testing.T) {
	var v struct {
		ID     string  `json:"id"`
		Title  string  `json:"title"`
		Budget float64 `json:"budget"`
	}
	doc := Document{ID: "srv-1", Fields: map[string]any{"title": "Paris", "budget": 1200.0, "id": "ignored"}}

	require.NoError(t, doc.Decode(&v))
	assert.Equal(t, "srv-1", v.ID)
	assert.Equal(t, "Paris", v.Title)
	assert.Equal(t, 1200.0, v.Budget)
	assert.Equal(t, "ignored", doc.Fields["id"], "decode must not mutate the document")
}

func TestNormalizeAndMerge(t *testing.T) {
	fields, err := NormalizeFields(map[string]any{"amount": 12, "createdAt": int64(1700000000000), "tags": []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, 12.0, fields["amount"])
	assert.Equal(t, 1.7e12, fields["createdAt"])
	assert.Equal(t, []any{"a"}, fields["tags"])

	base := map[string]any{"a": 1.0, "b": "x"}
	Merge(base, map[string]any{"a": nil, "c": true})
	assert.Equal(t, map[string]any{"b": "x", "c": true}, base)
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare(1.0, 2.0))
	assert.Equal(t, 1, Compare("b", "a"))
	assert.Equal(t, 0, Compare(true, true))
	assert.Equal(t, -1, Compare(nil, 0.0))
	assert.Equal(t, 1, Compare("a", nil))
	assert.True(t, Equal(map[string]any{"x": 1.0}, map[string]any{"x": 1.0}))
}

func TestQueryBuilders(t *testing.T) {
	q := Where("userId", "u1").Ordered("createdAt", Desc)
	require.Len(t, q.Filters, 1)
	assert.Equal(t, Filter{Field: "userId", Value: "u1"}, q.Filters[0])
	require.NotNil(t, q.OrderBy)
	assert.Equal(t, Order{Field: "createdAt", Dir: Desc}, *q.OrderBy)
}
