package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPut_RuleTable(t *testing.T) {
	d := New().Set("title", "Paris")
	Put(d, "notes", Opt[string]{})
	Put(d, "budget", Clear[float64]())
	Put(d, "currency", Some("EUR"))

	assert.False(t, d.Has("notes"), "absent must be omitted")
	assert.True(t, d.Has("budget"))
	assert.Nil(t, d["budget"], "cleared must be explicit nil")
	assert.Equal(t, "EUR", d["currency"])
	assert.Equal(t, "Paris", d["title"])
}

func TestPutPtr(t *testing.T) {
	rate := 1.1
	d := New()
	PutPtr[float64](d, "exchangeRate", nil)
	PutPtr(d, "rate", &rate)

	assert.False(t, d.Has("exchangeRate"))
	assert.Equal(t, 1.1, d["rate"])
}

func TestOpt_Apply(t *testing.T) {
	cur := "old"

	assert.Equal(t, &cur, Opt[string]{}.Apply(&cur))
	assert.Nil(t, Clear[string]().Apply(&cur))
	assert.Equal(t, "new", *Some("new").Apply(&cur))

	assert.True(t, FromPtr[string](nil).IsAbsent())
	v, ok := FromPtr(&cur).Get()
	assert.True(t, ok)
	assert.Equal(t, "old", v)
	assert.True(t, Clear[int]().IsCleared())
}

func TestDoc_Merge(t *testing.T) {
	d := New().Set("a", 1).Merge(Doc{"b": nil})
	assert.Equal(t, Doc{"a": 1, "b": nil}, d)
}
