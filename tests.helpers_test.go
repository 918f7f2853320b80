package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGenerateID ensures generated ids carry the expected prefix.
func TestGenerateID(t *testing.T) {
	id := GenerateID(RequestIDPrefix)
	assert.True(t, strings.HasPrefix(id, RequestIDPrefix+":"))
	assert.NotEqual(t, id, GenerateID(RequestIDPrefix))
}

// TestIDsHandler ensures uuid generation and validation behave.
func TestIDsHandler(t *testing.T) {
	idh := NewIDsHandler()
	id := idh.Generate()
	assert.True(t, idh.IsValid(id))
	assert.False(t, idh.IsValid("not-an-uuid"))
	assert.False(t, idh.IsValid(""))
}

// TestValidateCreateBookRequestBody ensures each creation field rule.
func TestValidateCreateBookRequestBody(t *testing.T) {
	price := 12.5
	testCases := []struct {
		name     string
		input    BookCreate
		expected string
	}{
		{
			"valid payload",
			BookCreate{Title: "Dune", Author: "Herbert", ISBN: "9780441013593", Price: &price},
			"",
		},
		{
			"missing title",
			BookCreate{Author: "Herbert", ISBN: "9780441013593", Price: &price},
			"title is required",
		},
		{
			"missing author",
			BookCreate{Title: "Dune", ISBN: "9780441013593", Price: &price},
			"author is required",
		},
		{
			"missing isbn",
			BookCreate{Title: "Dune", Author: "Herbert", Price: &price},
			"isbn is required",
		},
		{
			"short isbn",
			BookCreate{Title: "Dune", Author: "Herbert", ISBN: "978", Price: &price},
			"isbn must be exactly 13 characters",
		},
		{
			"long isbn",
			BookCreate{Title: "Dune", Author: "Herbert", ISBN: "97804410135930", Price: &price},
			"isbn must be exactly 13 characters",
		},
		{
			"missing price",
			BookCreate{Title: "Dune", Author: "Herbert", ISBN: "9780441013593"},
			"price is required",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCreateBookRequestBody(&tc.input)
			if tc.expected == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tc.expected, err.Error())
			}
		})
	}
}

// TestValidateUpdateBookRequestBody ensures only provided fields get checked.
func TestValidateUpdateBookRequestBody(t *testing.T) {
	empty := ""
	title := "Dune"
	badISBN := "978"

	t.Run("empty update is valid", func(t *testing.T) {
		assert.NoError(t, ValidateUpdateBookRequestBody(&BookUpdate{}))
	})

	t.Run("provided title must not be empty", func(t *testing.T) {
		err := ValidateUpdateBookRequestBody(&BookUpdate{Title: &empty})
		require.Error(t, err)
		assert.Equal(t, "title must not be empty", err.Error())
	})

	t.Run("provided author must not be empty", func(t *testing.T) {
		err := ValidateUpdateBookRequestBody(&BookUpdate{Author: &empty})
		require.Error(t, err)
		assert.Equal(t, "author must not be empty", err.Error())
	})

	t.Run("provided isbn must have 13 characters", func(t *testing.T) {
		err := ValidateUpdateBookRequestBody(&BookUpdate{ISBN: &badISBN})
		require.Error(t, err)
		assert.Equal(t, "isbn must be exactly 13 characters", err.Error())
	})

	t.Run("valid partial update", func(t *testing.T) {
		assert.NoError(t, ValidateUpdateBookRequestBody(&BookUpdate{Title: &title}))
	})
}

// TestParseListBooksQuery ensures pagination parameters parsing and defaults.
func TestParseListBooksQuery(t *testing.T) {
	testCases := []struct {
		name    string
		target  string
		skip    int
		limit   int
		failure bool
	}{
		{"no parameters", "/books", 0, 10, false},
		{"skip only", "/books?skip=3", 3, 10, false},
		{"limit only", "/books?limit=50", 0, 50, false},
		{"both parameters", "/books?skip=20&limit=5", 20, 5, false},
		{"zero limit", "/books?limit=0", 0, 0, false},
		{"negative skip", "/books?skip=-1", 0, 0, true},
		{"negative limit", "/books?limit=-5", 0, 0, true},
		{"non numeric skip", "/books?skip=abc", 0, 0, true},
		{"non numeric limit", "/books?limit=ten", 0, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tc.target, nil)
			skip, limit, err := ParseListBooksQuery(r)
			if tc.failure {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.skip, skip)
			assert.Equal(t, tc.limit, limit)
		})
	}
}

// TestBookUpdateUnmarshal ensures the update payload distinguishes between
// an absent published_year, an explicit null and a concrete value.
func TestBookUpdateUnmarshal(t *testing.T) {
	t.Run("absent published year", func(t *testing.T) {
		var update BookUpdate
		require.NoError(t, json.Unmarshal([]byte(`{"title":"Dune"}`), &update))
		assert.False(t, update.PublishedYear.Set)
		assert.Nil(t, update.PublishedYear.Value)
	})

	t.Run("null published year", func(t *testing.T) {
		var update BookUpdate
		require.NoError(t, json.Unmarshal([]byte(`{"published_year":null}`), &update))
		assert.True(t, update.PublishedYear.Set)
		assert.Nil(t, update.PublishedYear.Value)
	})

	t.Run("concrete published year", func(t *testing.T) {
		var update BookUpdate
		require.NoError(t, json.Unmarshal([]byte(`{"published_year":1965}`), &update))
		assert.True(t, update.PublishedYear.Set)
		require.NotNil(t, update.PublishedYear.Value)
		assert.Equal(t, 1965, *update.PublishedYear.Value)
	})
}

// TestBookUpdateIsZero ensures empty payload detection used to skip the db write.
func TestBookUpdateIsZero(t *testing.T) {
	title := "Dune"
	assert.True(t, (&BookUpdate{}).IsZero())
	assert.False(t, (&BookUpdate{Title: &title}).IsZero())
	assert.False(t, (&BookUpdate{PublishedYear: OptionalInt{Set: true}}).IsZero())
}

// TestCustomResponseWriter ensures status code and bytes accounting.
func TestCustomResponseWriter(t *testing.T) {
	t.Run("explicit status", func(t *testing.T) {
		w := httptest.NewRecorder()
		cw := NewCustomResponseWriter(w)
		cw.WriteHeader(http.StatusCreated)
		n, err := cw.Write([]byte("ok"))
		assert.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, http.StatusCreated, cw.Status())
		assert.Equal(t, 2, cw.Bytes())
	})

	t.Run("implicit status on write", func(t *testing.T) {
		w := httptest.NewRecorder()
		cw := NewCustomResponseWriter(w)
		_, err := cw.Write([]byte("hello"))
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, cw.Status())
		assert.Equal(t, 5, cw.Bytes())
	})
}

// TestGetRequestSourceIP ensures the forwarded headers take precedence.
func TestGetRequestSourceIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/books", nil)
	r.RemoteAddr = "10.0.0.9:4567"
	assert.Equal(t, "10.0.0.9", GetRequestSourceIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", GetRequestSourceIP(r))
}
