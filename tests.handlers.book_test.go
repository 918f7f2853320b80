package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testBookID   = "cb8f2136-fae4-4200-85d9-3533c7f8c70d"
	testBookISBN = "9780441013593"
)

var testCreatedAt = time.Date(2023, 7, 2, 0, 0, 0, 0, time.UTC)

func newTestAPIHandler(storage BookStorage, validID bool) *APIHandler {
	clock := NewMockClocker()
	bs := NewBookService(zap.NewNop(), nil, NewMockUIDHandler(testBookID, true), storage)
	return NewAPIHandler(
		zap.NewNop(),
		nil,
		&Statistics{started: clock.MockNow},
		clock,
		NewMockUIDHandler(testBookID, validID),
		bs,
	)
}

// TestStatusHandler ensures api handler can provides its status.
func TestStatusHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	api := newTestAPIHandler(nil, true)
	api.Status(w, req, httprouter.Params{})
	res := w.Result()
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))
	m := make(map[string]interface{})
	err = json.Unmarshal(data, &m)
	assert.NoError(t, err)

	_, ok := m["requestid"]
	assert.True(t, ok)

	v, ok := m["status"]
	assert.True(t, ok)
	assert.Equal(t, "up & running since 0 mins", v)

	v, ok = m["message"]
	assert.True(t, ok)
	assert.Equal(t, v, "Hello. Books store api is available. Enjoy :)")
}

// TestCreateBookHandler ensures api handler can create a book.
//
//nolint:funlen
func TestCreateBookHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		GetByISBNFunc: func(ctx context.Context, isbn string) (Book, error) {
			return Book{}, ErrBookNotFound
		},
		AddFunc: func(ctx context.Context, book Book) (Book, error) {
			book.CreatedAt = testCreatedAt
			return book, nil
		},
	}
	api := newTestAPIHandler(mockRepo, true)

	t.Run("should pass: valid payload", func(t *testing.T) {
		payload := []byte(`{"title":"Dune","author":"Herbert","isbn":"9780441013593","price":12.5}`)
		req := httptest.NewRequest(http.MethodPost, "/books", bytes.NewBuffer(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))

		var book Book
		err = json.Unmarshal(data, &book)
		require.NoError(t, err)
		assert.Equal(t, testBookID, book.ID)
		assert.Equal(t, "Dune", book.Title)
		assert.Equal(t, "Herbert", book.Author)
		assert.Nil(t, book.PublishedYear)
		assert.Equal(t, testBookISBN, book.ISBN)
		assert.Equal(t, 12.5, book.Price)
		assert.Equal(t, testCreatedAt, book.CreatedAt)
	})

	t.Run("should fail: missing required field", func(t *testing.T) {
		payload := []byte(`{"title":"Dune","isbn":"9780441013593","price":12.5}`)
		req := httptest.NewRequest(http.MethodPost, "/books", bytes.NewBuffer(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)

		var errResp APIError
		require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
		assert.Equal(t, "author is required", errResp.Message)
	})

	t.Run("should fail: missing price", func(t *testing.T) {
		payload := []byte(`{"title":"Dune","author":"Herbert","isbn":"9780441013593"}`)
		req := httptest.NewRequest(http.MethodPost, "/books", bytes.NewBuffer(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)

		var errResp APIError
		require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
		assert.Equal(t, "price is required", errResp.Message)
	})

	t.Run("should fail: isbn with wrong length", func(t *testing.T) {
		payload := []byte(`{"title":"Dune","author":"Herbert","isbn":"12345","price":12.5}`)
		req := httptest.NewRequest(http.MethodPost, "/books", bytes.NewBuffer(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)

		var errResp APIError
		require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
		assert.Equal(t, "isbn must be exactly 13 characters", errResp.Message)
	})

	t.Run("should fail: isbn already used", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetByISBNFunc: func(ctx context.Context, isbn string) (Book, error) {
				return Book{ID: testBookID, ISBN: isbn}, nil
			},
		}
		api := newTestAPIHandler(mockRepo, true)
		payload := []byte(`{"title":"Other","author":"Herbert","isbn":"9780441013593","price":12.5}`)
		req := httptest.NewRequest(http.MethodPost, "/books", bytes.NewBuffer(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)

		var errResp APIError
		require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
		assert.Equal(t, "book with this isbn already exists", errResp.Message)
	})

	t.Run("should fail: isbn used by a racing creation", func(t *testing.T) {
		// the pre-check saw nothing but the unique index rejected the write.
		mockRepo := &MockBookStorage{
			GetByISBNFunc: func(ctx context.Context, isbn string) (Book, error) {
				return Book{}, ErrBookNotFound
			},
			AddFunc: func(ctx context.Context, book Book) (Book, error) {
				return Book{}, ErrDuplicateISBN
			},
		}
		api := newTestAPIHandler(mockRepo, true)
		payload := []byte(`{"title":"Dune","author":"Herbert","isbn":"9780441013593","price":12.5}`)
		req := httptest.NewRequest(http.MethodPost, "/books", bytes.NewBuffer(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)

		var errResp APIError
		require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
		assert.Equal(t, "book with this isbn already exists", errResp.Message)
	})

	t.Run("should fail: storage insertion failure", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetByISBNFunc: func(ctx context.Context, isbn string) (Book, error) {
				return Book{}, ErrBookNotFound
			},
			AddFunc: func(ctx context.Context, book Book) (Book, error) {
				return Book{}, errors.New("storage failure")
			},
		}
		api := newTestAPIHandler(mockRepo, true)
		payload := []byte(`{"title":"Dune","author":"Herbert","isbn":"9780441013593","price":12.5}`)
		req := httptest.NewRequest(http.MethodPost, "/books", bytes.NewBuffer(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)

		var errResp APIError
		require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
		assert.Equal(t, "failed to create the book", errResp.Message)
	})
}

// TestGetAllBooksHandler ensures api handler can list books with pagination.
func TestGetAllBooksHandler(t *testing.T) {
	t.Run("should pass: default pagination", func(t *testing.T) {
		var gotSkip, gotLimit int
		mockRepo := &MockBookStorage{
			GetAllFunc: func(ctx context.Context, skip, limit int) ([]Book, error) {
				gotSkip, gotLimit = skip, limit
				return []Book{
					{ID: testBookID, Title: "Dune", Author: "Herbert", ISBN: testBookISBN, Price: 12.5, CreatedAt: testCreatedAt},
				}, nil
			},
		}
		api := newTestAPIHandler(mockRepo, true)
		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		w := httptest.NewRecorder()
		api.GetAllBooks(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, 0, gotSkip)
		assert.Equal(t, 10, gotLimit)

		var books []Book
		require.NoError(t, json.NewDecoder(res.Body).Decode(&books))
		require.Len(t, books, 1)
		assert.Equal(t, "Dune", books[0].Title)
	})

	t.Run("should pass: explicit pagination", func(t *testing.T) {
		var gotSkip, gotLimit int
		mockRepo := &MockBookStorage{
			GetAllFunc: func(ctx context.Context, skip, limit int) ([]Book, error) {
				gotSkip, gotLimit = skip, limit
				return []Book{}, nil
			},
		}
		api := newTestAPIHandler(mockRepo, true)
		req := httptest.NewRequest(http.MethodGet, "/books?skip=5&limit=2", nil)
		w := httptest.NewRecorder()
		api.GetAllBooks(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, 5, gotSkip)
		assert.Equal(t, 2, gotLimit)
	})

	t.Run("should pass: empty catalog gives empty list", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetAllFunc: func(ctx context.Context, skip, limit int) ([]Book, error) {
				return []Book{}, nil
			},
		}
		api := newTestAPIHandler(mockRepo, true)
		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		w := httptest.NewRecorder()
		api.GetAllBooks(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.JSONEq(t, "[]", string(data))
	})

	t.Run("should fail: negative skip", func(t *testing.T) {
		api := newTestAPIHandler(&MockBookStorage{}, true)
		req := httptest.NewRequest(http.MethodGet, "/books?skip=-1", nil)
		w := httptest.NewRecorder()
		api.GetAllBooks(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

// TestGetOneBookHandler ensures api handler can fetch a single book.
func TestGetOneBookHandler(t *testing.T) {
	t.Run("should pass: existent book", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetOneFunc: func(ctx context.Context, id string) (Book, error) {
				return Book{ID: id, Title: "Dune", Author: "Herbert", ISBN: testBookISBN, Price: 12.5, CreatedAt: testCreatedAt}, nil
			},
		}
		api := newTestAPIHandler(mockRepo, true)
		req := httptest.NewRequest(http.MethodGet, "/books/"+testBookID, nil)
		w := httptest.NewRecorder()
		api.GetOneBook(w, req, httprouter.Params{{Key: "id", Value: testBookID}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var book Book
		require.NoError(t, json.NewDecoder(res.Body).Decode(&book))
		assert.Equal(t, testBookID, book.ID)
		assert.Equal(t, "Dune", book.Title)
	})

	t.Run("should fail: non existent book", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetOneFunc: func(ctx context.Context, id string) (Book, error) {
				return Book{}, ErrBookNotFound
			},
		}
		api := newTestAPIHandler(mockRepo, true)
		req := httptest.NewRequest(http.MethodGet, "/books/"+testBookID, nil)
		w := httptest.NewRecorder()
		api.GetOneBook(w, req, httprouter.Params{{Key: "id", Value: testBookID}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)

		var errResp APIError
		require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
		assert.Equal(t, "book does not exist", errResp.Message)
	})

	t.Run("should fail: invalid book id", func(t *testing.T) {
		api := newTestAPIHandler(&MockBookStorage{}, false)
		req := httptest.NewRequest(http.MethodGet, "/books/not-an-uuid", nil)
		w := httptest.NewRecorder()
		api.GetOneBook(w, req, httprouter.Params{{Key: "id", Value: "not-an-uuid"}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

// TestUpdateBookHandler ensures api handler can partially update a book.
// Changing the isbn into an already used value is rejected like on create,
// the baseline asymmetry between both paths was resolved on purpose.
//
//nolint:funlen
func TestUpdateBookHandler(t *testing.T) {
	t.Run("should pass: price only update", func(t *testing.T) {
		var gotUpdate BookUpdate
		mockRepo := &MockBookStorage{
			UpdateFunc: func(ctx context.Context, id string, update BookUpdate) (Book, error) {
				gotUpdate = update
				return Book{ID: id, Title: "Dune", Author: "Herbert", ISBN: testBookISBN, Price: 9.99, CreatedAt: testCreatedAt}, nil
			},
		}
		api := newTestAPIHandler(mockRepo, true)
		payload := []byte(`{"price":9.99}`)
		req := httptest.NewRequest(http.MethodPut, "/books/"+testBookID, bytes.NewBuffer(payload))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: testBookID}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)

		require.NotNil(t, gotUpdate.Price)
		assert.Equal(t, 9.99, *gotUpdate.Price)
		assert.Nil(t, gotUpdate.Title)
		assert.Nil(t, gotUpdate.Author)
		assert.Nil(t, gotUpdate.ISBN)
		assert.False(t, gotUpdate.PublishedYear.Set)

		var book Book
		require.NoError(t, json.NewDecoder(res.Body).Decode(&book))
		assert.Equal(t, 9.99, book.Price)
		assert.Equal(t, "Dune", book.Title)
	})

	t.Run("should pass: explicit null clears published year", func(t *testing.T) {
		var gotUpdate BookUpdate
		mockRepo := &MockBookStorage{
			UpdateFunc: func(ctx context.Context, id string, update BookUpdate) (Book, error) {
				gotUpdate = update
				return Book{ID: id}, nil
			},
		}
		api := newTestAPIHandler(mockRepo, true)
		payload := []byte(`{"published_year":null}`)
		req := httptest.NewRequest(http.MethodPut, "/books/"+testBookID, bytes.NewBuffer(payload))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: testBookID}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.True(t, gotUpdate.PublishedYear.Set)
		assert.Nil(t, gotUpdate.PublishedYear.Value)
	})

	t.Run("should fail: non existent book", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			UpdateFunc: func(ctx context.Context, id string, update BookUpdate) (Book, error) {
				return Book{}, ErrBookNotFound
			},
		}
		api := newTestAPIHandler(mockRepo, true)
		payload := []byte(`{"price":9.99}`)
		req := httptest.NewRequest(http.MethodPut, "/books/"+testBookID, bytes.NewBuffer(payload))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: testBookID}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("should fail: isbn moved onto an used value", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			UpdateFunc: func(ctx context.Context, id string, update BookUpdate) (Book, error) {
				return Book{}, ErrDuplicateISBN
			},
		}
		api := newTestAPIHandler(mockRepo, true)
		payload := []byte(`{"isbn":"9780441013593"}`)
		req := httptest.NewRequest(http.MethodPut, "/books/"+testBookID, bytes.NewBuffer(payload))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: testBookID}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)

		var errResp APIError
		require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
		assert.Equal(t, "book with this isbn already exists", errResp.Message)
	})

	t.Run("should fail: isbn with wrong length", func(t *testing.T) {
		api := newTestAPIHandler(&MockBookStorage{}, true)
		payload := []byte(`{"isbn":"12345"}`)
		req := httptest.NewRequest(http.MethodPut, "/books/"+testBookID, bytes.NewBuffer(payload))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: testBookID}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("should fail: invalid book id", func(t *testing.T) {
		api := newTestAPIHandler(&MockBookStorage{}, false)
		payload := []byte(`{"price":9.99}`)
		req := httptest.NewRequest(http.MethodPut, "/books/not-an-uuid", bytes.NewBuffer(payload))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: "not-an-uuid"}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

// TestDeleteOneBookHandler ensures api handler can delete a book.
func TestDeleteOneBookHandler(t *testing.T) {
	t.Run("should pass: existent book", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			DeleteFunc: func(ctx context.Context, id string) error {
				return nil
			},
		}
		api := newTestAPIHandler(mockRepo, true)
		req := httptest.NewRequest(http.MethodDelete, "/books/"+testBookID, nil)
		w := httptest.NewRecorder()
		api.DeleteOneBook(w, req, httprouter.Params{{Key: "id", Value: testBookID}})
		res := w.Result()
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, res.StatusCode)
		assert.Empty(t, data)
	})

	t.Run("should fail: non existent book", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			DeleteFunc: func(ctx context.Context, id string) error {
				return ErrBookNotFound
			},
		}
		api := newTestAPIHandler(mockRepo, true)
		req := httptest.NewRequest(http.MethodDelete, "/books/"+testBookID, nil)
		w := httptest.NewRecorder()
		api.DeleteOneBook(w, req, httprouter.Params{{Key: "id", Value: testBookID}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("should fail: invalid book id", func(t *testing.T) {
		api := newTestAPIHandler(&MockBookStorage{}, false)
		req := httptest.NewRequest(http.MethodDelete, "/books/not-an-uuid", nil)
		w := httptest.NewRecorder()
		api.DeleteOneBook(w, req, httprouter.Params{{Key: "id", Value: "not-an-uuid"}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}
