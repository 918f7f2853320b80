package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrDuplicateISBN = errors.New("book with this isbn already exists")
)

// Book represents a book record as persisted and served.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	PublishedYear *int      `json:"published_year"`
	ISBN          string    `json:"isbn"`
	Price         float64   `json:"price"`
	CreatedAt     time.Time `json:"created_at"`
}

// BookCreate is the payload accepted when creating a book. Price uses
// a pointer so a missing field can be told apart from a zero price.
type BookCreate struct {
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	PublishedYear *int     `json:"published_year"`
	ISBN          string   `json:"isbn"`
	Price         *float64 `json:"price"`
}

// OptionalInt records whether the field was present in the request
// body. A present null clears the stored value while an absent field
// leaves it untouched.
type OptionalInt struct {
	Value *int
	Set   bool
}

// UnmarshalJSON is only invoked by the decoder when the key is present.
func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	o.Set = true
	return json.Unmarshal(data, &o.Value)
}

// BookUpdate is the payload accepted when updating a book. Nil fields
// were absent from the request and must leave the record unchanged.
type BookUpdate struct {
	Title         *string     `json:"title"`
	Author        *string     `json:"author"`
	PublishedYear OptionalInt `json:"published_year"`
	ISBN          *string     `json:"isbn"`
	Price         *float64    `json:"price"`
}

// IsZero tells if the update carries no field at all.
func (bu *BookUpdate) IsZero() bool {
	return bu.Title == nil && bu.Author == nil && !bu.PublishedYear.Set &&
		bu.ISBN == nil && bu.Price == nil
}

// BookStorage defines possible operations on book records.
type BookStorage interface {
	Add(ctx context.Context, book Book) (Book, error)
	GetOne(ctx context.Context, id string) (Book, error)
	GetByISBN(ctx context.Context, isbn string) (Book, error)
	GetAll(ctx context.Context, skip, limit int) ([]Book, error)
	Update(ctx context.Context, id string, update BookUpdate) (Book, error)
	Delete(ctx context.Context, id string) error
}
