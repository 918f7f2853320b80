package main

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	Add(ctx context.Context, input BookCreate) (Book, error)
	GetOne(ctx context.Context, id string) (Book, error)
	GetAll(ctx context.Context, skip, limit int) ([]Book, error)
	Update(ctx context.Context, id string, update BookUpdate) (Book, error)
	Delete(ctx context.Context, id string) error
}

// BookService enforces the business rules around the books storage. It is
// the only place where the isbn uniqueness and record existence get checked.
type BookService struct {
	logger  *zap.Logger
	config  *Config
	ids     UIDHandler
	storage BookStorage
}

func NewBookService(logger *zap.Logger, config *Config, ids UIDHandler, storage BookStorage) BookServiceProvider {
	return &BookService{
		logger:  logger,
		config:  config,
		ids:     ids,
		storage: storage,
	}
}

// Add creates a new book record with a fresh id. It first checks that no
// book carries the same isbn. A concurrent creation can still slip between
// that check and the write, the storage then reports the same duplicate
// condition after rolling back, so the caller never sees a partial write.
func (bs *BookService) Add(ctx context.Context, input BookCreate) (Book, error) {
	_, err := bs.storage.GetByISBN(ctx, input.ISBN)
	if err == nil {
		return Book{}, ErrDuplicateISBN
	}
	if !errors.Is(err, ErrBookNotFound) {
		return Book{}, err
	}

	book := Book{
		ID:            bs.ids.Generate(),
		Title:         input.Title,
		Author:        input.Author,
		PublishedYear: input.PublishedYear,
		ISBN:          input.ISBN,
		Price:         *input.Price,
	}
	return bs.storage.Add(ctx, book)
}

// GetOne retrieves a single book record based on its ID.
func (bs *BookService) GetOne(ctx context.Context, id string) (Book, error) {
	book, err := bs.storage.GetOne(ctx, id)
	return book, err
}

// GetAll retrieves up to limit book records after skipping the first skip
// ones. An empty catalog yields an empty list, never an error.
func (bs *BookService) GetAll(ctx context.Context, skip, limit int) ([]Book, error) {
	books, err := bs.storage.GetAll(ctx, skip, limit)
	return books, err
}

// Update applies only the fields carried by the update payload. Moving the
// isbn onto an already used value reports the same duplicate condition as
// a creation would.
func (bs *BookService) Update(ctx context.Context, id string, update BookUpdate) (Book, error) {
	return bs.storage.Update(ctx, id, update)
}

// Delete permanently removes a book record based on its ID.
func (bs *BookService) Delete(ctx context.Context, id string) error {
	return bs.storage.Delete(ctx, id)
}
