package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// booksTableSchema is applied at startup. The database itself is the
// final arbiter of the isbn uniqueness under concurrent creations.
const booksTableSchema = `CREATE TABLE IF NOT EXISTS books (
	id uuid PRIMARY KEY,
	title text NOT NULL,
	author text NOT NULL,
	published_year integer,
	isbn varchar(13) NOT NULL UNIQUE,
	price double precision NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
)`

const booksColumns = "id, title, author, published_year, isbn, price, created_at"

// uniqueViolationCode is the postgres SQLSTATE for unique constraint failures.
const uniqueViolationCode = "23505"

type postgresBookStorage struct {
	logger *zap.Logger
	pool   *pgxpool.Pool
}

// GetPostgresPool provides a ready to use connections pool built from
// the configured database url.
func GetPostgresPool(config *Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(config.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %v", err)
	}
	if config.Database.MaxConns > 0 {
		poolConfig.MaxConns = config.Database.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build the connections pool: %v", err)
	}

	// test connection.
	ctx, cancel := context.WithTimeout(context.Background(), config.Database.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return pool, fmt.Errorf("test connection failed: %v", err)
	}
	return pool, nil
}

// NewPostgresBookStorage provides an instance of postgres-based book
// storage after making sure the books table exists.
func NewPostgresBookStorage(logger *zap.Logger, pool *pgxpool.Pool) (BookStorage, error) {
	ps := &postgresBookStorage{
		logger: logger,
		pool:   pool,
	}
	if err := ps.EnsureBooksTable(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to set up books table: %v", err)
	}
	return ps, nil
}

// EnsureBooksTable creates the books table when missing. No migration
// framework, create-if-missing only.
func (ps *postgresBookStorage) EnsureBooksTable(ctx context.Context) error {
	conn, err := ps.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	_, err = conn.Exec(ctx, booksTableSchema)
	return err
}

// IsUniqueViolation tells if a storage error comes from the isbn unique index.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func scanBook(row pgx.Row) (Book, error) {
	var book Book
	err := row.Scan(&book.ID, &book.Title, &book.Author, &book.PublishedYear,
		&book.ISBN, &book.Price, &book.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, err
	}
	return book, nil
}

// Add inserts a new book record inside its own transaction and returns it
// with the database assigned creation time. A concurrent creation racing on
// the isbn unique index rolls the transaction back and reports ErrDuplicateISBN.
func (ps *postgresBookStorage) Add(ctx context.Context, book Book) (Book, error) {
	conn, err := ps.pool.Acquire(ctx)
	if err != nil {
		return Book{}, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return Book{}, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO books (id, title, author, published_year, isbn, price)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		book.ID, book.Title, book.Author, book.PublishedYear, book.ISBN, book.Price,
	).Scan(&book.CreatedAt)
	if IsUniqueViolation(err) {
		return Book{}, ErrDuplicateISBN
	}
	if err != nil {
		return Book{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return Book{}, err
	}
	return book, nil
}

// GetOne retrieves a book record based on its ID.
func (ps *postgresBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	conn, err := ps.pool.Acquire(ctx)
	if err != nil {
		return Book{}, err
	}
	defer conn.Release()

	return scanBook(conn.QueryRow(ctx,
		`SELECT `+booksColumns+` FROM books WHERE id = $1`, id))
}

// GetByISBN retrieves a book record based on its unique isbn.
func (ps *postgresBookStorage) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	conn, err := ps.pool.Acquire(ctx)
	if err != nil {
		return Book{}, err
	}
	defer conn.Release()

	return scanBook(conn.QueryRow(ctx,
		`SELECT `+booksColumns+` FROM books WHERE isbn = $1`, isbn))
}

// GetAll retrieves up to limit book records after skipping the first skip
// ones. Creation order keeps the listing stable across calls.
func (ps *postgresBookStorage) GetAll(ctx context.Context, skip, limit int) ([]Book, error) {
	conn, err := ps.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx,
		`SELECT `+booksColumns+` FROM books ORDER BY created_at, id OFFSET $1 LIMIT $2`,
		skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []Book{}
	for rows.Next() {
		var book Book
		if err = rows.Scan(&book.ID, &book.Title, &book.Author, &book.PublishedYear,
			&book.ISBN, &book.Price, &book.CreatedAt); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// Update rewrites only the fields carried by the update payload and returns
// the full updated record. Changing the isbn into an already used value
// reports ErrDuplicateISBN, the unique index backs that check.
func (ps *postgresBookStorage) Update(ctx context.Context, id string, update BookUpdate) (Book, error) {
	if update.IsZero() {
		return ps.GetOne(ctx, id)
	}

	sets := []string{}
	args := []any{}
	argn := 1
	if update.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", argn))
		args = append(args, *update.Title)
		argn++
	}
	if update.Author != nil {
		sets = append(sets, fmt.Sprintf("author = $%d", argn))
		args = append(args, *update.Author)
		argn++
	}
	if update.PublishedYear.Set {
		sets = append(sets, fmt.Sprintf("published_year = $%d", argn))
		args = append(args, update.PublishedYear.Value)
		argn++
	}
	if update.ISBN != nil {
		sets = append(sets, fmt.Sprintf("isbn = $%d", argn))
		args = append(args, *update.ISBN)
		argn++
	}
	if update.Price != nil {
		sets = append(sets, fmt.Sprintf("price = $%d", argn))
		args = append(args, *update.Price)
		argn++
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE books SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), argn, booksColumns)

	conn, err := ps.pool.Acquire(ctx)
	if err != nil {
		return Book{}, err
	}
	defer conn.Release()

	book, err := scanBook(conn.QueryRow(ctx, query, args...))
	if IsUniqueViolation(err) {
		return Book{}, ErrDuplicateISBN
	}
	return book, err
}

// Delete permanently removes a book record based on its ID.
func (ps *postgresBookStorage) Delete(ctx context.Context, id string) error {
	conn, err := ps.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}
