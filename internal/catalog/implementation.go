// internal/catalog/implementation.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const bookColumns = `id, title, author, price, published_date, isbn, pages, status, genre, cover_path, added_on, updated_on`

// service implements the Service interface.
type service struct {
	db *sqlx.DB
}

// NewService creates a new catalog service instance.
func NewService(db *sqlx.DB) Service {
	return &service{db: db}
}

// AddBook creates a new book, available by default.
func (s *service) AddBook(ctx context.Context, input BookInput) (*Book, error) {
	published, err := parseDate(input.PublishedDate)
	if err != nil {
		return nil, err
	}

	book := &Book{
		ID:            uuid.New(),
		Title:         input.Title,
		Author:        input.Author,
		Price:         input.Price,
		PublishedDate: published,
		ISBN:          input.ISBN,
		Pages:         input.Pages,
		Status:        StatusAvailable,
		Genre:         input.Genre,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO books (id, title, author, price, published_date, isbn, pages, status, genre)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, book.ID, book.Title, book.Author, book.Price, book.PublishedDate, book.ISBN, book.Pages, book.Status, book.Genre)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateISBN
		}
		return nil, fmt.Errorf("insert book: %w", err)
	}

	slog.Info("book added", "book_id", book.ID, "title", book.Title, "isbn", book.ISBN)
	return s.GetBook(ctx, book.ID)
}

// GetBook retrieves a book by its ID.
func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*Book, error) {
	book := &Book{}
	err := s.db.GetContext(ctx, book, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// UpdateBook replaces the staff-editable fields of a book. Availability is
// untouched; only the lending workflow changes it.
func (s *service) UpdateBook(ctx context.Context, id uuid.UUID, input BookInput) (*Book, error) {
	published, err := parseDate(input.PublishedDate)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE books
		SET title = $1, author = $2, price = $3, published_date = $4, isbn = $5,
		    pages = $6, genre = $7, updated_on = NOW()
		WHERE id = $8
	`, input.Title, input.Author, input.Price, published, input.ISBN, input.Pages, input.Genre, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateISBN
		}
		return nil, fmt.Errorf("update book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrBookNotFound
	}

	return s.GetBook(ctx, id)
}

// DeleteBook removes a book and, via cascade, its borrow history.
func (s *service) DeleteBook(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBookNotFound
	}
	slog.Info("book deleted", "book_id", id)
	return nil
}

// ListBooks returns books matching the filter, newest first.
func (s *service) ListBooks(ctx context.Context, filter Filter) ([]Book, error) {
	query, args, err := buildListQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	books := []Book{}
	if err := s.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// AvailableBooks lists what members can borrow right now.
func (s *service) AvailableBooks(ctx context.Context) ([]Book, error) {
	return s.ListBooks(ctx, Filter{Status: StatusAvailable})
}

// SetCover records a new cover reference and returns the previous one so the
// caller can clean up the blob store.
func (s *service) SetCover(ctx context.Context, id uuid.UUID, ref string) (*string, error) {
	var previous *string
	err := s.db.QueryRowxContext(ctx, `
		UPDATE books b
		SET cover_path = $1, updated_on = NOW()
		FROM (SELECT cover_path FROM books WHERE id = $2) old
		WHERE b.id = $2
		RETURNING old.cover_path
	`, ref, id).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set cover: %w", err)
	}
	return previous, nil
}

// buildListQuery assembles the filtered catalog listing.
func buildListQuery(filter Filter) (string, []interface{}, error) {
	ds := goqu.Dialect("postgres").
		From("books").
		Select(
			"id", "title", "author", "price", "published_date", "isbn",
			"pages", "status", "genre", "cover_path", "added_on", "updated_on",
		).
		Order(goqu.I("added_on").Desc())

	if filter.Genre != "" {
		ds = ds.Where(goqu.C("genre").Eq(filter.Genre))
	}
	if filter.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(filter.Status))
	}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		ds = ds.Where(goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("author").ILike(pattern),
		))
	}

	return ds.Prepared(true).ToSQL()
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}
