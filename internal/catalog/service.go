// internal/catalog/service.go
package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrDuplicateISBN = errors.New("a book with this ISBN already exists")
)

// BookInput carries the staff-editable fields of a book.
type BookInput struct {
	Title         string
	Author        string
	Price         int
	PublishedDate string // YYYY-MM-DD
	ISBN          string
	Pages         int
	Genre         string
}

// Service defines the interface for the catalog service.
type Service interface {
	AddBook(ctx context.Context, input BookInput) (*Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, input BookInput) (*Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
	ListBooks(ctx context.Context, filter Filter) ([]Book, error)
	AvailableBooks(ctx context.Context) ([]Book, error)
	SetCover(ctx context.Context, id uuid.UUID, ref string) (previous *string, err error)
}
