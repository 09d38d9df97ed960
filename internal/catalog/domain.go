// internal/catalog/domain.go
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Book availability. Only the lending workflow flips these.
const (
	StatusAvailable   = "available"
	StatusUnavailable = "unavailable"
)

// Genres offered by the catalog.
var Genres = []string{
	"fiction",
	"nonfiction",
	"biography",
	"selfhelp",
	"children",
	"youngadult",
	"mystery",
	"romance",
	"thriller",
	"history",
}

// Book is a single physical copy in the catalog.
type Book struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Author        string    `json:"author" db:"author"`
	Price         int       `json:"price" db:"price"`
	PublishedDate time.Time `json:"published_date" db:"published_date"`
	ISBN          string    `json:"isbn" db:"isbn"`
	Pages         int       `json:"pages" db:"pages"`
	Status        string    `json:"status" db:"status"`
	Genre         string    `json:"genre" db:"genre"`
	CoverPath     *string   `json:"cover_path,omitempty" db:"cover_path"`
	AddedOn       time.Time `json:"added_on" db:"added_on"`
	UpdatedOn     time.Time `json:"updated_on" db:"updated_on"`
}

// Available reports whether the book can currently be borrowed.
func (b *Book) Available() bool {
	return b.Status == StatusAvailable
}

// Filter narrows ListBooks results; zero values mean "no constraint".
type Filter struct {
	Genre  string
	Status string
	Query  string // matched against title and author
}
