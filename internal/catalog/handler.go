// internal/catalog/handler.go
package catalog

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"librarium/internal/covers"
	"librarium/internal/httpjson"
)

var validate = validator.New()

const maxCoverBytes = 5 << 20

type Handler struct {
	service Service
	covers  covers.Store
}

func NewHandler(service Service, coverStore covers.Store) *Handler {
	return &Handler{service: service, covers: coverStore}
}

type bookRequest struct {
	Title         string `json:"title" validate:"required,max=200"`
	Author        string `json:"author" validate:"required,max=200"`
	Price         int    `json:"price" validate:"gte=0"`
	PublishedDate string `json:"published_date" validate:"required,datetime=2006-01-02"`
	ISBN          string `json:"isbn" validate:"required,max=50"`
	Pages         int    `json:"pages" validate:"gt=0"`
	Genre         string `json:"genre" validate:"required,oneof=fiction nonfiction biography selfhelp children youngadult mystery romance thriller history"`
}

func (r bookRequest) input() BookInput {
	return BookInput{
		Title:         r.Title,
		Author:        r.Author,
		Price:         r.Price,
		PublishedDate: r.PublishedDate,
		ISBN:          r.ISBN,
		Pages:         r.Pages,
		Genre:         r.Genre,
	}
}

func (h *Handler) HandleAddBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	book, err := h.service.AddBook(r.Context(), req.input())
	if err != nil {
		respondError(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, book)
}

func (h *Handler) HandleGetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, book)
}

func (h *Handler) HandleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	var req bookRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	book, err := h.service.UpdateBook(r.Context(), id, req.input())
	if err != nil {
		respondError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, book)
}

func (h *Handler) HandleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteBook(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListBooks serves the staff catalog view with optional genre, status
// and free-text filters.
func (h *Handler) HandleListBooks(w http.ResponseWriter, r *http.Request) {
	filter := Filter{
		Genre:  r.URL.Query().Get("genre"),
		Status: r.URL.Query().Get("status"),
		Query:  r.URL.Query().Get("q"),
	}

	books, err := h.service.ListBooks(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, books)
}

// HandleAvailableBooks lists what can be borrowed right now.
func (h *Handler) HandleAvailableBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.AvailableBooks(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, books)
}

// HandleUploadCover accepts a multipart cover image for a book.
func (h *Handler) HandleUploadCover(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxCoverBytes); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "malformed multipart body")
		return
	}
	file, header, err := r.FormFile("cover")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "missing cover file")
		return
	}
	defer file.Close()

	ref, err := h.covers.Save(r.Context(), header.Filename, file)
	if err != nil {
		respondError(w, err)
		return
	}

	previous, err := h.service.SetCover(r.Context(), id, ref)
	if err != nil {
		h.covers.Remove(r.Context(), ref)
		respondError(w, err)
		return
	}
	if previous != nil {
		h.covers.Remove(r.Context(), *previous)
	}

	httpjson.Write(w, http.StatusOK, map[string]string{"cover_path": ref})
}

// HandleGetCover streams a book's cover image.
func (h *Handler) HandleGetCover(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if book.CoverPath == nil {
		httpjson.Error(w, http.StatusNotFound, "book has no cover")
		return
	}

	cover, err := h.covers.Open(r.Context(), *book.CoverPath)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "cover not found")
		return
	}
	defer cover.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	io.Copy(w, cover)
}

func bookID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "bookID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid book ID")
		return uuid.Nil, false
	}
	return id, true
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBookNotFound):
		httpjson.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateISBN):
		httpjson.Error(w, http.StatusConflict, err.Error())
	default:
		httpjson.Error(w, http.StatusInternalServerError, err.Error())
	}
}
