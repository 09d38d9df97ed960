// internal/httpjson/httpjson_test.go
package httpjson

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, http.StatusCreated, map[string]int{"n": 7})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":7}`, rec.Body.String())
}

func TestWriteNilBody(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusConflict, "book already borrowed")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"book already borrowed"}`, rec.Body.String())
}

func TestDecode(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"Dune"}`))

	var body struct {
		Title string `json:"title"`
	}
	require.NoError(t, Decode(req, &body))
	assert.Equal(t, "Dune", body.Title)
}

func TestDecodeRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{not json`))

	var body map[string]interface{}
	assert.Error(t, Decode(req, &body))
}

func TestDecodeCapsBodySize(t *testing.T) {
	huge := `{"pad":"` + strings.Repeat("x", maxBodyBytes+1) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge))

	var body map[string]string
	assert.Error(t, Decode(req, &body))
}
