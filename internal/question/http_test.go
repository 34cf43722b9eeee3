package question

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPHandler_Catalog(t *testing.T) {
	svc := NewService(&stubBank{}, ServiceOptions{}, zerolog.Nop())
	h := NewHTTPHandler(svc, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.HandleCatalog(rec, httptest.NewRequest(http.MethodGet, "/v1/catalog", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body catalogResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, []string{"Optics"}, body.Subjects["Physics"])
	assert.Equal(t, []string{"Easy", "Medium", "Hard"}, body.Difficulties)
}
