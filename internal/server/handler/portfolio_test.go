package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eveexchange/backend/internal/server/middleware"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// The multibuy quantity is a whole number of basket repetitions. Anything
// that does not parse as an integer is rejected before the service layer
// is reached; the nil service would panic otherwise.
func TestMultibuyRejectsNonIntegerQuantity(t *testing.T) {
	h := NewPortfolioHandler(nil, testLogger())

	for _, quantity := range []string{"1.5", "0.5", "2e3", "two"} {
		r := httptest.NewRequest(http.MethodGet, "/api/portfolios/1/multibuy?region=10000002&quantity="+quantity, nil)
		r.SetPathValue("id", "1")
		r = r.WithContext(middleware.WithUserID(r.Context(), 7))
		w := httptest.NewRecorder()

		h.Multibuy(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code, "quantity=%s", quantity)
	}
}
