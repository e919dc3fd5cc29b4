package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notewatch/internal/modules/currency"
)

type stubRates struct {
	rate float64
}

func (s stubRates) GetRate(from, to string) (float64, error) {
	return s.rate, nil
}

func newTestRouter(rate float64) chi.Router {
	exchange := currency.NewExchangeService(stubRates{rate: rate}, zerolog.Nop())
	h := NewHandler(exchange, zerolog.Nop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestHandleConvert(t *testing.T) {
	router := newTestRouter(1.1)

	body := `{"from_currency":"EUR","to_currency":"USD","amount":100}`
	req := httptest.NewRequest("POST", "/currency/convert", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			ToAmount float64 `json:"to_amount"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 110.0, resp.Data.ToAmount, 1e-9)
}

func TestHandleConvertValidation(t *testing.T) {
	router := newTestRouter(1.1)

	for _, body := range []string{
		`{not json`,
		`{"from_currency":"","to_currency":"USD","amount":100}`,
		`{"from_currency":"EUR","to_currency":"USD","amount":0}`,
	} {
		req := httptest.NewRequest("POST", "/currency/convert", strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestHandleGetAvailableCurrencies(t *testing.T) {
	router := newTestRouter(1)

	req := httptest.NewRequest("GET", "/currency/available-currencies", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "GBX")
}
