package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
)

type lineRequest struct {
	MenuItemID uint `json:"menuItemId" validate:"required"`
	Quantity   int  `json:"quantity" validate:"gt=0"`
}

type orderRequest struct {
	FlightNumber string        `json:"flightNumber" validate:"required,max=8"`
	Items        []lineRequest `json:"items" validate:"required,min=1,dive"`
}

func decode(t *testing.T, body string) (orderRequest, *pkgerrors.Error) {
	t.Helper()
	var dest orderRequest
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := DecodeJSONBody(req, &dest)
	if err == nil {
		return dest, nil
	}
	var typed *pkgerrors.Error
	require.ErrorAs(t, err, &typed)
	return dest, typed
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	got, err := decode(t, `{"flightNumber":"A3 100","items":[{"menuItemId":4,"quantity":2}]}`)
	require.Nil(t, err)
	assert.Equal(t, "A3 100", got.FlightNumber)
	assert.Len(t, got.Items, 1)
}

func TestDecodeJSONBodyRejections(t *testing.T) {
	cases := map[string]string{
		"empty":           ``,
		"unknown field":   `{"flightNumber":"A3","items":[{"menuItemId":1,"quantity":1}],"vip":true}`,
		"two objects":     `{"flightNumber":"A3","items":[{"menuItemId":1,"quantity":1}]}{}`,
		"wrong type":      `{"flightNumber":12,"items":[]}`,
		"missing items":   `{"flightNumber":"A3"}`,
		"zero quantity":   `{"flightNumber":"A3","items":[{"menuItemId":1,"quantity":0}]}`,
		"flight too long": `{"flightNumber":"ABCDEFGHIJ","items":[{"menuItemId":1,"quantity":1}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decode(t, body)
			require.NotNil(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, err.Code())
		})
	}
}

func TestDecodeJSONBodyReportsNestedFieldPaths(t *testing.T) {
	_, err := decode(t, `{"flightNumber":"A3","items":[{"menuItemId":1,"quantity":1},{"menuItemId":2,"quantity":0}]}`)
	require.NotNil(t, err)
	details, ok := err.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be greater than 0", details["items[1].quantity"])
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	big := `{"flightNumber":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	_, err := decode(t, big)
	require.NotNil(t, err)
	assert.Contains(t, err.Message(), "exceeds")
}

func TestSanitizeStringKeepsRunesIntact(t *testing.T) {
	assert.Equal(t, "Θεσσαλ", SanitizeString("  Θεσσαλονίκη ", 6))
	assert.Equal(t, "gate B", SanitizeString("gate\x00 B", 0))
	assert.Equal(t, "line one\nline two", SanitizeString("line one\nline two", 100))
}

func TestQueryParsers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&vendorId=0&active=yes&page=3", nil)

	_, err := ParseQueryInt(req, "limit", 25, 1, 100)
	assert.Error(t, err)
	page, err := ParseQueryInt(req, "page", 1, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, page)
	_, err = ParseQueryUint(req, "vendorId")
	assert.Error(t, err)
	_, err = ParseQueryBool(req, "active")
	assert.Error(t, err)

	missing, err := ParseQueryBool(req, "available")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestParseIDParam(t *testing.T) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderID", "42")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	id, err := ParseIDParam(req, "orderID")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = ParseIDParam(req, "missing")
	assert.Error(t, err)
}
