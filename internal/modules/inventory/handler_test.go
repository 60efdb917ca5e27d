package inventory

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *testEnv) {
	t.Helper()
	env := newTestEnv()
	router := chi.NewRouter()
	NewHandler(env.svc).RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, env
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func TestCreateItemEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/inventory/items", baseCreateRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var view ItemView
	decodeBody(t, resp, &view)
	assert.Equal(t, "Paracetamol", view.Name)
	assert.Equal(t, 10, view.Stock.Quantity)
	require.Len(t, view.Barcodes, 1)
	assert.True(t, view.Barcodes[0].IsPrimary)
}

func TestCreateItemEndpointValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	req := baseCreateRequest()
	req.Name = ""
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/inventory/items", req)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetItemEndpointErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/inventory/items/not-a-uuid")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/inventory/items/0198c5a6-0000-7000-8000-000000000000")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDuplicateBarcodeEndpointConflict(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/inventory/items", baseCreateRequest())
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	dup := baseCreateRequest()
	dup.Name = "Ibuprofen"
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/inventory/items", dup)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAdjustStockEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/inventory/items", baseCreateRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var view ItemView
	decodeBody(t, resp, &view)

	itemURL := srv.URL + "/api/v1/inventory/items/" + view.ID.String()

	resp = doJSON(t, http.MethodPost, itemURL+"/stock/adjust", AdjustStockRequest{
		Adjustment: -4, AdjustmentType: AdjustmentSale,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stock Stock
	decodeBody(t, resp, &stock)
	assert.Equal(t, 6, stock.Quantity)

	// Draining below zero is rejected with 422.
	resp = doJSON(t, http.MethodPost, itemURL+"/stock/adjust", AdjustStockRequest{
		Adjustment: -100, AdjustmentType: AdjustmentSale,
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestBarcodeLookupEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/inventory/items", baseCreateRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created ItemView
	decodeBody(t, resp, &created)

	resp, err := http.Get(srv.URL + "/api/v1/inventory/items/barcode/7350053850019")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view ItemView
	decodeBody(t, resp, &view)
	assert.Equal(t, created.ID, view.ID)

	resp, err = http.Get(srv.URL + "/api/v1/inventory/items/barcode/unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchEndpointRequiresQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/inventory/items/search")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRemoveLastBarcodeEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/inventory/items", baseCreateRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var view ItemView
	decodeBody(t, resp, &view)

	resp = doJSON(t, http.MethodDelete,
		srv.URL+"/api/v1/inventory/barcodes/"+view.Barcodes[0].ID.String(), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestStatisticsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/inventory/items", baseCreateRequest())
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err := http.Get(srv.URL + "/api/v1/inventory/statistics")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats Statistics
	decodeBody(t, resp, &stats)
	assert.Equal(t, int64(1), stats.TotalItems)
	assert.Equal(t, int64(1), stats.ActiveItems)
}

func TestDeleteAndRestoreEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/inventory/items", baseCreateRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var view ItemView
	decodeBody(t, resp, &view)

	itemURL := srv.URL + "/api/v1/inventory/items/" + view.ID.String()

	resp = doJSON(t, http.MethodDelete, itemURL, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err := http.Get(itemURL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, itemURL+"/restore", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var restored ItemView
	decodeBody(t, resp, &restored)
	assert.True(t, restored.IsActive)
}
