package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vgsales/internal/engine"
	"vgsales/internal/models"
)

const testCSV = `Name,Platform,Year,Genre,Publisher,NA_Sales,EU_Sales,JP_Sales,Other_Sales,Global_Sales
GameA,PS4,2015,Action,PubX,1.0,1.0,0.0,0.2,2.2
GameB,PS4,2016,Sports,PubY,2.0,0.5,0.1,0.1,2.7
GameC,Xbox,2015,Action,"Destination Software, Inc",0.5,0.3,0.0,0.1,0.9
`

func newTestServer(t *testing.T, loaded bool) *echo.Echo {
	t.Helper()
	ds := engine.NewDataset(func() (*engine.ColumnStore, error) {
		return engine.ReadColumnar(strings.NewReader(testCSV))
	})
	if loaded {
		_, err := ds.Load()
		require.NoError(t, err)
	}

	e := echo.New()
	e.JSONSerializer = JSONSerializer{}
	NewHandler(ds, 10).RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestNotReadyAnswers503(t *testing.T) {
	e := newTestServer(t, false)

	for _, path := range []string{"/api/options", "/api/dashboard", "/api/games", "/api/export"} {
		rec := do(e, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}

	rec := do(e, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"loading"`)
}

func TestHealthReady(t *testing.T) {
	e := newTestServer(t, true)

	rec := do(e, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
	assert.EqualValues(t, 3, body["rows"])
}

func TestGetOptionsETag(t *testing.T) {
	e := newTestServer(t, true)

	rec := do(e, http.MethodGet, "/api/options", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var opts models.Options
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, []string{"PS4", "Xbox"}, opts.Platforms)
	assert.Equal(t, []string{"Destination Software, Inc", "PubX", "PubY"}, opts.Publishers)
	assert.Equal(t, 2015, opts.YearMin)
	assert.Equal(t, 2016, opts.YearMax)

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/options", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestGetDashboard(t *testing.T) {
	e := newTestServer(t, true)

	rec := do(e, http.MethodGet, "/api/dashboard?platform=PS4&year_min=2015&year_max=2016&top=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	var data models.DashboardData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.Equal(t, 2, data.Metrics.TotalGames)
	assert.Equal(t, "4.90", data.Metrics.GlobalSalesLabel)
	assert.Equal(t, "PS4", data.Metrics.TopPlatform)
	require.Len(t, data.TopGames, 1)
	assert.Equal(t, "GameB", data.TopGames[0].Name)
	require.Len(t, data.Trend, 2)
	assert.Equal(t, 2015, data.Trend[0].Year)
	assert.Len(t, data.Regions, 4)
	assert.Equal(t, []string{"PS4"}, data.Criteria.Platforms)
}

func TestGetDashboardDefaultsToEverything(t *testing.T) {
	e := newTestServer(t, true)

	rec := do(e, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data models.DashboardData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.Equal(t, 3, data.Metrics.TotalGames)
	assert.Equal(t, 2015, data.Criteria.YearMin)
	assert.Equal(t, 2016, data.Criteria.YearMax)
	assert.Len(t, data.TopGames, 3)
}

func TestGetDashboardETag(t *testing.T) {
	e := newTestServer(t, true)
	const target = "/api/dashboard?platform=PS4"

	rec := do(e, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	// different criteria, different tag
	req = httptest.NewRequest(http.MethodGet, "/api/dashboard?platform=Xbox", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))
}

func TestGetDashboardYearBeyondInt32(t *testing.T) {
	e := newTestServer(t, true)

	rec := do(e, http.MethodGet, "/api/dashboard?year_min=4294969311&year_max=4294969311", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"year-range-empty"`)

	rec = do(e, http.MethodGet, "/api/dashboard?year_max=4294967296", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data models.DashboardData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.Equal(t, 3, data.Metrics.TotalGames)
}

func TestGetDashboardPublisherWithComma(t *testing.T) {
	e := newTestServer(t, true)

	rec := do(e, http.MethodGet, "/api/dashboard?publisher=Destination+Software%2C+Inc", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data models.DashboardData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.Equal(t, 1, data.Metrics.TotalGames)
	assert.Equal(t, "Xbox", data.Metrics.TopPlatform)
}

func TestGetDashboardEmpty(t *testing.T) {
	e := newTestServer(t, true)

	rec := do(e, http.MethodGet, "/api/dashboard?platform=SNES&genre=Nothing", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]interface{}{
		"empty":   true,
		"stage":   "platform-empty",
		"message": "No games found for the selected platform(s)",
	}, body)
}

func TestGetDashboardBadParams(t *testing.T) {
	e := newTestServer(t, true)

	for _, q := range []string{"year_min=abc", "year_max=20x6", "top=ten"} {
		rec := do(e, http.MethodGet, "/api/dashboard?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestPostDashboard(t *testing.T) {
	e := newTestServer(t, true)

	body, err := json.Marshal(models.Criteria{Genres: []string{"Action"}})
	require.NoError(t, err)

	rec := do(e, http.MethodPost, "/api/dashboard", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var data models.DashboardData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.Equal(t, 2, data.Metrics.TotalGames)
	assert.Equal(t, 2015, data.Criteria.YearMin)
	assert.Equal(t, 2016, data.Criteria.YearMax)

	rec = do(e, http.MethodPost, "/api/dashboard", []byte(`{"genres": "Action"`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetGamesPagination(t *testing.T) {
	e := newTestServer(t, true)

	rec := do(e, http.MethodGet, "/api/games?limit=2&offset=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page models.GamesPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 1, page.Offset)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "GameB", page.Data[0].Name)
	assert.Equal(t, "GameC", page.Data[1].Name)

	rec = do(e, http.MethodGet, "/api/games?limit=9223372036854775807&offset=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Limit)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "GameB", page.Data[0].Name)

	rec = do(e, http.MethodGet, "/api/games?offset=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Empty(t, page.Data)

	rec = do(e, http.MethodGet, "/api/games?year_min=2020", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "year-range-empty")
}

func TestGetExport(t *testing.T) {
	e := newTestServer(t, true)

	rec := do(e, http.MethodGet, "/api/export?platform=PS4", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get(echo.HeaderContentType))

	store, err := engine.ReadColumnar(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	rec = do(e, http.MethodGet, "/api/export?format=xlsx&genre=Sports", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Games")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rec = do(e, http.MethodGet, "/api/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodGet, "/api/export?platform=SNES", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "platform-empty")
}
