package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/zeebo/xxh3"

	"vgsales/internal/engine"
	"vgsales/internal/models"
)

type Handler struct {
	data *engine.Dataset
	topN int
}

func NewHandler(data *engine.Dataset, topN int) *Handler {
	return &Handler{data: data, topN: topN}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/health", h.GetHealth)

	ready := api.Group("", h.requireData)
	ready.GET("/options", h.GetOptions)
	ready.GET("/dashboard", h.GetDashboard)
	ready.POST("/dashboard", h.PostDashboard)
	ready.GET("/games", h.GetGames)
	ready.GET("/export", h.GetExport)
}

const (
	storeKey = "store"

	headerETag        = "ETag"
	headerIfNoneMatch = "If-None-Match"
)

// requireData answers 503 until the background load has finished.
func (h *Handler) requireData(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		store, ok := h.data.Store()
		if !ok {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "dataset is still loading")
		}
		c.Set(storeKey, store)
		return next(c)
	}
}

func storeFrom(c echo.Context) *engine.ColumnStore {
	return c.Get(storeKey).(*engine.ColumnStore)
}

// --- HANDLERS ---

func (h *Handler) GetHealth(c echo.Context) error {
	store, ok := h.data.Store()
	if !ok {
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "loading", "rows": 0})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "ready", "rows": store.Len()})
}

// GetOptions returns the filter control values. They only change with the
// file, so the dataset fingerprint doubles as the ETag.
func (h *Handler) GetOptions(c echo.Context) error {
	store := storeFrom(c)
	etag := fmt.Sprintf(`"%016x"`, store.Fingerprint)
	if c.Request().Header.Get(headerIfNoneMatch) == etag {
		return c.NoContent(http.StatusNotModified)
	}
	c.Response().Header().Set(headerETag, etag)
	return c.JSON(http.StatusOK, engine.FilterOptions(store))
}

func (h *Handler) GetDashboard(c echo.Context) error {
	store := storeFrom(c)
	criteria, err := criteriaFromQuery(c, store)
	if err != nil {
		return err
	}
	topN, err := intParam(c, "top", h.topN)
	if err != nil {
		return err
	}
	return h.dashboard(c, store, criteria, topN)
}

// PostDashboard takes the criteria as a JSON body. Zero years mean the full range.
func (h *Handler) PostDashboard(c echo.Context) error {
	store := storeFrom(c)
	var criteria models.Criteria
	if err := c.Bind(&criteria); err != nil {
		return err
	}
	lo, hi := store.YearBounds()
	if criteria.YearMin == 0 {
		criteria.YearMin = lo
	}
	if criteria.YearMax == 0 {
		criteria.YearMax = hi
	}
	return h.dashboard(c, store, criteria, h.topN)
}

func (h *Handler) dashboard(c echo.Context, store *engine.ColumnStore, criteria models.Criteria, topN int) error {
	res := engine.ApplyFilters(store, criteria)
	if res.IsEmpty() {
		return c.JSON(http.StatusOK, res.EmptyResult())
	}
	etag := resultETag(store, criteria, topN)
	if c.Request().Header.Get(headerIfNoneMatch) == etag {
		return c.NoContent(http.StatusNotModified)
	}
	c.Response().Header().Set(headerETag, etag)
	return c.JSON(http.StatusOK, engine.Aggregate(res.View, criteria, topN))
}

// resultETag identifies one (dataset, criteria) pair.
func resultETag(store *engine.ColumnStore, c models.Criteria, topN int) string {
	key := fmt.Sprintf("%016x|%s|%s|%s|%d|%d|%d", store.Fingerprint,
		strings.Join(c.Platforms, "\x1f"), strings.Join(c.Genres, "\x1f"), strings.Join(c.Publishers, "\x1f"),
		c.YearMin, c.YearMax, topN)
	return fmt.Sprintf(`"%016x"`, xxh3.HashString(key))
}

func (h *Handler) GetGames(c echo.Context) error {
	store := storeFrom(c)
	criteria, err := criteriaFromQuery(c, store)
	if err != nil {
		return err
	}
	res := engine.ApplyFilters(store, criteria)
	if res.IsEmpty() {
		return c.JSON(http.StatusOK, res.EmptyResult())
	}

	rows := res.View.Rows
	total := len(rows)
	limit, offset := getPaginationParams(c, total)

	if offset >= total {
		return c.JSON(http.StatusOK, models.GamesPage{Data: []models.Record{}, Total: total, Limit: limit, Offset: offset})
	}

	// clamp before adding so a huge limit cannot overflow
	if limit > total-offset {
		limit = total - offset
	}

	page := engine.View{Store: store, Rows: rows[offset : offset+limit]}
	return c.JSON(http.StatusOK, models.GamesPage{
		Data:   page.Records(),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *Handler) GetExport(c echo.Context) error {
	store := storeFrom(c)
	criteria, err := criteriaFromQuery(c, store)
	if err != nil {
		return err
	}
	res := engine.ApplyFilters(store, criteria)
	if res.IsEmpty() {
		return c.JSON(http.StatusNotFound, res.EmptyResult())
	}

	resp := c.Response()
	switch format := c.QueryParam("format"); format {
	case "", "csv":
		resp.Header().Set(echo.HeaderContentType, "text/csv")
		resp.Header().Set(echo.HeaderContentDisposition, `attachment; filename="vgsales.csv"`)
		resp.WriteHeader(http.StatusOK)
		return engine.WriteCSV(resp, res.View)
	case "xlsx":
		resp.Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		resp.Header().Set(echo.HeaderContentDisposition, `attachment; filename="vgsales.xlsx"`)
		resp.WriteHeader(http.StatusOK)
		return engine.WriteXLSX(resp, res.View)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
	}
}

// --- PARAMS ---

func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// criteriaFromQuery reads the repeatable platform/genre/publisher params and
// year_min/year_max, defaulting to the dataset bounds. Values are not split
// on commas since some publisher names contain them.
func criteriaFromQuery(c echo.Context, store *engine.ColumnStore) (models.Criteria, error) {
	criteria := engine.DefaultCriteria(store)
	criteria.Platforms = listParam(c, "platform")
	criteria.Genres = listParam(c, "genre")
	criteria.Publishers = listParam(c, "publisher")

	var err error
	if criteria.YearMin, err = intParam(c, "year_min", criteria.YearMin); err != nil {
		return criteria, err
	}
	if criteria.YearMax, err = intParam(c, "year_max", criteria.YearMax); err != nil {
		return criteria, err
	}
	return criteria, nil
}

func listParam(c echo.Context, name string) []string {
	var out []string
	for _, v := range c.QueryParams()[name] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func intParam(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s must be an integer", name))
	}
	return n, nil
}
