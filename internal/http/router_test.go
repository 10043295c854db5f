package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/catalog-backend/internal/data/repos/catalog"
	"github.com/yungbote/catalog-backend/internal/data/repos/testutil"
	domain "github.com/yungbote/catalog-backend/internal/domain/catalog"
	httpH "github.com/yungbote/catalog-backend/internal/http/handlers"
	"github.com/yungbote/catalog-backend/internal/platform/blob"
	"github.com/yungbote/catalog-backend/internal/platform/cache"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
	"github.com/yungbote/catalog-backend/internal/realtime"
	"github.com/yungbote/catalog-backend/internal/services"
)

type testAPI struct {
	engine     *gin.Engine
	registry   *realtime.Registry
	dispatcher *realtime.Dispatcher
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	gdb := testutil.DB(t)

	reg := realtime.NewRegistry(log)
	d := realtime.NewDispatcher(log, reg, 64, 2)
	d.Start(context.Background())
	t.Cleanup(d.Stop)
	b := services.NewBroadcaster(log, d)

	itemRepo := catalog.NewItemRepo(gdb, log)
	catRepo := catalog.NewCategoryRepo(gdb, log)
	v := services.NewValidator(itemRepo, catRepo)
	cats := services.NewCategoryService(log, catRepo, v,
		cache.New[*domain.Category]("categories", 0, (*domain.Category).Clone, log), b)
	items := services.NewItemService(log, itemRepo, v, cats,
		cache.New[*domain.Item]("items", 0, (*domain.Item).Clone, log), b)

	store, err := blob.NewLocal(log, t.TempDir())
	require.NoError(t, err)

	engine := NewRouter(RouterConfig{
		Log:             log,
		ItemHandler:     httpH.NewItemHandler(items),
		CategoryHandler: httpH.NewCategoryHandler(cats),
		StorageHandler:  httpH.NewStorageHandler(store),
		RealtimeHandler: httpH.NewRealtimeHandler(
			realtime.NewWSEndpoint(log, reg, 16),
			realtime.NewSSEEndpoint(log, reg, 16),
		),
		HealthHandler: httpH.NewHealthHandler(nil),
	})
	return &testAPI{engine: engine, registry: reg, dispatcher: d}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestItemAPIFlow(t *testing.T) {
	api := newTestAPI(t)

	rec, body := api.do(t, http.MethodPost, "/api/categories", map[string]any{"name": "disney"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "DISNEY", body["name"])
	require.Equal(t, true, body["active"])

	rec, body = api.do(t, http.MethodPost, "/api/items", map[string]any{"name": "Mickey", "price": 7.95, "category": "DISNEY"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "DISNEY", body["category"])
	id := strconv.FormatFloat(body["id"].(float64), 'f', 0, 64)

	rec, got := api.do(t, http.MethodGet, "/api/items/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, body, got)

	rec, body = api.do(t, http.MethodPatch, "/api/items/"+id, map[string]any{"price": 9.99})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 9.99, body["price"])

	rec, _ = api.do(t, http.MethodGet, "/api/items", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(t, http.MethodDelete, "/api/items/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = api.do(t, http.MethodGet, "/api/items/"+id, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "item_not_found", errorCode(body))
}

func TestItemAPIErrors(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodPost, "/api/categories", map[string]any{"name": "SUPERHEROES"})

	rec, _ := api.do(t, http.MethodPost, "/api/items", map[string]any{"name": "Darth Vader", "price": 20, "category": "SUPERHEROES"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := api.do(t, http.MethodPost, "/api/items", map[string]any{"name": "Darth Vader", "price": 20, "category": "SUPERHEROES"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "item_name_conflict", errorCode(body))

	rec, body = api.do(t, http.MethodPost, "/api/items", map[string]any{"name": "Yoda", "price": 80, "category": "SUPERHEROES"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "item_price_out_of_range", errorCode(body))

	rec, body = api.do(t, http.MethodPost, "/api/items", map[string]any{"name": "Yoda", "price": 8, "category": "SERIE"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "category_not_found", errorCode(body))

	rec, body = api.do(t, http.MethodGet, "/api/items/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_item_id", errorCode(body))

	req := httptest.NewRequest(http.MethodPost, "/api/items", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	raw := httptest.NewRecorder()
	api.engine.ServeHTTP(raw, req)
	require.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestCategoryDeleteAPIIsIdempotent(t *testing.T) {
	api := newTestAPI(t)
	_, created := api.do(t, http.MethodPost, "/api/categories", map[string]any{"name": "SERIE"})
	id := created["id"].(string)

	for i := 0; i < 2; i++ {
		rec, body := api.do(t, http.MethodDelete, "/api/categories/"+id, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, false, body["active"])
	}

	rec, body := api.do(t, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["categories"], 1)
}

func TestStorageUploadAndServe(t *testing.T) {
	api := newTestAPI(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "mickey.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("hello mickey"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/storage", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	api.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.True(t, strings.HasSuffix(out["name"], "_mickey.txt"))

	rec = httptest.NewRecorder()
	api.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, out["url"], nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "hello mickey", rec.Body.String())

	rec, body := api.do(t, http.MethodGet, "/api/storage", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []any{out["name"]}, body["files"])

	rec, _ = api.do(t, http.MethodDelete, out["url"], nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = api.do(t, http.MethodGet, out["url"], nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "file_not_found", errorCode(body))

	rec, body = api.do(t, http.MethodDelete, "/api/storage/a..b", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_file_name", errorCode(body))
}

func TestMutationsReachSubscribers(t *testing.T) {
	api := newTestAPI(t)
	sub := realtime.NewClient("test", 16)
	api.registry.Register(sub)

	api.do(t, http.MethodPost, "/api/categories", map[string]any{"name": "OTROS"})
	api.do(t, http.MethodPost, "/api/items", map[string]any{"name": "Groot", "price": 3, "category": "OTROS"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.True(t, api.dispatcher.Drain(ctx))
	require.Len(t, sub.Outbound, 2)

	<-sub.Outbound
	var ev map[string]any
	require.NoError(t, json.Unmarshal(<-sub.Outbound, &ev))
	require.Equal(t, "ITEMS", ev["entity"])
	require.Equal(t, "CREATE", ev["type"])
}

func TestHealthcheck(t *testing.T) {
	api := newTestAPI(t)
	rec := httptest.NewRecorder()
	api.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}
