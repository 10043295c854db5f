package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/catalog-backend/internal/platform/apierr"
)

func serve(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	RespondServiceError(c, "fallback", err)

	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return rec, env
}

func TestRespondServiceErrorUsesKindStatus(t *testing.T) {
	rec, env := serve(t, apierr.Conflict("item_name_conflict", errors.New(`item named "x" already exists`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
	if env.Error.Code != "item_name_conflict" || env.Error.Message == "" {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	rec, env = serve(t, apierr.NotFound("item_not_found", errors.New("item 3 not found")))
	if rec.Code != http.StatusNotFound || env.Error.Code != "item_not_found" {
		t.Fatalf("not found mapping: %d %+v", rec.Code, env)
	}
}

func TestRespondServiceErrorHidesInternalCause(t *testing.T) {
	rec, env := serve(t, errors.New("dial tcp 10.0.0.1:5432: connection refused"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: want=500 got=%d", rec.Code)
	}
	if env.Error.Code != "fallback" || env.Error.Message != "internal server error" {
		t.Fatalf("internal details leaked: %+v", env)
	}

	_, env = serve(t, apierr.Internal("item_save_failed", errors.New("disk full")))
	if env.Error.Code != "item_save_failed" || env.Error.Message != "internal server error" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}
