package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/http/response"
	"github.com/yungbote/catalog-backend/internal/services"
)

type CategoryHandler struct {
	categories services.CategoryService
}

func NewCategoryHandler(categories services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// GET /api/categories
func (h *CategoryHandler) List(c *gin.Context) {
	rows, err := h.categories.List(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, "list_categories_failed", err)
		return
	}
	out := make([]domain.CategorySnapshot, 0, len(rows))
	for _, cat := range rows {
		out = append(out, cat.Snapshot())
	}
	response.RespondOK(c, gin.H{"categories": out})
}

// GET /api/categories/:id
func (h *CategoryHandler) Get(c *gin.Context) {
	cat, err := h.categories.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, "get_category_failed", err)
		return
	}
	response.RespondOK(c, cat.Snapshot())
}

// POST /api/categories
// body: { "name": "DISNEY", "active": true }
func (h *CategoryHandler) Create(c *gin.Context) {
	var req services.CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	cat, err := h.categories.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, "create_category_failed", err)
		return
	}
	response.RespondCreated(c, cat.Snapshot())
}

// PATCH /api/categories/:id
func (h *CategoryHandler) Update(c *gin.Context) {
	var req services.CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	cat, err := h.categories.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.RespondServiceError(c, "update_category_failed", err)
		return
	}
	response.RespondOK(c, cat.Snapshot())
}

// DELETE /api/categories/:id
func (h *CategoryHandler) Delete(c *gin.Context) {
	cat, err := h.categories.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, "delete_category_failed", err)
		return
	}
	response.RespondOK(c, cat.Snapshot())
}
