package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/http/response"
	"github.com/yungbote/catalog-backend/internal/services"
)

type ItemHandler struct {
	items services.ItemService
}

func NewItemHandler(items services.ItemService) *ItemHandler {
	return &ItemHandler{items: items}
}

// GET /api/items
// GET /api/items?name=Mickey
func (h *ItemHandler) List(c *gin.Context) {
	if name, ok := c.GetQuery("name"); ok {
		it, err := h.items.GetByName(c.Request.Context(), name)
		if err != nil {
			response.RespondServiceError(c, "get_item_failed", err)
			return
		}
		response.RespondOK(c, gin.H{"items": []domain.ItemSnapshot{it.Snapshot()}})
		return
	}

	rows, err := h.items.List(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, "list_items_failed", err)
		return
	}
	out := make([]domain.ItemSnapshot, 0, len(rows))
	for _, it := range rows {
		out = append(out, it.Snapshot())
	}
	response.RespondOK(c, gin.H{"items": out})
}

// GET /api/items/:id
func (h *ItemHandler) Get(c *gin.Context) {
	it, err := h.items.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, "get_item_failed", err)
		return
	}
	response.RespondOK(c, it.Snapshot())
}

// POST /api/items
// body: { "name": "...", "price": 7.95, "category": "DISNEY" }
func (h *ItemHandler) Create(c *gin.Context) {
	var req services.ItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	it, err := h.items.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, "create_item_failed", err)
		return
	}
	response.RespondCreated(c, it.Snapshot())
}

// PATCH /api/items/:id
// PUT /api/items/:id
// body: any of { "name", "price", "category" }
func (h *ItemHandler) Update(c *gin.Context) {
	var req services.ItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	it, err := h.items.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.RespondServiceError(c, "update_item_failed", err)
		return
	}
	response.RespondOK(c, it.Snapshot())
}

// DELETE /api/items/:id
func (h *ItemHandler) Delete(c *gin.Context) {
	it, err := h.items.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, "delete_item_failed", err)
		return
	}
	response.RespondOK(c, it.Snapshot())
}
