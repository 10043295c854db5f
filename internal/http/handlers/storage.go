package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/catalog-backend/internal/http/response"
	"github.com/yungbote/catalog-backend/internal/platform/blob"
)

const maxUploadBytes = 10 << 20

type StorageHandler struct {
	store blob.Store
}

func NewStorageHandler(store blob.Store) *StorageHandler {
	return &StorageHandler{store: store}
}

// POST /api/storage (multipart, field "file")
func (h *StorageHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}
	defer f.Close()

	name, err := h.store.Put(c.Request.Context(), fh.Filename, f)
	if err != nil {
		response.RespondServiceError(c, "store_file_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{
		"name": name,
		"url":  "/api/storage/" + name,
	})
}

// GET /api/storage/:filename
func (h *StorageHandler) Serve(c *gin.Context) {
	rc, info, err := h.store.Open(c.Request.Context(), c.Param("filename"))
	if err != nil {
		response.RespondServiceError(c, "read_file_failed", err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, rc, map[string]string{
		"Content-Disposition": "inline; filename=" + strconv.Quote(info.Name),
	})
}

// GET /api/storage
func (h *StorageHandler) List(c *gin.Context) {
	names, err := h.store.List(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, "list_files_failed", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	response.RespondOK(c, gin.H{"files": names})
}

// DELETE /api/storage/:filename
func (h *StorageHandler) Delete(c *gin.Context) {
	name := c.Param("filename")
	if err := h.store.Delete(c.Request.Context(), name); err != nil {
		response.RespondServiceError(c, "delete_file_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": name})
}
