package session

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/shared/server/middleware"
	"docchat-backend/internal/shared/server/respond"
	"docchat-backend/internal/shared/storage/object"
)

const maxUploadSize = 25 << 20 // 25MB

// Handler wires HTTP handlers to the session model.
type Handler struct {
	Model *Model
}

// NewHandler constructs a Handler.
func NewHandler(model *Model) *Handler {
	return &Handler{Model: model}
}

// RegisterRoutes attaches document and chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents", h.list)
	rg.POST("/documents", h.upload)
	rg.GET("/documents/search", h.search)
	rg.GET("/documents/stats", h.stats)
	rg.DELETE("/documents/:id", h.remove)
	rg.POST("/documents/:id/rename", h.rename)
	rg.POST("/documents/:id/select", h.selectForChat)
	rg.POST("/documents/:id/chat", h.chat)
	rg.GET("/documents/:id/view", h.view)
	rg.GET("/documents/:id/download", h.download)

	rg.GET("/chat/history", h.historyGrouped)
	rg.GET("/chat/history/:mappingId", h.history)
	rg.GET("/chat/history/:mappingId/exists", h.hasHistory)
	rg.DELETE("/chat/history/:mappingId", h.deleteHistory)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	docs, err := h.Model.List(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err, "failed to list documents")
		return
	}
	respond.OK(c, toResponses(docs))
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Model.Upload(c.Request.Context(), userID, fileHeader.Filename, file)
	if err != nil {
		h.fail(c, err, "failed to upload document")
		return
	}
	respond.Created(c, toResponse(doc))
}

func (h *Handler) remove(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Model.Remove(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.fail(c, err, "failed to delete document")
		return
	}
	respond.OK(c, gin.H{"deleted": true})
}

type renameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) rename(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "name is required", nil)
		return
	}

	doc, err := h.Model.Rename(userID, c.Param("id"), req.Name)
	if err != nil {
		h.fail(c, err, "failed to rename document")
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) selectForChat(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	doc, err := h.Model.SelectForChat(userID, c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to select document")
		return
	}
	respond.OK(c, gin.H{
		"document": toResponse(doc),
		"messages": []MessageResponse{},
	})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) chat(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "message is required", nil)
		return
	}

	userMsg, botMsg, err := h.Model.SendChat(c.Request.Context(), userID, c.Param("id"), req.Message)
	if err != nil {
		h.fail(c, err, "failed to send chat message")
		return
	}
	respond.OK(c, gin.H{
		"userMessage": toMessageResponse(userMsg),
		"botMessage":  toMessageResponse(botMsg),
	})
}

func (h *Handler) view(c *gin.Context) {
	h.serveBlob(c, false)
}

func (h *Handler) download(c *gin.Context) {
	h.serveBlob(c, true)
}

// serveBlob redirects to a signed URL when the store supports them, and
// streams the object otherwise.
func (h *Handler) serveBlob(c *gin.Context, download bool) {
	userID := middleware.UserIDFromContext(c)
	docID := c.Param("id")

	url, err := h.Model.SignedURL(c.Request.Context(), userID, docID, download)
	if err == nil {
		respond.OK(c, gin.H{"url": url})
		return
	}
	if !errors.Is(err, object.ErrSignedURLUnsupported) {
		h.fail(c, err, "failed to create signed url")
		return
	}

	rc, doc, err := h.Model.OpenBlob(c.Request.Context(), userID, docID)
	if err != nil {
		h.fail(c, err, "failed to open document")
		return
	}
	defer rc.Close()

	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	var extra map[string]string
	if download {
		extra = map[string]string{
			"Content-Disposition": `attachment; filename="` + doc.Name + `"`,
		}
	}
	c.DataFromReader(http.StatusOK, doc.Size, contentType, rc, extra)
}

func (h *Handler) search(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	docs, err := h.Model.Search(c.Request.Context(), userID, c.Query("q"))
	if err != nil {
		h.fail(c, err, "failed to search documents")
		return
	}
	respond.OK(c, toResponses(docs))
}

func (h *Handler) stats(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	stats, err := h.Model.Stats(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err, "failed to compute stats")
		return
	}
	respond.OK(c, stats)
}

func (h *Handler) history(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	msgs, err := h.Model.History(c.Request.Context(), userID, c.Param("mappingId"))
	if err != nil {
		h.fail(c, err, "failed to load chat history")
		return
	}
	respond.OK(c, toMessageResponses(msgs))
}

func (h *Handler) historyGrouped(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	ids := c.QueryArray("mappingId")
	if len(ids) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "mappingId is required", nil)
		return
	}

	grouped, err := h.Model.HistoryGrouped(c.Request.Context(), userID, ids)
	if err != nil {
		h.fail(c, err, "failed to load chat history")
		return
	}

	resp := make(map[string][]MessageResponse, len(grouped))
	for id, msgs := range grouped {
		resp[id] = toMessageResponses(msgs)
	}
	respond.OK(c, resp)
}

func (h *Handler) hasHistory(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	has, err := h.Model.HasHistory(c.Request.Context(), userID, c.Param("mappingId"))
	if err != nil {
		h.fail(c, err, "failed to check chat history")
		return
	}
	respond.OK(c, gin.H{"exists": has})
}

func (h *Handler) deleteHistory(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Model.DeleteHistory(c.Request.Context(), userID, c.Param("mappingId")); err != nil {
		h.fail(c, err, "failed to delete chat history")
		return
	}
	respond.OK(c, gin.H{"deleted": true})
}

// fail maps model errors to the standardized error envelope.
func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	var remote *RemoteOpError
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrNoBlobPath):
		respond.Error(c, http.StatusConflict, "no_blob_path", "document has no stored file", nil)
	case errors.As(err, &remote):
		respond.Error(c, http.StatusBadGateway, string(remote.Op)+"_failed", remote.Detail, nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
