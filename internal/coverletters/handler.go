package coverletters

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"coverletter-backend/internal/queue"
	"coverletter-backend/internal/shared/server/middleware"
	"coverletter-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the cover letter operations.
type Handler struct {
	Svc      *Service
	Orch     *Orchestrator
	Exporter *Exporter
	// Queue, when set, turns generate requests into queued jobs.
	Queue queue.Client
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, orch *Orchestrator, exporter *Exporter, q queue.Client) *Handler {
	return &Handler{Svc: svc, Orch: orch, Exporter: exporter, Queue: q}
}

// RegisterRoutes attaches cover letter routes to the router group. Extra
// handlers run before generate, typically a rate limiter.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, generateMiddleware ...gin.HandlerFunc) {
	rg.POST("/cover-letters", h.create)
	rg.GET("/cover-letters", h.listArchived)
	rg.GET("/cover-letters/all", h.listAll)
	rg.GET("/cover-letters/:id", h.get)
	rg.PATCH("/cover-letters/:id", h.updateDraft)
	rg.DELETE("/cover-letters/:id", h.delete)
	rg.GET("/cover-letters/:id/preview", h.preview)
	rg.POST("/cover-letters/:id/settings", h.updateSettings)
	rg.PUT("/cover-letters/:id/template", h.selectTemplate)
	rg.PATCH("/cover-letters/:id/title", h.rename)
	rg.PUT("/cover-letters/:id/content", h.updateContent)
	rg.PUT("/cover-letters/:id/generated-content", h.updateGeneratedContent)
	rg.POST("/cover-letters/:id/archive", h.archive)
	rg.POST("/cover-letters/:id/generate", append(generateMiddleware, h.generate)...)
	rg.GET("/cover-letters/:id/download", h.download)
}

func (h *Handler) create(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	cl, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.CoverLetterIDKey, cl.ID)
	respond.JSON(c, http.StatusCreated, cl)
}

func (h *Handler) get(c *gin.Context) {
	id := coverLetterID(c)
	cl, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, cl)
}

func (h *Handler) updateDraft(c *gin.Context) {
	id := coverLetterID(c)
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	cl, err := h.Svc.UpdateDraft(c.Request.Context(), middleware.UserIDFromContext(c), id, req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, cl)
}

func (h *Handler) delete(c *gin.Context) {
	id := coverLetterID(c)
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) preview(c *gin.Context) {
	id := coverLetterID(c)
	view, err := h.Svc.Preview(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, view)
}

func (h *Handler) updateSettings(c *gin.Context) {
	id := coverLetterID(c)
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	cl, err := h.Svc.UpdateSettings(c.Request.Context(), middleware.UserIDFromContext(c), id, SettingsInput{
		Questions:         req.Questions,
		Tone:              req.Tone,
		LengthPerQuestion: req.LengthPerQuestion,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, cl)
}

func (h *Handler) selectTemplate(c *gin.Context) {
	id := coverLetterID(c)
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	cl, err := h.Svc.SelectTemplate(c.Request.Context(), middleware.UserIDFromContext(c), id, req.TemplateID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, cl)
}

func (h *Handler) rename(c *gin.Context) {
	id := coverLetterID(c)
	var req titleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	cl, err := h.Svc.Rename(c.Request.Context(), middleware.UserIDFromContext(c), id, req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, cl)
}

func (h *Handler) updateContent(c *gin.Context) {
	id := coverLetterID(c)
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	cl, err := h.Svc.UpdateContent(c.Request.Context(), middleware.UserIDFromContext(c), id, req.Sections)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, cl)
}

func (h *Handler) updateGeneratedContent(c *gin.Context) {
	id := coverLetterID(c)
	var req generatedContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	cl, err := h.Svc.UpdateGeneratedContent(c.Request.Context(), middleware.UserIDFromContext(c), id, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, cl)
}

func (h *Handler) archive(c *gin.Context) {
	id := coverLetterID(c)
	archived := true
	var req archiveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
		if req.Archived != nil {
			archived = *req.Archived
		}
	}
	cl, err := h.Svc.SetArchived(c.Request.Context(), middleware.UserIDFromContext(c), id, archived)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, cl)
}

func (h *Handler) generate(c *gin.Context) {
	id := coverLetterID(c)
	userID := middleware.UserIDFromContext(c)
	requestID := middleware.RequestIDFromContext(c)

	if h.Queue != nil {
		cl, err := h.Svc.Get(c.Request.Context(), userID, id)
		if err != nil {
			writeError(c, err)
			return
		}
		if err := h.Queue.Send(c.Request.Context(), queue.NewGenerationMessage(id, userID, requestID)); err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to enqueue generation", nil)
			return
		}
		resp := toGenerationResponse(cl)
		resp.Content = ""
		resp.Queued = true
		respond.JSON(c, http.StatusAccepted, resp)
		return
	}

	ctx := WithRequestID(c.Request.Context(), requestID)
	cl, err := h.Orch.RequestGeneration(ctx, id, userID)
	if cl.Status != "" {
		c.Set(middleware.StatusTransitionKey, string(StatusProcessing)+"->"+string(cl.Status))
	}
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toGenerationResponse(cl))
}

func (h *Handler) download(c *gin.Context) {
	id := coverLetterID(c)
	art, err := h.Exporter.Download(c.Request.Context(), middleware.UserIDFromContext(c), id, c.Query("format"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Attachment(c, art.FileName, art.ContentType, art.Bytes)
}

func (h *Handler) listArchived(c *gin.Context) {
	sort, err := ParseSort(c.Query("sort"))
	if err != nil {
		writeError(c, err)
		return
	}
	page, err := queryInt(c, "page", 0)
	if err != nil {
		writeError(c, err)
		return
	}
	size, err := queryInt(c, "size", DefaultPageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	result, err := h.Svc.ListArchived(c.Request.Context(), ArchiveQuery{
		OwnerID: middleware.UserIDFromContext(c),
		Search:  c.Query("search"),
		Tone:    c.Query("tone"),
		Sort:    sort,
		Page:    page,
		Size:    size,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, result)
}

func (h *Handler) listAll(c *gin.Context) {
	items, err := h.Svc.ListByOwner(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, items)
}

func coverLetterID(c *gin.Context) string {
	id := c.Param("id")
	c.Set(middleware.CoverLetterIDKey, id)
	return id
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidField(name, "must be an integer")
	}
	return v, nil
}

func writeError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request", verr.Issues)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "cover letter not found", nil)
	case errors.Is(err, ErrNotGenerated):
		respond.Error(c, http.StatusConflict, "not_generated", "cover letter has not been generated", nil)
	case errors.Is(err, ErrUnsupportedFormat):
		respond.Error(c, http.StatusBadRequest, "unsupported_format", "format must be pdf or word", []FieldIssue{
			{Field: "format", Issue: "unsupported"},
		})
	case errors.Is(err, ErrGenerationFailed):
		respond.Error(c, http.StatusBadGateway, "generation_failed", "cover letter generation failed", nil)
	case errors.Is(err, ErrRenderFailed):
		respond.Error(c, http.StatusInternalServerError, "render_failed", "failed to render document", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected error", nil)
	}
}
