package article

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/galerie/service/internal/response"
	"github.com/galerie/service/internal/storage"
	"github.com/galerie/service/internal/upload"
	"github.com/galerie/service/internal/validation"
)

// Handler holds HTTP handlers for article endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new article Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Upload godoc
//
//	@Summary		Upload a markdown article
//	@Description	Creates an article from a .md file with an optional cover image. The slug derives from the filename and must be unique.
//	@Tags			articles
//	@Accept			mpfd
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file		formData	file	true	"Markdown file (.md, max 10MB)"
//	@Param			fileCover	formData	file	false	"Cover image (JPG/PNG, max 2MB)"
//	@Success		201	{object}	Article
//	@Failure		400	{object}	response.ErrorBody
//	@Failure		409	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/articles/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	filename, markdown, err := upload.Markdown(r, "file")
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	cover, err := upload.Image(r, "fileCover")
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	a, err := h.svc.Upload(r.Context(), filename, markdown, cover)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, map[string]interface{}{"message": "article created", "article": a})
}

// List godoc
//
//	@Summary	List article summaries
//	@Tags		articles
//	@Produce	json
//	@Success	200	{object}	map[string][]Summary
//	@Failure	500	{object}	response.ErrorBody
//	@Router		/articles [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	articles, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if articles == nil {
		articles = []*Summary{}
	}
	response.OK(w, map[string]interface{}{"articles": articles})
}

// Get godoc
//
//	@Summary	Get an article by slug
//	@Tags		articles
//	@Produce	json
//	@Param		slug	path		string	true	"Article slug"
//	@Success	200	{object}	Article
//	@Failure	404	{object}	response.ErrorBody
//	@Router		/articles/{slug} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"article": a})
}

// Delete godoc
//
//	@Summary	Delete an article by slug
//	@Tags		articles
//	@Produce	json
//	@Security	BearerAuth
//	@Param		slug	path		string	true	"Article slug"
//	@Success	200	{object}	response.ErrorBody
//	@Failure	404	{object}	response.ErrorBody
//	@Router		/articles/{slug} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteBySlug(r.Context(), chi.URLParam(r, "slug")); err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, map[string]string{"message": "article deleted"})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, validation.ErrInvalid), errors.Is(err, upload.ErrRejected):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "article not found")
	case errors.Is(err, ErrSlugTaken):
		response.Conflict(w, "an article with this slug already exists")
	case errors.Is(err, storage.ErrWrite):
		response.Error(w, http.StatusInternalServerError, "file storage failed")
	default:
		response.InternalError(w)
	}
}
