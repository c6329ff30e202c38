package photo

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/galerie/service/internal/response"
	"github.com/galerie/service/internal/storage"
	"github.com/galerie/service/internal/upload"
	"github.com/galerie/service/internal/validation"
)

// Handler holds HTTP handlers for photo endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new photo Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Upload godoc
//
//	@Summary		Upload a photo into an album
//	@Accept			mpfd
//	@Produce		json
//	@Tags			photos
//	@Security		BearerAuth
//	@Param			title		formData	string	true	"Title (3-100 chars)"
//	@Param			description	formData	string	false	"Description (max 300 chars)"
//	@Param			albumId		formData	string	true	"Target album ID"
//	@Param			image		formData	file	true	"Image (JPG/PNG, max 2MB)"
//	@Success		201	{object}	Photo
//	@Failure		400	{object}	response.ErrorBody
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/photos/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	image, err := upload.Image(r, "image")
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if image == nil {
		response.BadRequest(w, "no image file provided")
		return
	}

	in := CreateInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		AlbumID:     r.FormValue("albumId"),
	}
	p, err := h.svc.Create(r.Context(), in, *image)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, map[string]interface{}{"message": "photo uploaded", "photo": p})
}

// List godoc
//
//	@Summary	List photos, paginated
//	@Tags		photos
//	@Produce	json
//	@Param		page	query		int	false	"Page number (default 1)"
//	@Param		limit	query		int	false	"Page size (default 25)"
//	@Success	200	{object}	Page
//	@Failure	500	{object}	response.ErrorBody
//	@Router		/photos [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	res, err := h.svc.List(r.Context(), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, res)
}

// Update godoc
//
//	@Summary	Update a photo
//	@Accept		mpfd
//	@Produce	json
//	@Tags		photos
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Photo ID"
//	@Success	200	{object}	Photo
//	@Failure	400	{object}	response.ErrorBody
//	@Failure	404	{object}	response.ErrorBody
//	@Router		/photos/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	image, err := upload.Image(r, "image")
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	in := UpdateInput{
		Title:       optionalForm(r, "title"),
		Description: optionalForm(r, "description"),
	}
	p, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in, image)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"message": "photo updated", "photo": p})
}

// Delete godoc
//
//	@Summary	Delete a photo
//	@Tags		photos
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Photo ID"
//	@Success	200	{object}	response.ErrorBody
//	@Failure	404	{object}	response.ErrorBody
//	@Router		/photos/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, map[string]string{"message": "photo deleted"})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, validation.ErrInvalid), errors.Is(err, upload.ErrRejected):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "photo not found")
	case errors.Is(err, ErrAlbumNotFound):
		response.NotFound(w, "album not found")
	case errors.Is(err, storage.ErrWrite):
		response.Error(w, http.StatusInternalServerError, "file storage failed")
	default:
		response.InternalError(w)
	}
}

// optionalForm treats an empty form value as "field not supplied".
func optionalForm(r *http.Request, key string) *string {
	v := r.FormValue(key)
	if v == "" {
		return nil
	}
	return &v
}
