package album

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/galerie/service/internal/response"
	"github.com/galerie/service/internal/storage"
	"github.com/galerie/service/internal/upload"
	"github.com/galerie/service/internal/validation"
)

// Handler holds HTTP handlers for album endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new album Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create godoc
//
//	@Summary		Create an album
//	@Description	Creates an album with an optional cover photo (multipart).
//	@Tags			albums
//	@Accept			mpfd
//	@Produce		json
//	@Security		BearerAuth
//	@Param			name		formData	string	true	"Album name (3-100 chars)"
//	@Param			description	formData	string	false	"Description (max 500 chars)"
//	@Param			coverPhoto	formData	file	false	"Cover image (JPG/PNG, max 2MB)"
//	@Success		201	{object}	Album
//	@Failure		400	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/albums [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	cover, err := upload.Image(r, "coverPhoto")
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	in := CreateInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
	}
	a, err := h.svc.Create(r.Context(), in, cover)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, map[string]interface{}{"message": "album created", "album": a})
}

// List godoc
//
//	@Summary	List albums
//	@Tags		albums
//	@Produce	json
//	@Success	200	{object}	map[string][]Album
//	@Failure	500	{object}	response.ErrorBody
//	@Router		/albums [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	albums, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if albums == nil {
		albums = []*Album{}
	}
	response.OK(w, map[string]interface{}{"albums": albums})
}

// Get godoc
//
//	@Summary	Get one album with its photos
//	@Tags		albums
//	@Produce	json
//	@Param		id	path		string	true	"Album ID"
//	@Success	200	{object}	AlbumWithPhotos
//	@Failure	404	{object}	response.ErrorBody
//	@Router		/albums/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if a.Photos == nil {
		a.Photos = []*Photo{}
	}
	response.OK(w, map[string]interface{}{"album": a})
}

// Update godoc
//
//	@Summary		Update an album
//	@Description	Patches name/description and optionally replaces the cover.
//	@Tags			albums
//	@Accept			mpfd
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Album ID"
//	@Success		200	{object}	Album
//	@Failure		400	{object}	response.ErrorBody
//	@Failure		404	{object}	response.ErrorBody
//	@Router			/albums/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	cover, err := upload.Image(r, "coverPhoto")
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	in := UpdateInput{
		Name:        optionalForm(r, "name"),
		Description: optionalForm(r, "description"),
	}
	a, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in, cover)
	if err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, map[string]interface{}{"message": "album updated", "album": a})
}

// Delete godoc
//
//	@Summary		Delete an album
//	@Description	Refused with 409 while the album still contains photos.
//	@Tags			albums
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Album ID"
//	@Success		200	{object}	response.ErrorBody
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		409	{object}	response.ErrorBody
//	@Router			/albums/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, map[string]string{"message": "album deleted"})
}

// AddPhoto godoc
//
//	@Summary		Add a photo to an album
//	@Description	Associates an existing photo with an album. Adding the same photo twice is a no-op.
//	@Tags			albums
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			association	body		AddPhotoInput	true	"Album and photo ids"
//	@Success		200	{object}	map[string]string
//	@Failure		400	{object}	response.ErrorBody
//	@Failure		404	{object}	response.ErrorBody
//	@Router			/albums/add-photo [post]
func (h *Handler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	var in AddPhotoInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := h.svc.AddPhoto(r.Context(), in); err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, map[string]string{"message": "photo added to album"})
}

// MovePhoto godoc
//
//	@Summary		Move a photo between albums
//	@Tags			albums
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			move	body		MovePhotoInput	true	"Photo id and source/destination albums"
//	@Success		200	{object}	map[string]string
//	@Failure		400	{object}	response.ErrorBody
//	@Failure		404	{object}	response.ErrorBody
//	@Router			/albums/move-photo [post]
func (h *Handler) MovePhoto(w http.ResponseWriter, r *http.Request) {
	var in MovePhotoInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := h.svc.MovePhoto(r.Context(), in); err != nil {
		writeError(w, err)
		return
	}
	response.OK(w, map[string]string{"message": "photo moved"})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, validation.ErrInvalid), errors.Is(err, upload.ErrRejected):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "album not found")
	case errors.Is(err, ErrPhotoNotFound):
		response.NotFound(w, "photo not found")
	case errors.Is(err, ErrNotEmpty):
		response.Conflict(w, "album still contains photos")
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
