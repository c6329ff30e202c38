package contact

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/galerie/service/internal/response"
	"github.com/galerie/service/internal/validation"
)

// Handler holds the HTTP handler for the contact form.
type Handler struct {
	svc *Service
}

// NewHandler creates a new contact Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Submit godoc
//
//	@Summary	Send a contact form message
//	@Tags		contact
//	@Accept		json
//	@Produce	json
//	@Param		message	body		Input	true	"Contact message"
//	@Success	200	{object}	map[string]string
//	@Failure	400	{object}	response.ErrorBody
//	@Failure	500	{object}	response.ErrorBody
//	@Router		/contact [post]
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.svc.Submit(in); err != nil {
		if errors.Is(err, validation.ErrInvalid) {
			response.BadRequest(w, err.Error())
			return
		}
		response.Error(w, http.StatusInternalServerError, "failed to send message, please try again")
		return
	}
	response.OK(w, map[string]string{"message": "message sent successfully"})
}
