package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/galerie/service/internal/response"
	"github.com/galerie/service/internal/validation"
)

// Handler holds HTTP handlers for authentication endpoints.
type Handler struct {
	svc        *Service
	production bool
}

// NewHandler creates a new auth Handler. production controls the Secure flag
// on the token cookie.
func NewHandler(svc *Service, production bool) *Handler {
	return &Handler{svc: svc, production: production}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login godoc
//
//	@Summary		Admin login
//	@Description	Issues a 1h JWT, both in the body and as an httpOnly cookie.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		loginRequest	true	"Admin credentials"
//	@Success		200	{object}	map[string]string
//	@Failure		400	{object}	response.ErrorBody
//	@Failure		401	{object}	response.ErrorBody
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	token, err := h.svc.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			response.Unauthorized(w, "incorrect credentials")
			return
		}
		response.InternalError(w)
		return
	}

	sameSite := http.SameSiteLaxMode
	if h.production {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.production,
		SameSite: sameSite,
	})
	response.OK(w, map[string]string{"message": "login successful", "token": token})
}

// Logout godoc
//
//	@Summary	Admin logout
//	@Tags		auth
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	map[string]string
//	@Failure	401	{object}	response.ErrorBody
//	@Router		/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteStrictMode,
	})
	response.OK(w, map[string]string{"message": "logout successful"})
}
