// AngelaMos | 2026
// handler.go

package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/angelamos/shelfmark/internal/core"
)

const maxAvatarMemory = 8 << 20

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/user", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/all", h.ListUsers)
		r.Post("/add/new-admin", h.AddAdmin)
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, UserListResponse{Users: ToUserResponseList(users)})
}

// AddAdmin accepts a multipart form with name, email, password, and a
// required avatar image file.
func (h *Handler) AddAdmin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAvatarMemory); err != nil {
		core.BadRequest(w, "invalid multipart form")
		return
	}

	req := AddAdminRequest{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	avatar, header, err := r.FormFile("avatar")
	if err != nil {
		core.BadRequest(w, "avatar image is required")
		return
	}
	defer avatar.Close()

	created, err := h.service.CreateAdmin(
		r.Context(),
		req,
		header.Header.Get("Content-Type"),
		avatar,
	)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToUserResponse(created))
}
