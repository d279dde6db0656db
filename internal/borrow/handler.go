// AngelaMos | 2026
// handler.go

package borrow

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/angelamos/shelfmark/internal/core"
	"github.com/angelamos/shelfmark/internal/middleware"
)

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
	r.Route("/borrow", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/my-borrowed-books", h.MyBorrowedBooks)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/record-borrow-book/{id}", h.RecordBorrow)
			r.Put("/return-borrowed-book/{bookId}", h.ReturnBorrowed)
			r.Get("/borrowed-books-by-users", h.BorrowedBooksByUsers)
		})
	})
}

func (h *Handler) RecordBorrow(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	var req BorrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	ledger, err := h.service.BorrowBook(r.Context(), bookID, req.Email)
	if err != nil {
		h.writeBorrowError(w, err)
		return
	}

	core.Created(w, ToBorrowResponse(ledger))
}

func (h *Handler) ReturnBorrowed(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookId")

	var req BorrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	ledger, err := h.service.ReturnBook(r.Context(), bookID, req.Email)
	if err != nil {
		h.writeBorrowError(w, err)
		return
	}

	core.OK(w, ToBorrowResponse(ledger))
}

func (h *Handler) MyBorrowedBooks(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	borrows, err := h.service.ListUserBorrows(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, UserBorrowListResponse{
		Borrows: ToUserBorrowResponseList(borrows),
	})
}

func (h *Handler) BorrowedBooksByUsers(
	w http.ResponseWriter,
	r *http.Request,
) {
	borrows, err := h.service.ListAllBorrows(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, BorrowListResponse{Borrows: ToBorrowResponseList(borrows)})
}

func (h *Handler) writeBorrowError(w http.ResponseWriter, err error) {
	switch {
	case core.IsAppError(err):
		core.JSONError(w, err)
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "resource")
	case errors.Is(err, core.ErrConflict):
		core.Conflict(w, "book is out of stock or already borrowed")
	default:
		core.InternalServerError(w, err)
	}
}
