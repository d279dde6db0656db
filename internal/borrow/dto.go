// AngelaMos | 2026
// dto.go

package borrow

import (
	"time"
)

type BorrowRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type BorrowResponse struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	UserName     string     `json:"user_name"`
	UserEmail    string     `json:"user_email"`
	BookID       string     `json:"book_id"`
	BookTitle    string     `json:"book_title"`
	Price        float64    `json:"price"`
	BorrowedDate time.Time  `json:"borrowed_date"`
	DueDate      time.Time  `json:"due_date"`
	ReturnDate   *time.Time `json:"return_date,omitempty"`
	Fine         float64    `json:"fine"`
	Notified     bool       `json:"notified"`
}

type BorrowListResponse struct {
	Borrows []BorrowResponse `json:"borrows"`
}

type UserBorrowResponse struct {
	ID           string    `json:"id"`
	BookID       string    `json:"book_id"`
	BookTitle    string    `json:"book_title"`
	BorrowedDate time.Time `json:"borrowed_date"`
	DueDate      time.Time `json:"due_date"`
	Returned     bool      `json:"returned"`
}

type UserBorrowListResponse struct {
	Borrows []UserBorrowResponse `json:"borrows"`
}

func ToBorrowResponse(b *Borrow) BorrowResponse {
	return BorrowResponse{
		ID:           b.ID,
		UserID:       b.UserID,
		UserName:     b.UserName,
		UserEmail:    b.UserEmail,
		BookID:       b.BookID,
		BookTitle:    b.BookTitle,
		Price:        b.Price,
		BorrowedDate: b.BorrowedDate,
		DueDate:      b.DueDate,
		ReturnDate:   b.ReturnDate,
		Fine:         b.Fine,
		Notified:     b.Notified,
	}
}

func ToBorrowResponseList(borrows []Borrow) []BorrowResponse {
	responses := make([]BorrowResponse, 0, len(borrows))
	for _, b := range borrows {
		responses = append(responses, ToBorrowResponse(&b))
	}
	return responses
}

func ToUserBorrowResponse(ub *UserBorrow) UserBorrowResponse {
	return UserBorrowResponse{
		ID:           ub.ID,
		BookID:       ub.BookID,
		BookTitle:    ub.BookTitle,
		BorrowedDate: ub.BorrowedDate,
		DueDate:      ub.DueDate,
		Returned:     ub.Returned,
	}
}

func ToUserBorrowResponseList(borrows []UserBorrow) []UserBorrowResponse {
	responses := make([]UserBorrowResponse, 0, len(borrows))
	for _, ub := range borrows {
		responses = append(responses, ToUserBorrowResponse(&ub))
	}
	return responses
}
