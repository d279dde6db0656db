// AngelaMos | 2026
// dto.go

package book

import (
	"time"
)

type AddBookRequest struct {
	Title       string  `json:"title"       validate:"required,min=1,max=255"`
	Author      string  `json:"author"      validate:"required,min=1,max=255"`
	Description string  `json:"description" validate:"required,min=1,max=2000"`
	Price       float64 `json:"price"       validate:"gte=0"`
	Quantity    int     `json:"quantity"    validate:"gte=0"`
	Category    string  `json:"category"    validate:"omitempty,oneof=Fiction Non-Fiction Science History Fantasy Other"`
}

type BookResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	Quantity     int       `json:"quantity"`
	Availability bool      `json:"availability"`
	Category     string    `json:"category"`
	CreatedAt    time.Time `json:"created_at"`
}

type BookListResponse struct {
	Books []BookResponse `json:"books"`
}

func ToBookResponse(b *Book) BookResponse {
	return BookResponse{
		ID:           b.ID,
		Title:        b.Title,
		Author:       b.Author,
		Description:  b.Description,
		Price:        b.Price,
		Quantity:     b.Quantity,
		Availability: b.Availability,
		Category:     b.Category,
		CreatedAt:    b.CreatedAt,
	}
}

func ToBookResponseList(books []Book) []BookResponse {
	responses := make([]BookResponse, 0, len(books))
	for _, b := range books {
		responses = append(responses, ToBookResponse(&b))
	}
	return responses
}
