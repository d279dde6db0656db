// AngelaMos | 2026
// service.go

package book

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) AddBook(
	ctx context.Context,
	req AddBookRequest,
) (*Book, error) {
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = CategoryOther
	}

	book := &Book{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(req.Title),
		Author:      strings.TrimSpace(req.Author),
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Category:    category,
	}

	if err := s.repo.Create(ctx, book); err != nil {
		return nil, err
	}

	return book, nil
}

func (s *Service) GetBook(ctx context.Context, id string) (*Book, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListBooks(ctx context.Context) ([]Book, error) {
	return s.repo.List(ctx)
}

func (s *Service) DeleteBook(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) CountBooks(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
