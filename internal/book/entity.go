// AngelaMos | 2026
// entity.go

package book

import (
	"time"
)

type Book struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Author       string    `db:"author"`
	Description  string    `db:"description"`
	Price        float64   `db:"price"`
	Quantity     int       `db:"quantity"`
	Availability bool      `db:"availability"`
	Category     string    `db:"category"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

const (
	CategoryFiction    = "Fiction"
	CategoryNonFiction = "Non-Fiction"
	CategoryScience    = "Science"
	CategoryHistory    = "History"
	CategoryFantasy    = "Fantasy"
	CategoryOther      = "Other"
)

// Available reports the derived availability. The stored column is kept in
// lockstep by recomputing it in the same statement as every quantity change.
func (b *Book) Available() bool {
	return b.Quantity > 0
}
