package services

import (
	"context"
	"strings"

	"library_borrowing_service/db"
	"library_borrowing_service/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookInput struct {
	Title     *string          `json:"title"`
	Author    *string          `json:"author"`
	Cover     *models.Cover    `json:"cover"`
	Inventory *int             `json:"inventory"`
	DailyFee  *decimal.Decimal `json:"daily_fee"`
}

type Books struct {
	repo *db.Repo
}

func NewBooks(repo *db.Repo) *Books { return &Books{repo: repo} }

// validate checks the fields that are set; full requires all of them.
func (in BookInput) validate(full bool) error {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" || full && in.Title == nil {
		return &ValidationError{Field: "title", Message: "This field is required."}
	}
	if in.Author != nil && strings.TrimSpace(*in.Author) == "" || full && in.Author == nil {
		return &ValidationError{Field: "author", Message: "This field is required."}
	}
	if in.Cover != nil && !in.Cover.Valid() || full && in.Cover == nil {
		return &ValidationError{Field: "cover", Message: "Must be HARD or SOFT."}
	}
	if in.Inventory != nil && *in.Inventory < 0 || full && in.Inventory == nil {
		return &ValidationError{Field: "inventory", Message: "Must be zero or greater."}
	}
	if in.DailyFee != nil && !in.DailyFee.IsPositive() || full && in.DailyFee == nil {
		return &ValidationError{Field: "daily_fee", Message: "Must be greater than zero."}
	}
	if in.DailyFee != nil && in.DailyFee.Exponent() < -2 {
		return &ValidationError{Field: "daily_fee", Message: "At most 2 decimal places."}
	}
	return nil
}

func (s *Books) Create(ctx context.Context, in BookInput) (*models.Book, error) {
	if err := in.validate(true); err != nil {
		return nil, err
	}
	b := &models.Book{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(*in.Title),
		Author:    strings.TrimSpace(*in.Author),
		Cover:     *in.Cover,
		Inventory: *in.Inventory,
		DailyFee:  *in.DailyFee,
	}
	if err := s.repo.CreateBook(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Update applies the set fields. PUT callers pass full=true.
func (s *Books) Update(ctx context.Context, id string, in BookInput, full bool) (*models.Book, error) {
	if err := in.validate(full); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if in.Title != nil {
		fields["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Author != nil {
		fields["author"] = strings.TrimSpace(*in.Author)
	}
	if in.Cover != nil {
		fields["cover"] = *in.Cover
	}
	if in.Inventory != nil {
		fields["inventory"] = *in.Inventory
	}
	if in.DailyFee != nil {
		fields["daily_fee"] = *in.DailyFee
	}
	if len(fields) == 0 {
		return s.Get(ctx, id)
	}
	b, err := s.repo.UpdateBook(ctx, id, fields)
	if err != nil {
		return nil, translate(err)
	}
	return b, nil
}

// Delete refuses books that were ever borrowed; their history references them.
func (s *Books) Delete(ctx context.Context, id string) error {
	return translate(s.repo.Transaction(ctx, func(tx *db.Repo) error {
		if _, err := tx.LockBook(ctx, id); err != nil {
			return err
		}
		n, err := tx.CountBorrowingsForBook(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &ConflictError{Message: "Book has borrowings and cannot be deleted."}
		}
		return tx.DeleteBook(ctx, id)
	}))
}

func (s *Books) Get(ctx context.Context, id string) (*models.Book, error) {
	b, err := s.repo.FindBookByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return b, nil
}

func (s *Books) List(ctx context.Context, q db.BookQuery) (*db.PagedBooks, error) {
	return s.repo.ListBooks(ctx, q)
}
