package db

import (
	"context"
	"errors"
	"strings"

	"library_borrowing_service/models"

	"gorm.io/gorm"
)

// ErrNoCopyLeft is returned by TakeCopy when the conditional decrement matched nothing.
var ErrNoCopyLeft = errors.New("no copy left")

func (r *Repo) CreateBook(ctx context.Context, b *models.Book) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

func (r *Repo) FindBookByID(ctx context.Context, id string) (*models.Book, error) {
	var b models.Book
	if err := r.DB.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// LockBook loads the book row and holds it until the transaction ends.
func (r *Repo) LockBook(ctx context.Context, id string) (*models.Book, error) {
	var b models.Book
	if err := r.forUpdate(r.DB.WithContext(ctx)).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

type BookQuery struct {
	Q    string // title/author
	Page int
	Size int
}

type PagedBooks struct {
	Total int64         `json:"total"`
	Items []models.Book `json:"items"`
}

func (r *Repo) ListBooks(ctx context.Context, q BookQuery) (*PagedBooks, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 || q.Size > 200 {
		q.Size = 50
	}

	tx := r.DB.WithContext(ctx).Model(&models.Book{})
	if s := strings.TrimSpace(q.Q); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		tx = tx.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ?", pat, pat)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}
	var items []models.Book
	if err := tx.Order("title ASC").Offset((q.Page - 1) * q.Size).Limit(q.Size).Find(&items).Error; err != nil {
		return nil, err
	}
	return &PagedBooks{Total: total, Items: items}, nil
}

// UpdateBook writes the given columns and returns the fresh row.
func (r *Repo) UpdateBook(ctx context.Context, id string, fields map[string]any) (*models.Book, error) {
	res := r.DB.WithContext(ctx).Model(&models.Book{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindBookByID(ctx, id)
}

func (r *Repo) DeleteBook(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Delete(&models.Book{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Inventory ledger.

// TakeCopy decrements inventory only while a copy is left.
func (r *Repo) TakeCopy(ctx context.Context, bookID string) error {
	res := r.DB.WithContext(ctx).Model(&models.Book{}).
		Where("id = ? AND inventory > 0", bookID).
		Update("inventory", gorm.Expr("inventory - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoCopyLeft
	}
	return nil
}

func (r *Repo) ReturnCopy(ctx context.Context, bookID string) error {
	res := r.DB.WithContext(ctx).Model(&models.Book{}).
		Where("id = ?", bookID).
		Update("inventory", gorm.Expr("inventory + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
