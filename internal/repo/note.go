package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/technotes/internal/models"
)

func (r *GormRepo) ListNotes(ctx context.Context) ([]models.Note, error) {
	var notes []models.Note
	if err := r.DB.WithContext(ctx).Order("created_at ASC").Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *GormRepo) GetNoteByID(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	var note models.Note
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&note).Error; err != nil {
		return nil, translate(err)
	}
	return &note, nil
}

func (r *GormRepo) FindNoteByTitle(ctx context.Context, title string) (*models.Note, error) {
	var note models.Note
	if err := r.DB.WithContext(ctx).Where("title = ?", title).First(&note).Error; err != nil {
		return nil, translate(err)
	}
	return &note, nil
}

func (r *GormRepo) CreateNote(ctx context.Context, n *models.Note) error {
	return translate(r.DB.WithContext(ctx).Create(n).Error)
}

func (r *GormRepo) SaveNote(ctx context.Context, n *models.Note) error {
	return translate(r.DB.WithContext(ctx).Save(n).Error)
}

func (r *GormRepo) DeleteNote(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.Note{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) CountNotesByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Note{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SearchNotes is the store-side fallback when no search index is configured:
// a case-insensitive substring match on title and text.
func (r *GormRepo) SearchNotes(ctx context.Context, q string, offset, limit int) (int64, []models.Note, error) {
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	const cond = `LOWER(title) LIKE ? ESCAPE '\' OR LOWER(text) LIKE ? ESCAPE '\'`

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Note{}).Where(cond, pattern, pattern).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Note, 0, limit)
	if err := r.DB.WithContext(ctx).Model(&models.Note{}).
		Where(cond, pattern, pattern).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
