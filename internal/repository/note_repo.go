package repository

import (
	"notably/internal/models"

	"gorm.io/gorm"
)

type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(n *models.Note) error {
	return r.db.Create(n).Error
}

func (r *NoteRepository) GetByID(id uint) (*models.Note, error) {
	var n models.Note
	err := r.db.Preload("Shares").First(&n, id).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NoteRepository) Update(n *models.Note) error {
	return r.db.Save(n).Error
}

func (r *NoteRepository) Delete(id uint) error {
	return r.db.Delete(&models.Note{}, id).Error
}

func (r *NoteRepository) ListByOwner(ownerID uint) ([]models.Note, error) {
	var list []models.Note
	err := r.db.Where("owner_id = ?", ownerID).
		Order("pinned DESC, updated_at DESC").Find(&list).Error
	return list, err
}

// ListSharedWith returns notes other users have shared with this user.
func (r *NoteRepository) ListSharedWith(userID uint) ([]models.Note, error) {
	var list []models.Note
	err := r.db.Joins("JOIN note_shares ON note_shares.note_id = notes.id").
		Where("note_shares.user_id = ?", userID).
		Order("notes.updated_at DESC").Find(&list).Error
	return list, err
}

func (r *NoteRepository) GetShare(noteID, userID uint) (*models.NoteShare, error) {
	var s models.NoteShare
	err := r.db.Where("note_id = ? AND user_id = ?", noteID, userID).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *NoteRepository) CreateShare(s *models.NoteShare) error {
	return r.db.Create(s).Error
}

func (r *NoteRepository) UpdateShare(s *models.NoteShare) error {
	return r.db.Save(s).Error
}

func (r *NoteRepository) DeleteShare(noteID, userID uint) error {
	return r.db.Where("note_id = ? AND user_id = ?", noteID, userID).
		Delete(&models.NoteShare{}).Error
}
