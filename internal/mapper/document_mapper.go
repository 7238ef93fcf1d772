package mapper

import (
	"time"

	"ai-pdf-tutor-be/internal/entity"
	"ai-pdf-tutor-be/internal/model"

	"gorm.io/gorm"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) DocumentToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var deletedAt *time.Time
	if d.DeletedAt.Valid {
		t := d.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.Document{
		Id:        d.Id,
		UserId:    d.UserId,
		Title:     d.Title,
		FilePath:  d.FilePath,
		FileSize:  d.FileSize,
		PageCount: d.PageCount,
		Status:    entity.DocumentStatus(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: d.DeletedAt.Valid,
	}
}

func (m *DocumentMapper) DocumentToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if d.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	} else if d.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	return &model.Document{
		Id:        d.Id,
		UserId:    d.UserId,
		Title:     d.Title,
		FilePath:  d.FilePath,
		FileSize:  d.FileSize,
		PageCount: d.PageCount,
		Status:    string(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

func (m *DocumentMapper) DocumentPageToEntity(p *model.DocumentPage) *entity.DocumentPage {
	if p == nil {
		return nil
	}

	return &entity.DocumentPage{
		Id:         p.Id,
		DocumentId: p.DocumentId,
		PageNumber: p.PageNumber,
		Text:       p.Text,
		CreatedAt:  p.CreatedAt,
	}
}

func (m *DocumentMapper) DocumentPageToModel(p *entity.DocumentPage) *model.DocumentPage {
	if p == nil {
		return nil
	}

	return &model.DocumentPage{
		Id:         p.Id,
		DocumentId: p.DocumentId,
		PageNumber: p.PageNumber,
		Text:       p.Text,
		CreatedAt:  p.CreatedAt,
	}
}
