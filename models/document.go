package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Documents are uploaded files. The extracted text itself lives in their
// chunks; Content only keeps a short preview for listings and for answering
// questions about a document that produced no chunks.
//
// Starred and Deleted are independent flags. A deleted document stays in the
// table with its chunks so it can be restored, but search never returns its
// chunks.
type Document struct {
	Generic

	Filename string `gorm:"size:255;not null" json:"filename"`
	FileType string `gorm:"size:255" json:"file_type"`
	FileSize int64  `json:"file_size"`
	Content  string `json:"-"`
	Starred  bool   `gorm:"not null;default:false;index" json:"is_starred"`
	Deleted  bool   `gorm:"not null;default:false;index" json:"is_deleted"`
}

// DocumentPatch is a partial update. Nil fields are left unchanged.
type DocumentPatch struct {
	Filename *string
	Starred  *bool
	Deleted  *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p DocumentPatch) IsEmpty() bool {
	return p.Filename == nil && p.Starred == nil && p.Deleted == nil
}

// Apply copies the set fields of the patch onto d.
func (p DocumentPatch) Apply(d *Document) {
	if p.Filename != nil {
		d.Filename = *p.Filename
	}
	if p.Starred != nil {
		d.Starred = *p.Starred
	}
	if p.Deleted != nil {
		d.Deleted = *p.Deleted
	}
}

// DocumentFilter selects a subset of documents for listing.
type DocumentFilter string

const (
	// AllDocuments includes soft-deleted documents.
	AllDocuments DocumentFilter = "all"
	// ActiveDocuments are the documents that are not soft-deleted.
	ActiveDocuments DocumentFilter = "active"
	// StarredDocuments are active documents marked with a star.
	StarredDocuments DocumentFilter = "starred"
	// DeletedDocuments are soft-deleted documents, i.e. the trash.
	DeletedDocuments DocumentFilter = "deleted"
)

// ParseDocumentFilter converts a query value to a filter. An empty value
// means AllDocuments.
func ParseDocumentFilter(s string) (DocumentFilter, error) {
	switch f := DocumentFilter(s); f {
	case "":
		return AllDocuments, nil
	case AllDocuments, ActiveDocuments, StarredDocuments, DeletedDocuments:
		return f, nil
	default:
		return "", fmt.Errorf("unknown document filter %q", s)
	}
}

// Matches reports whether d belongs to the filtered subset.
func (f DocumentFilter) Matches(d *Document) bool {
	switch f {
	case ActiveDocuments:
		return !d.Deleted
	case StarredDocuments:
		return d.Starred && !d.Deleted
	case DeletedDocuments:
		return d.Deleted
	default:
		return true
	}
}

func CreateDocument(db *gorm.DB, document *Document) error {
	return db.Create(document).Error
}

func GetDocumentByID(db *gorm.DB, id uint) (*Document, error) {
	var document Document
	err := db.First(&document, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
		}

		return nil, err
	}

	return &document, nil
}

// GetDocuments lists documents newest first.
func GetDocuments(db *gorm.DB, filter DocumentFilter) ([]Document, error) {
	query := db.Order("created_at DESC").Order("id DESC")
	switch filter {
	case ActiveDocuments:
		query = query.Where("deleted = ?", false)
	case StarredDocuments:
		query = query.Where("starred = ? AND deleted = ?", true, false)
	case DeletedDocuments:
		query = query.Where("deleted = ?", true)
	}

	documents := make([]Document, 0)
	if err := query.Find(&documents).Error; err != nil {
		return nil, err
	}

	return documents, nil
}

// UpdateDocument applies patch to the document and returns the updated row.
func UpdateDocument(db *gorm.DB, id uint, patch DocumentPatch) (*Document, error) {
	var document *Document
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		document, err = GetDocumentByID(tx, id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if patch.Filename != nil {
			updates["filename"] = *patch.Filename
		}
		if patch.Starred != nil {
			updates["starred"] = *patch.Starred
		}
		if patch.Deleted != nil {
			updates["deleted"] = *patch.Deleted
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(document).Updates(updates).Error; err != nil {
			return err
		}
		patch.Apply(document)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return document, nil
}

// DeleteDocument removes the document and all of its chunks for good.
func DeleteDocument(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&DocumentChunk{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&Document{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("document %d: %w", id, ErrNotFound)
		}

		return nil
	})
}
