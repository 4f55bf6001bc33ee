package models

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type InquiriesRepository struct {
	db *gorm.DB
}

func NewInquiriesRepository(db *gorm.DB) *InquiriesRepository {
	return &InquiriesRepository{db: db}
}

func (r *InquiriesRepository) CreateInquiry(ctx context.Context, inquiry *Inquiry) error {
	return r.db.WithContext(ctx).Create(inquiry).Error
}

func (r *InquiriesRepository) GetAllInquiries(ctx context.Context) ([]Inquiry, error) {
	var inquiries []Inquiry
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&inquiries).Error; err != nil {
		return nil, err
	}
	return inquiries, nil
}

func (r *InquiriesRepository) GetByID(ctx context.Context, id uint) (*Inquiry, error) {
	var inquiry Inquiry
	if err := r.db.WithContext(ctx).First(&inquiry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInquiryNotFound
		}
		return nil, err
	}
	return &inquiry, nil
}
