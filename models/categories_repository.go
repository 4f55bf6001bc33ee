package models

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type CategoriesRepository struct {
	db *gorm.DB
}

func NewCategoriesRepository(db *gorm.DB) *CategoriesRepository {
	return &CategoriesRepository{db: db}
}

func (r *CategoriesRepository) GetAllCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoriesRepository) GetByID(ctx context.Context, id uint) (*Category, error) {
	var category Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoriesRepository) CreateCategory(ctx context.Context, category *Category) error {
	if err := r.ensureUniqueName(ctx, category.Name, 0); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *CategoriesRepository) UpdateCategory(ctx context.Context, category *Category) error {
	if err := r.ensureUniqueName(ctx, category.Name, category.ID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(category).Update("name", category.Name).Error
}

// DeleteCategory removes the category together with its products and any
// cart lines pointing at them.
func (r *CategoriesRepository) DeleteCategory(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := tx.Model(&Product{}).Select("id").Where("category_id = ?", id)
		if err := tx.Where("product_id IN (?)", products).Delete(&CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", id).Delete(&Product{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCategoryNotFound
		}
		return nil
	})
}

func (r *CategoriesRepository) ensureUniqueName(ctx context.Context, name string, exceptID uint) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Category{}).
		Where("name = ? AND id <> ?", name, exceptID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateCategory
	}
	return nil
}
