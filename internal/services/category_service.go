package services

import (
	"context"
	"strings"

	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/store"
)

// categoryService handles category-related business logic.
type categoryService struct {
	repo ownedRepo[models.Category, *models.Category]
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(st store.Store) CategoryServicer {
	return &categoryService{
		repo: ownedRepo[models.Category, *models.Category]{store: st, shared: true, notFound: apperrors.ErrCategoryNotFound},
	}
}

// ListForUser returns the user's own categories plus the shared ones, by name.
func (s *categoryService) ListForUser(ctx context.Context, uid string) ([]models.Category, error) {
	return s.repo.list(ctx, uid, store.Query{Order: "name"})
}

// ListByType returns the visible categories of one type.
func (s *categoryService) ListByType(ctx context.Context, uid string, categoryType models.CategoryType) ([]models.Category, error) {
	return s.repo.list(ctx, uid, store.Query{
		Where: []store.Cond{store.Eq("type", categoryType)},
		Order: "name",
	})
}

// Get retrieves a visible category by ID
func (s *categoryService) Get(ctx context.Context, uid, id string) (*models.Category, error) {
	return s.repo.get(ctx, uid, id)
}

// Save creates or replaces a category owned by uid.
func (s *categoryService) Save(ctx context.Context, uid string, category *models.Category) (*models.Category, error) {
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	if err := s.repo.save(ctx, uid, category); err != nil {
		return nil, err
	}
	return category, nil
}

// SaveBatch inserts new categories owned by uid.
func (s *categoryService) SaveBatch(ctx context.Context, uid string, categories []models.Category) ([]models.Category, error) {
	for i := range categories {
		if err := validateCategory(&categories[i]); err != nil {
			return nil, err
		}
	}
	return s.repo.saveBatch(ctx, uid, categories)
}

// Delete removes a category. Transactions keep the category name.
func (s *categoryService) Delete(ctx context.Context, uid, id string) error {
	return s.repo.delete(ctx, uid, id)
}

func validateCategory(c *models.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	switch c.Type {
	case models.CategoryTypeIncome, models.CategoryTypeExpense:
		return nil
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be income or expense")
	}
}
