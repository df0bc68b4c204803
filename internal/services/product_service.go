package services

import (
	"warung/internal/models"
	"warung/internal/repositories"
)

// ProductService handles business logic related to products and categories.
type ProductService struct {
	repo         repositories.ProductRepository
	categoryRepo repositories.CategoryRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, categoryRepo repositories.CategoryRepository) *ProductService {
	return &ProductService{
		repo:         repo,
		categoryRepo: categoryRepo,
	}
}

// GetAllProducts retrieves all products, optionally filtered by category.
func (s *ProductService) GetAllProducts(categoryID string) ([]models.Product, error) {
	if categoryID != "" {
		return s.repo.GetByCategory(categoryID)
	}
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(product *models.Product) error {
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}

// GetAllCategories retrieves all categories.
func (s *ProductService) GetAllCategories() ([]models.Category, error) {
	return s.categoryRepo.GetAll()
}

// CreateCategory creates a new category.
func (s *ProductService) CreateCategory(category *models.Category) error {
	return s.categoryRepo.Create(category)
}

// DeleteCategory deletes a category by its ID.
func (s *ProductService) DeleteCategory(id string) error {
	return s.categoryRepo.Delete(id)
}
