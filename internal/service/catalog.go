package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"novapos/internal/domain"
	"novapos/internal/store"
)

// ListProducts returns the catalog. Drafts are only visible to admins.
func (s *Service) ListProducts(ctx context.Context, includeDrafts bool) ([]domain.Product, error) {
	if includeDrafts {
		if _, err := requireAdmin(ctx); err != nil {
			includeDrafts = false
		}
	}
	return s.repo.ListProducts(ctx, includeDrafts)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductSaveRequest) (domain.Product, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}
	product, err := s.productFromRequest(req)
	if err != nil {
		return domain.Product{}, err
	}
	if product.ID != "" {
		if _, err := s.repo.GetProduct(ctx, product.ID); err == nil {
			return domain.Product{}, fmt.Errorf("%w: product %s already exists", store.ErrConflict, product.ID)
		} else if !errors.Is(err, store.ErrNotFound) {
			return domain.Product{}, err
		}
	}

	created, err := s.repo.SaveProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("name=%s,price=%s", created.Name, created.Price.StringFixed(2)))
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductSaveRequest) (domain.Product, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}
	req.ID = strings.TrimSpace(id)
	if _, err := s.repo.GetProduct(ctx, req.ID); err != nil {
		return domain.Product{}, err
	}
	product, err := s.productFromRequest(req)
	if err != nil {
		return domain.Product{}, err
	}

	updated, err := s.repo.SaveProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	s.logAudit(ctx, "product_update", "product", updated.ID, fmt.Sprintf("price=%s,status=%s", updated.Price.StringFixed(2), updated.Status))
	return *updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "product_delete", "product", id, "")
	return nil
}

func (s *Service) productFromRequest(req domain.ProductSaveRequest) (domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := s.Validate(req); err != nil {
		return domain.Product{}, err
	}

	status := req.Status
	if status == "" {
		status = domain.ProductStatusActive
	}
	var stock *int
	if req.Stock != nil {
		v := *req.Stock
		stock = &v
	}
	return domain.Product{
		ID:       strings.TrimSpace(req.ID),
		Name:     req.Name,
		Price:    req.Price,
		Category: req.Category,
		Image:    strings.TrimSpace(req.Image),
		Stock:    stock,
		Status:   status,
	}, nil
}
