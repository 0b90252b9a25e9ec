package market

import (
	"context"

	"github.com/google/uuid"
)

type ProductInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	PriceCents  int64  `json:"price_cents"`
	Stock       int    `json:"stock"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// featuredPageSize caps the storefront carousel.
const featuredPageSize = 8

// ListProducts is the public catalog: active listings only.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.Store.ActiveProducts(ctx)
}

// FeaturedProducts returns the curated storefront picks: flagged, still
// active, newest first.
func (s *Service) FeaturedProducts(ctx context.Context) ([]Product, error) {
	return s.Store.FeaturedProducts(ctx, featuredPageSize)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.Store.Product(ctx, id)
}

func (s *Service) SellerProducts(ctx context.Context, seller Actor) ([]Product, error) {
	return s.Store.ProductsBySeller(ctx, seller.UserID)
}

func (s *Service) CreateProduct(ctx context.Context, seller Actor, in ProductInput) (*Product, error) {
	if seller.Role != RoleSeller && !seller.IsAdmin() {
		return nil, ErrForbidden
	}
	if in.Name == "" {
		return nil, Invalidf("product name is required")
	}
	if in.PriceCents < 0 {
		return nil, Invalidf("price cannot be negative")
	}
	if in.Stock < 0 {
		return nil, Invalidf("stock cannot be negative")
	}
	now := s.now()
	p := &Product{
		ID:          uuid.NewString(),
		SellerID:    seller.UserID,
		Name:        in.Name,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		PriceCents:  in.PriceCents,
		Stock:       in.Stock,
		IsActive:    in.IsActive == nil || *in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ProductUpdate is a partial edit; nil fields are left untouched.
type ProductUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	PriceCents  *int64  `json:"price_cents,omitempty"`
	Stock       *int    `json:"stock,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	Featured    *bool   `json:"featured,omitempty"`
}

// UpdateProduct applies a seller edit to their own listing. A seller may
// reactivate a listing with zero stock; exhaustion-driven deactivation is
// only a consequence of confirm, not a standing rule.
func (s *Service) UpdateProduct(ctx context.Context, seller Actor, id string, in ProductUpdate) (*Product, error) {
	p, err := s.Store.Product(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SellerID != seller.UserID && !seller.IsAdmin() {
		return nil, ErrForbidden
	}
	if in.PriceCents != nil {
		if *in.PriceCents < 0 {
			return nil, Invalidf("price cannot be negative")
		}
		p.PriceCents = *in.PriceCents
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, Invalidf("stock cannot be negative")
		}
		p.Stock = *in.Stock
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.ImageURL != nil {
		p.ImageURL = *in.ImageURL
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
	p.UpdatedAt = s.now()
	if err := s.Store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, seller Actor, id string) error {
	p, err := s.Store.Product(ctx, id)
	if err != nil {
		return err
	}
	if p.SellerID != seller.UserID && !seller.IsAdmin() {
		return ErrForbidden
	}
	return s.Store.DeleteProduct(ctx, id)
}
