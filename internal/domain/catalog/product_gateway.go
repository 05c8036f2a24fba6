package catalog

import (
	"context"

	"github.com/erp/catalog-console/internal/domain/shared"
)

// ProductGateway defines the remote catalog operations.
// Implementations return *shared.DomainError values for every failure.
type ProductGateway interface {
	// ListProducts returns the authoritative product list
	ListProducts(ctx context.Context) ([]Product, error)

	// GetProduct returns a single product
	GetProduct(ctx context.Context, id ID) (*Product, error)

	// CreateProduct creates a product and returns it as stored
	CreateProduct(ctx context.Context, payload ProductPayload) (*Product, error)

	// UpdateProduct replaces a product; fails with a NotFoundError for unknown ids
	UpdateProduct(ctx context.Context, id ID, payload ProductPayload) (*Product, error)

	// DeleteProduct removes a product; fails with a NotFoundError for unknown ids
	DeleteProduct(ctx context.Context, id ID) (*shared.Ack, error)

	// ListImages returns the images available for selection
	ListImages(ctx context.Context) ([]Image, error)
}
