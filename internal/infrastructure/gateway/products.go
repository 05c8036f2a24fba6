package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/erp/catalog-console/internal/domain/catalog"
	"github.com/erp/catalog-console/internal/domain/shared"
)

var _ catalog.ProductGateway = (*Client)(nil)

func productPath(id catalog.ID) string {
	return "/products/" + url.PathEscape(id.String())
}

// ListProducts implements catalog.ProductGateway. A null body is an empty list.
func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := c.do(ctx, opListProducts, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []catalog.Product{}
	}
	return products, nil
}

// GetProduct implements catalog.ProductGateway
func (c *Client) GetProduct(ctx context.Context, id catalog.ID) (*catalog.Product, error) {
	var p catalog.Product
	if err := c.do(ctx, opGetProduct, http.MethodGet, productPath(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct implements catalog.ProductGateway
func (c *Client) CreateProduct(ctx context.Context, payload catalog.ProductPayload) (*catalog.Product, error) {
	var p catalog.Product
	if err := c.do(ctx, opCreateProduct, http.MethodPost, "/products", payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct implements catalog.ProductGateway
func (c *Client) UpdateProduct(ctx context.Context, id catalog.ID, payload catalog.ProductPayload) (*catalog.Product, error) {
	var p catalog.Product
	if err := c.do(ctx, opUpdateProduct, http.MethodPut, productPath(id), payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProduct implements catalog.ProductGateway
func (c *Client) DeleteProduct(ctx context.Context, id catalog.ID) (*shared.Ack, error) {
	var ack shared.Ack
	if err := c.do(ctx, opDeleteProduct, http.MethodDelete, productPath(id), nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// ListImages implements catalog.ProductGateway
func (c *Client) ListImages(ctx context.Context) ([]catalog.Image, error) {
	var images []catalog.Image
	if err := c.do(ctx, opListImages, http.MethodGet, "/products/images/all", nil, &images); err != nil {
		return nil, err
	}
	if images == nil {
		images = []catalog.Image{}
	}
	return images, nil
}
