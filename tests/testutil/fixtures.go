package testutil

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/erp/catalog-console/internal/domain/catalog"
)

// NewProductInput returns a form input that passes validation
func NewProductInput(f *gofakeit.Faker) catalog.ProductInput {
	return catalog.ProductInput{
		Name:        f.ProductName(),
		Price:       fmt.Sprintf("%.2f", f.Price(1, 500)),
		Description: f.Sentence(8),
		ImageURL:    fmt.Sprintf("/images/%s.jpg", f.Word()),
	}
}

// NewWireProduct returns a product as the backend stores it
func NewWireProduct(f *gofakeit.Faker, id int) WireProduct {
	return WireProduct{
		ProductID:   id,
		ProdName:    f.ProductName(),
		Price:       float64(int(f.Price(1, 500)*100)) / 100,
		Description: f.Sentence(8),
		ImageURL:    fmt.Sprintf("https://cdn.example.com/%s.png", f.Word()),
	}
}
