package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// FallbackImageURL is shown when a product has no usable image
	FallbackImageURL = "/images/no_image.jpg"
	// UnnamedProduct is shown when a product arrives without a name
	UnnamedProduct = "Unnamed Product"
	// NoDescription is shown when a product arrives without a description
	NoDescription = "No description available."
)

// ID is a server-assigned identifier. The backend may send it as a JSON string or number.
type ID string

// UnmarshalJSON accepts quoted strings, bare numbers and null
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the id as text
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the id is unset
func (id ID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// Product represents one catalog entry as returned by the backend
type Product struct {
	ID          ID              `json:"product_id"`
	Name        string          `json:"prod_name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageURL"`
	ImageID     ID              `json:"imageID,omitempty"`
}

// Clone returns an independent copy of the product
func (p Product) Clone() Product {
	return p
}

// DisplayName returns the name, or a placeholder when the backend sent none
func (p Product) DisplayName() string {
	if strings.TrimSpace(p.Name) == "" {
		return UnnamedProduct
	}
	return p.Name
}

// DisplayDescription returns the description, or a placeholder when empty
func (p Product) DisplayDescription() string {
	if strings.TrimSpace(p.Description) == "" {
		return NoDescription
	}
	return p.Description
}

// DisplayImageURL returns the image URL, or the fallback image when empty
func (p Product) DisplayImageURL() string {
	if strings.TrimSpace(p.ImageURL) == "" {
		return FallbackImageURL
	}
	return p.ImageURL
}

// AsInput converts the product back into form values for editing
func (p Product) AsInput() ProductInput {
	input := ProductInput{
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		ImageID:     p.ImageID.String(),
	}
	if !p.Price.IsZero() {
		input.Price = p.Price.StringFixed(2)
	}
	return input
}

// Image is a previously uploaded picture that products can reference
type Image struct {
	ImageURL string `json:"imageURL"`
	ImageID  ID     `json:"imageID"`
}
