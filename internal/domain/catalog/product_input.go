package catalog

import (
	"regexp"
	"strings"
	"sync"

	"github.com/erp/catalog-console/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Form field names used as FieldErrors keys
const (
	FieldName        = "name"
	FieldPrice       = "price"
	FieldDescription = "description"
	FieldImageURL    = "imageUrl"
)

var imageURLPattern = regexp.MustCompile(`(?i)^(https?://.*\.(png|jpg|jpeg|gif|webp)|/images/.+\.(jpg|jpeg|png|gif|webp))$`)

// ProductInput holds raw form values for creating or updating a product
type ProductInput struct {
	Name        string `form:"name" validate:"required,min=2"`
	Price       string `form:"price" validate:"required,positive_price"`
	Description string `form:"description" validate:"required,min=10"`
	ImageURL    string `form:"imageUrl" validate:"required,image_url"`
	ImageID     string `form:"imageId"`
}

// ProductPayload is the request body sent to the backend on create and update
type ProductPayload struct {
	Name        string  `json:"prod_name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageURL"`
	ImageID     string  `json:"imageID,omitempty"`
}

var (
	productValidator     *validator.Validate
	productValidatorOnce sync.Once
)

func getProductValidator() *validator.Validate {
	productValidatorOnce.Do(func() {
		v := shared.NewValidator()
		_ = v.RegisterValidation("positive_price", func(fl validator.FieldLevel) bool {
			return isPositivePrice(fl.Field().String())
		})
		_ = v.RegisterValidation("image_url", func(fl validator.FieldLevel) bool {
			return imageURLPattern.MatchString(fl.Field().String())
		})
		productValidator = v
	})
	return productValidator
}

func isPositivePrice(raw string) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return d.IsPositive()
}

// Validate checks every field and reports all problems at once. It has no side effects.
func (in ProductInput) Validate() shared.FieldErrors {
	return shared.CollectFieldErrors(getProductValidator(), in, productMessage)
}

func productMessage(field, tag, param string) string {
	switch field {
	case FieldName:
		if tag == "required" {
			return "Product name is required"
		}
		return "Name must be at least " + param + " characters"
	case FieldPrice:
		if tag == "required" {
			return "Price is required"
		}
		return "Price must be a positive number"
	case FieldDescription:
		if tag == "required" {
			return "Description is required"
		}
		return "Description must be at least " + param + " characters"
	case FieldImageURL:
		if tag == "required" {
			return "Image URL is required"
		}
		return "Enter a valid image URL (.jpg, .jpeg, .png, .gif, .webp)"
	default:
		return "Invalid value"
	}
}

// Payload converts validated form values into the backend request body.
// Call Validate first; an unparseable price becomes zero.
func (in ProductInput) Payload() ProductPayload {
	price, _ := decimal.NewFromString(strings.TrimSpace(in.Price))
	return ProductPayload{
		Name:        in.Name,
		Price:       price.Round(2).InexactFloat64(),
		Description: in.Description,
		ImageURL:    in.ImageURL,
		ImageID:     in.ImageID,
	}
}
