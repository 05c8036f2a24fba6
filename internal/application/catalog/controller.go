// Package catalog coordinates the product management view: the product
// list, the add/edit form and the transient notices shown after mutations.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/erp/catalog-console/internal/domain/catalog"
	"github.com/erp/catalog-console/internal/domain/shared"
	"github.com/erp/catalog-console/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// User-visible messages
const (
	MsgLoadFailed        = "Failed to load products. Please try again."
	MsgAddFailed         = "Failed to add product. Please try again."
	MsgUpdateFailed      = "Failed to update product. Please try again."
	MsgDeleteFailed      = "Failed to delete product. Please try again."
	MsgImagesFailed      = "Failed to load images. Please try again."
	MsgFetchFailed       = "Failed to load product. Please try again."
	MsgAdded             = "Product added successfully!"
	MsgUpdated           = "Product updated successfully!"
	MsgDeleted           = "Product deleted successfully!"
	MsgConfirmDelete     = "Are you sure you want to delete this product?"
	MsgNothingSelected   = "No product selected for update"
	DefaultNoticeTimeout = 3 * time.Second
)

// Mode is the form mode
type Mode int

const (
	ModeAdd Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "add"
}

// Confirmer asks the operator to confirm a destructive action
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, message string) bool

// Confirm implements Confirmer
func (f ConfirmFunc) Confirm(ctx context.Context, message string) bool { return f(ctx, message) }

// Confirmed is a Confirmer for actions the operator already confirmed
var Confirmed Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

// Snapshot is a copy of the controller state for rendering
type Snapshot struct {
	Products       []catalog.Product
	Selected       *catalog.Product
	Mode           Mode
	Loaded         bool
	Loading        bool
	ErrorMessage   string
	SuccessMessage string
	ImageError     string
}

// Controller owns the product list and form state. The backend is the
// source of truth: every successful mutation is followed by a full reload.
type Controller struct {
	gateway        catalog.ProductGateway
	noticeDuration time.Duration
	logger         *zap.Logger

	mu             sync.Mutex
	products       []catalog.Product
	selected       *catalog.Product
	mode           Mode
	loaded         bool
	inFlight       int
	errorMessage   string
	successMessage string
	imageError     string

	issuedSeq  uint64
	appliedSeq uint64

	noticeTimer *time.Timer
	noticeGen   uint64
}

// NewController creates a Controller. A zero noticeDuration uses DefaultNoticeTimeout.
func NewController(gateway catalog.ProductGateway, noticeDuration time.Duration, logger *zap.Logger) *Controller {
	if noticeDuration <= 0 {
		noticeDuration = DefaultNoticeTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		gateway:        gateway,
		noticeDuration: noticeDuration,
		logger:         logger.Named("catalog"),
		products:       []catalog.Product{},
	}
}

// LoadProducts replaces the list with the backend's. On failure the previous
// list stays and an error message is set. Responses older than the last
// applied load are dropped.
func (c *Controller) LoadProducts(ctx context.Context) error {
	c.mu.Lock()
	c.issuedSeq++
	seq := c.issuedSeq
	c.inFlight++
	c.errorMessage = ""
	c.mu.Unlock()

	products, err := c.gateway.ListProducts(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight--

	if seq <= c.appliedSeq {
		logger.Enrich(ctx, c.logger).Debug("dropping stale product list", zap.Uint64("seq", seq), zap.Uint64("applied", c.appliedSeq))
		return err
	}
	if err != nil {
		logger.Enrich(ctx, c.logger).Warn("failed to load products", zap.Error(err))
		c.errorMessage = MsgLoadFailed
		return err
	}
	c.appliedSeq = seq
	c.loaded = true
	c.products = cloneProducts(products)
	return nil
}

// Validate checks the form without side effects
func (c *Controller) Validate(input catalog.ProductInput) shared.FieldErrors {
	return input.Validate()
}

// SubmitAdd creates a product. Invalid input returns the field errors and
// never reaches the backend.
func (c *Controller) SubmitAdd(ctx context.Context, input catalog.ProductInput) (shared.FieldErrors, error) {
	if errs := input.Validate(); !errs.Valid() {
		return errs, nil
	}

	if _, err := c.gateway.CreateProduct(ctx, input.Payload()); err != nil {
		c.fail(ctx, err, MsgAddFailed)
		return nil, err
	}

	_ = c.LoadProducts(ctx)

	c.mu.Lock()
	c.mode = ModeAdd
	c.selected = nil
	c.setNoticeLocked(MsgAdded)
	c.mu.Unlock()
	return nil, nil
}

// SubmitEdit updates the selected product
func (c *Controller) SubmitEdit(ctx context.Context, input catalog.ProductInput) (shared.FieldErrors, error) {
	if errs := input.Validate(); !errs.Valid() {
		return errs, nil
	}

	c.mu.Lock()
	var id catalog.ID
	if c.selected != nil {
		id = c.selected.ID
	}
	c.mu.Unlock()

	if id.IsZero() {
		err := shared.NewPreconditionError(MsgNothingSelected)
		c.fail(ctx, err, MsgUpdateFailed)
		return nil, err
	}

	if _, err := c.gateway.UpdateProduct(ctx, id, input.Payload()); err != nil {
		c.fail(ctx, err, MsgUpdateFailed)
		return nil, err
	}

	_ = c.LoadProducts(ctx)

	c.mu.Lock()
	c.mode = ModeAdd
	c.selected = nil
	c.setNoticeLocked(MsgUpdated)
	c.mu.Unlock()
	return nil, nil
}

// RequestDelete deletes id after confirmation. It reports whether the
// delete was attempted; a declined confirmation changes nothing.
func (c *Controller) RequestDelete(ctx context.Context, id catalog.ID, confirmer Confirmer) (bool, error) {
	if confirmer != nil && !confirmer.Confirm(ctx, MsgConfirmDelete) {
		return false, nil
	}

	if _, err := c.gateway.DeleteProduct(ctx, id); err != nil {
		c.fail(ctx, err, MsgDeleteFailed)
		return true, err
	}

	_ = c.LoadProducts(ctx)

	c.mu.Lock()
	if c.selected != nil && c.selected.ID == id {
		c.selected = nil
		c.mode = ModeAdd
	}
	c.setNoticeLocked(MsgDeleted)
	c.mu.Unlock()
	return true, nil
}

// BeginEdit opens product in the form
func (c *Controller) BeginEdit(product catalog.Product) {
	p := product.Clone()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = &p
	c.mode = ModeEdit
}

// OpenForEdit opens the product with id, taking it from the list when present
// and fetching it from the backend otherwise.
func (c *Controller) OpenForEdit(ctx context.Context, id catalog.ID) error {
	if p, ok := c.Find(id); ok {
		c.BeginEdit(p)
		return nil
	}

	p, err := c.gateway.GetProduct(ctx, id)
	if err != nil {
		c.fail(ctx, err, MsgFetchFailed)
		return err
	}
	c.BeginEdit(*p)
	return nil
}

// CancelEdit returns the form to add mode
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = nil
	c.mode = ModeAdd
	c.errorMessage = ""
}

// BrowseImages lists the images available for the form
func (c *Controller) BrowseImages(ctx context.Context) ([]catalog.Image, error) {
	c.mu.Lock()
	c.imageError = ""
	c.mu.Unlock()

	images, err := c.gateway.ListImages(ctx)
	if err != nil {
		logger.Enrich(ctx, c.logger).Warn("failed to load images", zap.Error(err))
		c.mu.Lock()
		c.imageError = MsgImagesFailed
		c.mu.Unlock()
		return nil, err
	}
	return images, nil
}

// Find returns the listed product with id
func (c *Controller) Find(id catalog.ID) (catalog.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.products {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return catalog.Product{}, false
}

// Reset discards the list and form state. Loads still in flight are dropped.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = []catalog.Product{}
	c.loaded = false
	c.selected = nil
	c.mode = ModeAdd
	c.errorMessage = ""
	c.successMessage = ""
	c.imageError = ""
	c.appliedSeq = c.issuedSeq
	c.noticeGen++
	if c.noticeTimer != nil {
		c.noticeTimer.Stop()
		c.noticeTimer = nil
	}
}

// Snapshot returns a deep copy of the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		Products:       cloneProducts(c.products),
		Mode:           c.mode,
		Loaded:         c.loaded,
		Loading:        c.inFlight > 0,
		ErrorMessage:   c.errorMessage,
		SuccessMessage: c.successMessage,
		ImageError:     c.imageError,
	}
	if c.selected != nil {
		p := c.selected.Clone()
		s.Selected = &p
	}
	return s
}

func (c *Controller) fail(ctx context.Context, err error, fallback string) {
	msg := shared.MessageOf(err, fallback)
	logger.Enrich(ctx, c.logger).Warn("product mutation failed", zap.String("message", msg), zap.Error(err))
	c.mu.Lock()
	c.errorMessage = msg
	c.mu.Unlock()
}

// setNoticeLocked shows msg and schedules its removal. Only the timer of the
// latest notice may clear it.
func (c *Controller) setNoticeLocked(msg string) {
	c.successMessage = msg
	c.noticeGen++
	gen := c.noticeGen
	if c.noticeTimer != nil {
		c.noticeTimer.Stop()
	}
	c.noticeTimer = time.AfterFunc(c.noticeDuration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.noticeGen == gen {
			c.successMessage = ""
		}
	})
}

func cloneProducts(in []catalog.Product) []catalog.Product {
	out := make([]catalog.Product, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}
