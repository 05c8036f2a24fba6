// Package handler serves the operator console pages.
package handler

import (
	"fmt"
	"math"
	"net/http"
	"time"

	appcatalog "github.com/erp/catalog-console/internal/application/catalog"
	"github.com/erp/catalog-console/internal/application/guard"
	appidentity "github.com/erp/catalog-console/internal/application/identity"
	"github.com/erp/catalog-console/internal/application/navigation"
	"github.com/erp/catalog-console/internal/application/session"
	"github.com/erp/catalog-console/internal/domain/catalog"
	"github.com/erp/catalog-console/internal/domain/identity"
	"github.com/erp/catalog-console/internal/domain/shared"
	"github.com/erp/catalog-console/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Config holds console presentation settings
type Config struct {
	AppName               string
	RegisterRedirectDelay time.Duration
}

// ConsoleHandler renders the catalog, login and registration views
type ConsoleHandler struct {
	store    *session.Store
	guard    *guard.Guard
	nav      *navigation.Recorder
	catalog  *appcatalog.Controller
	accounts *appidentity.AccountService
	cfg      Config
}

// NewConsoleHandler creates a new ConsoleHandler
func NewConsoleHandler(
	store *session.Store,
	g *guard.Guard,
	nav *navigation.Recorder,
	controller *appcatalog.Controller,
	accounts *appidentity.AccountService,
	cfg Config,
) *ConsoleHandler {
	if cfg.AppName == "" {
		cfg.AppName = "Catalog Console"
	}
	if cfg.RegisterRedirectDelay <= 0 {
		cfg.RegisterRedirectDelay = 2 * time.Second
	}
	// a forced logout discards the previous operator's catalog view
	store.Subscribe(func(e session.Event) {
		if e.Type == session.EventLogout {
			controller.Reset()
		}
	})
	return &ConsoleHandler{
		store:    store,
		guard:    g,
		nav:      nav,
		catalog:  controller,
		accounts: accounts,
		cfg:      cfg,
	}
}

// page returns the data every view needs
func (h *ConsoleHandler) page(c *gin.Context, title string) gin.H {
	ctx := c.Request.Context()
	data := gin.H{
		"AppName":       h.cfg.AppName,
		"Title":         title,
		"Authenticated": false,
		"Errors":        shared.FieldErrors(nil),
	}
	if !h.store.IsAuthenticated(ctx) {
		return data
	}
	data["Authenticated"] = true
	if u := h.store.User(); u != nil {
		data["UserName"] = u.Name()
	}
	if info := identity.DescribeCredential(h.store.Credential(ctx)); info.ExpiresAt != nil {
		data["SessionExpires"] = info.ExpiresAt.Local().Format("Jan 2 15:04")
	}
	return data
}

// followNavigation turns a pending navigation into a redirect
func (h *ConsoleHandler) followNavigation(c *gin.Context) bool {
	to, ok := h.nav.Take()
	if !ok {
		return false
	}
	c.Redirect(http.StatusSeeOther, to.String())
	return true
}

// statusFor picks the response status for a failed action
func statusFor(err error) int {
	switch shared.KindOf(err) {
	case shared.KindValidation:
		return http.StatusUnprocessableEntity
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindAuth:
		return http.StatusUnauthorized
	case shared.KindPrecondition:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func (h *ConsoleHandler) renderCatalog(c *gin.Context, status int, form catalog.ProductInput, errs shared.FieldErrors) {
	snap := h.catalog.Snapshot()
	data := h.page(c, "Products")
	data["Snapshot"] = snap
	data["Form"] = form
	data["Errors"] = errs
	data["FormAction"] = "/products"
	if snap.Mode == appcatalog.ModeEdit && snap.Selected != nil {
		data["FormAction"] = "/products/" + snap.Selected.ID.String()
	}
	c.HTML(status, pageCatalog, data)
}

// ShowCatalog renders the product list and form. The list is fetched on the
// first visit; later visits show the last loaded list.
func (h *ConsoleHandler) ShowCatalog(c *gin.Context) {
	if !h.catalog.Snapshot().Loaded {
		_ = h.catalog.LoadProducts(c.Request.Context())
		if h.followNavigation(c) {
			return
		}
	}

	snap := h.catalog.Snapshot()
	var form catalog.ProductInput
	if snap.Mode == appcatalog.ModeEdit && snap.Selected != nil {
		form = snap.Selected.AsInput()
	}
	if img := c.Query("imageUrl"); img != "" {
		form.ImageURL = img
		form.ImageID = c.Query("imageId")
	}
	h.renderCatalog(c, http.StatusOK, form, nil)
}

// CreateProduct handles the add form
func (h *ConsoleHandler) CreateProduct(c *gin.Context) {
	var form catalog.ProductInput
	if err := c.ShouldBind(&form); err != nil {
		logger.GetGinLogger(c).Warn("unreadable product form", zap.Error(err))
	}

	errs, err := h.catalog.SubmitAdd(c.Request.Context(), form)
	h.finishProductForm(c, form, errs, err)
}

// UpdateProduct handles the edit form for the product in the path
func (h *ConsoleHandler) UpdateProduct(c *gin.Context) {
	ctx := c.Request.Context()
	id := catalog.ID(c.Param("id"))

	var form catalog.ProductInput
	if err := c.ShouldBind(&form); err != nil {
		logger.GetGinLogger(c).Warn("unreadable product form", zap.Error(err))
	}

	if snap := h.catalog.Snapshot(); snap.Selected == nil || snap.Selected.ID != id {
		if err := h.catalog.OpenForEdit(ctx, id); err != nil {
			if h.followNavigation(c) {
				return
			}
			h.renderCatalog(c, statusFor(err), form, nil)
			return
		}
	}

	errs, err := h.catalog.SubmitEdit(ctx, form)
	h.finishProductForm(c, form, errs, err)
}

func (h *ConsoleHandler) finishProductForm(c *gin.Context, form catalog.ProductInput, errs shared.FieldErrors, err error) {
	if h.followNavigation(c) {
		return
	}
	if !errs.Valid() {
		h.renderCatalog(c, http.StatusUnprocessableEntity, form, errs)
		return
	}
	if err != nil {
		h.renderCatalog(c, statusFor(err), form, nil)
		return
	}
	c.Redirect(http.StatusSeeOther, navigation.RouteCatalog.String())
}

// EditProduct opens a product in the form
func (h *ConsoleHandler) EditProduct(c *gin.Context) {
	_ = h.catalog.OpenForEdit(c.Request.Context(), catalog.ID(c.Param("id")))
	if h.followNavigation(c) {
		return
	}
	c.Redirect(http.StatusSeeOther, navigation.RouteCatalog.String())
}

// CancelEdit returns the form to add mode
func (h *ConsoleHandler) CancelEdit(c *gin.Context) {
	h.catalog.CancelEdit()
	c.Redirect(http.StatusSeeOther, navigation.RouteCatalog.String())
}

// ConfirmDelete asks the operator to confirm a delete
func (h *ConsoleHandler) ConfirmDelete(c *gin.Context) {
	id := catalog.ID(c.Param("id"))
	data := h.page(c, "Delete Product")
	data["ProductID"] = id.String()
	data["Message"] = appcatalog.MsgConfirmDelete
	if p, ok := h.catalog.Find(id); ok {
		data["Product"] = &p
	}
	c.HTML(http.StatusOK, pageDelete, data)
}

// DeleteProduct deletes a product the operator confirmed
func (h *ConsoleHandler) DeleteProduct(c *gin.Context) {
	_, _ = h.catalog.RequestDelete(c.Request.Context(), catalog.ID(c.Param("id")), appcatalog.Confirmed)
	if h.followNavigation(c) {
		return
	}
	c.Redirect(http.StatusSeeOther, navigation.RouteCatalog.String())
}

// RefreshProducts reloads the list from the backend
func (h *ConsoleHandler) RefreshProducts(c *gin.Context) {
	_ = h.catalog.LoadProducts(c.Request.Context())
	if h.followNavigation(c) {
		return
	}
	c.Redirect(http.StatusSeeOther, navigation.RouteCatalog.String())
}

// BrowseImages lists the images the form can reference
func (h *ConsoleHandler) BrowseImages(c *gin.Context) {
	images, err := h.catalog.BrowseImages(c.Request.Context())
	if h.followNavigation(c) {
		return
	}
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
	}
	data := h.page(c, "Images")
	data["Images"] = images
	data["ImageError"] = h.catalog.Snapshot().ImageError
	c.HTML(status, pageImages, data)
}

// ShowLogin renders the login view. Active sessions go to the catalog.
func (h *ConsoleHandler) ShowLogin(c *gin.Context) {
	h.nav.Take()
	if h.store.IsAuthenticated(c.Request.Context()) {
		c.Redirect(http.StatusFound, navigation.RouteCatalog.String())
		return
	}
	data := h.page(c, "Login")
	data["Form"] = identity.LoginForm{}
	data["Error"] = h.store.LastError()
	h.store.ClearLastError()
	c.HTML(http.StatusOK, pageLogin, data)
}

// Login handles the login form
func (h *ConsoleHandler) Login(c *gin.Context) {
	var form identity.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		logger.GetGinLogger(c).Warn("unreadable login form", zap.Error(err))
	}

	errs, err := h.accounts.Login(c.Request.Context(), form)
	h.nav.Take()

	if !errs.Valid() || err != nil {
		form.Password = ""
		data := h.page(c, "Login")
		data["Form"] = form
		data["Errors"] = errs
		status := http.StatusUnprocessableEntity
		if err != nil {
			data["Error"] = shared.MessageOf(err, appidentity.MsgLoginFailed)
			status = statusFor(err)
		}
		c.HTML(status, pageLogin, data)
		return
	}

	h.catalog.Reset()
	c.Redirect(http.StatusSeeOther, navigation.RouteCatalog.String())
}

// ShowRegister renders the registration view
func (h *ConsoleHandler) ShowRegister(c *gin.Context) {
	data := h.page(c, "Register")
	data["Form"] = identity.RegisterForm{}
	c.HTML(http.StatusOK, pageRegister, data)
}

// Register handles the registration form. On success the view redirects to
// login after the configured delay.
func (h *ConsoleHandler) Register(c *gin.Context) {
	var form identity.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		logger.GetGinLogger(c).Warn("unreadable registration form", zap.Error(err))
	}

	errs, _, err := h.accounts.Register(c.Request.Context(), form)
	h.nav.Take()

	form.Password, form.ConfirmPassword = "", ""
	data := h.page(c, "Register")
	data["Form"] = form
	data["Errors"] = errs

	switch {
	case !errs.Valid():
		c.HTML(http.StatusUnprocessableEntity, pageRegister, data)
	case err != nil:
		data["Error"] = shared.MessageOf(err, appidentity.MsgRegisterFailed)
		c.HTML(statusFor(err), pageRegister, data)
	default:
		data["Form"] = identity.RegisterForm{}
		data["Success"] = appidentity.MsgRegisterComplete
		seconds := int(math.Ceil(h.cfg.RegisterRedirectDelay.Seconds()))
		data["Refresh"] = fmt.Sprintf("%d;url=%s", seconds, navigation.RouteLogin)
		c.HTML(http.StatusOK, pageRegister, data)
	}
}

// Logout ends the session and returns to the login view
func (h *ConsoleHandler) Logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context()); err != nil {
		logger.GetGinLogger(c).Error("logout did not clear storage", zap.Error(err))
	}
	h.nav.Take()
	c.Redirect(http.StatusSeeOther, navigation.RouteLogin.String())
}

// Health reports liveness and the guard state
func (h *ConsoleHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"session": h.guard.State().String(),
	})
}

// NotFound sends unknown paths to the catalog
func (h *ConsoleHandler) NotFound(c *gin.Context) {
	c.Redirect(http.StatusFound, navigation.Resolve(c.Request.URL.Path).String())
}
