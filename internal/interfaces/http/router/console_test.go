package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	appcatalog "github.com/erp/catalog-console/internal/application/catalog"
	"github.com/erp/catalog-console/internal/application/guard"
	appidentity "github.com/erp/catalog-console/internal/application/identity"
	"github.com/erp/catalog-console/internal/application/navigation"
	"github.com/erp/catalog-console/internal/application/session"
	"github.com/erp/catalog-console/internal/infrastructure/gateway"
	"github.com/erp/catalog-console/internal/infrastructure/storage"
	"github.com/erp/catalog-console/internal/interfaces/http/handler"
	"github.com/erp/catalog-console/internal/interfaces/http/middleware"
	"github.com/erp/catalog-console/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConsole struct {
	engine  *gin.Engine
	backend *testutil.FakeBackend
	store   *session.Store
	guard   *guard.Guard
}

func newTestConsole(t *testing.T, restore bool) *testConsole {
	t.Helper()

	backend := testutil.NewFakeBackend(t)
	backend.AddAccount("ada@example.com", "secret1", map[string]any{"id": 1, "name": "Ada"})

	store := session.NewStore(storage.NewMemoryStorage())
	nav := navigation.NewRecorder()
	client := gateway.New(gateway.Config{BaseURL: backend.URL(), Timeout: 5 * time.Second}, store, nav)
	g := guard.New(store, nav, nil)
	g.Watch(store)

	controller := appcatalog.NewController(client, time.Minute, nil)
	accounts := appidentity.NewAccountService(client, store, nil)
	tmpl, err := handler.Templates()
	require.NoError(t, err)

	engine, err := NewEngine(EngineConfig{ServiceName: "catalog-console-test", Templates: tmpl})
	require.NoError(t, err)
	h := handler.NewConsoleHandler(store, g, nav, controller, accounts, handler.Config{RegisterRedirectDelay: 2 * time.Second})
	Console(engine, h, g, nav, WithAttemptLimiter(middleware.NewAttemptLimiter(20, time.Minute)))

	if restore {
		require.NoError(t, store.Restore(context.Background()))
	}
	return &testConsole{engine: engine, backend: backend, store: store, guard: g}
}

func (tc *testConsole) login(t *testing.T) {
	t.Helper()
	w := testutil.PerformForm(tc.engine, http.MethodPost, "/login", url.Values{
		"username": {"ada@example.com"},
		"password": {"secret1"},
	})
	testutil.AssertRedirect(t, w, "/")
	require.True(t, tc.store.IsAuthenticated(context.Background()))
}

func productForm(name string) url.Values {
	return url.Values{
		"name":        {name},
		"price":       {"19.99"},
		"description": {"A warm reading lamp for the desk"},
		"imageUrl":    {"/images/lamp.jpg"},
	}
}

func TestConsole_LoadingPlaceholder(t *testing.T) {
	tc := newTestConsole(t, false)

	w := testutil.PerformRequest(tc.engine, http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Loading...")
}

func TestConsole_UnauthenticatedRedirectsToLogin(t *testing.T) {
	tc := newTestConsole(t, true)

	w := testutil.PerformRequest(tc.engine, http.MethodGet, "/")

	testutil.AssertRedirect(t, w, "/login")
}

func TestConsole_LoginAndBrowse(t *testing.T) {
	tc := newTestConsole(t, true)
	tc.backend.Seed(testutil.WireProduct{ProdName: "Desk Lamp", Price: 19.99, Description: "A warm reading lamp", ImageURL: "/images/lamp.jpg"})

	tc.login(t)
	w := testutil.PerformRequest(tc.engine, http.MethodGet, "/")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Welcome, Ada!")
	assert.Contains(t, body, "Desk Lamp")
	assert.Contains(t, body, "$19.99")
	assert.Contains(t, body, "Add New Product")

	w = testutil.PerformRequest(tc.engine, http.MethodGet, "/login")
	testutil.AssertRedirect(t, w, "/")
}

func TestConsole_LoginFailures(t *testing.T) {
	t.Run("invalid form", func(t *testing.T) {
		tc := newTestConsole(t, true)

		w := testutil.PerformForm(tc.engine, http.MethodPost, "/login", url.Values{"username": {"ada"}, "password": {"1"}})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid email address")
		assert.Contains(t, w.Body.String(), "Password must be at least 6 characters")
		assert.Zero(t, tc.backend.CountRequests(http.MethodPost, "/api/auth/login"))
	})

	t.Run("wrong password", func(t *testing.T) {
		tc := newTestConsole(t, true)

		w := testutil.PerformForm(tc.engine, http.MethodPost, "/login", url.Values{"username": {"ada@example.com"}, "password": {"wrong-pass"}})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid username or password")
		assert.False(t, tc.store.IsAuthenticated(context.Background()))
	})
}

func TestConsole_AddProduct(t *testing.T) {
	tc := newTestConsole(t, true)
	tc.login(t)

	w := testutil.PerformForm(tc.engine, http.MethodPost, "/products", productForm("Desk Lamp"))
	testutil.AssertRedirect(t, w, "/")

	products := tc.backend.Products()
	require.Len(t, products, 1)
	assert.Equal(t, "Desk Lamp", products[0].ProdName)
	assert.Equal(t, 19.99, products[0].Price)

	w = testutil.PerformRequest(tc.engine, http.MethodGet, "/")
	assert.Contains(t, w.Body.String(), "Product added successfully!")
	assert.Contains(t, w.Body.String(), "Desk Lamp")
}

func TestConsole_AddProductInvalid(t *testing.T) {
	tc := newTestConsole(t, true)
	tc.login(t)

	w := testutil.PerformForm(tc.engine, http.MethodPost, "/products", url.Values{
		"name": {"A"}, "price": {"-5"}, "description": {"short"}, "imageUrl": {"bad"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Name must be at least 2 characters")
	assert.Contains(t, body, "Price must be a positive number")
	assert.Contains(t, body, "Description must be at least 10 characters")
	assert.Contains(t, body, "Enter a valid image URL")
	assert.Zero(t, tc.backend.CountRequests(http.MethodPost, "/api/products"))
}

func TestConsole_EditProduct(t *testing.T) {
	tc := newTestConsole(t, true)
	tc.backend.Seed(testutil.WireProduct{ProductID: 1, ProdName: "Desk Lamp", Price: 19.99, Description: "A warm reading lamp", ImageURL: "/images/lamp.jpg"})
	tc.login(t)

	w := testutil.PerformRequest(tc.engine, http.MethodGet, "/products/1/edit")
	testutil.AssertRedirect(t, w, "/")

	w = testutil.PerformRequest(tc.engine, http.MethodGet, "/")
	assert.Contains(t, w.Body.String(), "Edit Product")
	assert.Contains(t, w.Body.String(), `action="/products/1"`)

	w = testutil.PerformForm(tc.engine, http.MethodPost, "/products/1", productForm("Desk Lamp XL"))
	testutil.AssertRedirect(t, w, "/")
	assert.Equal(t, "Desk Lamp XL", tc.backend.Products()[0].ProdName)

	w = testutil.PerformRequest(tc.engine, http.MethodGet, "/")
	assert.Contains(t, w.Body.String(), "Product updated successfully!")
	assert.Contains(t, w.Body.String(), "Add New Product")
}

func TestConsole_DeleteSelectedProduct(t *testing.T) {
	tc := newTestConsole(t, true)
	tc.backend.Seed(testutil.WireProduct{ProductID: 1, ProdName: "Desk Lamp", Price: 19.99, Description: "A warm reading lamp", ImageURL: "/images/lamp.jpg"})
	tc.login(t)
	testutil.PerformRequest(tc.engine, http.MethodGet, "/products/1/edit")

	w := testutil.PerformRequest(tc.engine, http.MethodGet, "/products/1/delete")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Are you sure you want to delete this product?")

	w = testutil.PerformForm(tc.engine, http.MethodPost, "/products/1/delete", url.Values{})
	testutil.AssertRedirect(t, w, "/")
	assert.Empty(t, tc.backend.Products())

	w = testutil.PerformRequest(tc.engine, http.MethodGet, "/")
	body := w.Body.String()
	assert.Contains(t, body, "Product deleted successfully!")
	assert.Contains(t, body, "Add New Product")
	assert.Contains(t, body, "No products found")
}

func TestConsole_RevokedCredentialEndsSession(t *testing.T) {
	tc := newTestConsole(t, true)
	tc.login(t)
	tc.backend.RevokeAll()

	w := testutil.PerformForm(tc.engine, http.MethodPost, "/products/refresh", url.Values{})

	testutil.AssertRedirect(t, w, "/login")
	assert.False(t, tc.store.IsAuthenticated(context.Background()))
	assert.Equal(t, guard.Unauthenticated, tc.guard.State())

	w = testutil.PerformRequest(tc.engine, http.MethodGet, "/")
	testutil.AssertRedirect(t, w, "/login")
}

func TestConsole_Register(t *testing.T) {
	tc := newTestConsole(t, true)
	form := url.Values{
		"email":           {"grace@example.com"},
		"name":            {"Grace"},
		"phone":           {"0123456789"},
		"password":        {"secret1"},
		"confirmPassword": {"secret1"},
	}

	w := testutil.PerformForm(tc.engine, http.MethodPost, "/register", form)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Registration successful! Redirecting to login...")
	assert.Contains(t, w.Body.String(), `content="2;url=/login"`)

	w = testutil.PerformForm(tc.engine, http.MethodPost, "/register", form)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "User already exists")
}

func TestConsole_Logout(t *testing.T) {
	tc := newTestConsole(t, true)
	tc.login(t)

	w := testutil.PerformForm(tc.engine, http.MethodPost, "/logout", url.Values{})

	testutil.AssertRedirect(t, w, "/login")
	assert.False(t, tc.store.IsAuthenticated(context.Background()))
}

func TestConsole_BrowseImages(t *testing.T) {
	tc := newTestConsole(t, true)
	tc.backend.SetImages(testutil.WireImage{ImageURL: "/images/chair.png", ImageID: 4})
	tc.login(t)

	w := testutil.PerformRequest(tc.engine, http.MethodGet, "/images")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/images/chair.png")

	w = testutil.PerformRequest(tc.engine, http.MethodGet, "/?imageUrl=/images/chair.png&imageId=4")
	assert.Contains(t, w.Body.String(), `value="/images/chair.png"`)
}

func TestConsole_SecurityHeaders(t *testing.T) {
	tc := newTestConsole(t, true)

	w := testutil.PerformRequest(tc.engine, http.MethodGet, "/login")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestConsole_HealthAndUnknownRoutes(t *testing.T) {
	tc := newTestConsole(t, true)

	w := testutil.PerformRequest(tc.engine, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "unauthenticated", health["session"])

	w = testutil.PerformRequest(tc.engine, http.MethodGet, "/nowhere")
	testutil.AssertRedirect(t, w, "/")
}
