package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// WireProduct is a product as the fake backend serializes it. Ids are numbers.
type WireProduct struct {
	ProductID   int     `json:"product_id"`
	ProdName    string  `json:"prod_name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageURL"`
	ImageID     *int    `json:"imageID,omitempty"`
}

// WireImage is an image as the fake backend serializes it
type WireImage struct {
	ImageURL string `json:"imageURL"`
	ImageID  int    `json:"imageID"`
}

// RecordedRequest is one request the fake backend received
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          []byte
}

type failure struct {
	status int
	body   string
}

type account struct {
	password string
	user     map[string]any
}

// FakeBackend is an in-memory catalog REST backend served over httptest.
type FakeBackend struct {
	Server *httptest.Server

	mu           sync.Mutex
	accounts     map[string]account
	tokens       map[string]string
	products     []WireProduct
	images       []WireImage
	nextID       int
	nextToken    int
	failures     map[string][]failure
	requests     []RecordedRequest
	nullProducts bool
}

// NewFakeBackend starts a fake backend that is closed when the test ends
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	b := &FakeBackend{
		accounts: make(map[string]account),
		tokens:   make(map[string]string),
		failures: make(map[string][]failure),
		nextID:   1,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", b.login)
	mux.HandleFunc("POST /api/auth/register", b.register)
	mux.HandleFunc("GET /api/products", b.authorized(b.listProducts))
	mux.HandleFunc("POST /api/products", b.authorized(b.createProduct))
	mux.HandleFunc("GET /api/products/images/all", b.authorized(b.listImages))
	mux.HandleFunc("GET /api/products/{id}", b.authorized(b.getProduct))
	mux.HandleFunc("PUT /api/products/{id}", b.authorized(b.updateProduct))
	mux.HandleFunc("DELETE /api/products/{id}", b.authorized(b.deleteProduct))

	b.Server = httptest.NewServer(b.record(mux))
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the API base URL
func (b *FakeBackend) URL() string {
	return b.Server.URL + "/api"
}

// AddAccount registers credentials and the user record returned on login
func (b *FakeBackend) AddAccount(username, password string, user map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if user == nil {
		user = map[string]any{"username": username}
	}
	b.accounts[username] = account{password: password, user: user}
}

// IssueToken returns a valid credential without going through login
func (b *FakeBackend) IssueToken(username string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issueLocked(username)
}

func (b *FakeBackend) issueLocked(username string) string {
	b.nextToken++
	tok := fmt.Sprintf("tok-%d", b.nextToken)
	b.tokens[tok] = username
	return tok
}

// RevokeAll invalidates every issued credential
func (b *FakeBackend) RevokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = make(map[string]string)
}

// Seed replaces the stored products and returns them with ids assigned
func (b *FakeBackend) Seed(products ...WireProduct) []WireProduct {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.products = nil
	for _, p := range products {
		if p.ProductID == 0 {
			p.ProductID = b.nextID
		}
		if p.ProductID >= b.nextID {
			b.nextID = p.ProductID + 1
		}
		b.products = append(b.products, p)
	}
	return append([]WireProduct(nil), b.products...)
}

// Products returns a copy of the stored products
func (b *FakeBackend) Products() []WireProduct {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]WireProduct(nil), b.products...)
}

// SetImages replaces the image list
func (b *FakeBackend) SetImages(images ...WireImage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.images = images
}

// ServeNullProducts makes GET /products answer with a JSON null
func (b *FakeBackend) ServeNullProducts(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nullProducts = on
}

// FailNext makes the next request matching route ("GET /api/products")
// answer with status and a raw body.
func (b *FakeBackend) FailNext(route string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = append(b.failures[route], failure{status, body})
}

// Requests returns every request received so far
func (b *FakeBackend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// CountRequests returns how many requests matched method and path
func (b *FakeBackend) CountRequests(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (b *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
			Body:          body,
		})
		route := r.Method + " " + r.URL.Path
		var f *failure
		if queue := b.failures[route]; len(queue) > 0 {
			f = &queue[0]
			b.failures[route] = queue[1:]
		}
		b.mu.Unlock()

		if f != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		_, ok := b.tokens[tok]
		b.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Access denied. Invalid token."})
			return
		}
		next(w, r)
	}
}

func (b *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[req.Username]
	if !ok || acc.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid username or password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": acc.user, "token": b.issueLocked(req.Username)})
}

func (b *FakeBackend) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Phone    string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Username and password are required"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.accounts[req.Username]; taken {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "User already exists"})
		return
	}
	user := map[string]any{"id": len(b.accounts) + 1, "username": req.Username, "name": req.Name, "phone": req.Phone}
	b.accounts[req.Username] = account{password: req.Password, user: user}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "User registered successfully", "user": user})
}

func (b *FakeBackend) listProducts(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.nullProducts {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	list := append([]WireProduct{}, b.products...)
	writeJSON(w, http.StatusOK, list)
}

func (b *FakeBackend) listImages(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, append([]WireImage{}, b.images...))
}

func (b *FakeBackend) decodeProduct(w http.ResponseWriter, r *http.Request) (WireProduct, bool) {
	var p WireProduct
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid product data"})
		return p, false
	}
	if p.ProdName == "" || p.Price <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Product name and a positive price are required"})
		return p, false
	}
	return p, true
}

func (b *FakeBackend) createProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := b.decodeProduct(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p.ProductID = b.nextID
	b.nextID++
	b.products = append(b.products, p)
	writeJSON(w, http.StatusCreated, p)
}

func (b *FakeBackend) indexOf(r *http.Request) int {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return -1
	}
	for i, p := range b.products {
		if p.ProductID == id {
			return i
		}
	}
	return -1
}

func (b *FakeBackend) getProduct(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(r)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Product not found"})
		return
	}
	writeJSON(w, http.StatusOK, b.products[i])
}

func (b *FakeBackend) updateProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := b.decodeProduct(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(r)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Product not found"})
		return
	}
	p.ProductID = b.products[i].ProductID
	b.products[i] = p
	writeJSON(w, http.StatusOK, p)
}

func (b *FakeBackend) deleteProduct(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(r)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Product not found"})
		return
	}
	b.products = append(b.products[:i], b.products[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
