package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/foodie-be/internal/config"
	"github.com/hongminglow/foodie-be/internal/events"
	"github.com/hongminglow/foodie-be/internal/export"
	"github.com/hongminglow/foodie-be/internal/models"
	"github.com/hongminglow/foodie-be/internal/storage/memory"
	"github.com/hongminglow/foodie-be/internal/upload"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type stubUploader struct{}

func (stubUploader) Upload(context.Context, string, io.Reader) (string, error) {
	return "https://img.test/uploaded.jpg", nil
}

type nopMailer struct{}

func (nopMailer) SendPasswordReset(context.Context, string, string) error { return nil }

type app struct {
	t      *testing.T
	srv    *httptest.Server
	store  *memory.Store
	client *http.Client
}

func testConfig() config.Config {
	return config.Config{
		Port:          "0",
		StorageDriver: config.StorageMemory,
		JWTSecret:     "test-secret",
		JWTIssuer:     "foodie-test",
		JWTTTL:        time.Hour,
		CORSOrigins:   []string{"*"},
		ResetTokenTTL: 30 * time.Minute,
		ResetURLBase:  "http://localhost:5173/forget-password",
	}
}

func newApp(t *testing.T) *app {
	t.Helper()
	store := memory.New()
	handler := Router(testConfig(), store, events.LogPublisher{}, Options{Mailer: nopMailer{}, Uploader: stubUploader{}})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &app{
		t:     t,
		srv:   srv,
		store: store,
		client: &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}},
	}
}

func (a *app) do(method, path, token string, body any) (*http.Response, envelope) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

// register creates an account and returns its id and token.
func (a *app) register(name, email string) (string, string) {
	a.t.Helper()
	resp, env := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret123",
	})
	require.Equal(a.t, http.StatusCreated, resp.StatusCode, env.Message)
	var out struct {
		Token string          `json:"token"`
		User  models.Identity `json:"user"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &out))
	return out.User.ID, out.Token
}

func (a *app) admin() string {
	a.t.Helper()
	id, token := a.register("Ada", "ada@example.com")
	require.NoError(a.t, a.store.SetUserRole(context.Background(), id, models.RoleAdmin))
	return token
}

func (a *app) seedMenu(items ...models.MenuItem) []models.MenuItem {
	a.t.Helper()
	out := make([]models.MenuItem, 0, len(items))
	for _, item := range items {
		created, err := a.store.CreateMenuItem(context.Background(), item)
		require.NoError(a.t, err)
		out = append(out, created)
	}
	return out
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	resp, env := a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"status":"ok"`)
}

func TestRegisterAndLogin(t *testing.T) {
	a := newApp(t)
	id, _ := a.register("Ana", "ana@example.com")

	resp, env := a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "wrong-one"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Please provide valid email & password!", env.Message)

	resp, env = a.do(http.MethodPost, "/api/auth/register", "", map[string]string{"name": "X", "email": "ana@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Please provide valid email & password!", env.Message)

	resp, env = a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	var out struct {
		Token string          `json:"token"`
		User  models.Identity `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, id, out.User.ID)

	resp, env = a.do(http.MethodGet, "/api/auth/me", out.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"role":"user"`)

	resp, env = a.do(http.MethodPatch, "/api/auth/profile", out.Token, map[string]string{"name": "Ana B", "photoURL": "https://img.test/a.png"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"displayName":"Ana B"`)
}

func TestPageGuards(t *testing.T) {
	a := newApp(t)
	_, userToken := a.register("Ana", "ana@example.com")
	adminToken := a.admin()

	tests := []struct {
		name     string
		path     string
		token    string
		status   int
		location string
	}{
		{"anonymous cart page", "/cart-page", "", http.StatusFound, "/login"},
		{"anonymous order page", "/order", "", http.StatusOK, ""},
		{"anonymous dashboard", "/dashboard/users", "", http.StatusFound, "/login"},
		{"user dashboard", "/dashboard/users", userToken, http.StatusFound, "/"},
		{"user dashboard root", "/dashboard", userToken, http.StatusFound, "/"},
		{"user unknown dashboard page", "/dashboard/reports", userToken, http.StatusFound, "/"},
		{"admin unknown dashboard page", "/dashboard/reports", adminToken, http.StatusOK, ""},
		{"user cart page", "/cart-page", userToken, http.StatusOK, ""},
		{"admin dashboard", "/dashboard/manage-orders", adminToken, http.StatusOK, ""},
		{"user login page", "/login", userToken, http.StatusFound, "/"},
		{"anonymous login page", "/login", "", http.StatusOK, ""},
		{"anonymous menu", "/menu", "", http.StatusOK, ""},
		{"stale token", "/cart-page", "not-a-token", http.StatusFound, "/login"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := a.do(http.MethodGet, tt.path, tt.token, nil)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.location, resp.Header.Get("Location"))
		})
	}
}

func TestRoleChangeAppliesOnNextRequest(t *testing.T) {
	a := newApp(t)
	id, token := a.register("Ana", "ana@example.com")

	resp, _ := a.do(http.MethodGet, "/api/dashboard/users", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	require.NoError(t, a.store.SetUserRole(context.Background(), id, models.RoleAdmin))
	resp, _ = a.do(http.MethodGet, "/api/dashboard/users", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMenuListing(t *testing.T) {
	a := newApp(t)
	a.seedMenu(
		models.MenuItem{Name: "B", Category: models.CategoryPizza, Price: 10},
		models.MenuItem{Name: "A", Category: models.CategoryPizza, Price: 20},
		models.MenuItem{Name: "Soup", Category: models.CategorySoup, Price: 5},
	)

	resp, env := a.do(http.MethodGet, "/api/menu?category=pizza&sort=A-Z", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Items      []models.MenuItem `json:"items"`
		TotalItems int               `json:"totalItems"`
		TotalPages int               `json:"totalPages"`
		PageSize   int               `json:"pageSize"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Items, 2)
	assert.Equal(t, "A", page.Items[0].Name)
	assert.Equal(t, 2, page.TotalItems)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 9, page.PageSize)

	resp, env = a.do(http.MethodGet, "/api/menu?sort=low-to-high", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, "Soup", page.Items[0].Name)

	resp, _ = a.do(http.MethodGet, "/api/menu/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCartAndCheckout(t *testing.T) {
	a := newApp(t)
	menu := a.seedMenu(
		models.MenuItem{Name: "Margherita", Category: models.CategoryPizza, Price: 12.5},
		models.MenuItem{Name: "Lemonade", Category: models.CategoryDrinks, Price: 3},
	)
	_, token := a.register("Ana", "ana@example.com")

	resp, env := a.do(http.MethodPost, "/api/cart", "", map[string]string{"itemId": menu[0].ID})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Please log in to add items to the cart.", env.Message)

	resp, _ = a.do(http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env = a.do(http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"items":[],"totalItems":0,"totalAmount":0}`, string(env.Data))

	resp, _ = a.do(http.MethodPost, "/api/cart", token, map[string]string{"itemId": menu[0].ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = a.do(http.MethodPost, "/api/cart", token, map[string]string{"itemId": menu[0].ID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp, _ = a.do(http.MethodPost, "/api/cart", token, map[string]string{"itemId": menu[1].ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env = a.do(http.MethodGet, "/api/cart", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view struct {
		Items       []models.CartLine `json:"items"`
		TotalAmount float64           `json:"totalAmount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Len(t, view.Items, 2)
	assert.Equal(t, 15.5, view.TotalAmount)

	resp, env = a.do(http.MethodPost, "/api/cart/checkout", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, 15.5, order.TotalAmount)
	assert.Equal(t, models.OrderPending, order.Status)

	resp, env = a.do(http.MethodGet, "/api/cart/count", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"count":0}`, string(env.Data))

	resp, _ = a.do(http.MethodPost, "/api/cart/checkout", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = a.do(http.MethodGet, "/api/orders", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine []models.Order
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, order.ID, mine[0].ID)
}

func TestRemoveReturnsRemainingTotal(t *testing.T) {
	a := newApp(t)
	menu := a.seedMenu(
		models.MenuItem{Name: "Margherita", Category: models.CategoryPizza, Price: 12.5},
		models.MenuItem{Name: "Lemonade", Category: models.CategoryDrinks, Price: 3},
	)
	_, token := a.register("Ana", "ana@example.com")
	_, env := a.do(http.MethodPost, "/api/cart", token, map[string]string{"itemId": menu[0].ID})
	var line models.CartLine
	require.NoError(t, json.Unmarshal(env.Data, &line))
	a.do(http.MethodPost, "/api/cart", token, map[string]string{"itemId": menu[1].ID})

	resp, env := a.do(http.MethodDelete, "/api/cart/"+line.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"totalAmount":3`)
}

func TestCartCountStream(t *testing.T) {
	a := newApp(t)
	menu := a.seedMenu(models.MenuItem{Name: "Margherita", Category: models.CategoryPizza, Price: 12.5})
	_, token := a.register("Ana", "ana@example.com")

	url := "ws" + strings.TrimPrefix(a.srv.URL, "http") + "/api/cart/count/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg struct {
		Count int `json:"count"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, 0, msg.Count)

	a.do(http.MethodPost, "/api/cart", token, map[string]string{"itemId": menu[0].ID})
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, 1, msg.Count)
}

func TestCartCountStreamOrigins(t *testing.T) {
	a := newApp(t)
	_, token := a.register("Ana", "ana@example.com")
	base := "ws" + strings.TrimPrefix(a.srv.URL, "http") + "/api/cart/count/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(base+"?token="+token, http.Header{"Origin": {"http://other.test"}})
	require.NoError(t, err, "explicit tokens work from any origin")
	resp.Body.Close()
	conn.Close()

	_, resp, err = websocket.DefaultDialer.Dial(base, http.Header{
		"Origin": {"http://other.test"},
		"Cookie": {"session=" + token},
	})
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, resp, err = websocket.DefaultDialer.Dial(base, http.Header{
		"Origin": {a.srv.URL},
		"Cookie": {"session=" + token},
	})
	require.NoError(t, err, "same-origin cookie sessions are accepted")
	resp.Body.Close()
	conn.Close()
}

func TestAdminEditors(t *testing.T) {
	a := newApp(t)
	adminToken := a.admin()
	bobID, bobToken := a.register("Bob", "bob@example.com")

	resp, env := a.do(http.MethodPost, "/api/dashboard/add-menu", adminToken, map[string]any{
		"name": "Greek", "category": "salad", "price": 6.5, "recipe": "feta", "image": "https://img.test/g.jpg",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	var item models.MenuItem
	require.NoError(t, json.Unmarshal(env.Data, &item))

	resp, _ = a.do(http.MethodPost, "/api/dashboard/add-menu", adminToken, map[string]any{
		"name": "Greek", "category": "tacos", "price": 6.5, "recipe": "feta", "image": "x",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = a.do(http.MethodPut, "/api/dashboard/manage-items/"+item.ID, adminToken, map[string]any{"price": 7})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"price":7`)

	a.do(http.MethodPost, "/api/cart", bobToken, map[string]string{"itemId": item.ID})
	_, env = a.do(http.MethodPost, "/api/cart/checkout", bobToken, nil)
	var order models.Order
	require.NoError(t, json.Unmarshal(env.Data, &order))

	resp, env = a.do(http.MethodPatch, "/api/dashboard/manage-orders/"+order.ID+"/status", adminToken, map[string]string{"status": "delivered"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"status":"delivered"`)

	resp, _ = a.do(http.MethodPatch, "/api/dashboard/manage-orders/"+order.ID+"/status", adminToken, map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = a.do(http.MethodPost, "/api/dashboard/users/"+bobID+"/toggle-role", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.User
	require.NoError(t, json.Unmarshal(env.Data, &list))
	for _, u := range list {
		if u.ID == bobID {
			assert.Equal(t, models.RoleAdmin, u.Role)
		}
	}

	resp, _ = a.do(http.MethodDelete, "/api/dashboard/users/"+bobID, adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, err := a.store.FindCredentialByID(context.Background(), bobID)
	assert.NoError(t, err, "deleting another user keeps their credential")

	req, err := http.NewRequest(http.MethodGet, a.srv.URL+"/api/dashboard/manage-orders/export", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	raw, err := a.client.Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusOK, raw.StatusCode)
	assert.Equal(t, export.ContentType, raw.Header.Get("Content-Type"))

	resp, _ = a.do(http.MethodDelete, "/api/dashboard/manage-orders/"+order.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = a.do(http.MethodDelete, "/api/dashboard/manage-orders/"+order.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddMenuMultipartUpload(t *testing.T) {
	a := newApp(t)
	adminToken := a.admin()

	var body bytes.Buffer
	form := newForm(t, &body, map[string]string{
		"name": "Tiramisu", "category": "dessert", "price": "5.5", "recipe": "mascarpone",
	}, "image", "t.jpg", "jpeg")
	req, err := http.NewRequest(http.MethodPost, a.srv.URL+"/api/dashboard/add-menu", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", form)
	req.Header.Set("Authorization", "Bearer "+adminToken)

	resp, err := a.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Contains(t, string(env.Data), "https://img.test/uploaded.jpg")
}

func TestAddMenuRejectsOversizedImage(t *testing.T) {
	a := newApp(t)
	adminToken := a.admin()

	var body bytes.Buffer
	form := newForm(t, &body, map[string]string{
		"name": "Tiramisu", "category": "dessert", "price": "5.5", "recipe": "mascarpone",
	}, "image", "t.jpg", strings.Repeat("j", upload.MaxImageBytes+1))
	req, err := http.NewRequest(http.MethodPost, a.srv.URL+"/api/dashboard/add-menu", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", form)
	req.Header.Set("Authorization", "Bearer "+adminToken)

	resp, err := a.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp, env := a.do(http.MethodGet, "/api/dashboard/manage-items", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(env.Data), "Tiramisu")
}
