package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/swamy3697/Shop-Mate/internal/auth"
	"github.com/swamy3697/Shop-Mate/internal/db"
	"github.com/swamy3697/Shop-Mate/internal/kv"
	"github.com/swamy3697/Shop-Mate/internal/media"
	"github.com/swamy3697/Shop-Mate/internal/model"
	"github.com/swamy3697/Shop-Mate/internal/search"
	"github.com/swamy3697/Shop-Mate/internal/shopping"
	"github.com/swamy3697/Shop-Mate/internal/store"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	server   *httptest.Server
	token    string
	password string
	service  *shopping.Service
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	st := store.New(kv.NewSQLite(db.NewTestDB(t)))
	m, err := media.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	svc := shopping.New(st, m)

	// Create the owner account.
	password, err := auth.Bootstrap(context.Background(), st, "owner")
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	router := NewRouter(Options{Service: svc, Accounts: st, JWTSecret: testJWTSecret})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Get token.
	body, _ := json.Marshal(map[string]string{"username": "owner", "password": password})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token := loginResp["token"]
	if token == "" {
		t.Fatal("empty token from login")
	}

	return &testEnv{server: server, token: token, password: password, service: svc}
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends an authenticated request, checks the status and decodes the
// JSON response into out when out is not nil.
func (e *testEnv) do(t *testing.T, method, path string, body any, wantStatus int, out any) {
	t.Helper()
	req, err := authRequest(method, e.server.URL+path, e.token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: expected %d, got %d: %s", method, path, wantStatus, resp.StatusCode, data)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, path, err)
		}
	}
}

func (e *testEnv) uploadImage(t *testing.T, path string) *http.Response {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("image", "photo.png")
	png.Encode(part, img)
	mw.Close()

	req, _ := http.NewRequest(http.MethodPut, e.server.URL+path, &buf)
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return resp
}

func TestLoginEndpoint(t *testing.T) {
	env := setupTestServer(t)

	// Test invalid credentials.
	body, _ := json.Marshal(map[string]string{"username": "owner", "password": "wrong"})
	resp, _ := http.Post(env.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	body, _ = json.Marshal(map[string]string{"username": "owner"})
	resp, _ = http.Post(env.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	env := setupTestServer(t)

	resp, _ := http.Get(env.server.URL + "/api/items")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ := authRequest("GET", env.server.URL+"/api/items", "not-a-token", nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad token, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Signed with the right secret but for another user.
	other, _ := auth.GenerateToken(testJWTSecret, "intruder", 0)
	req, _ = authRequest("GET", env.server.URL+"/api/items", other, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown user, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestChangePassword(t *testing.T) {
	env := setupTestServer(t)

	env.do(t, "PUT", "/api/auth/password", map[string]string{
		"current_password": "wrong",
		"new_password":     "a-new-password",
	}, http.StatusUnauthorized, nil)

	env.do(t, "PUT", "/api/auth/password", map[string]string{
		"current_password": env.password,
		"new_password":     "short",
	}, http.StatusBadRequest, nil)

	var resp map[string]string
	env.do(t, "PUT", "/api/auth/password", map[string]string{
		"current_password": env.password,
		"new_password":     "a-new-password",
	}, http.StatusOK, &resp)
	if resp["token"] == "" {
		t.Fatal("expected a fresh token")
	}

	// The token used for the change is refused right away, the new one works.
	env.do(t, "GET", "/api/items", nil, http.StatusUnauthorized, nil)
	env.token = resp["token"]
	env.do(t, "GET", "/api/items", nil, http.StatusOK, nil)

	body, _ := json.Marshal(map[string]string{"username": "owner", "password": "a-new-password"})
	login, _ := http.Post(env.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if login.StatusCode != http.StatusOK {
		t.Errorf("expected login with new password to work, got %d", login.StatusCode)
	}
	login.Body.Close()
}

func TestItemsAPIFlow(t *testing.T) {
	env := setupTestServer(t)

	// Create item.
	var item model.Item
	env.do(t, "POST", "/api/items", map[string]any{
		"name":         "Milk",
		"quantity":     2,
		"quantityType": "Liters",
	}, http.StatusCreated, &item)
	if item.ID == "" || item.Name != "Milk" {
		t.Fatalf("unexpected item %+v", item)
	}
	if !item.CreatedAt.Equal(item.UpdatedAt) {
		t.Error("new item should have createdAt == updatedAt")
	}

	// Validation.
	env.do(t, "POST", "/api/items", map[string]any{
		"name": "", "quantity": 1, "quantityType": "Kg",
	}, http.StatusBadRequest, nil)
	env.do(t, "POST", "/api/items", map[string]any{
		"name": "Rice", "quantity": 500, "quantityType": "Kg",
	}, http.StatusBadRequest, nil)
	env.do(t, "POST", "/api/items", map[string]any{
		"name": "Rice", "quantity": 1, "quantityType": "Kg", "colour": "white",
	}, http.StatusBadRequest, nil)

	// List items.
	var items []model.Item
	env.do(t, "GET", "/api/items", nil, http.StatusOK, &items)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	// Update.
	var updated model.Item
	env.do(t, "PUT", "/api/items/"+item.ID, map[string]any{"quantity": 3}, http.StatusOK, &updated)
	if updated.Quantity != 3 || updated.Name != "Milk" {
		t.Errorf("unexpected update result %+v", updated)
	}
	if !updated.UpdatedAt.After(item.UpdatedAt) {
		t.Error("updatedAt should advance")
	}
	env.do(t, "PUT", "/api/items/"+item.ID, map[string]any{"imagePath": "/etc/passwd"}, http.StatusBadRequest, nil)
	env.do(t, "PUT", "/api/items/missing", map[string]any{"quantity": 3}, http.StatusNotFound, nil)

	// Get.
	var got model.Item
	env.do(t, "GET", "/api/items/"+item.ID, nil, http.StatusOK, &got)
	if got.Quantity != 3 {
		t.Errorf("expected stored quantity 3, got %v", got.Quantity)
	}
	env.do(t, "GET", "/api/items/missing", nil, http.StatusNotFound, nil)

	// Delete twice.
	env.do(t, "DELETE", "/api/items/"+item.ID, nil, http.StatusOK, nil)
	env.do(t, "DELETE", "/api/items/"+item.ID, nil, http.StatusOK, nil)
	env.do(t, "GET", "/api/items", nil, http.StatusOK, &items)
	if len(items) != 0 {
		t.Errorf("expected empty catalog, got %d", len(items))
	}
}

func TestItemImageFlow(t *testing.T) {
	env := setupTestServer(t)

	var item model.Item
	env.do(t, "POST", "/api/items", map[string]any{
		"name": "Bread", "quantity": 1, "quantityType": "Pieces",
	}, http.StatusCreated, &item)

	env.do(t, "GET", "/api/items/"+item.ID+"/image", nil, http.StatusNotFound, nil)

	resp := env.uploadImage(t, "/api/items/"+item.ID+"/image")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from upload, got %d", resp.StatusCode)
	}
	var withImage model.Item
	json.NewDecoder(resp.Body).Decode(&withImage)
	resp.Body.Close()
	if !env.service.Media().Owns(withImage.ImagePath) {
		t.Fatalf("expected stored image path, got %q", withImage.ImagePath)
	}

	req, _ := authRequest("GET", env.server.URL+"/api/items/"+item.ID+"/image", env.token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for image, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", ct)
	}
	resp.Body.Close()

	resp = env.uploadImage(t, "/api/items/missing/image")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 uploading to unknown item, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	var cleared model.Item
	env.do(t, "DELETE", "/api/items/"+item.ID+"/image", nil, http.StatusOK, &cleared)
	if cleared.ImagePath != "" {
		t.Errorf("expected image cleared, got %q", cleared.ImagePath)
	}
	env.do(t, "GET", "/api/items/"+item.ID+"/image", nil, http.StatusNotFound, nil)
}

func TestSearchAPI(t *testing.T) {
	env := setupTestServer(t)

	for _, name := range []string{"Milk", "Almond milk"} {
		env.do(t, "POST", "/api/items", map[string]any{
			"name": name, "quantity": 1, "quantityType": "Liters",
		}, http.StatusCreated, nil)
	}

	var res search.Result
	env.do(t, "GET", "/api/search?q=milk", nil, http.StatusOK, &res)
	if len(res.Items) != 1 || res.OfferCreate {
		t.Errorf("expected exact match without offer, got %+v", res)
	}

	env.do(t, "GET", "/api/search?q=oat", nil, http.StatusOK, &res)
	if len(res.Items) != 0 || !res.OfferCreate || res.Candidate == nil || res.Candidate.Name != "oat" {
		t.Errorf("expected create offer for 'oat', got %+v", res)
	}

	env.do(t, "POST", "/api/search/create", map[string]any{"query": "MILK"}, http.StatusConflict, nil)
	env.do(t, "POST", "/api/search/create", map[string]any{"query": "  "}, http.StatusBadRequest, nil)

	var created struct {
		Item  *model.Item         `json:"item"`
		Entry *model.ShopListItem `json:"entry"`
	}
	env.do(t, "POST", "/api/search/create", map[string]any{
		"query": " Oat milk ", "quantity": 2, "addToList": true,
	}, http.StatusCreated, &created)
	if created.Item == nil || created.Item.Name != "Oat milk" || created.Item.QuantityType != model.DefaultQuantityType {
		t.Fatalf("unexpected created item %+v", created.Item)
	}
	if created.Entry == nil || created.Entry.Quantity != 2 || created.Entry.Completed {
		t.Errorf("unexpected list entry %+v", created.Entry)
	}

	var list []model.ShopListItem
	env.do(t, "GET", "/api/list", nil, http.StatusOK, &list)
	if len(list) != 1 {
		t.Errorf("expected 1 list entry, got %d", len(list))
	}
}

func TestListAPIFlow(t *testing.T) {
	env := setupTestServer(t)

	var item model.Item
	env.do(t, "POST", "/api/items", map[string]any{
		"name": "Rice", "quantity": 1, "quantityType": "Kg",
	}, http.StatusCreated, &item)

	var fromCatalog model.ShopListItem
	env.do(t, "POST", "/api/items/"+item.ID+"/list", map[string]any{"quantity": 2.5}, http.StatusCreated, &fromCatalog)
	if fromCatalog.Name != "Rice" || fromCatalog.Quantity != 2.5 {
		t.Errorf("unexpected entry %+v", fromCatalog)
	}

	var viaList model.ShopListItem
	env.do(t, "POST", "/api/list", map[string]any{"itemId": item.ID}, http.StatusCreated, &viaList)
	if viaList.Quantity != 1 {
		t.Errorf("expected catalog quantity, got %v", viaList.Quantity)
	}

	var freeEntry model.ShopListItem
	env.do(t, "POST", "/api/list", map[string]any{"name": "Eggs"}, http.StatusCreated, &freeEntry)
	if freeEntry.Quantity != model.DefaultQuantity || freeEntry.QuantityType != model.DefaultQuantityType {
		t.Errorf("expected defaults on free entry, got %+v", freeEntry)
	}
	env.do(t, "POST", "/api/list", map[string]any{"itemId": "missing"}, http.StatusNotFound, nil)

	// Toggle twice returns to the original state.
	var toggled model.ShopListItem
	env.do(t, "POST", "/api/list/"+freeEntry.ID+"/toggle", nil, http.StatusOK, &toggled)
	if !toggled.Completed {
		t.Error("expected completed after first toggle")
	}
	env.do(t, "POST", "/api/list/"+freeEntry.ID+"/toggle", nil, http.StatusOK, &toggled)
	if toggled.Completed {
		t.Error("expected not completed after second toggle")
	}
	env.do(t, "POST", "/api/list/missing/toggle", nil, http.StatusNotFound, nil)

	var edited model.ShopListItem
	env.do(t, "PUT", "/api/list/"+freeEntry.ID, map[string]any{"quantityType": "Dozens", "completed": true}, http.StatusOK, &edited)
	if edited.QuantityType != "Dozens" || !edited.Completed {
		t.Errorf("unexpected edited entry %+v", edited)
	}

	// Share as text.
	req, _ := authRequest("GET", env.server.URL+"/api/list/share.txt", env.token, nil)
	resp, _ := http.DefaultClient.Do(req)
	text, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	want := "Rice 2.5 Kg\nRice 1 Kg\nEggs 1 Dozens"
	if string(text) != want {
		t.Errorf("share text:\n got %q\nwant %q", text, want)
	}

	// Share as PDF.
	req, _ = authRequest("GET", env.server.URL+"/api/list/share.pdf", env.token, nil)
	resp, _ = http.DefaultClient.Do(req)
	pdf, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.Header.Get("Content-Type") != "application/pdf" || !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Errorf("expected a PDF document, got %q", resp.Header.Get("Content-Type"))
	}

	env.do(t, "DELETE", "/api/list/"+viaList.ID, nil, http.StatusOK, nil)
	env.do(t, "DELETE", "/api/list/"+viaList.ID, nil, http.StatusOK, nil)

	var cleared struct {
		Removed int `json:"removed"`
	}
	env.do(t, "DELETE", "/api/list", nil, http.StatusOK, &cleared)
	if cleared.Removed != 2 {
		t.Errorf("expected 2 removed, got %d", cleared.Removed)
	}

	var list []model.ShopListItem
	env.do(t, "GET", "/api/list", nil, http.StatusOK, &list)
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d", len(list))
	}
}

func TestSharePDFUncoveredName(t *testing.T) {
	env := setupTestServer(t)

	env.do(t, "POST", "/api/list", map[string]any{"name": "दूध"}, http.StatusCreated, nil)
	env.do(t, "GET", "/api/list/share.pdf", nil, http.StatusUnprocessableEntity, nil)
}

func TestResetData(t *testing.T) {
	env := setupTestServer(t)

	env.do(t, "POST", "/api/items", map[string]any{
		"name": "Tea", "quantity": 1, "quantityType": "Boxes",
	}, http.StatusCreated, nil)
	env.do(t, "POST", "/api/list", map[string]any{"name": "Sugar"}, http.StatusCreated, nil)

	env.do(t, "DELETE", "/api/data", nil, http.StatusOK, nil)

	var items []model.Item
	env.do(t, "GET", "/api/items", nil, http.StatusOK, &items)
	var list []model.ShopListItem
	env.do(t, "GET", "/api/list", nil, http.StatusOK, &list)
	if len(items) != 0 || len(list) != 0 {
		t.Errorf("expected all data cleared, got %d items and %d entries", len(items), len(list))
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupTestServer(t)

	resp, _ := http.Get(env.server.URL + "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from healthz, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, _ = http.Get(env.server.URL + "/metrics")
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `shopmate_http_requests_total{method="POST",route="POST /api/auth/login",status="200"}`) {
		t.Errorf("expected login request in metrics, got:\n%s", body)
	}
}

func TestCORS(t *testing.T) {
	st := store.New(kv.NewMemory())
	m, _ := media.NewManager(t.TempDir())
	router := NewRouter(Options{
		Service:     shopping.New(st, m),
		Accounts:    st,
		JWTSecret:   testJWTSecret,
		CORSOrigins: []string{"http://localhost:5173"},
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	req, _ := http.NewRequest(http.MethodOptions, server.URL+"/api/items", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("expected allowed origin header, got %q", got)
	}
}
