package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lapak/pkg/imagestore"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	// allow callers to pass nil for body safely
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var err error
	db, err = gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "lapak_test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	migrateDB(db)

	jwtSecret = []byte("test-secret")
	local, err := imagestore.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("init image store: %v", err)
	}
	images = local
	initListings()
	setRedirectPolicy(RedirectConfig{AllowedHosts: []string{"good.example"}})

	r := gin.Default()
	setupRoutes(r)
	return r
}

// registerAndLogin creates an account and returns its access token.
func registerAndLogin(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": "secret1"})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(body), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(body), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}
	return token
}

func createProfile(t *testing.T, r *gin.Engine, token, location string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"location": location})
	resp := performRequest(r, http.MethodPost, "/profile", bytes.NewBuffer(body), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("create profile failed status=%d body=%s", resp.Code, resp.Body.String())
	}
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)

	token := registerAndLogin(t, r, "ani")

	// 1. Creating a listing before the seller profile exists is rejected
	form := url.Values{"name": {"Chair"}, "price": {"10"}}
	resp := performRequest(r, http.MethodPost, "/listings", strings.NewReader(form.Encode()), token, "application/x-www-form-urlencoded")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without profile got %d body=%s", resp.Code, resp.Body.String())
	}

	createProfile(t, r, token, "Bandung")

	// 2. Create a listing; expect 201 with a Location pointing at it
	form = url.Values{"name": {"Chair"}, "price": {"10"}, "description": {"sturdy"}}
	resp = performRequest(r, http.MethodPost, "/listings", strings.NewReader(form.Encode()), token, "application/x-www-form-urlencoded")
	if resp.Code != http.StatusCreated {
		t.Fatalf("create listing failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	loc := resp.Header().Get("Location")
	if !strings.HasPrefix(loc, "/listings/") {
		t.Fatalf("unexpected Location header %q", loc)
	}
	var created map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &created)
	id, _ := created["id"].(float64)
	if id == 0 {
		t.Fatalf("missing listing id in response: %+v", created)
	}
	listingPath := "/listings/" + loc[len("/listings/"):]

	// 3. Non-positive prices are rejected with field-level feedback, zero included
	for _, bad := range []string{"0", "-3"} {
		form = url.Values{"name": {"Chair"}, "price": {bad}}
		resp = performRequest(r, http.MethodPost, "/listings", strings.NewReader(form.Encode()), token, "application/x-www-form-urlencoded")
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for price %s got %d body=%s", bad, resp.Code, resp.Body.String())
		}
		var verr map[string]any
		_ = json.Unmarshal(resp.Body.Bytes(), &verr)
		if verr["field"] != "price" {
			t.Fatalf("expected field price in error for price %s got %s", bad, resp.Body.String())
		}
	}

	// 4. Public feed shows it without auth; location was stamped from the profile
	resp = performRequest(r, http.MethodGet, "/listings", nil, "", "")
	if resp.Code != 200 {
		t.Fatalf("feed failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var feed struct {
		Listings []map[string]any `json:"listings"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &feed)
	if len(feed.Listings) != 1 {
		t.Fatalf("expected 1 feed entry got %d", len(feed.Listings))
	}
	if feed.Listings[0]["location"] != "Bandung" {
		t.Fatalf("expected stamped location Bandung got %v", feed.Listings[0]["location"])
	}

	// 5. A second user cannot edit or delete it; the responses must look like a miss
	other := registerAndLogin(t, r, "budi")
	createProfile(t, r, other, "Jakarta")
	editBody, _ := json.Marshal(map[string]any{"name": "Stolen"})
	resp = performRequest(r, http.MethodPut, listingPath, bytes.NewBuffer(editBody), other, "application/json")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign edit got %d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodDelete, listingPath, nil, other, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign delete got %d body=%s", resp.Code, resp.Body.String())
	}

	// 6. Owner edit succeeds; an off-policy next falls back to /my_listings
	editBody, _ = json.Marshal(map[string]any{"price": 12.0})
	resp = performRequest(r, http.MethodPut, listingPath+"?next=https://evil.com/", bytes.NewBuffer(editBody), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("edit failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var edited map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &edited)
	if edited["redirect"] != "/my_listings" {
		t.Fatalf("expected fallback redirect got %v", edited["redirect"])
	}

	// 7. An approved next is honored
	resp = performRequest(r, http.MethodPut, listingPath+"?next=https://good.example/after", bytes.NewBuffer(editBody), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("edit failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	edited = map[string]any{}
	_ = json.Unmarshal(resp.Body.Bytes(), &edited)
	if edited["redirect"] != "https://good.example/after" {
		t.Fatalf("expected approved redirect got %v", edited["redirect"])
	}

	// 8. my_listings reflects the edit
	resp = performRequest(r, http.MethodGet, "/my_listings", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("my_listings failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var mine struct {
		Listings []map[string]any `json:"listings"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &mine)
	if len(mine.Listings) != 1 || mine.Listings[0]["price"] != 12.0 {
		t.Fatalf("unexpected my_listings payload: %s", resp.Body.String())
	}

	// 9. Owner delete, then the id is gone for good
	resp = performRequest(r, http.MethodDelete, listingPath, nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("delete failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodDelete, listingPath, nil, token, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete got %d", resp.Code)
	}
	resp = performRequest(r, http.MethodGet, "/listings", nil, "", "")
	_ = json.Unmarshal(resp.Body.Bytes(), &feed)
	if len(feed.Listings) != 0 {
		t.Fatalf("expected empty feed got %d entries", len(feed.Listings))
	}

	// 10. Unauthorized access to a protected endpoint should be 401
	unauth := performRequest(r, http.MethodGet, "/my_listings", nil, "", "")
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthorized my_listings got %d", unauth.Code)
	}
}

func TestCreateListingWithImage(t *testing.T) {
	r := setupTestServer(t)
	token := registerAndLogin(t, r, "ani")
	createProfile(t, r, token, "Bandung")

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	_ = mw.WriteField("name", "Lamp")
	_ = mw.WriteField("price", "4")
	w, _ := mw.CreateFormFile("image", "lamp.png")
	if err := png.Encode(w, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	_ = mw.Close()

	resp := performRequest(r, http.MethodPost, "/listings", buf, token, mw.FormDataContentType())
	if resp.Code != http.StatusCreated {
		t.Fatalf("create with image failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	resp = performRequest(r, http.MethodGet, "/listings", nil, "", "")
	var feed struct {
		Listings []map[string]any `json:"listings"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &feed)
	if len(feed.Listings) != 1 {
		t.Fatalf("expected 1 feed entry got %d", len(feed.Listings))
	}
	img, _ := feed.Listings[0]["image"].(string)
	if !strings.HasPrefix(img, "media/") || !strings.HasSuffix(img, ".png") {
		t.Fatalf("unexpected image reference %q", img)
	}
}

func TestEditListingImage(t *testing.T) {
	r := setupTestServer(t)
	token := registerAndLogin(t, r, "ani")
	createProfile(t, r, token, "Bandung")

	// create without an image, so the placeholder is stored
	form := url.Values{"name": {"Chair"}, "price": {"10"}}
	resp := performRequest(r, http.MethodPost, "/listings", strings.NewReader(form.Encode()), token, "application/x-www-form-urlencoded")
	if resp.Code != http.StatusCreated {
		t.Fatalf("create failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	listingPath := resp.Header().Get("Location")

	resp = performRequest(r, http.MethodGet, listingPath, nil, "", "")
	var got struct {
		Listing map[string]any `json:"listing"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &got)
	if got.Listing["image"] != "default.png" {
		t.Fatalf("expected placeholder image got %v", got.Listing["image"])
	}

	// replace the image through a multipart edit
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	_ = mw.WriteField("name", "Armchair")
	w, _ := mw.CreateFormFile("image", "chair.png")
	if err := png.Encode(w, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	_ = mw.Close()
	resp = performRequest(r, http.MethodPut, listingPath, buf, token, mw.FormDataContentType())
	if resp.Code != 200 {
		t.Fatalf("edit with image failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	resp = performRequest(r, http.MethodGet, listingPath, nil, "", "")
	_ = json.Unmarshal(resp.Body.Bytes(), &got)
	img, _ := got.Listing["image"].(string)
	if !strings.HasPrefix(img, "media/") || !strings.HasSuffix(img, ".png") {
		t.Fatalf("expected stored image reference got %q", img)
	}
	if got.Listing["name"] != "Armchair" {
		t.Fatalf("expected edited name got %v", got.Listing["name"])
	}
}

func TestDuplicateProfile(t *testing.T) {
	r := setupTestServer(t)
	token := registerAndLogin(t, r, "ani")
	createProfile(t, r, token, "Bandung")

	body, _ := json.Marshal(map[string]string{"location": "Jakarta"})
	resp := performRequest(r, http.MethodPost, "/profile", bytes.NewBuffer(body), token, "application/json")
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for second profile got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	r := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "ani", "password": "secret1"})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(body), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("register failed status=%d", resp.Code)
	}
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(body), "", "application/json")
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	refresh, _ := loginResp["refresh_token"].(string)
	if refresh == "" {
		t.Fatalf("missing refresh token: %+v", loginResp)
	}

	// exchange it once
	refBody, _ := json.Marshal(map[string]string{"refresh_token": refresh})
	resp = performRequest(r, http.MethodPost, "/refresh", bytes.NewBuffer(refBody), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("refresh failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// the old token was rotated out
	resp = performRequest(r, http.MethodPost, "/refresh", bytes.NewBuffer(refBody), "", "application/json")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for reused refresh token got %d", resp.Code)
	}
}
