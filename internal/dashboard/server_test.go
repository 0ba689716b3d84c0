package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openlangar/langar/internal/auth"
	"github.com/openlangar/langar/internal/feed"
	"github.com/openlangar/langar/internal/meal"
	"github.com/openlangar/langar/internal/models"
	"github.com/openlangar/langar/internal/view"
)

const (
	testEmail    = "admin@langar.local"
	testPassword = "sevruga"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(&models.Meal{}, &models.MenuItem{}, &models.DiningHall{},
		&models.MealMenuItem{}, &models.PotAssignment{}, &models.ActiveMeal{})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// HTTP handlers run on separate goroutines; a second pool connection
	// to the same :memory: database would see an empty one.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db
}

// newTestServerHub spins up the full router over an in-memory database and
// returns a client with a cookie jar so sessions stick, plus the feed hub
// behind the SSE stream.
func newTestServerHub(t *testing.T) (*httptest.Server, *http.Client, *gorm.DB, *feed.Hub) {
	t.Helper()

	db := openTestDB(t)
	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	hub := feed.NewHub()
	router, err := NewRouter(StartOpts{
		DB:   db,
		Hub:  hub,
		Auth: auth.New(testEmail, hash, "test-secret", time.Hour),
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	return srv, &http.Client{Jar: jar}, db, hub
}

func newTestServer(t *testing.T) (*httptest.Server, *http.Client, *gorm.DB) {
	t.Helper()
	srv, client, db, _ := newTestServerHub(t)
	return srv, client, db
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func login(t *testing.T, client *http.Client, baseURL string) {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/login", map[string]string{
		"email": testEmail, "password": testPassword,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
}

func TestNewRouter_RequiresDB(t *testing.T) {
	_, err := NewRouter(StartOpts{Auth: auth.New("a", "", "", 0)})
	if err == nil || !strings.Contains(err.Error(), "db is required") {
		t.Errorf("err = %v, want db is required", err)
	}
}

func TestNewRouter_RequiresAuth(t *testing.T) {
	_, err := NewRouter(StartOpts{DB: openTestDB(t)})
	if err == nil || !strings.Contains(err.Error(), "auth manager is required") {
		t.Errorf("err = %v, want auth manager is required", err)
	}
}

func TestEmbeddedAssets(t *testing.T) {
	for _, name := range []string{"assets/style.css", "assets/app.js"} {
		data, err := assetsFS.ReadFile(name)
		if err != nil {
			t.Fatalf("%s not embedded: %v", name, err)
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestEmbeddedTemplates(t *testing.T) {
	data, err := templatesFS.ReadFile("templates/layout.html")
	if err != nil {
		t.Fatalf("layout.html not embedded: %v", err)
	}
	if !strings.Contains(string(data), "Langar") {
		t.Error("layout.html does not contain 'Langar'")
	}
}

func TestIndex_NoActiveMeal(t *testing.T) {
	srv, client, _ := newTestServer(t)

	resp, err := client.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "No meal is being served") {
		t.Error("index missing empty-state message")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	srv, client, _ := newTestServer(t)

	resp := postJSON(t, client, srv.URL+"/api/login", map[string]string{
		"email": testEmail, "password": "wrong",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAdminRoutes_RequireSession(t *testing.T) {
	srv, client, _ := newTestServer(t)

	resp := postJSON(t, client, srv.URL+"/api/admin/meals", map[string]string{"name": "Lunch"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestSession_ReflectsLoginState(t *testing.T) {
	srv, client, _ := newTestServer(t)

	var s struct {
		Active bool `json:"active"`
	}
	resp, err := client.Get(srv.URL + "/api/session")
	if err != nil {
		t.Fatalf("GET session: %v", err)
	}
	json.NewDecoder(resp.Body).Decode(&s)
	resp.Body.Close()
	if s.Active {
		t.Error("session active before login")
	}

	login(t, client, srv.URL)

	resp, err = client.Get(srv.URL + "/api/session")
	if err != nil {
		t.Fatalf("GET session: %v", err)
	}
	json.NewDecoder(resp.Body).Decode(&s)
	resp.Body.Close()
	if !s.Active {
		t.Error("session not active after login")
	}
}

func TestAdminFlow_CreateThroughDelivery(t *testing.T) {
	srv, client, _ := newTestServer(t)
	login(t, client, srv.URL)

	// Create the meal and catalog entries.
	resp := postJSON(t, client, srv.URL+"/api/admin/meals", map[string]string{"name": "Lunch"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create meal status = %d", resp.StatusCode)
	}
	var lunch models.Meal
	json.NewDecoder(resp.Body).Decode(&lunch)
	resp.Body.Close()

	resp = postJSON(t, client, srv.URL+"/api/admin/menu-items", map[string]string{"name": "Rice"})
	var rice models.MenuItem
	json.NewDecoder(resp.Body).Decode(&rice)
	resp.Body.Close()

	resp = postJSON(t, client, srv.URL+"/api/admin/dining-halls", map[string]string{"name": "North"})
	var north models.DiningHall
	json.NewDecoder(resp.Body).Decode(&north)
	resp.Body.Close()

	// Menu and pot distribution.
	resp = postJSON(t, client, srv.URL+"/api/admin/meals/"+lunch.ID+"/menu",
		map[string]any{"counts": map[string]int{rice.ID: 5}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("assign menu status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, client, srv.URL+"/api/admin/meals/"+lunch.ID+"/pots",
		map[string]any{"diningHallId": north.ID, "counts": map[string]int{rice.ID: 3}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("assign pots status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Public view reflects the assignment.
	getResp, err := client.Get(srv.URL + "/api/view/" + lunch.ID)
	if err != nil {
		t.Fatalf("GET view: %v", err)
	}
	var v view.MealView
	json.NewDecoder(getResp.Body).Decode(&v)
	getResp.Body.Close()
	if v.MealName != "Lunch" || v.AssignedTotal != 3 || v.DeliveredTotal != 0 {
		t.Fatalf("view = %+v", v)
	}
	if len(v.Halls) != 1 || v.Halls[0].HallName != "North" || v.Halls[0].Rows[0].DishName != "Rice" {
		t.Fatalf("halls = %+v", v.Halls)
	}

	// Increment delivery through the admin API.
	rowID := v.Halls[0].Rows[0].AssignmentID
	resp = postJSON(t, client, srv.URL+"/api/admin/assignments/"+rowID+"/increment", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("increment status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	getResp, _ = client.Get(srv.URL + "/api/view/" + lunch.ID)
	json.NewDecoder(getResp.Body).Decode(&v)
	getResp.Body.Close()
	if v.DeliveredTotal != 1 {
		t.Errorf("DeliveredTotal = %d, want 1", v.DeliveredTotal)
	}

	// Complete the meal.
	resp = postJSON(t, client, srv.URL+"/api/admin/meals/"+lunch.ID+"/complete", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete status = %d", resp.StatusCode)
	}
	var done models.Meal
	json.NewDecoder(resp.Body).Decode(&done)
	resp.Body.Close()
	if !done.IsComplete || done.CompletedAt == nil {
		t.Errorf("completed meal = %+v", done)
	}
}

func TestActiveMealEndpoints(t *testing.T) {
	srv, client, db := newTestServer(t)
	login(t, client, srv.URL)

	lunch, err := meal.Create(db, nil, "Lunch")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// No active meal yet.
	resp, _ := client.Get(srv.URL + "/api/meals/active")
	var active struct {
		MealID string `json:"mealId"`
	}
	json.NewDecoder(resp.Body).Decode(&active)
	resp.Body.Close()
	if active.MealID != "" {
		t.Errorf("mealId = %q, want empty", active.MealID)
	}

	// Set, read back, clear.
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/admin/active-meal",
		strings.NewReader(`{"mealId":"`+lunch.ID+`"}`))
	req.Header.Set("Content-Type", "application/json")
	setResp, err := client.Do(req)
	if err != nil {
		t.Fatalf("PUT active-meal: %v", err)
	}
	setResp.Body.Close()
	if setResp.StatusCode != http.StatusOK {
		t.Fatalf("set active status = %d", setResp.StatusCode)
	}

	resp, _ = client.Get(srv.URL + "/api/meals/active")
	json.NewDecoder(resp.Body).Decode(&active)
	resp.Body.Close()
	if active.MealID != lunch.ID {
		t.Errorf("mealId = %q, want %q", active.MealID, lunch.ID)
	}

	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/admin/active-meal", nil)
	delResp, err := client.Do(req)
	if err != nil {
		t.Fatalf("DELETE active-meal: %v", err)
	}
	delResp.Body.Close()

	resp, _ = client.Get(srv.URL + "/api/meals/active")
	json.NewDecoder(resp.Body).Decode(&active)
	resp.Body.Close()
	if active.MealID != "" {
		t.Errorf("mealId after clear = %q, want empty", active.MealID)
	}
}

func TestMealView_UnknownMeal404(t *testing.T) {
	srv, client, _ := newTestServer(t)

	resp, err := client.Get(srv.URL + "/api/view/nope")
	if err != nil {
		t.Fatalf("GET view: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSSE_Handshake(t *testing.T) {
	srv, client, db := newTestServer(t)

	lunch, err := meal.Create(db, nil, "Lunch")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events?meal="+lunch.ID, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("content-type = %q", ct)
	}

	buf := make([]byte, 4096)
	n, _ := resp.Body.Read(buf)
	body := string(buf[:n])
	if !strings.Contains(body, "event: connected") {
		t.Errorf("stream missing connected event, got %q", body)
	}
}
