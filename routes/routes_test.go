package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	goredis "github.com/redis/go-redis/v9"

	"github.com/meinhoongagan/home-services/redis"
	"github.com/meinhoongagan/home-services/store"
)

const testSecret = "routes-test-secret"

type testEnv struct {
	t   *testing.T
	app *fiber.App
	st  *store.MemoryStore
}

func newTestEnv(t *testing.T, loginLimit int) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter, err := redis.NewFixedWindowLimiter(client, "test:login", loginLimit, time.Minute)
	if err != nil {
		t.Fatalf("limiter: %v", err)
	}
	st := store.NewMemoryStore()
	app := NewApp(Deps{
		Store:     st,
		Revoker:   redis.NewRedisRevoker(client),
		Limiter:   limiter,
		JWTSecret: testSecret,
		JWTTTL:    time.Hour,
	})
	return &testEnv{t: t, app: app, st: st}
}

func (e *testEnv) do(method, path, token string, body any) (int, map[string]any) {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &out); err != nil {
			e.t.Fatalf("decode %s %s: %v (%s)", method, path, err, raw)
		}
	}
	return resp.StatusCode, out
}

func (e *testEnv) expect(want int, method, path, token string, body any) map[string]any {
	e.t.Helper()
	code, out := e.do(method, path, token, body)
	if code != want {
		e.t.Fatalf("%s %s: expected %d, got %d (%v)", method, path, want, code, out)
	}
	return out
}

func (e *testEnv) register(email, name string, role string) {
	e.t.Helper()
	body := map[string]any{"email": email, "password": "secret123", "name": name, "address": name + " road", "city": "Pune"}
	if role != "" {
		body["role"] = role
	}
	e.expect(fiber.StatusCreated, fiber.MethodPost, "/api/register", "", body)
}

func (e *testEnv) login(email string) string {
	e.t.Helper()
	out := e.expect(fiber.StatusOK, fiber.MethodPost, "/api/login", "", map[string]any{"email": email, "password": "secret123"})
	token, _ := out["token"].(string)
	if token == "" {
		e.t.Fatalf("login returned no token: %v", out)
	}
	return token
}

func (e *testEnv) categoryID(name string) float64 {
	e.t.Helper()
	out := e.expect(fiber.StatusOK, fiber.MethodGet, "/api/service-categories", "", nil)
	for _, raw := range out["categories"].([]any) {
		c := raw.(map[string]any)
		if c["category_name"] == name {
			return c["category_id"].(float64)
		}
	}
	e.t.Fatalf("category %q not found", name)
	return 0
}

func list(out map[string]any, key string) []map[string]any {
	raw, _ := out[key].([]any)
	items := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		items = append(items, r.(map[string]any))
	}
	return items
}

func deepClean(categoryID float64) map[string]any {
	return map[string]any{
		"service_name": "Deep Clean",
		"description":  "whole house",
		"price":        500,
		"category_id":  categoryID,
		"city":         "Pune",
		"availability": "available",
	}
}

func TestProviderListsServiceEndToEnd(t *testing.T) {
	e := newTestEnv(t, 100)

	e.register("a@example.com", "Asha", "")
	token := e.login("a@example.com")
	out := e.expect(fiber.StatusOK, fiber.MethodPost, "/api/select-role", token, map[string]any{"role": "provider"})
	if user := out["user"].(map[string]any); user["role"] != "provider" {
		t.Fatalf("role not updated: %v", user)
	}

	e.expect(fiber.StatusCreated, fiber.MethodPost, "/api/add-service", token, deepClean(e.categoryID("Cleaning")))

	services := list(e.expect(fiber.StatusOK, fiber.MethodGet, "/api/provider/services", token, nil), "services")
	if len(services) != 1 {
		t.Fatalf("expected exactly one listing, got %d", len(services))
	}
	if services[0]["service_name"] != "Deep Clean" || services[0]["price"] != float64(500) {
		t.Fatalf("unexpected listing: %v", services[0])
	}
}

func TestBookingLifecycleEndToEnd(t *testing.T) {
	e := newTestEnv(t, 100)

	e.register("a@example.com", "Asha", "provider")
	providerToken := e.login("a@example.com")
	e.expect(fiber.StatusCreated, fiber.MethodPost, "/api/add-service", providerToken, deepClean(e.categoryID("Cleaning")))

	e.register("b@example.com", "Bala", "taker")
	takerToken := e.login("b@example.com")

	catalog := list(e.expect(fiber.StatusOK, fiber.MethodGet, "/api/taker/services", "", nil), "services")
	if len(catalog) != 1 {
		t.Fatalf("expected one catalog entry, got %d", len(catalog))
	}
	serviceID := catalog[0]["service_id"]

	out := e.expect(fiber.StatusCreated, fiber.MethodPost, "/api/taker/bookings", takerToken,
		map[string]any{"service_id": serviceID, "requested_date": "2025-01-01"})
	bookingID := out["booking"].(map[string]any)["booking_id"].(string)

	e.expect(fiber.StatusConflict, fiber.MethodPost, "/api/taker/bookings", takerToken,
		map[string]any{"service_id": serviceID, "requested_date": "2025-01-01"})

	current := list(e.expect(fiber.StatusOK, fiber.MethodGet, "/api/taker/current-bookings", takerToken, nil), "bookings")
	if len(current) != 1 || current[0]["status"] != "pending" {
		t.Fatalf("expected one pending booking, got %v", current)
	}

	jobs := list(e.expect(fiber.StatusOK, fiber.MethodGet, "/api/provider/current-jobs", providerToken, nil), "jobs")
	if len(jobs) != 1 || jobs[0]["user_name"] != "Bala" {
		t.Fatalf("unexpected current jobs: %v", jobs)
	}

	statusPath := "/api/provider/update-job-status/" + bookingID
	e.expect(fiber.StatusBadRequest, fiber.MethodPut, statusPath, providerToken, map[string]any{"status": "completed"})
	e.expect(fiber.StatusNotFound, fiber.MethodPut, statusPath, takerToken, map[string]any{"status": "confirmed"})
	e.expect(fiber.StatusOK, fiber.MethodPut, statusPath, providerToken, map[string]any{"status": "confirmed"})
	e.expect(fiber.StatusOK, fiber.MethodPut, statusPath, providerToken, map[string]any{"status": "completed"})

	history := list(e.expect(fiber.StatusOK, fiber.MethodGet, "/api/taker/service-history", takerToken, nil), "history")
	if len(history) != 1 || history[0]["booking_id"] != bookingID {
		t.Fatalf("unexpected history: %v", history)
	}
	current = list(e.expect(fiber.StatusOK, fiber.MethodGet, "/api/taker/current-bookings", takerToken, nil), "bookings")
	if len(current) != 0 {
		t.Fatalf("expected no current bookings, got %v", current)
	}
	completed := list(e.expect(fiber.StatusOK, fiber.MethodGet, "/api/provider/completed-jobs", providerToken, nil), "jobs")
	if len(completed) != 1 {
		t.Fatalf("expected one completed job, got %v", completed)
	}

	public := list(e.expect(fiber.StatusOK, fiber.MethodGet, "/api/services", "", nil), "services")
	if len(public) != 1 || public[0]["total_jobs_completed"] != float64(1) || public[0]["provider_name"] != "Asha" {
		t.Fatalf("unexpected public catalog: %v", public)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	e := newTestEnv(t, 100)

	e.register("a@example.com", "Asha", "")
	e.expect(fiber.StatusConflict, fiber.MethodPost, "/api/register", "",
		map[string]any{"email": "a@example.com", "password": "x", "name": "Again"})
	e.expect(fiber.StatusBadRequest, fiber.MethodPost, "/api/register", "",
		map[string]any{"email": "c@example.com", "password": "x"})
	e.expect(fiber.StatusBadRequest, fiber.MethodPost, "/api/register", "",
		map[string]any{"email": "c@example.com", "password": "x", "name": "C", "role": "admin"})

	e.expect(fiber.StatusUnauthorized, fiber.MethodPost, "/api/login", "",
		map[string]any{"email": "a@example.com", "password": "wrong"})
	e.expect(fiber.StatusUnauthorized, fiber.MethodPost, "/api/login", "",
		map[string]any{"email": "nobody@example.com", "password": "secret123"})

	out := e.expect(fiber.StatusOK, fiber.MethodPost, "/api/login", "",
		map[string]any{"email": "a@example.com", "password": "secret123"})
	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(out["token"].(string), claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	}); err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims["id"] != out["userId"] {
		t.Fatalf("token subject %v does not match user id %v", claims["id"], out["userId"])
	}

	me := e.expect(fiber.StatusOK, fiber.MethodGet, "/api/me", out["token"].(string), nil)
	if me["user"].(map[string]any)["email"] != "a@example.com" {
		t.Fatalf("unexpected profile: %v", me)
	}
	if _, leaked := me["user"].(map[string]any)["PasswordHash"]; leaked {
		t.Fatalf("password hash leaked")
	}
}

func TestAuthAndRoleGates(t *testing.T) {
	e := newTestEnv(t, 100)
	e.register("a@example.com", "Asha", "taker")
	token := e.login("a@example.com")
	categoryID := e.categoryID("Cleaning")

	e.expect(fiber.StatusUnauthorized, fiber.MethodPost, "/api/add-service", "", deepClean(categoryID))
	e.expect(fiber.StatusForbidden, fiber.MethodPost, "/api/add-service", "not-a-token", deepClean(categoryID))
	e.expect(fiber.StatusForbidden, fiber.MethodPost, "/api/add-service", token, deepClean(categoryID))
	e.expect(fiber.StatusUnauthorized, fiber.MethodGet, "/api/provider/services", "", nil)

	e.expect(fiber.StatusOK, fiber.MethodPost, "/api/select-role", token, map[string]any{"role": "provider"})
	e.expect(fiber.StatusBadRequest, fiber.MethodPost, "/api/select-role", token, map[string]any{"role": "admin"})

	bad := deepClean(categoryID)
	bad["price"] = 0
	e.expect(fiber.StatusBadRequest, fiber.MethodPost, "/api/add-service", token, bad)
	e.expect(fiber.StatusNotFound, fiber.MethodPost, "/api/add-service", token, deepClean(999))
	e.expect(fiber.StatusCreated, fiber.MethodPost, "/api/add-service", token, deepClean(categoryID))

	e.expect(fiber.StatusOK, fiber.MethodPost, "/api/logout", token, nil)
	e.expect(fiber.StatusForbidden, fiber.MethodGet, "/api/provider/services", token, nil)
}

func TestListingOwnership(t *testing.T) {
	e := newTestEnv(t, 100)
	e.register("a@example.com", "Asha", "provider")
	e.register("b@example.com", "Bala", "provider")
	owner := e.login("a@example.com")
	other := e.login("b@example.com")

	e.expect(fiber.StatusCreated, fiber.MethodPost, "/api/add-service", owner, deepClean(e.categoryID("Cleaning")))
	listing := list(e.expect(fiber.StatusOK, fiber.MethodGet, "/api/provider/services", owner, nil), "services")[0]
	id := listing["provider_service_id"].(float64)
	path := func(prefix string) string { return prefix + strconv.FormatUint(uint64(id), 10) }

	edit := map[string]any{
		"service_name": "Deep Clean Plus",
		"description":  "whole house and garage",
		"price":        "650.50",
		"city":         "Mumbai",
		"availability": "busy",
	}
	e.expect(fiber.StatusNotFound, fiber.MethodGet, path("/api/provider/service/"), other, nil)
	e.expect(fiber.StatusNotFound, fiber.MethodPut, path("/api/provider/edit-service/"), other, edit)
	e.expect(fiber.StatusNotFound, fiber.MethodDelete, path("/api/provider/delete-service/"), other, nil)

	out := e.expect(fiber.StatusOK, fiber.MethodPut, path("/api/provider/edit-service/"), owner, edit)
	service := out["service"].(map[string]any)
	if service["price"] != 650.5 || service["city"] != "Mumbai" {
		t.Fatalf("edit not applied: %v", service)
	}
	e.expect(fiber.StatusOK, fiber.MethodDelete, path("/api/provider/delete-service/"), owner, nil)
	e.expect(fiber.StatusNotFound, fiber.MethodGet, path("/api/provider/service/"), owner, nil)
	e.expect(fiber.StatusBadRequest, fiber.MethodGet, "/api/provider/service/abc", owner, nil)
}

func TestCancelBooking(t *testing.T) {
	e := newTestEnv(t, 100)
	e.register("a@example.com", "Asha", "provider")
	e.register("b@example.com", "Bala", "taker")
	e.register("c@example.com", "Chitra", "taker")
	provider := e.login("a@example.com")
	taker := e.login("b@example.com")
	stranger := e.login("c@example.com")

	e.expect(fiber.StatusCreated, fiber.MethodPost, "/api/add-service", provider, deepClean(e.categoryID("Cleaning")))
	serviceID := list(e.expect(fiber.StatusOK, fiber.MethodGet, "/api/services", "", nil), "services")[0]["service_id"]

	e.expect(fiber.StatusBadRequest, fiber.MethodPost, "/api/taker/bookings", taker, map[string]any{"service_id": serviceID})
	e.expect(fiber.StatusBadRequest, fiber.MethodPost, "/api/taker/bookings", taker,
		map[string]any{"service_id": serviceID, "requested_date": "01/02/2025"})
	e.expect(fiber.StatusNotFound, fiber.MethodPost, "/api/taker/bookings", taker,
		map[string]any{"service_id": 999, "requested_date": "2025-02-01"})

	pending := e.expect(fiber.StatusCreated, fiber.MethodPost, "/api/taker/bookings", taker,
		map[string]any{"service_id": serviceID, "requested_date": "2025-02-01"})["booking"].(map[string]any)["booking_id"].(string)
	confirmed := e.expect(fiber.StatusCreated, fiber.MethodPost, "/api/taker/bookings", taker,
		map[string]any{"service_id": serviceID, "requested_date": "2025-02-02"})["booking"].(map[string]any)["booking_id"].(string)
	e.expect(fiber.StatusOK, fiber.MethodPut, "/api/provider/update-job-status/"+confirmed, provider, map[string]any{"status": "confirmed"})

	out := e.expect(fiber.StatusNotFound, fiber.MethodDelete, "/api/taker/cancel-booking/"+confirmed, taker, nil)
	if out["message"] != "Booking not found or cannot be canceled" {
		t.Fatalf("unexpected message: %v", out)
	}
	e.expect(fiber.StatusNotFound, fiber.MethodDelete, "/api/taker/cancel-booking/"+pending, stranger, nil)
	e.expect(fiber.StatusOK, fiber.MethodDelete, "/api/taker/cancel-booking/"+pending, taker, nil)

	current := list(e.expect(fiber.StatusOK, fiber.MethodGet, "/api/taker/current-bookings", taker, nil), "bookings")
	if len(current) != 1 || current[0]["booking_id"] != confirmed || current[0]["status"] != "confirmed" {
		t.Fatalf("confirmed booking should be untouched: %v", current)
	}
}

func TestLoginRateLimit(t *testing.T) {
	e := newTestEnv(t, 2)
	e.register("a@example.com", "Asha", "")

	e.login("a@example.com")
	e.expect(fiber.StatusUnauthorized, fiber.MethodPost, "/api/login", "",
		map[string]any{"email": "a@example.com", "password": "wrong"})
	e.expect(fiber.StatusTooManyRequests, fiber.MethodPost, "/api/login", "",
		map[string]any{"email": "a@example.com", "password": "secret123"})
}

func TestPublicEndpoints(t *testing.T) {
	e := newTestEnv(t, 100)

	categories := list(e.expect(fiber.StatusOK, fiber.MethodGet, "/api/service-categories", "", nil), "categories")
	if len(categories) == 0 || categories[0]["category_name"] != "Appliance Repair" {
		t.Fatalf("categories should be sorted by name: %v", categories)
	}
	e.expect(fiber.StatusCreated, fiber.MethodPost, "/api/contact", "",
		map[string]any{"name": "N", "email": "n@example.com", "message": "hello"})
	e.expect(fiber.StatusBadRequest, fiber.MethodPost, "/api/contact", "", map[string]any{"name": "N"})
	e.expect(fiber.StatusNotFound, fiber.MethodGet, "/api/taker/service/1", "", nil)
	e.expect(fiber.StatusOK, fiber.MethodGet, "/healthz", "", nil)
	e.expect(fiber.StatusNotFound, fiber.MethodGet, "/api/nope", "", nil)

	code, _ := e.do(fiber.MethodGet, "/metrics", "", nil)
	if code != fiber.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", code)
	}
}

func TestRebookAfterProviderCancels(t *testing.T) {
	e := newTestEnv(t, 100)
	e.register("a@example.com", "Asha", "provider")
	e.register("b@example.com", "Bala", "taker")
	provider := e.login("a@example.com")
	taker := e.login("b@example.com")

	e.expect(fiber.StatusCreated, fiber.MethodPost, "/api/add-service", provider, deepClean(e.categoryID("Cleaning")))
	serviceID := list(e.expect(fiber.StatusOK, fiber.MethodGet, "/api/services", "", nil), "services")[0]["service_id"]
	request := map[string]any{"service_id": serviceID, "requested_date": "2025-03-01"}

	first := e.expect(fiber.StatusCreated, fiber.MethodPost, "/api/taker/bookings", taker, request)["booking"].(map[string]any)["booking_id"].(string)
	e.expect(fiber.StatusOK, fiber.MethodPut, "/api/provider/update-job-status/"+first, provider, map[string]any{"status": "cancelled"})

	current := list(e.expect(fiber.StatusOK, fiber.MethodGet, "/api/taker/current-bookings", taker, nil), "bookings")
	if len(current) != 0 {
		t.Fatalf("cancelled booking should not be current: %v", current)
	}

	second := e.expect(fiber.StatusCreated, fiber.MethodPost, "/api/taker/bookings", taker, request)["booking"].(map[string]any)["booking_id"].(string)
	if second == first {
		t.Fatalf("expected a new booking id")
	}
	e.expect(fiber.StatusConflict, fiber.MethodPost, "/api/taker/bookings", taker, request)
}
