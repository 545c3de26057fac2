package storage

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/prtkgoswami/gears-connect/internal/auth"
)

func sessionMiddleware(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("session", auth.Session{UserID: userID, Username: "User"})
		return c.Next()
	}
}

func TestStorageHandlersUpload(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO storage_objects`).
		WithArgs(pgxmock.AnyArg(), "user-1", pgxmock.AnyArg(), "vehicle").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	app := fiber.New()
	svc := NewService(mock, newFakeStore(), "https://cdn.example.com")
	RegisterRoutes(app.Group("/storage"), svc, sessionMiddleware("user-1"))

	payload := map[string]any{
		"files": []File{{
			FileName: "car.jpg",
			Data:     "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpg")),
			Kind:     "vehicle",
		}},
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/storage/upload", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status: %v", err)
	}

	var out struct {
		URLs []string `json:"urls"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(out.URLs) != 1 {
		t.Fatalf("expected one url, got %v", out.URLs)
	}
}

func TestStorageHandlersUploadTooMany(t *testing.T) {
	app := fiber.New()
	svc := NewService(nil, newFakeStore(), "https://cdn.example.com")
	RegisterRoutes(app.Group("/storage"), svc, sessionMiddleware("user-1"))

	files := make([]File, MaxFiles+1)
	for i := range files {
		files[i] = File{Data: base64.StdEncoding.EncodeToString([]byte("x"))}
	}
	body, _ := json.Marshal(map[string]any{"files": files})
	req := httptest.NewRequest(http.MethodPost, "/storage/upload", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}

func TestStorageHandlersDelete(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM storage_objects`).
		WithArgs("https://cdn.example.com/upload/gears_connect/abc.jpg").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	app := fiber.New()
	svc := NewService(mock, newFakeStore(), "https://cdn.example.com")
	RegisterRoutes(app.Group("/storage"), svc, sessionMiddleware("user-1"))

	body, _ := json.Marshal(map[string]any{"urls": []string{"https://cdn.example.com/upload/gears_connect/abc.jpg"}})
	req := httptest.NewRequest(http.MethodDelete, "/storage/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status: %v", err)
	}
}

func TestStorageHandlersDeleteNoKeys(t *testing.T) {
	app := fiber.New()
	svc := NewService(nil, newFakeStore(), "https://cdn.example.com")
	RegisterRoutes(app.Group("/storage"), svc, sessionMiddleware("user-1"))

	body, _ := json.Marshal(map[string]any{"urls": []string{"https://cdn.example.com/static/logo.png"}})
	req := httptest.NewRequest(http.MethodDelete, "/storage/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}
