package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclemark/internal/db"
	"github.com/terraincognita07/cyclemark/internal/i18n"
	"gorm.io/gorm"
)

const testPassword = "StrongPass1"

type transitionResponse struct {
	Applied bool      `json:"applied"`
	Cycle   cycleView `json:"cycle"`
}

func newTestApp(t *testing.T) (*fiber.App, *Handler, *gorm.DB) {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "cyclemark-api-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	i18nManager, err := i18n.NewManager("en", i18n.Locales())
	if err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	handler, err := NewHandler(database, "test-secret-key", time.UTC, i18nManager, false)
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}

	app := fiber.New()
	app.Use(handler.LanguageMiddleware)
	RegisterRoutes(app, handler)
	return app, handler, database
}

func doRequest(t *testing.T, app *fiber.App, method string, path string, body string, headers map[string]string) (*http.Response, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	request := httptest.NewRequest(method, path, reader)
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer response.Body.Close()

	content, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("%s %s read body failed: %v", method, path, err)
	}
	return response, string(content)
}

func expectStatus(t *testing.T, response *http.Response, body string, want int) {
	t.Helper()

	if response.StatusCode != want {
		t.Fatalf("expected status %d, got %d: %s", want, response.StatusCode, body)
	}
}

func decodeJSON(t *testing.T, body string, target any) {
	t.Helper()

	if err := json.Unmarshal([]byte(body), target); err != nil {
		t.Fatalf("decode response %q: %v", body, err)
	}
}

func registerAndExtractAuthCookie(t *testing.T, app *fiber.App, email string) string {
	t.Helper()

	response, body := doRequest(t, app, http.MethodPost, "/api/auth/register",
		`{"email":"`+email+`","password":"`+testPassword+`"}`, nil)
	expectStatus(t, response, body, http.StatusCreated)

	for _, cookie := range response.Cookies() {
		if cookie.Name == authCookieName && cookie.Value != "" {
			return authCookieName + "=" + cookie.Value
		}
	}
	t.Fatal("expected auth cookie after registration")
	return ""
}

func authed(cookie string) map[string]string {
	return map[string]string{"Cookie": cookie}
}
