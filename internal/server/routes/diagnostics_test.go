package routes

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
)

func TestHealthzReportsVersion(t *testing.T) {
	app := fiber.New()
	RegisterDiagnosticRoutes(app, CacheInfo{Version: "regen-cache 0.1.0 (dev)"})

	resp, err := app.Test(httptest.NewRequest("GET", "/-/healthz", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload healthPayload
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode payload: %v (%s)", err, body)
	}
	if payload.Status != "ok" || payload.Version != "regen-cache 0.1.0 (dev)" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestCacheRouteReportsSettings(t *testing.T) {
	app := fiber.New()
	RegisterDiagnosticRoutes(app, CacheInfo{Root: "/tmp", TTL: 90 * time.Second, Origin: "http://render.local"})

	resp, err := app.Test(httptest.NewRequest("GET", "/-/cache", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	var payload cachePayload
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode payload: %v (%s)", err, body)
	}
	if payload.Root != "/tmp" || payload.TTLSeconds != 90 || payload.Origin != "http://render.local" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}
