package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/devreg/portal/internal/config"
	"github.com/devreg/portal/internal/logging"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Upstream.APIBaseURL = "http://devices.invalid"
	cfg.Keycloak = config.KeycloakConfig{URL: "http://keycloak.invalid", Realm: "devices", ClientID: "portal", ClientSecret: "secret"}

	srv, err := New(cfg, Backends{}, logging.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func TestNewServesRegistrationPage(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("expected html, got %q", resp.Header.Get("Content-Type"))
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestStoredDeviceSurvivesLaterRequests(t *testing.T) {
	srv := newTestServer(t)

	addDevice := func(name string) {
		form := url.Values{"name": {name}, "type": {"camera"}, "status": {"active"}}
		req := httptest.NewRequest(http.MethodPost, "/device-management/devices", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := srv.App().Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("expected redirect got %d", resp.StatusCode)
		}
	}

	addDevice("AAAAAAAAAAAA")
	for i := 0; i < 20; i++ {
		addDevice("zzzzzzzzzzzz")
	}

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	var body struct {
		Devices []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"devices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Devices) != 21 {
		t.Fatalf("expected 21 devices, got %d", len(body.Devices))
	}
	if body.Devices[0].Name != "AAAAAAAAAAAA" || body.Devices[0].Type != "camera" {
		t.Fatalf("first device changed after later requests: %+v", body.Devices[0])
	}
}
