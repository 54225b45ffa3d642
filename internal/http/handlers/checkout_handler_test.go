package handlers_test

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

const validBody = `{"items":[{"sku":"watch-001","name":"Montre Aurore Classique","price":89,"qty":1,"options":"Taille: 40 mm"}],
"profile":{"email":"claire@example.fr","full_name":"Claire Martin","line1":"12 rue des Lilas","city":"Lyon","postal_code":"69001","country":"fr"}}`

func TestCreateCheckoutSession_EmptyCart(t *testing.T) {
	p := &fakeProvider{url: "https://checkout.stripe.test/s"}
	app := newTestApp(t, testConfig(), nil, p)

	for _, body := range []string{`{}`, `{"items":[]}`, ``} {
		resp, out := postJSON(t, app, "/create-checkout-session", body)
		if resp.StatusCode != http.StatusBadRequest || out["error"] != "Cart is empty" {
			t.Fatalf("body %q: expected 400 Cart is empty, got %d %v", body, resp.StatusCode, out)
		}
	}
	if len(p.sessions)+len(p.custs) != 0 {
		t.Fatal("provider must not be called for an empty cart")
	}
}

func TestCreateCheckoutSession_MalformedBody(t *testing.T) {
	app := newTestApp(t, testConfig(), nil, &fakeProvider{})
	resp, out := postJSON(t, app, "/create-checkout-session", `{"items":`)
	if resp.StatusCode != http.StatusBadRequest || out["error"] != "Invalid request body" {
		t.Fatalf("expected 400 Invalid request body, got %d %v", resp.StatusCode, out)
	}
}

func TestCreateCheckoutSession_CoercesWrongShapes(t *testing.T) {
	p := &fakeProvider{url: "https://checkout.stripe.test/s"}
	app := newTestApp(t, testConfig(), nil, p)

	for _, body := range []string{`{"items":"watch-001"}`, `{"items":{"sku":"watch-001"}}`, `{"items":null}`} {
		resp, out := postJSON(t, app, "/create-checkout-session", body)
		if resp.StatusCode != http.StatusBadRequest || out["error"] != "Cart is empty" {
			t.Fatalf("body %s: expected 400 Cart is empty, got %d %v", body, resp.StatusCode, out)
		}
	}

	body := `{"items":[{"sku":"watch-001","name":"Montre","price":89,"qty":1}],"profile":"claire@example.fr"}`
	resp, out := postJSON(t, app, "/create-checkout-session", body)
	if resp.StatusCode != http.StatusOK || out["url"] == nil {
		t.Fatalf("expected 200 with a non-object profile, got %d %v", resp.StatusCode, out)
	}
	if len(p.custs) != 0 || p.sessions[0].CustomerEmail != "" {
		t.Fatal("a non-object profile must be ignored")
	}

	resp, out = postJSON(t, app, "/create-checkout-session", `{"items":[{"sku":"a","price":"cher","qty":1}]}`)
	if resp.StatusCode != http.StatusBadRequest || out["error"] != "Invalid request body" {
		t.Fatalf("expected 400 Invalid request body for a malformed line, got %d %v", resp.StatusCode, out)
	}
}

func TestCreateCheckoutSession_OK(t *testing.T) {
	p := &fakeProvider{url: "https://checkout.stripe.test/s"}
	app := newTestApp(t, testConfig(), nil, p)

	resp, out := postJSON(t, app, "/create-checkout-session", validBody)
	if resp.StatusCode != http.StatusOK || out["url"] != "https://checkout.stripe.test/s" {
		t.Fatalf("expected 200 with url, got %d %v", resp.StatusCode, out)
	}
	if len(p.custs) != 1 || p.custs[0].Address == nil || p.custs[0].Address.Country != "FR" {
		t.Fatalf("expected one customer with address, got %+v", p.custs)
	}
	if len(p.sessions) != 1 || p.sessions[0].CustomerID != "cus_test" {
		t.Fatalf("session must reference the created customer, got %+v", p.sessions)
	}
	if got := p.sessions[0].LineItems[0].UnitAmount; got != 8900 {
		t.Fatalf("unexpected unit amount %d", got)
	}
}

func TestCreateCheckoutSession_ProfileIgnoredWhenDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.CollectProfile = false
	p := &fakeProvider{url: "https://checkout.stripe.test/s"}
	app := newTestApp(t, cfg, nil, p)

	resp, _ := postJSON(t, app, "/create-checkout-session", validBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(p.custs) != 0 || p.sessions[0].CustomerEmail != "" {
		t.Fatal("profile must be ignored when collection is disabled")
	}
}

func TestCreateCheckoutSession_ProviderErrorHidden(t *testing.T) {
	p := &fakeProvider{err: errors.New("sk_live_secret rejected")}
	app := newTestApp(t, testConfig(), nil, p)

	var status int
	var out map[string]any
	entries := captureLogs(t, func() {
		resp, o := postJSON(t, app, "/create-checkout-session", validBody)
		status, out = resp.StatusCode, o
	})
	if status != http.StatusInternalServerError || out["error"] != "Stripe error" {
		t.Fatalf("expected 500 Stripe error, got %d %v", status, out)
	}
	if len(out) != 1 {
		t.Fatalf("response must only carry the generic error, got %v", out)
	}
	if len(p.sessions) != 0 {
		t.Fatal("session must not be created after a customer failure")
	}
	if !hasAction(entries, "checkout.create.fail") {
		t.Fatal("expected checkout.create.fail log")
	}
}

func TestCreateCheckoutSession_NoCSRFNeeded(t *testing.T) {
	p := &fakeProvider{url: "https://checkout.stripe.test/s"}
	app := newTestApp(t, testConfig(), nil, p)

	req := httptest.NewRequest(http.MethodPost, "/create-checkout-session", strings.NewReader(`{"items":[{"sku":"a","price":1,"qty":1}]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://pixmell.net")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cross-origin JSON checkout must not need a CSRF token, got %d", resp.StatusCode)
	}
}

func TestCreateCheckoutSession_RateLimited(t *testing.T) {
	app := newTestApp(t, testConfig(), nil, &fakeProvider{url: "https://checkout.stripe.test/s"})

	for i := 0; i < 11; i++ {
		resp, _ := postJSON(t, app, "/create-checkout-session", `{}`)
		if i < 10 && resp.StatusCode == http.StatusTooManyRequests {
			t.Fatalf("hit rate limit too early at %d", i)
		}
		if i == 10 && resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("expected 429 after limit, got %d", resp.StatusCode)
		}
	}
}

func TestMetricsExposeCheckoutOutcomes(t *testing.T) {
	app := newTestApp(t, testConfig(), nil, &fakeProvider{url: "https://checkout.stripe.test/s"})
	postJSON(t, app, "/create-checkout-session", validBody)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `checkout_outcomes_total{state="RESPONDED"}`) {
		t.Fatalf("checkout metric missing:\n%s", body)
	}
}

func TestMetricsScrapeAfterMixedTraffic(t *testing.T) {
	app := newTestApp(t, testConfig(), nil, &fakeProvider{url: "https://checkout.stripe.test/s"})
	b := newBrowser(t, app)

	for i := 0; i < 3; i++ {
		b.get("/shop")
		b.get("/product/watch-001")
		b.post("/cart", url.Values{"sku": {"watch-001"}})
		b.get("/cart")
		b.count()
		postJSON(t, app, "/create-checkout-session", `{}`)
	}

	for i := 0; i < 3; i++ {
		resp, body := b.get("/metrics")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("scrape %d: expected 200, got %d\n%s", i, resp.StatusCode, body)
		}
		if !strings.Contains(body, `http_requests_total{method="GET",route="/product/:sku",status="200"}`) {
			t.Fatalf("route label missing:\n%s", body)
		}
		if !strings.Contains(body, `http_requests_total{method="POST",route="/cart",status="302"}`) {
			t.Fatalf("post label missing:\n%s", body)
		}
		if strings.Contains(body, `method="GETT"`) || strings.Contains(body, `method="POSTT"`) {
			t.Fatalf("corrupted label values:\n%s", body)
		}
	}
}

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestAdminPrices(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.AdminPasswordHash = string(hash)
	app := newTestApp(t, cfg, nil, &fakeProvider{})
	b := newBrowser(t, app)

	var status int
	entries := captureLogs(t, func() {
		req := httptest.NewRequest(http.MethodGet, "/admin/prices", nil)
		req.Header.Set("Authorization", basicAuth("admin", "wrong"))
		resp, _ := b.do(req)
		status = resp.StatusCode
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if !hasAction(entries, "admin.auth.fail") {
		t.Fatal("expected admin.auth.fail log")
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/prices", nil)
	req.Header.Set("Authorization", basicAuth("admin", "s3cret"))
	resp, page := b.do(req)
	if resp.StatusCode != http.StatusOK || !strings.Contains(page, "watch-007") {
		t.Fatalf("expected price table, got %d %s", resp.StatusCode, page)
	}

	form := url.Values{"sku": {"watch-001"}, "price": {"79,90"}, "csrf": {b.cookies["csrf_"]}}
	req = formRequest("/admin/prices", form)
	req.Header.Set("Authorization", basicAuth("admin", "s3cret"))
	audit := captureLogs(t, func() {
		resp, _ = b.do(req)
	})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect after save, got %d", resp.StatusCode)
	}
	if !hasAction(audit, "admin.prices.save") {
		t.Fatal("expected admin.prices.save audit log")
	}

	// the new correction reprices carts on next read
	b.post("/cart", url.Values{"sku": {"watch-001"}})
	_, cart := b.get("/cart")
	if !strings.Contains(cart, "79,90€") {
		t.Fatalf("correction not applied to cart; page=%s", cart)
	}
}

func TestAdminNotMountedWithoutHash(t *testing.T) {
	app := newTestApp(t, testConfig(), nil, &fakeProvider{})
	resp, _ := newBrowser(t, app).get("/admin/prices")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 when admin is disabled, got %d", resp.StatusCode)
	}
}
