package web_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"weather-forecast/providers"
	"weather-forecast/session"
	"weather-forecast/views"
	"weather-forecast/web"
)

const sampleForecast = `{"forecast":[{"date":"2024-01-01","meantemp":20,"humidity":55,"wind_speed":3.456,"meanpressure":1012.3}]}`

type testEnv struct {
	app      *httptest.Server
	calls    *int32
	lastBody *atomic.Value
}

// newTestEnv поднимает фейковый сервер прогнозов и фронтенд поверх него
func newTestEnv(t *testing.T, status int, body string) *testEnv {
	t.Helper()

	var calls int32
	lastBody := &atomic.Value{}
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		data, _ := io.ReadAll(r.Body)
		lastBody.Store(string(data))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(api.Close)

	renderer, err := views.NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	submitter := session.NewSubmitter(
		providers.NewForecastAPIProvider(api.URL+"/get-forecast/", 0),
		session.NewHandoffStore(10),
		true,
	)
	app := httptest.NewServer(web.NewServer(submitter, renderer).Router())
	t.Cleanup(app.Close)

	return &testEnv{app: app, calls: &calls, lastBody: lastBody}
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func submitForm(t *testing.T, env *testEnv, lat, lon, days string) *http.Response {
	t.Helper()
	resp, err := noRedirectClient().PostForm(env.app.URL+"/", url.Values{
		"latitude":  {lat},
		"longitude": {lon},
		"days":      {days},
	})
	if err != nil {
		t.Fatalf("post form failed: %v", err)
	}
	return resp
}

func TestIndex(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, sampleForecast)

	resp, err := http.Get(env.app.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	page := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	for _, want := range []string{`name="latitude"`, `name="longitude"`, `name="days"`, "required", "Get Forecast"} {
		if !strings.Contains(page, want) {
			t.Errorf("form page missing %q", want)
		}
	}
}

func TestSubmitAndDisplay(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, sampleForecast)

	resp := submitForm(t, env, "60.17", "24.94", "1")
	readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", resp.StatusCode)
	}
	if *env.calls != 1 {
		t.Errorf("expected exactly one POST, got %d", *env.calls)
	}

	var sent map[string]any
	if err := json.Unmarshal([]byte(env.lastBody.Load().(string)), &sent); err != nil {
		t.Fatal(err)
	}
	if sent["latitude"] != 60.17 || sent["longitude"] != 24.94 || sent["days"] != float64(1) {
		t.Errorf("unexpected request body %v", sent)
	}

	location := resp.Header.Get("Location")
	if !strings.HasPrefix(location, "/forecast?state=") {
		t.Fatalf("unexpected redirect target %q", location)
	}

	resp, err := http.Get(env.app.URL + location)
	if err != nil {
		t.Fatal(err)
	}
	page := readBody(t, resp)
	for _, want := range []string{"2024-01-01", "20.00", "55.00", "3.46", "1012.30"} {
		if !strings.Contains(page, want) {
			t.Errorf("results page missing %q", want)
		}
	}
	if strings.Contains(page, views.NoDataMessage) {
		t.Error("results page must not show the empty state")
	}

	// состояние читается один раз
	resp, err = http.Get(env.app.URL + location)
	if err != nil {
		t.Fatal(err)
	}
	if page := readBody(t, resp); !strings.Contains(page, views.NoDataMessage) {
		t.Error("second visit must show the empty state")
	}
}

func TestSubmit_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t, http.StatusInternalServerError, `{"detail":"model not loaded"}`)

	resp := submitForm(t, env, "1", "2", "3")
	page := readBody(t, resp)

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Location") != "" {
		t.Error("no navigation must happen on failure")
	}
	if !strings.Contains(page, views.FetchFailedMessage) {
		t.Error("error message must be shown inline")
	}
	if !strings.Contains(page, `class="loading" hidden`) {
		t.Error("loading indicator must be cleared")
	}
	if strings.Contains(page, "model not loaded") {
		t.Error("upstream details must not leak into the page")
	}
}

func TestSubmit_MissingField(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, sampleForecast)

	resp := submitForm(t, env, "1", "", "3")
	page := readBody(t, resp)

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if !strings.Contains(page, "Longitude is required") {
		t.Error("missing field must be reported")
	}
	if *env.calls != 0 {
		t.Errorf("no request must be sent, got %d", *env.calls)
	}
}

func TestForecast_DirectNavigation(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, sampleForecast)

	for _, path := range []string{"/forecast", "/forecast?state=unknown"} {
		resp, err := http.Get(env.app.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		page := readBody(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: unexpected status %d", path, resp.StatusCode)
		}
		if !strings.Contains(page, views.NoDataMessage) {
			t.Errorf("%s: expected empty state", path)
		}
		if strings.Contains(page, `class="entry"`) {
			t.Errorf("%s: no entry blocks expected", path)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, sampleForecast)

	resp, err := http.Get(env.app.URL + "/settings")
	if err != nil {
		t.Fatal(err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestAPIForecast(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, sampleForecast)

	resp, err := http.Post(env.app.URL+"/api/forecast", "application/json",
		strings.NewReader(`{"latitude":60.17,"longitude":"24.94","days":1}`))
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, body)
	}
	if strings.TrimSpace(body) != sampleForecast {
		t.Errorf("expected upstream body passthrough, got %s", body)
	}
}

func TestAPIForecast_Failure(t *testing.T) {
	env := newTestEnv(t, http.StatusNotFound, `{"detail":"Failed to fetch weather data."}`)

	resp, err := http.Post(env.app.URL+"/api/forecast", "application/json",
		strings.NewReader(`{"latitude":1,"longitude":2,"days":3}`))
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}

	var out map[string]string
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatal(err)
	}
	if out["error"] != views.FetchFailedMessage {
		t.Errorf("unexpected error %q", out["error"])
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, sampleForecast)

	resp, err := http.Get(env.app.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(readBody(t, resp)), &out); err != nil {
		t.Fatal(err)
	}
	if out["status"] != "ok" || out["provider"] != "ForecastAPI" {
		t.Errorf("unexpected health payload %v", out)
	}
}

func TestAPIForecast_BodyTooLarge(t *testing.T) {
	var calls int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(sampleForecast))
	}))
	defer api.Close()

	renderer, err := views.NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	submitter := session.NewSubmitter(providers.NewForecastAPIProvider(api.URL, 0), session.NewHandoffStore(10), true)
	router := web.NewServer(submitter, renderer).Router()

	body := `{"latitude":"` + strings.Repeat("1", 1<<17) + `","longitude":2,"days":3}`
	req := httptest.NewRequest(http.MethodPost, "/api/forecast", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("no upstream request expected, got %d", n)
	}
}
