package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/whoknows/weather/internal/domain"
	"github.com/whoknows/weather/internal/ports/mocks"
	rest "github.com/whoknows/weather/internal/transport/http"
)

type noopLogger struct{}

func (noopLogger) Infof(context.Context, string, ...any)  {}
func (noopLogger) Warnf(context.Context, string, ...any)  {}
func (noopLogger) Errorf(context.Context, string, ...any) {}

type apiBody struct {
	City    string          `json:"city"`
	Status  string          `json:"status"`
	Stale   bool            `json:"stale"`
	Weather *domain.Weather `json:"weather"`
	Message string          `json:"message"`
}

func newRouter(t *testing.T, timeout time.Duration) (http.Handler, *mocks.MockWeatherResolver, *mocks.MockWeatherResolver) {
	t.Helper()
	ctrl := gomock.NewController(t)
	api := mocks.NewMockWeatherResolver(ctrl)
	page := mocks.NewMockWeatherResolver(ctrl)

	h := rest.NewHandler(api, page, noopLogger{}, timeout, "")
	return rest.NewRouter(h, "", ""), api, page
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeAPI(t *testing.T, w *httptest.ResponseRecorder) apiBody {
	t.Helper()
	var got apiBody
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v body=%s", err, w.Body.String())
	}
	return got
}

func TestAPIWeather_Fresh(t *testing.T) {
	r, api, _ := newRouter(t, 0)

	w0 := &domain.Weather{City: "London", TemperatureC: 7.5, Condition: "Rain"}
	api.EXPECT().Resolve(gomock.Any(), "London", gomock.Any()).
		Return(domain.FetchResult{Status: domain.StatusFresh, Payload: w0})

	w := serve(r, http.MethodGet, "/api/weather?city=London")
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Weather-Status"); got != "fresh" {
		t.Fatalf("X-Weather-Status: got %q", got)
	}
	if w.Header().Get("Warning") != "" {
		t.Fatalf("fresh response must not carry Warning header")
	}
	body := decodeAPI(t, w)
	if body.Status != "fresh" || body.Stale || body.Weather == nil || body.Weather.TemperatureC != 7.5 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Message != "" {
		t.Fatalf("fresh response must not carry message, got %q", body.Message)
	}
}

func TestAPIWeather_Stale(t *testing.T) {
	r, api, _ := newRouter(t, 0)

	api.EXPECT().Resolve(gomock.Any(), "Oslo", gomock.Any()).
		Return(domain.FetchResult{Status: domain.StatusStale, Payload: &domain.Weather{City: "Oslo"}})

	w := serve(r, http.MethodGet, "/api/weather?city=Oslo")
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if got := w.Header().Get("Warning"); !strings.HasPrefix(got, "110") {
		t.Fatalf("want Warning: 110, got %q", got)
	}
	body := decodeAPI(t, w)
	if !body.Stale || body.Status != "stale" || body.Weather == nil {
		t.Fatalf("unexpected body: %+v", body)
	}
	if !strings.Contains(body.Message, "outdated") {
		t.Fatalf("stale message: got %q", body.Message)
	}
}

func TestAPIWeather_Unavailable(t *testing.T) {
	for _, st := range []domain.Status{domain.StatusUnavailableTimeout, domain.StatusUnavailableError} {
		st := st
		t.Run(string(st), func(t *testing.T) {
			r, api, _ := newRouter(t, 0)
			api.EXPECT().Resolve(gomock.Any(), "Rome", gomock.Any()).Return(domain.FetchResult{Status: st})

			w := serve(r, http.MethodGet, "/api/weather?city=Rome")
			if w.Code != http.StatusServiceUnavailable {
				t.Fatalf("want 503, got %d", w.Code)
			}
			if w.Header().Get("Retry-After") == "" {
				t.Fatalf("503 must carry Retry-After")
			}
			body := decodeAPI(t, w)
			if body.Status != string(st) || body.Weather != nil || body.Message == "" {
				t.Fatalf("unexpected body: %+v", body)
			}
		})
	}
}

func TestAPIWeather_DefaultCity(t *testing.T) {
	r, api, _ := newRouter(t, 0)

	api.EXPECT().Resolve(gomock.Any(), rest.DefaultCity, gomock.Any()).
		Return(domain.FetchResult{Status: domain.StatusFresh, Payload: &domain.Weather{City: rest.DefaultCity}})

	w := serve(r, http.MethodGet, "/api/weather")
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if body := decodeAPI(t, w); body.City != rest.DefaultCity {
		t.Fatalf("want default city, got %q", body.City)
	}
}

func TestAPIWeather_InvalidCity_400(t *testing.T) {
	r, _, _ := newRouter(t, 0)

	for _, q := range []string{"%3Cscript%3E", "%20%20", strings.Repeat("a", 86)} {
		w := serve(r, http.MethodGet, "/api/weather?city="+q)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("city=%q: want 400, got %d", q, w.Code)
		}
	}
}

func TestAPIWeather_HandlerTimeoutBoundsContext(t *testing.T) {
	r, api, _ := newRouter(t, 50*time.Millisecond)

	api.EXPECT().Resolve(gomock.Any(), "Paris", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ time.Time) domain.FetchResult {
			dl, ok := ctx.Deadline()
			if !ok || time.Until(dl) > 50*time.Millisecond {
				t.Errorf("handler timeout must bound the resolve context, deadline=%v ok=%v", dl, ok)
			}
			return domain.FetchResult{Status: domain.StatusUnavailableTimeout}
		})

	w := serve(r, http.MethodGet, "/api/weather?city=Paris")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", w.Code)
	}
}

func TestPageWeather_UsesPageResolver(t *testing.T) {
	r, _, page := newRouter(t, 0)

	page.EXPECT().Resolve(gomock.Any(), "Berlin", gomock.Any()).
		Return(domain.FetchResult{Status: domain.StatusFresh, Payload: &domain.Weather{City: "Berlin", TemperatureC: 12.5, Description: "clear sky"}})

	w := serve(r, http.MethodGet, "/weather?city=Berlin")
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("want text/html, got %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "12.5") || !strings.Contains(body, "clear sky") {
		t.Fatalf("page must render the weather, got %s", body)
	}
	if strings.Contains(body, `id="stale"`) {
		t.Fatalf("fresh page must not show the outdated note")
	}
}

func TestPageWeather_StaleNote(t *testing.T) {
	r, _, page := newRouter(t, 0)

	page.EXPECT().Resolve(gomock.Any(), "Berlin", gomock.Any()).
		Return(domain.FetchResult{Status: domain.StatusStale, Payload: &domain.Weather{City: "Berlin"}})

	w := serve(r, http.MethodGet, "/weather?city=Berlin")
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "may be outdated") {
		t.Fatalf("stale page must show the outdated note")
	}
}

func TestPageWeather_UnavailableSuggestsRetry(t *testing.T) {
	r, _, page := newRouter(t, 0)

	page.EXPECT().Resolve(gomock.Any(), "Berlin", gomock.Any()).
		Return(domain.FetchResult{Status: domain.StatusUnavailableTimeout})

	w := serve(r, http.MethodGet, "/weather?city=Berlin")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Retry") {
		t.Fatalf("unavailable page must suggest a retry, got %s", w.Body.String())
	}
}

func TestPageWeather_InvalidCityEscaped(t *testing.T) {
	r, _, _ := newRouter(t, 0)

	w := serve(r, http.MethodGet, "/weather?city=%3Cscript%3E")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "<script>") {
		t.Fatalf("user input must be escaped")
	}
}

func TestNoRoute_404(t *testing.T) {
	r, _, _ := newRouter(t, 0)

	w := serve(r, http.MethodGet, "/no-such-route")
	if w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestMethodNotAllowed_405(t *testing.T) {
	r, _, _ := newRouter(t, 0)

	w := serve(r, http.MethodPost, "/api/weather")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("want 405, got %d, body=%s", w.Code, w.Body.String())
	}
	if allow := w.Header().Get("Allow"); allow != "GET" {
		t.Fatalf("want Allow: GET, got %q", allow)
	}
}

func TestPing_200(t *testing.T) {
	r, _, _ := newRouter(t, 0)

	w := serve(r, http.MethodGet, "/ping")
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestMetrics_200(t *testing.T) {
	r, _, _ := newRouter(t, 0)

	w := serve(r, http.MethodGet, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	// Содержимое может меняться — достаточно проверить, что не пусто.
	if w.Body.Len() == 0 {
		t.Fatal("metrics body is empty")
	}
}

func TestRequestID_Echoed(t *testing.T) {
	r, _, _ := newRouter(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	req.Header.Set("X-Request-ID", "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "rid-1" {
		t.Fatalf("want X-Request-ID echoed, got %q", got)
	}
}
