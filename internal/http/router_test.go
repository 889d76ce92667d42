package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/eventdesk/internal/auth"
	"github.com/geocoder89/eventdesk/internal/cache"
	"github.com/geocoder89/eventdesk/internal/config"
	"github.com/geocoder89/eventdesk/internal/db"
	"github.com/geocoder89/eventdesk/internal/domain/event"
	httpx "github.com/geocoder89/eventdesk/internal/http"
	"github.com/geocoder89/eventdesk/internal/observability"
	"github.com/geocoder89/eventdesk/internal/repo/sqlite"
	"github.com/geocoder89/eventdesk/internal/service"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	tokens *auth.Manager
}

func newTestServer(t *testing.T, withAuth bool) *testServer {
	t.Helper()

	bundb, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = bundb.Close() })

	if err := sqlite.CreateSchema(context.Background(), bundb); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	prom := observability.NewProm()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := service.NewEventService(
		sqlite.NewStore(bundb, prom),
		service.WithCache(cache.NewMemory(time.Minute)),
		service.WithMetrics(prom),
		service.WithLogger(log),
	)

	cfg := config.Config{
		Env:          "dev",
		ServiceName:  "eventdesk-test",
		MaxBodyBytes: 1 << 10,
	}

	ts := &testServer{}
	deps := httpx.Deps{Log: log, Service: svc, Prom: prom}
	if withAuth {
		ts.tokens = auth.NewManager("test-secret", time.Minute)
		deps.Tokens = ts.tokens
	}

	ts.router = httpx.NewRouter(cfg, deps)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v body=%s", v, err, w.Body.String())
	}
	return v
}

func TestLaunchScenario(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(t, http.MethodPost, "/events", `{"title":"Launch","location":"HQ"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", w.Code, w.Body.String())
	}
	created := decode[event.Event](t, w)
	if created.ID <= 0 || created.Title != "Launch" || created.Location != "HQ" {
		t.Fatalf("unexpected created event: %+v", created)
	}
	path := fmt.Sprintf("/events/%d", created.ID)

	w = ts.do(t, http.MethodGet, path, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"attendees":[]`)) {
		t.Fatalf("expected empty attendees array, got %s", w.Body.String())
	}

	w = ts.do(t, http.MethodPut, path, fmt.Sprintf(`{"id":%d,"title":"Launch Party"}`, created.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d body=%s", w.Code, w.Body.String())
	}
	res := decode[event.UpdateResult](t, w)
	if res.ID != created.ID || !res.Updated {
		t.Fatalf("unexpected update result: %+v", res)
	}

	w = ts.do(t, http.MethodGet, path, "", nil)
	got := decode[event.WithAttendees](t, w)
	if got.Title != "Launch Party" || got.Location != "HQ" {
		t.Fatalf("get after update = %+v", got.Event)
	}
}

func TestUnknownIDIsNotFoundWithBody(t *testing.T) {
	ts := newTestServer(t, false)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/events/987654", ""},
		{http.MethodGet, "/events/not-a-number", ""},
		{http.MethodPut, "/events/987654", `{"title":"x"}`},
		{http.MethodPatch, "/events/987654", `{"location":"y"}`},
		{http.MethodGet, "/events/987654/attendees", ""},
		{http.MethodPost, "/events/987654/attendees", `{"name":"Ada"}`},
	} {
		w := ts.do(t, tc.method, tc.path, tc.body, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s %s status = %d, want 404", tc.method, tc.path, w.Code)
		}
		body := decode[map[string]json.RawMessage](t, w)
		if len(body["error"]) == 0 || string(body["error"]) == "null" {
			t.Fatalf("%s %s: missing error body: %s", tc.method, tc.path, w.Body.String())
		}
	}
}

func TestListReturnsExactlyCreatedSet(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(t, http.MethodGet, "/events", "", nil)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("empty list = %d %s", w.Code, w.Body.String())
	}

	var want []int64
	for i := 0; i < 4; i++ {
		w := ts.do(t, http.MethodPost, "/events", fmt.Sprintf(`{"title":"t%d","location":"l%d"}`, i, i), nil)
		if w.Code != http.StatusCreated {
			t.Fatalf("create %d: %d", i, w.Code)
		}
		want = append(want, decode[event.Event](t, w).ID)
	}

	list := decode[[]event.Event](t, ts.do(t, http.MethodGet, "/events", "", nil))
	var got []int64
	for _, e := range list {
		got = append(got, e.ID)
	}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })

	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("listed ids %v, want %v", got, want)
	}
}

func TestAttendeesAppearOnGet(t *testing.T) {
	ts := newTestServer(t, false)

	a := decode[event.Event](t, ts.do(t, http.MethodPost, "/events", `{"title":"A","location":"x"}`, nil))
	b := decode[event.Event](t, ts.do(t, http.MethodPost, "/events", `{"title":"B","location":"y"}`, nil))

	// warm the cache so the add has to invalidate it
	ts.do(t, http.MethodGet, fmt.Sprintf("/events/%d", a.ID), "", nil)

	for _, name := range []string{"Ada", "Grace"} {
		w := ts.do(t, http.MethodPost, fmt.Sprintf("/events/%d/attendees", a.ID), fmt.Sprintf(`{"name":%q}`, name), nil)
		if w.Code != http.StatusCreated {
			t.Fatalf("add %s: %d %s", name, w.Code, w.Body.String())
		}
	}

	gotA := decode[event.WithAttendees](t, ts.do(t, http.MethodGet, fmt.Sprintf("/events/%d", a.ID), "", nil))
	if len(gotA.Attendees) != 2 || gotA.Attendees[0].Name != "Ada" || gotA.Attendees[1].Name != "Grace" {
		t.Fatalf("attendees of A = %+v", gotA.Attendees)
	}
	for _, at := range gotA.Attendees {
		if at.EventID != a.ID {
			t.Fatalf("attendee %+v belongs to another event", at)
		}
	}

	gotB := decode[event.WithAttendees](t, ts.do(t, http.MethodGet, fmt.Sprintf("/events/%d", b.ID), "", nil))
	if gotB.Attendees == nil || len(gotB.Attendees) != 0 {
		t.Fatalf("attendees of B = %#v", gotB.Attendees)
	}
}

func TestWriteGuards(t *testing.T) {
	ts := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`title=x`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("form body status = %d", w.Code)
	}

	big := fmt.Sprintf(`{"title":"%s","location":"HQ"}`, strings.Repeat("x", 4<<10))
	if w := ts.do(t, http.MethodPost, "/events", big, nil); w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized body status = %d", w.Code)
	}

	if w := ts.do(t, http.MethodDelete, "/events/1", "", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/nope", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown route status = %d", w.Code)
	}
}

func TestWritesRequireTokenWhenAuthEnabled(t *testing.T) {
	ts := newTestServer(t, true)

	if w := ts.do(t, http.MethodPost, "/events", `{"title":"Launch","location":"HQ"}`, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create status = %d", w.Code)
	}

	// the token is checked before anything about the body
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`title=x`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	anon := httptest.NewRecorder()
	ts.router.ServeHTTP(anon, req)
	if anon.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous non-JSON create status = %d, want 401", anon.Code)
	}

	token, err := ts.tokens.GenerateAccessToken("ops")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	bearer := map[string]string{"Authorization": "Bearer " + token}

	w := ts.do(t, http.MethodPost, "/events", `{"title":"Launch","location":"HQ"}`, bearer)
	if w.Code != http.StatusCreated {
		t.Fatalf("authorized create status = %d body=%s", w.Code, w.Body.String())
	}

	// reads stay public
	if w := ts.do(t, http.MethodGet, "/events", "", nil); w.Code != http.StatusOK {
		t.Fatalf("anonymous list status = %d", w.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, false)

	if w := ts.do(t, http.MethodGet, "/healthz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("healthz = %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/readyz", "", nil); w.Code != http.StatusOK {
		t.Fatalf("readyz = %d", w.Code)
	}

	ts.do(t, http.MethodGet, "/events", "", nil)

	w := ts.do(t, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("metrics output missing request counter")
	}
}

func TestCreateAndUpdateStoreSubmittedValues(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(t, http.MethodPost, "/events", `{"title":" Launch ","location":"HQ"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", w.Code, w.Body.String())
	}
	created := decode[event.Event](t, w)
	if created.Title != " Launch " {
		t.Fatalf("created title = %q, want %q", created.Title, " Launch ")
	}
	path := fmt.Sprintf("/events/%d", created.ID)

	if w := ts.do(t, http.MethodPatch, path, `{"location":" HQ "}`, nil); w.Code != http.StatusOK {
		t.Fatalf("update status = %d body=%s", w.Code, w.Body.String())
	}

	got := decode[event.WithAttendees](t, ts.do(t, http.MethodGet, path, "", nil))
	if got.Title != " Launch " || got.Location != " HQ " {
		t.Fatalf("stored %q/%q, want submitted values", got.Title, got.Location)
	}

	// whitespace-only values are still rejected on both paths
	if w := ts.do(t, http.MethodPost, "/events", `{"title":"  ","location":"HQ"}`, nil); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("blank create status = %d", w.Code)
	}
	if w := ts.do(t, http.MethodPatch, path, `{"title":"  "}`, nil); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("blank update status = %d", w.Code)
	}
}
