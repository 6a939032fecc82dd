package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/agencyledger-backend/internal/authz"
	repotest "github.com/yungbote/agencyledger-backend/internal/data/repos/testutil"
	"github.com/yungbote/agencyledger-backend/internal/observability"
	"github.com/yungbote/agencyledger-backend/internal/realtime"
	"github.com/yungbote/agencyledger-backend/internal/realtime/bus"
	"github.com/yungbote/agencyledger-backend/internal/services"
)

type apiHarness struct {
	t       *testing.T
	engine  *gin.Engine
	bus     *bus.MemoryBus
	metrics *observability.Metrics
	token   string
	orgID   uuid.UUID
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := repotest.DB(t)
	log := repotest.Logger(t)
	cfg := Config{
		JWTSecretKey:         "test-secret",
		AccessTokenTTL:       time.Hour,
		AggTxTimeout:         5 * time.Second,
		ReconcileConcurrency: 2,
	}
	metrics := observability.New()
	memBus := bus.NewMemoryBus()

	reposet := wireRepos(db, log)
	aggs := wireAggregates(db, log, cfg, reposet, metrics)
	serviceset := wireServices(db, log, cfg, reposet, aggs, memBus)
	server := wireServer(log, cfg, metrics, wireHandlers(log, db, serviceset), wireMiddleware(log, serviceset))

	org := repotest.SeedOrganization(t, context.Background(), db, "USD")
	token, err := serviceset.Tokens.Issue(authz.Principal{UserID: uuid.New(), OrganizationID: org.ID, Role: authz.RoleOwner})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return &apiHarness{t: t, engine: server.Engine, bus: memBus, metrics: metrics, token: token, orgID: org.ID}
}

func (h *apiHarness) do(method, path string, body any, out any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			h.t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec
}

func (h *apiHarness) expect(rec *httptest.ResponseRecorder, status int) {
	h.t.Helper()
	if rec.Code != status {
		h.t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}

// keyed decodes the object stored under key, matching handlers that respond with gin.H{key: view}.
type keyed struct {
	key string
	out any
}

func wrapped(key string, out any) *keyed { return &keyed{key: key, out: out} }

func (k *keyed) UnmarshalJSON(b []byte) error {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(b, &body); err != nil {
		return err
	}
	raw, ok := body[k.key]
	if !ok {
		return fmt.Errorf("response has no %q field", k.key)
	}
	return json.Unmarshal(raw, k.out)
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return env.Error.Code
}

func TestLedgerFlowOverHTTP(t *testing.T) {
	h := newAPIHarness(t)

	var project services.ProjectView
	h.expect(h.do(http.MethodPost, "/api/projects", map[string]any{"name": "Relaunch", "budget": "10000"}, wrapped("project", &project)), http.StatusCreated)

	var assignment services.AssignmentView
	h.expect(h.do(http.MethodPost, "/api/projects/"+project.ID.String()+"/assignments",
		map[string]any{"member_id": uuid.New(), "allocated_budget": "6000"}, wrapped("assignment", &assignment)), http.StatusCreated)

	var obligation services.ObligationView
	h.expect(h.do(http.MethodPost, "/api/obligations", map[string]any{
		"kind":          "team",
		"project_id":    project.ID,
		"assignment_id": assignment.ID,
		"total_amount":  "1000",
	}, wrapped("obligation", &obligation)), http.StatusCreated)
	if obligation.PaymentStatus != "pending" {
		t.Fatalf("expected pending obligation, got %q", obligation.PaymentStatus)
	}

	entriesPath := "/api/obligations/" + obligation.ID.String() + "/entries"
	var first services.EntryMutationView
	h.expect(h.do(http.MethodPost, entriesPath, map[string]any{"amount": "400.00", "category": "advance"}, &first), http.StatusCreated)
	if first.Totals.ObligationStatus != "partial" {
		t.Fatalf("expected partial, got %q", first.Totals.ObligationStatus)
	}
	if first.Totals.ProjectTotalPaid == nil || first.Totals.ProjectTotalPaid.Amount != "400.00" {
		t.Fatalf("unexpected project total: %+v", first.Totals.ProjectTotalPaid)
	}

	var second services.EntryMutationView
	h.expect(h.do(http.MethodPost, entriesPath, map[string]any{"amount": 600, "category": "final"}, &second), http.StatusCreated)
	if second.Totals.ObligationStatus != "completed" {
		t.Fatalf("expected completed, got %q", second.Totals.ObligationStatus)
	}

	var entries []services.EntryView
	h.expect(h.do(http.MethodGet, entriesPath, nil, wrapped("entries", &entries)), http.StatusOK)
	if len(entries) != 2 || entries[0].Seq != 1 || entries[1].Seq != 2 {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	var removed services.EntryMutationView
	h.expect(h.do(http.MethodDelete, "/api/entries/"+second.Entry.ID.String(), nil, &removed), http.StatusOK)
	if removed.Totals.ObligationStatus != "partial" {
		t.Fatalf("expected partial after removal, got %q", removed.Totals.ObligationStatus)
	}

	var got services.ProjectView
	h.expect(h.do(http.MethodGet, "/api/projects/"+project.ID.String(), nil, wrapped("project", &got)), http.StatusOK)
	if got.TotalPaid.Amount != "400.00" {
		t.Fatalf("expected project total 400.00, got %s", got.TotalPaid.Amount)
	}

	changed := 0
	for _, ev := range h.bus.Published() {
		if ev.Type == realtime.EventTotalsChanged {
			changed++
		}
	}
	if changed != 3 {
		t.Fatalf("expected 3 totals events, got %d", changed)
	}
}

func TestHTTPErrorMapping(t *testing.T) {
	h := newAPIHarness(t)

	var project services.ProjectView
	h.expect(h.do(http.MethodPost, "/api/projects", map[string]any{"name": "Ops"}, wrapped("project", &project)), http.StatusCreated)
	var general services.ObligationView
	h.expect(h.do(http.MethodPost, "/api/obligations", map[string]any{"kind": "general", "description": "hosting"}, wrapped("obligation", &general)), http.StatusCreated)

	entriesPath := "/api/obligations/" + general.ID.String() + "/entries"
	rec := h.do(http.MethodPost, entriesPath, map[string]any{"amount": "0"}, nil)
	h.expect(rec, http.StatusUnprocessableEntity)
	if code := errorCode(t, rec); code != "invalid_amount" {
		t.Fatalf("expected invalid_amount, got %q", code)
	}

	rec = h.do(http.MethodPost, entriesPath, map[string]any{"amount": "10.005"}, nil)
	h.expect(rec, http.StatusUnprocessableEntity)

	rec = h.do(http.MethodPost, "/api/obligations", map[string]any{"kind": "team", "project_id": project.ID}, nil)
	h.expect(rec, http.StatusUnprocessableEntity)
	if code := errorCode(t, rec); code != "invalid_obligation_shape" {
		t.Fatalf("expected invalid_obligation_shape, got %q", code)
	}

	rec = h.do(http.MethodDelete, "/api/entries/"+uuid.NewString(), nil, nil)
	h.expect(rec, http.StatusNotFound)

	rec = h.do(http.MethodGet, "/api/obligations/not-a-uuid", nil, nil)
	h.expect(rec, http.StatusBadRequest)

	rec = h.do(http.MethodGet, "/api/obligations/"+uuid.Nil.String()+"/entries", nil, nil)
	h.expect(rec, http.StatusNotFound)
	if code := errorCode(t, rec); code != "obligation_not_found" {
		t.Fatalf("expected obligation_not_found, got %q", code)
	}

	h.token = ""
	rec = h.do(http.MethodGet, "/api/projects", nil, nil)
	h.expect(rec, http.StatusUnauthorized)
	if code := errorCode(t, rec); code != "unauthenticated" {
		t.Fatalf("expected unauthenticated, got %q", code)
	}
}

func TestMetricsEndpointReportsAggregateWrites(t *testing.T) {
	h := newAPIHarness(t)
	var general services.ObligationView
	h.expect(h.do(http.MethodPost, "/api/obligations", map[string]any{"kind": "general"}, wrapped("obligation", &general)), http.StatusCreated)
	h.expect(h.do(http.MethodPost, "/api/obligations/"+general.ID.String()+"/entries", map[string]any{"amount": "12.50"}, nil), http.StatusCreated)

	h.token = ""
	rec := h.do(http.MethodGet, "/metrics", nil, nil)
	h.expect(rec, http.StatusOK)
	body := rec.Body.String()
	for _, want := range []string{"al_aggregate_operations_total", "al_api_requests_total"} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %s:\n%s", want, body)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" http://a.test , ,http://b.test")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("unexpected list: %v", got)
	}
	if splitList("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}
