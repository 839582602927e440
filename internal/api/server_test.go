package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/consult-portal/internal/catalog"
	"github.com/terra-clan/consult-portal/internal/config"
	"github.com/terra-clan/consult-portal/internal/events"
	"github.com/terra-clan/consult-portal/internal/health"
	"github.com/terra-clan/consult-portal/internal/intake"
	"github.com/terra-clan/consult-portal/internal/models"
	"github.com/terra-clan/consult-portal/internal/session"
	"github.com/terra-clan/consult-portal/internal/upload"
	"github.com/terra-clan/consult-portal/pkg/client"
)

// fakeMarketplace is an in-memory stand-in for the marketplace backend
type fakeMarketplace struct {
	mu        sync.Mutex
	intake    models.IntakeRecord
	completes []int
	uploads   int
	pricing   []models.ConsultantServicePricing
	setCalls  int
	bookings  []models.BookingData
}

var users = map[string]models.User{
	"client-token":     {ID: "u-client", Email: "ana@example.test", Name: "Ana", Role: models.RoleClient},
	"consultant-token": {ID: "u-cons", Email: "rcic@example.test", Name: "Sam", Role: models.RoleConsultant, ConsultantID: "c-1"},
	"admin-token":      {ID: "u-admin", Email: "ops@example.test", Name: "Ops", Role: models.RoleAdmin},
}

var hourOption = models.ServiceDurationOption{
	ID: "opt-60", ServiceTemplateID: "tpl-1", DurationMinutes: 60, DurationLabel: "1 hour",
	MinPrice: 50, MaxPrice: 150, IsActive: true,
}

func (m *fakeMarketplace) handler() http.Handler {
	r := chi.NewRouter()
	writeJSON := func(w http.ResponseWriter, status int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}

	r.Get("/health/", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, 200, map[string]string{"status": "ok"}) })
	r.Get("/auth/me/", func(w http.ResponseWriter, r *http.Request) {
		user, ok := users[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
		if !ok {
			writeJSON(w, 401, map[string]string{"detail": "Invalid token."})
			return
		}
		writeJSON(w, 200, user)
	})

	r.Get("/intake/", func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()
		writeJSON(w, 200, m.intake)
	})
	r.Put("/intake/stages/{stage}/", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Data map[string]interface{} `json:"data"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		m.mu.Lock()
		defer m.mu.Unlock()
		m.intake.Data = body.Data
		writeJSON(w, 200, m.intake)
	})
	r.Post("/intake/stages/{stage}/complete/", func(w http.ResponseWriter, r *http.Request) {
		var stage int
		fmt.Sscanf(chi.URLParam(r, "stage"), "%d", &stage)
		m.mu.Lock()
		defer m.mu.Unlock()
		m.completes = append(m.completes, stage)
		m.intake.CompletedStages = append(m.intake.CompletedStages, stage)
		writeJSON(w, 200, m.intake)
	})
	r.Post("/intake/documents/", func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		_, fh, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, 400, map[string]string{"detail": "file missing"})
			return
		}
		m.mu.Lock()
		m.uploads++
		id := fmt.Sprintf("doc-%d", m.uploads)
		m.mu.Unlock()
		writeJSON(w, 201, models.UploadedDocument{ID: id, FileName: fh.Filename, FileSize: fh.Size, Stage: 12})
	})
	r.Delete("/intake/documents/{id}/", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(204) })

	r.Get("/service-templates/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []models.ServiceTemplate{{ID: "tpl-1", Name: "Study permit review"}, {ID: "tpl-broken", Name: "Broken"}})
	})
	r.Get("/service-duration-options/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("service_template_id") == "tpl-broken" {
			writeJSON(w, 500, map[string]string{"detail": "boom"})
			return
		}
		writeJSON(w, 200, []models.ServiceDurationOption{hourOption})
	})
	r.Get("/consultants/{id}/services/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []models.ConsultantService{{ID: "cs-1", ConsultantID: chi.URLParam(r, "id"), ServiceTemplateID: "tpl-1"}})
	})
	r.Get("/consultant-services/{id}/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, models.ConsultantService{ID: chi.URLParam(r, "id"), ConsultantID: "c-1", ServiceTemplateID: "tpl-1"})
	})
	r.Get("/consultant-services/{id}/pricing/", func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()
		writeJSON(w, 200, m.pricing)
	})
	r.Post("/consultant-services/set-pricing/", func(w http.ResponseWriter, r *http.Request) {
		var req models.SetPricingRequest
		json.NewDecoder(r.Body).Decode(&req)
		m.mu.Lock()
		defer m.mu.Unlock()
		m.setCalls++
		m.pricing = nil
		for _, p := range req.PricingOptions {
			m.pricing = append(m.pricing, models.ConsultantServicePricing{
				ConsultantServiceID: req.ConsultantServiceID, DurationOptionID: p.DurationOptionID, Price: p.Price, IsActive: p.IsActive,
			})
		}
		writeJSON(w, 200, m.pricing)
	})
	r.Post("/bookings/", func(w http.ResponseWriter, r *http.Request) {
		var data models.BookingData
		json.NewDecoder(r.Body).Decode(&data)
		m.mu.Lock()
		m.bookings = append(m.bookings, data)
		m.mu.Unlock()
		writeJSON(w, 201, models.Booking{ID: "b-1", ConsultantServiceID: data.ConsultantServiceID, Price: data.Price, Status: "pending"})
	})

	return r
}

type memoryDrafts struct {
	mu     sync.Mutex
	drafts map[string]*models.StageDraft
}

func draftKey(userID string, stage int) string { return fmt.Sprintf("%s/%d", userID, stage) }

func (d *memoryDrafts) SaveDraft(_ context.Context, draft *models.StageDraft) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drafts[draftKey(draft.UserID, draft.Stage)] = draft
	return nil
}

func (d *memoryDrafts) GetDraft(_ context.Context, userID string, stage int) (*models.StageDraft, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.drafts[draftKey(userID, stage)], nil
}

func (d *memoryDrafts) ListDrafts(_ context.Context, userID string) ([]*models.StageDraft, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*models.StageDraft
	for _, draft := range d.drafts {
		if draft.UserID == userID {
			out = append(out, draft)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stage < out[j].Stage })
	return out, nil
}

func (d *memoryDrafts) DeleteDraft(_ context.Context, userID string, stage int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.drafts, draftKey(userID, stage))
	return nil
}

func (d *memoryDrafts) DeleteDraftsOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }
func (d *memoryDrafts) Ping(context.Context) error                                    { return nil }
func (d *memoryDrafts) Close() error                                                  { return nil }

type testEnv struct {
	market *fakeMarketplace
	drafts *memoryDrafts
	portal *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	market := &fakeMarketplace{intake: models.IntakeRecord{ID: "in-1", Data: map[string]interface{}{}, CompletedStages: []int{}}}
	backendSrv := httptest.NewServer(market.handler())
	t.Cleanup(backendSrv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	validator, err := intake.NewValidator()
	require.NoError(t, err)

	backend := client.NewClient(backendSrv.URL, "")
	registry := health.NewRegistry(time.Second)
	registry.Register("backend", health.NewBackendChecker(backend))
	registry.Register("redis", health.NewRedisChecker(rdb))

	drafts := &memoryDrafts{drafts: map[string]*models.StageDraft{}}
	srv := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 8080, RequestTimeout: 5 * time.Second}, Deps{
		Backend:           backend,
		Sessions:          session.NewStore(rdb, time.Hour),
		Drafts:            drafts,
		Events:            events.NewBus(rdb),
		Catalog:           catalog.NewLoader(),
		Validator:         validator,
		Health:            registry,
		UploadLimits:      upload.DefaultLimits,
		UploadConcurrency: 2,
	})

	portal := httptest.NewServer(srv.Router())
	t.Cleanup(portal.Close)

	return &testEnv{market: market, drafts: drafts, portal: portal}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path, sessionID string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.portal.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("Authorization", "Bearer "+sessionID)
	}

	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (e *testEnv) login(t *testing.T, token string) string {
	t.Helper()
	status, env := e.do(t, http.MethodPost, "/api/v1/session", "", map[string]string{"token": token})
	require.Equal(t, http.StatusCreated, status)

	var resp models.CreateSessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)

	status, body = env.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), `"backend":"ok"`)
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/v1/session", "", map[string]string{"token": "bogus"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "backend_unauthorized", body.Error.Code)

	status, _ = env.do(t, http.MethodGet, "/api/v1/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	id := env.login(t, "client-token")

	status, body = env.do(t, http.MethodGet, "/api/v1/session", id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), `"u-client"`)
	assert.NotContains(t, string(body.Data), "client-token")

	status, _ = env.do(t, http.MethodDelete, "/api/v1/session", id, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, "/api/v1/session", id, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid_session", body.Error.Code)
}

func TestPermissions(t *testing.T) {
	env := newTestEnv(t)
	consultant := env.login(t, "consultant-token")
	clientID := env.login(t, "client-token")

	status, body := env.do(t, http.MethodPut, "/api/v1/intake/stages/1", consultant, map[string]interface{}{
		"data": map[string]interface{}{"location": "inside_canada"},
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "permission_denied", body.Error.Code)

	status, _ = env.do(t, http.MethodGet, "/api/v1/consultant/services", clientID, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(t, http.MethodPost, "/api/v1/catalog/templates/tpl-1/duration-options", consultant, map[string]interface{}{})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestOptions(t *testing.T) {
	env := newTestEnv(t)
	id := env.login(t, "client-token")

	status, body := env.do(t, http.MethodGet, "/api/v1/options/urgency", id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), `"urgency"`)

	status, _ = env.do(t, http.MethodGet, "/api/v1/options/nope", id, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestIntakeStageFlow(t *testing.T) {
	env := newTestEnv(t)
	id := env.login(t, "client-token")

	status, _ := env.do(t, http.MethodPut, "/api/v1/intake/stages/13", id, map[string]interface{}{
		"data": map[string]interface{}{"x": 1},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := env.do(t, http.MethodPut, "/api/v1/intake/stages/1", id, map[string]interface{}{
		"data": map[string]interface{}{"location": "inside_canada", "client_role": "applicant"},
	})
	require.Equal(t, http.StatusOK, status, body.Error)

	status, body = env.do(t, http.MethodPost, "/api/v1/intake/stages/1/complete", id, nil)
	require.Equal(t, http.StatusOK, status)

	var progress models.IntakeProgress
	require.NoError(t, json.Unmarshal(body.Data, &progress))
	assert.InDelta(t, 100.0/12, progress.CompletionPercentage, 0.001)
	assert.Equal(t, 2, progress.NextIncompleteStage)

	status, body = env.do(t, http.MethodPost, "/api/v1/intake/stages/2/complete", id, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "stage_incomplete", body.Error.Code)
	assert.Contains(t, string(body.Error.Details), "full_name")
	assert.Equal(t, []int{1}, env.market.completes)
}

func TestIntakeRejectsMistypedFields(t *testing.T) {
	env := newTestEnv(t)
	id := env.login(t, "client-token")

	status, body := env.do(t, http.MethodPut, "/api/v1/intake/stages/5", id, map[string]interface{}{
		"data": map[string]interface{}{"has_dependents": "yes"},
	})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body.Error.Code)
}

func TestIntakeRejectsUnknownChoices(t *testing.T) {
	env := newTestEnv(t)
	id := env.login(t, "client-token")

	status, body := env.do(t, http.MethodPut, "/api/v1/intake/stages/1", id, map[string]interface{}{
		"data": map[string]interface{}{"location": "moon", "client_role": "applicant"},
	})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Contains(t, body.Error.Message, "location")
	assert.Empty(t, env.market.intake.Data)
}

func TestDrafts(t *testing.T) {
	env := newTestEnv(t)
	id := env.login(t, "client-token")

	status, _ := env.do(t, http.MethodGet, "/api/v1/intake/stages/3/draft", id, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPut, "/api/v1/intake/stages/3/draft", id, map[string]interface{}{
		"data": map[string]interface{}{"primary_goal": "study"},
	})
	require.Equal(t, http.StatusOK, status)

	status, body := env.do(t, http.MethodGet, "/api/v1/intake/stages/3/draft", id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), "study")

	status, _ = env.do(t, http.MethodPut, "/api/v1/intake/stages/3", id, map[string]interface{}{
		"data": map[string]interface{}{"primary_goal": "study", "target_program": "study_permit"},
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, http.MethodGet, "/api/v1/intake/stages/3/draft", id, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListDrafts(t *testing.T) {
	env := newTestEnv(t)
	id := env.login(t, "client-token")
	other := env.login(t, "admin-token")

	for _, stage := range []int{7, 3} {
		status, _ := env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/intake/stages/%d/draft", stage), id, map[string]interface{}{
			"data": map[string]interface{}{"note": stage},
		})
		require.Equal(t, http.StatusOK, status)
	}
	status, _ := env.do(t, http.MethodPut, "/api/v1/intake/stages/5/draft", other, map[string]interface{}{
		"data": map[string]interface{}{"note": "admin"},
	})
	require.Equal(t, http.StatusOK, status)

	status, body := env.do(t, http.MethodGet, "/api/v1/intake/drafts", id, nil)
	require.Equal(t, http.StatusOK, status)

	var listed struct {
		Drafts []models.StageDraft `json:"drafts"`
		Total  int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &listed))
	assert.Equal(t, 2, listed.Total)
	require.Len(t, listed.Drafts, 2)
	assert.Equal(t, 3, listed.Drafts[0].Stage)
	assert.Equal(t, 7, listed.Drafts[1].Stage)
}

func TestUploadDocuments(t *testing.T) {
	env := newTestEnv(t)
	id := env.login(t, "client-token")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	addFile := func(name, contentType, content string) {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, name))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		part.Write([]byte(content))
	}
	addFile("passport.pdf", "application/pdf", "%PDF-1.4")
	addFile("notes.txt", "text/plain", "hello")
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, env.portal.URL+"/api/v1/intake/documents", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+id)

	status, body := env.send(t, req)
	require.Equal(t, http.StatusOK, status)

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, upload.StatusStored, resp.Results[0].Status)
	assert.Equal(t, upload.StatusRejected, resp.Results[1].Status)
	require.Len(t, resp.Documents, 1)
	assert.Equal(t, "doc-1", resp.Documents[0].ID)
	assert.Equal(t, 1, env.market.uploads)

	docs, err := intake.Documents(env.market.intake.Data)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	status, body = env.do(t, http.MethodDelete, "/api/v1/intake/documents/doc-1", id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), `"documents":[]`)
}

func TestTemplatesWithCounts(t *testing.T) {
	env := newTestEnv(t)
	id := env.login(t, "client-token")

	status, body := env.do(t, http.MethodGet, "/api/v1/catalog/templates", id, nil)
	require.Equal(t, http.StatusOK, status)

	var resp struct {
		Templates []models.TemplateOverview `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	require.Len(t, resp.Templates, 2)
	assert.Equal(t, 1, resp.Templates[0].DurationOptionCount)
	assert.Equal(t, 0, resp.Templates[1].DurationOptionCount)
}

func TestConsultantPricing(t *testing.T) {
	env := newTestEnv(t)
	id := env.login(t, "consultant-token")

	status, body := env.do(t, http.MethodGet, "/api/v1/consultant/services", id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), `"cs-1"`)

	status, body = env.do(t, http.MethodPut, "/api/v1/consultant/services/cs-1/pricing", id, map[string]interface{}{
		"pricing_options": []models.PricingOption{{DurationOptionID: "opt-60", Price: 151, IsActive: true}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "invalid_pricing", body.Error.Code)
	assert.Zero(t, env.market.setCalls)

	status, body = env.do(t, http.MethodPut, "/api/v1/consultant/services/cs-1/pricing", id, map[string]interface{}{
		"pricing_options": []models.PricingOption{{DurationOptionID: "opt-60", Price: 150, IsActive: true}},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, env.market.setCalls)

	var resp pricingResponse
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	require.Len(t, resp.Pricing, 1)
	assert.Equal(t, 150.0, resp.Pricing[0].Price)
}

func TestBooking(t *testing.T) {
	env := newTestEnv(t)
	id := env.login(t, "client-token")

	data := models.BookingData{
		ConsultantID:        "c-1",
		ConsultantServiceID: "cs-1",
		DurationOptionID:    "opt-60",
		Price:               120,
		ScheduledAt:         time.Now().Add(72 * time.Hour),
		PaymentMethod:       "card",
		AcceptedTerms:       true,
	}

	status, body := env.do(t, http.MethodPost, "/api/v1/bookings/validate", id, map[string]interface{}{
		"step": "payment",
		"data": models.BookingData{},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, string(body.Error.Details), "payment_method")

	status, _ = env.do(t, http.MethodPost, "/api/v1/bookings", id, data)
	require.Equal(t, http.StatusCreated, status)
	assert.Len(t, env.market.bookings, 1)

	data.Price = 10
	status, body = env.do(t, http.MethodPost, "/api/v1/bookings", id, data)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "invalid_booking", body.Error.Code)
	assert.Len(t, env.market.bookings, 1)
}

func TestIntakeEventStream(t *testing.T) {
	env := newTestEnv(t)
	id := env.login(t, "client-token")

	wsURL := "ws" + strings.TrimPrefix(env.portal.URL, "http") + "/api/v1/intake/events?session_token=" + id
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// the subscription is live before the upgrade completes
	status, _ := env.do(t, http.MethodPut, "/api/v1/intake/stages/1", id, map[string]interface{}{
		"data": map[string]interface{}{"location": "inside_canada"},
	})
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var evt events.Event
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, events.TypeStageSaved, evt.Type)
	assert.Equal(t, 1, evt.Stage)
	assert.Equal(t, "u-client", evt.UserID)
}
