package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"

	"mintslip-workers/internal/common/camunda"
	"mintslip-workers/internal/common/config"
	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/logger"
	"mintslip-workers/internal/common/payments"
	"mintslip-workers/internal/documents"
	"mintslip-workers/internal/models"
	"mintslip-workers/internal/preview"
	"mintslip-workers/internal/render"
	"mintslip-workers/internal/repository"
)

const (
	goodToken   = "good-token"
	otherToken  = "other-token"
	testOrigin  = "https://app.mintslip.test"
	testWebhook = "whsec_test"
)

// ==========================
// Fakes
// ==========================

type fakeAuth struct{}

func (fakeAuth) session(token string) (*models.Session, error) {
	switch token {
	case goodToken:
		return &models.Session{Token: token, BackendToken: "backend-1", User: models.User{ID: "user-1", Email: "jane@example.com"}}, nil
	case otherToken:
		return &models.Session{Token: token, User: models.User{ID: "user-2"}}, nil
	}
	return nil, errors.NewAuthenticationFailedError("token is invalid")
}

func (a fakeAuth) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	if creds.Password != "secret" {
		return nil, errors.NewBackendRequestFailedError(http.StatusUnauthorized, "Invalid email or password")
	}
	return a.session(goodToken)
}

func (a fakeAuth) Signup(ctx context.Context, req models.SignupRequest) (*models.Session, error) {
	return a.session(goodToken)
}

func (a fakeAuth) Logout(ctx context.Context, token string) (bool, error) {
	_, err := a.session(token)
	return err == nil, err
}

func (a fakeAuth) Authenticate(ctx context.Context, token string) (*models.Session, string, error) {
	s, err := a.session(token)
	if err != nil {
		return nil, "", err
	}
	return s, "sid-" + s.User.ID, nil
}

func (a fakeAuth) RefreshUser(ctx context.Context, token string) (*models.User, error) {
	s, err := a.session(token)
	if err != nil {
		return nil, err
	}
	return &s.User, nil
}

type mockPayments struct {
	mock.Mock
}

func (m *mockPayments) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPayments) UpdateStatus(ctx context.Context, reference string, status models.PaymentStatus) error {
	return m.Called(ctx, reference, status).Error(0)
}

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) StartProcess(ctx context.Context, processID string, variables interface{}) (*camunda.ProcessInstance, error) {
	args := m.Called(ctx, processID, variables)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*camunda.ProcessInstance), args.Error(1)
}

func (m *mockEngine) PublishMessage(ctx context.Context, name, correlationKey string, variables map[string]interface{}) error {
	return m.Called(ctx, name, correlationKey, variables).Error(0)
}

type fakeDocuments struct {
	docs      map[string]*models.GeneratedDocument
	lastQuery repository.DocumentQuery
}

func (f *fakeDocuments) Get(ctx context.Context, id, userID string) (*models.GeneratedDocument, error) {
	doc, ok := f.docs[id]
	if !ok || doc.UserID != userID {
		return nil, repository.ErrDocumentNotFound
	}
	return doc, nil
}

func (f *fakeDocuments) Search(ctx context.Context, q repository.DocumentQuery) (*repository.DocumentPage, error) {
	f.lastQuery = q
	page := &repository.DocumentPage{}
	for _, d := range f.docs {
		if d.UserID == q.UserID {
			page.Documents = append(page.Documents, *d)
		}
	}
	page.Total = int64(len(page.Documents))
	return page, nil
}

type testEnv struct {
	server   *Server
	forms    *documents.FormSessionStore
	payments *mockPayments
	engine   *mockEngine
	docs     *fakeDocuments
	redis    *miniredis.Miniredis
}

func createTestConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Version: "test"},
		Camunda: config.CamundaConfig{ProcessID: "document-generation"},
		Server: config.ServerConfig{
			AllowedOrigins: []string{testOrigin},
			RateLimit:      config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		},
		Payments:  config.PaymentsConfig{Stripe: config.StripeConfig{WebhookSecret: testWebhook}},
		Documents: config.DocumentsConfig{MaxUploadBytes: 1 << 20},
		Search:    config.SearchConfig{DocumentsIndex: "mintslip-documents", MaxResults: 20},
	}
}

func createTestServer(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := logger.NewTestLogger(t)
	forms := documents.NewFormSessionStore(rdb, time.Hour)
	renderer, err := render.NewRenderer()
	require.NoError(t, err)
	previews := preview.NewService(forms, renderer, 10*time.Millisecond, "PREVIEW", 1, log)
	t.Cleanup(previews.Close)

	env := &testEnv{
		forms:    forms,
		payments: new(mockPayments),
		engine:   new(mockEngine),
		docs:     &fakeDocuments{docs: map[string]*models.GeneratedDocument{}},
		redis:    mr,
	}
	env.server = NewServer(createTestConfig(), Deps{
		Auth:        fakeAuth{},
		Forms:       forms,
		Preview:     previews,
		Payments:    env.payments,
		Documents:   env.docs,
		Engine:      env.engine,
		Submissions: payments.NewIdempotencyStore(rdb, time.Hour),
		Checks: map[string]Checker{
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	}, log)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error errorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return string(body.Error.Code)
}

func decodeForm(t *testing.T, w *httptest.ResponseRecorder) formResponse {
	t.Helper()
	var resp formResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func (e *testEnv) createForm(t *testing.T, docType string) *models.FormSession {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/forms", goodToken, map[string]string{"documentType": docType})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeForm(t, w).Form
}

// ==========================
// Health and middleware
// ==========================

func TestHealthAndReady(t *testing.T) {
	env := createTestServer(t)

	w := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"ok"`)
}

func TestReady_FailingCheck(t *testing.T) {
	env := createTestServer(t)
	env.server.deps.Checks["postgres"] = func(ctx context.Context) error { return stderrors.New("connection refused") }

	w := env.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestRequireAuth(t *testing.T) {
	env := createTestServer(t)

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "missing token", token: "", want: string(errors.ErrCodeAuthenticationFailed)},
		{name: "invalid token", token: "forged", want: string(errors.ErrCodeAuthenticationFailed)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/documents", tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.want, errorCode(t, w))
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	env := createTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/forms", nil)
	req.Header.Set("Origin", testOrigin)
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_UnknownOrigin(t *testing.T) {
	env := createTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(1, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestRateLimiter_Middleware(t *testing.T) {
	env := createTestServer(t)
	env.server.cfg.Server.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}
	env.server.engine = env.server.routes()

	first := env.do(t, http.MethodGet, "/api/documents", goodToken, nil)
	assert.Equal(t, http.StatusOK, first.Code)

	second := env.do(t, http.MethodGet, "/api/documents", goodToken, nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, string(errors.ErrCodeRateLimited), errorCode(t, second))
}

// ==========================
// Auth
// ==========================

func TestLogin(t *testing.T) {
	env := createTestServer(t)

	w := env.do(t, http.MethodPost, "/api/auth/login", "", models.Credentials{Email: "jane@example.com", Password: "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"good-token"`)
	assert.NotContains(t, w.Body.String(), "backend-1")

	w = env.do(t, http.MethodPost, "/api/auth/login", "", models.Credentials{Email: "jane@example.com", Password: "nope"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, string(errors.ErrCodeBackendRequestFailed), errorCode(t, w))
}

func TestMeAndLogout(t *testing.T) {
	env := createTestServer(t)

	w := env.do(t, http.MethodGet, "/api/auth/me", goodToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"hasActiveSubscription":false`)

	w = env.do(t, http.MethodPost, "/api/auth/logout", goodToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// ==========================
// Forms and wizard
// ==========================

func TestFormWizardFlow(t *testing.T) {
	env := createTestServer(t)
	fs := env.createForm(t, "paystub")
	assert.Equal(t, documents.TemplateA, fs.TemplateID)
	path := "/api/forms/" + fs.ID

	w := env.do(t, http.MethodPost, path+"/next", goodToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, string(errors.ErrCodeWizardStepIncomplete), errorCode(t, w))

	w = env.do(t, http.MethodPatch, path, goodToken, updateFormRequest{Data: map[string]string{"companyName": "Acme Corp", "zipCode": "123456789"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12345-6789", decodeForm(t, w).Form.Data["zipCode"])

	w = env.do(t, http.MethodPost, path+"/next", goodToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeForm(t, w)
	assert.Equal(t, 1, resp.Form.Step)
	assert.Equal(t, "employee", resp.CurrentStep)

	w = env.do(t, http.MethodPost, path+"/back", goodToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decodeForm(t, w).Form.Step)

	w = env.do(t, http.MethodPatch, path, goodToken, updateFormRequest{TemplateID: "template-z"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, path, goodToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, path, goodToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestForm_OtherUserCannotRead(t *testing.T) {
	env := createTestServer(t)
	fs := env.createForm(t, "w2")

	w := env.do(t, http.MethodGet, "/api/forms/"+fs.ID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(errors.ErrCodeFormSessionNotFound), errorCode(t, w))
}

func TestCreateForm_UnknownType(t *testing.T) {
	env := createTestServer(t)
	w := env.do(t, http.MethodPost, "/api/forms", goodToken, map[string]string{"documentType": "passport"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(errors.ErrCodeTemplateNotFound), errorCode(t, w))
}

func TestRenderPreview(t *testing.T) {
	env := createTestServer(t)
	fs := env.createForm(t, "utility-bill")
	env.do(t, http.MethodPatch, "/api/forms/"+fs.ID, goodToken, updateFormRequest{Data: map[string]string{"providerName": "City Power"}})

	w := env.do(t, http.MethodPost, "/api/forms/"+fs.ID+"/preview", goodToken, map[string]float64{"scale": 0.8})
	require.Equal(t, http.StatusOK, w.Code)
	var res preview.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Contains(t, res.HTML, "City Power")
	assert.Contains(t, res.HTML, "PREVIEW")

	w = env.do(t, http.MethodPost, "/api/forms/"+fs.ID+"/preview?format=html", goodToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
}

func uploadRequest(t *testing.T, path, fileName string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+goodToken)
	return req
}

func TestUploadLogo(t *testing.T) {
	env := createTestServer(t)
	fs := env.createForm(t, "paystub")
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, uploadRequest(t, "/api/forms/"+fs.ID+"/logo", "logo.png", png))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(decodeForm(t, w).Form.Data["logoDataUri"], "data:image/png;base64,"))

	w = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, uploadRequest(t, "/api/forms/"+fs.ID+"/logo", "notes.txt", []byte("plain text")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(errors.ErrCodeFileRejected), errorCode(t, w))
}

func TestSubmitForm(t *testing.T) {
	env := createTestServer(t)
	fs := env.createForm(t, "paystub")
	path := "/api/forms/" + fs.ID

	w := env.do(t, http.MethodPost, path+"/submit", goodToken, submitFormRequest{IdempotencyKey: "idem-1"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, string(errors.ErrCodeFormValidationFailed), errorCode(t, w))

	env.do(t, http.MethodPatch, path, goodToken, updateFormRequest{Data: map[string]string{
		"companyName":  "Acme",
		"employeeName": "Jane Doe",
		"payDate":      "2026-03-15",
		"hourlyRate":   "25",
		"hours":        "80",
		"state":        "CA",
	}})

	env.engine.On("StartProcess", mock.Anything, "document-generation", mock.MatchedBy(func(v interface{}) bool {
		vars := v.(map[string]interface{})
		return vars["formSessionId"] == fs.ID &&
			vars["userToken"] == "backend-1" &&
			vars["paymentProvider"] == "stripe" &&
			vars["userEmail"] == "jane@example.com" &&
			vars["idempotencyKey"] == "idem-1"
	})).Return(&camunda.ProcessInstance{ProcessInstanceKey: 42}, nil).Once()

	w = env.do(t, http.MethodPost, path+"/submit", goodToken, submitFormRequest{IdempotencyKey: "idem-1"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"processInstanceKey":42`)
	env.engine.AssertExpectations(t)
}

func TestSubmitForm_DuplicateStartsOneInstance(t *testing.T) {
	env := createTestServer(t)
	fs := env.createForm(t, "paystub")
	path := "/api/forms/" + fs.ID

	env.do(t, http.MethodPatch, path, goodToken, updateFormRequest{Data: map[string]string{
		"companyName":  "Acme",
		"employeeName": "Jane Doe",
		"payDate":      "2026-03-15",
		"hourlyRate":   "25",
		"hours":        "80",
		"state":        "CA",
	}})
	env.engine.On("StartProcess", mock.Anything, "document-generation", mock.Anything).
		Return(&camunda.ProcessInstance{ProcessInstanceKey: 42}, nil).Once()

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, path+"/submit", goodToken, submitFormRequest{IdempotencyKey: "idem-dup"})
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"processInstanceKey":42`)
	}
	env.engine.AssertNumberOfCalls(t, "StartProcess", 1)

	// a submit still in flight answers without starting another instance
	require.NoError(t, env.redis.Set(payments.SubmitKey("user-1", "idem-busy"), "pending"))
	w := env.do(t, http.MethodPost, path+"/submit", goodToken, submitFormRequest{IdempotencyKey: "idem-busy"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"processing"`)
	env.engine.AssertNumberOfCalls(t, "StartProcess", 1)
}

func TestSubmitForm_EngineFailureAllowsRetry(t *testing.T) {
	env := createTestServer(t)
	fs := env.createForm(t, "paystub")
	path := "/api/forms/" + fs.ID

	env.do(t, http.MethodPatch, path, goodToken, updateFormRequest{Data: map[string]string{
		"companyName":  "Acme",
		"employeeName": "Jane Doe",
		"payDate":      "2026-03-15",
		"hourlyRate":   "25",
		"hours":        "80",
		"state":        "CA",
	}})
	env.engine.On("StartProcess", mock.Anything, "document-generation", mock.Anything).
		Return(nil, errors.NewExternalServiceError("zeebe", stderrors.New("unavailable"))).Once()
	env.engine.On("StartProcess", mock.Anything, "document-generation", mock.Anything).
		Return(&camunda.ProcessInstance{ProcessInstanceKey: 7}, nil).Once()

	w := env.do(t, http.MethodPost, path+"/submit", goodToken, submitFormRequest{IdempotencyKey: "idem-retry"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = env.do(t, http.MethodPost, path+"/submit", goodToken, submitFormRequest{IdempotencyKey: "idem-retry"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"processInstanceKey":7`)
}

func TestSubmitForm_RequiresIdempotencyKey(t *testing.T) {
	env := createTestServer(t)
	fs := env.createForm(t, "paystub")

	w := env.do(t, http.MethodPost, "/api/forms/"+fs.ID+"/submit", goodToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(errors.ErrCodeInputParsingFailed), errorCode(t, w))
}

// ==========================
// Preview websocket
// ==========================

func TestPreviewSocket(t *testing.T) {
	env := createTestServer(t)
	fs := env.createForm(t, "resume")

	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/forms/" + fs.ID + "/preview/ws?token=" + goodToken
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first wsServerMessage
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, "preview", first.Type)
	assert.Contains(t, first.Preview.HTML, "Your Name")

	for _, name := range []string{"A", "Al", "Alex"} {
		require.NoError(t, conn.WriteJSON(wsClientMessage{Type: "update", Data: map[string]string{"fullName": name}}))
	}

	// an early debounce may deliver an intermediate edit first
	for {
		var next wsServerMessage
		require.NoError(t, conn.ReadJSON(&next))
		require.Equal(t, "preview", next.Type)
		if strings.Contains(next.Preview.HTML, "Alex") {
			break
		}
	}

	require.NoError(t, conn.WriteJSON(wsClientMessage{Type: "close"}))
	for {
		var msg wsServerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type != "preview" {
			assert.Equal(t, "closed", msg.Type)
			break
		}
	}
}

func TestPreviewSocket_TwoTabsEachGetPreview(t *testing.T) {
	env := createTestServer(t)
	fs := env.createForm(t, "resume")

	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/forms/" + fs.ID + "/preview/ws?token=" + goodToken

	dial := func() *websocket.Conn {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var initial wsServerMessage
		require.NoError(t, conn.ReadJSON(&initial))
		require.Equal(t, "preview", initial.Type)
		return conn
	}
	tabA, tabB := dial(), dial()

	require.NoError(t, tabA.WriteJSON(wsClientMessage{Type: "update", Data: map[string]string{"fullName": "Alex"}}))
	require.NoError(t, tabB.WriteJSON(wsClientMessage{Type: "update", Data: map[string]string{"email": "alex@example.com"}}))

	for name, conn := range map[string]*websocket.Conn{"tab A": tabA, "tab B": tabB} {
		var msg wsServerMessage
		require.NoError(t, conn.ReadJSON(&msg), name)
		assert.Equal(t, "preview", msg.Type, name)
	}
}

func TestPreviewSocket_RejectsOtherUser(t *testing.T) {
	env := createTestServer(t)
	fs := env.createForm(t, "resume")

	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/forms/" + fs.ID + "/preview/ws?token=" + otherToken
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ==========================
// Payments
// ==========================

func TestCheckoutStatus(t *testing.T) {
	env := createTestServer(t)
	env.payments.On("GetByReference", mock.Anything, "cs_1").
		Return(&models.Payment{Reference: "cs_1", Provider: models.ProviderStripe, UserID: "user-1", Status: models.PaymentStatusPaid, Amount: 9.99, Currency: "usd"}, nil)
	env.payments.On("GetByReference", mock.Anything, "cs_missing").
		Return(nil, repository.ErrPaymentNotFound)

	w := env.do(t, http.MethodGet, "/api/checkout-status/cs_1", goodToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"paid":true`)

	w = env.do(t, http.MethodGet, "/api/checkout-status/cs_1", otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/checkout-status/cs_missing", goodToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func webhookRequest(payload []byte, secret string) *http.Request {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

func TestStripeWebhook(t *testing.T) {
	env := createTestServer(t)
	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_test_1", "object": "checkout.session", "payment_status": "paid"}}
	}`)

	env.payments.On("UpdateStatus", mock.Anything, "cs_test_1", models.PaymentStatusPaid).Return(nil).Once()
	env.engine.On("PublishMessage", mock.Anything, MessagePaymentConfirmed, "cs_test_1", map[string]interface{}{
		"paymentReference": "cs_test_1",
		"paymentStatus":    "paid",
	}).Return(nil).Once()

	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, webhookRequest(payload, testWebhook))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env.payments.AssertExpectations(t)
	env.engine.AssertExpectations(t)
}

func TestStripeWebhook_PublishFailureAsksForRetry(t *testing.T) {
	env := createTestServer(t)
	payload := []byte(`{"id":"evt_2","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_2","object":"checkout.session","payment_status":"paid"}}}`)

	env.payments.On("UpdateStatus", mock.Anything, "cs_2", models.PaymentStatusPaid).Return(repository.ErrPaymentNotFound)
	env.engine.On("PublishMessage", mock.Anything, MessagePaymentConfirmed, "cs_2", mock.Anything).Return(stderrors.New("unavailable"))

	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, webhookRequest(payload, testWebhook))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStripeWebhook_BadSignature(t *testing.T) {
	env := createTestServer(t)
	payload := []byte(`{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{}}}`)

	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, webhookRequest(payload, "whsec_wrong"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env.engine.AssertNotCalled(t, "PublishMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPayPalApprove(t *testing.T) {
	env := createTestServer(t)
	env.payments.On("GetByReference", mock.Anything, "PP-1").
		Return(&models.Payment{Reference: "PP-1", Provider: models.ProviderPayPal, UserID: "user-1", Status: models.PaymentStatusPending}, nil)
	env.payments.On("GetByReference", mock.Anything, "cs_1").
		Return(&models.Payment{Reference: "cs_1", Provider: models.ProviderStripe, UserID: "user-1"}, nil)
	env.engine.On("PublishMessage", mock.Anything, MessagePaymentConfirmed, "PP-1", map[string]interface{}{
		"paymentReference": "PP-1",
		"paymentProvider":  "paypal",
	}).Return(nil).Once()

	w := env.do(t, http.MethodPost, "/api/paypal/approve", goodToken, map[string]string{"orderId": "PP-1"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"processing"`)

	w = env.do(t, http.MethodPost, "/api/paypal/approve", otherToken, map[string]string{"orderId": "PP-1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/paypal/approve", goodToken, map[string]string{"orderId": "cs_1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/paypal/approve", goodToken, map[string]string{})
	assert.Equal(t, "FORM_VALIDATION_FAILED", errorCode(t, w))

	env.engine.AssertExpectations(t)
}

// ==========================
// Documents
// ==========================

func TestListDocuments(t *testing.T) {
	env := createTestServer(t)
	env.docs.docs["d1"] = &models.GeneratedDocument{ID: "d1", UserID: "user-1", DocumentType: "w2"}
	env.docs.docs["d2"] = &models.GeneratedDocument{ID: "d2", UserID: "user-2", DocumentType: "w2"}

	tests := []struct {
		name  string
		query string
		want  models.QueryType
	}{
		{name: "history", query: "", want: models.QueryTypeUserHistory},
		{name: "by type", query: "?type=w2", want: models.QueryTypeByDocType},
		{name: "full text", query: "?q=acme&type=w2", want: models.QueryTypeFullText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/documents"+tt.query, goodToken, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, env.docs.lastQuery.QueryType)
			assert.Equal(t, "user-1", env.docs.lastQuery.UserID)
			assert.Equal(t, 20, env.docs.lastQuery.Size)
			assert.Contains(t, w.Body.String(), `"total":1`)
		})
	}
}

func TestDownloadDocument(t *testing.T) {
	env := createTestServer(t)
	env.docs.docs["d1"] = &models.GeneratedDocument{
		ID: "d1", UserID: "user-1", FileName: "paystub.pdf",
		ContentType: models.ContentTypePDF, Content: []byte("%PDF-1.3 test"),
	}

	w := env.do(t, http.MethodGet, "/api/documents/d1/download", goodToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ContentTypePDF, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="paystub.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3 test", w.Body.String())

	w = env.do(t, http.MethodGet, "/api/documents/d1/download", otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(errors.ErrCodeDocumentNotFound), errorCode(t, w))
}
