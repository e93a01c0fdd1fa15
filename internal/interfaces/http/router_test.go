package http

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patentdesk/internal/application/auth"
	"github.com/turtacn/patentdesk/internal/application/patent"
	"github.com/turtacn/patentdesk/internal/application/subscription"
	"github.com/turtacn/patentdesk/internal/config"
	domainPatent "github.com/turtacn/patentdesk/internal/domain/patent"
	domainSub "github.com/turtacn/patentdesk/internal/domain/subscription"
	"github.com/turtacn/patentdesk/internal/domain/user"
	"github.com/turtacn/patentdesk/internal/infrastructure/auth/token"
	"github.com/turtacn/patentdesk/internal/interfaces/http/handlers"
	"github.com/turtacn/patentdesk/internal/interfaces/http/middleware"
	"github.com/turtacn/patentdesk/internal/testutil"
	"github.com/turtacn/patentdesk/internal/testutil/svcmock"
	"github.com/turtacn/patentdesk/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                    { return s.name }
func (s stubChecker) Check(ctx context.Context) error { return s.err }

type fixture struct {
	router  *gin.Engine
	auth    *svcmock.AuthService
	patents *svcmock.PatentService
	reports *svcmock.ReportService
	subs    *svcmock.SubscriptionService
	userID  uuid.UUID
	token   string
}

func newFixture(t *testing.T, checkers ...handlers.HealthChecker) *fixture {
	t.Helper()
	log := testutil.NewMockLogger()
	issuer := token.NewIssuer(config.AuthConfig{
		JWTSecret: "router-test-secret-0123456789",
		TokenTTL:  time.Hour,
		Issuer:    "patentdesk",
	})

	f := &fixture{
		auth:    &svcmock.AuthService{},
		patents: &svcmock.PatentService{},
		reports: &svcmock.ReportService{},
		subs:    &svcmock.SubscriptionService{},
		userID:  uuid.New(),
	}
	tok, err := issuer.Issue(f.userID, "ada@example.com")
	require.NoError(t, err)
	f.token = tok

	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "claims.txt"), []byte("claims"), 0o644))

	f.router = NewRouter(RouterConfig{
		AuthHandler:         handlers.NewAuthHandler(f.auth, log),
		PatentHandler:       handlers.NewPatentHandler(f.patents, log),
		DocumentHandler:     handlers.NewDocumentHandler(f.patents, log),
		ReportHandler:       handlers.NewReportHandler(f.reports, log),
		SubscriptionHandler: handlers.NewSubscriptionHandler(f.subs, log),
		HealthHandler:       handlers.NewHealthHandler("test", nil, checkers...),
		AuthMiddleware:      middleware.NewAuthMiddleware(issuer, log),
		AuthLimiter:         middleware.NewKeyedLimiter(100, 100, time.Minute),
		CORS:                middleware.DefaultCORSConfig(),
		Logging:             middleware.DefaultLoggingConfig(),
		MaxBodySize:         1 << 20,
		StaticDir:           staticDir,
		StaticPrefix:        "/uploads",
		Logger:              log,
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) middleware.ErrorResponse {
	t.Helper()
	var body middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t, stubChecker{name: "postgres"}, stubChecker{name: "redis", err: stderrors.New("dial tcp: refused")})

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body handlers.ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body.Status)
	assert.Equal(t, "healthy", body.Components["postgres"].Status)
	assert.Equal(t, "unhealthy", body.Components["redis"].Status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/api/patents", "/api/auth/me", "/api/subscriptions/active"} {
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "COMMON_003", errorCode(t, rec).Code, path)
	}
}

func TestAuthRoutes(t *testing.T) {
	f := newFixture(t)
	u := &user.User{ID: f.userID, Email: "ada@example.com", Plan: user.PlanFree}

	f.auth.On("Register", mock.Anything, mock.MatchedBy(func(in *auth.RegisterInput) bool {
		return in.Email == "ada@example.com" && in.FirstName == "Ada"
	})).Return(&auth.AuthPayload{Token: "tok", User: u}, nil).Once()
	f.auth.On("Register", mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeDuplicateEmail, "email already registered")).Once()
	f.auth.On("Login", mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeInvalidCredentials, "invalid email or password"))
	f.auth.On("Me", mock.Anything, f.userID).Return(u, nil)

	rec := f.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "ada@example.com", "password": "s3cretpass", "first_name": "Ada", "last_name": "Lovelace",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var payload auth.AuthPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "tok", payload.Token)

	rec = f.do(t, http.MethodPost, "/api/auth/register", map[string]string{"email": "ada@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "USR_002", errorCode(t, rec).Code)

	rec = f.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "x@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "USR_003", errorCode(t, rec).Code)

	rec = f.do(t, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ada@example.com")
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	f := newFixture(t)
	f.auth.On("Login", mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeInvalidCredentials, "invalid email or password"))

	f.router = NewRouter(RouterConfig{
		AuthHandler:    handlers.NewAuthHandler(f.auth, testutil.NewMockLogger()),
		AuthMiddleware: middleware.NewAuthMiddleware(token.NewIssuer(config.AuthConfig{JWTSecret: "router-test-secret-0123456789", TokenTTL: time.Hour}), testutil.NewMockLogger()),
		AuthLimiter:    middleware.NewKeyedLimiter(0.001, 2, time.Minute),
		Logger:         testutil.NewMockLogger(),
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, f.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "a@b.co"}).Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

func TestPatentRoutes(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	p := &domainPatent.Patent{ID: id, OwnerID: f.userID, Title: "Widget", Status: domainPatent.StatusDraft}

	t.Run("list empty", func(t *testing.T) {
		f.patents.On("ListByOwner", mock.Anything, f.userID).Return(nil, nil).Once()
		rec := f.do(t, http.MethodGet, "/api/patents", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("create", func(t *testing.T) {
		f.patents.On("Create", mock.Anything, f.userID, mock.MatchedBy(func(in domainPatent.Input) bool {
			return in.Title == "Widget" && len(in.Inventors) == 1
		})).Return(p, nil).Once()
		rec := f.do(t, http.MethodPost, "/api/patents", map[string]any{
			"title": "Widget", "description": "A widget", "inventors": []string{"Ada"}, "jurisdictions": []string{"us"},
		})
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/patents", bytes.NewBufferString("{"))
		req.Header.Set("Authorization", "Bearer "+f.token)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "COMMON_010", errorCode(t, rec).Code)
	})

	t.Run("bad id", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/patents/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		missing := uuid.New()
		f.patents.On("Get", mock.Anything, f.userID, missing).
			Return(nil, errors.New(errors.ErrCodePatentNotFound, "patent not found")).Once()
		rec := f.do(t, http.MethodGet, "/api/patents/"+missing.String(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "PAT_001", errorCode(t, rec).Code)
	})

	t.Run("search", func(t *testing.T) {
		f.patents.On("Search", mock.Anything, f.userID, mock.MatchedBy(func(in domainPatent.SearchInput) bool {
			return in.Query == "widget" && in.Limit == 5 && len(in.Status) == 1
		})).Return(&domainPatent.SearchResult{Items: []*domainPatent.Patent{p}, TotalCount: 1, Page: 1, TotalPages: 1}, nil).Once()
		rec := f.do(t, http.MethodPost, "/api/patents/search", map[string]any{
			"query": "widget", "limit": 5, "status": []string{"draft"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		var result domainPatent.SearchResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, 1, result.TotalCount)
	})

	t.Run("update", func(t *testing.T) {
		f.patents.On("Update", mock.Anything, f.userID, id, mock.MatchedBy(func(u domainPatent.Update) bool {
			return u.Title != nil && *u.Title == "Gadget" && u.Description == nil
		})).Return(p, nil).Once()
		rec := f.do(t, http.MethodPut, "/api/patents/"+id.String(), map[string]any{"title": "Gadget"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("status", func(t *testing.T) {
		f.patents.On("UpdateStatus", mock.Anything, f.userID, id, "granted").
			Return(nil, errors.New(errors.ErrCodePatentStatusInvalid, "status transition not allowed")).Once()
		rec := f.do(t, http.MethodPatch, "/api/patents/"+id.String()+"/status", map[string]string{"status": "granted"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "PAT_011", errorCode(t, rec).Code)
	})

	t.Run("delete", func(t *testing.T) {
		f.patents.On("Delete", mock.Anything, f.userID, id).Return(nil).Once()
		rec := f.do(t, http.MethodDelete, "/api/patents/"+id.String(), nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	f.patents.AssertExpectations(t)
}

func multipartRequest(t *testing.T, path, token string, fields map[string]string, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestDocumentRoutes(t *testing.T) {
	f := newFixture(t)
	patentID := uuid.New()
	docID := uuid.New()
	path := "/api/patents/" + patentID.String() + "/documents"

	t.Run("upload", func(t *testing.T) {
		var uploaded string
		f.patents.On("UploadDocument", mock.Anything, f.userID, mock.MatchedBy(func(in *patent.UploadInput) bool {
			return in.PatentID == patentID && in.Name == "spec.pdf" && in.Type == "specification" && in.Size == 5
		})).Run(func(args mock.Arguments) {
			b, _ := io.ReadAll(args.Get(2).(*patent.UploadInput).Reader)
			uploaded = string(b)
		}).Return(&domainPatent.Document{ID: docID, PatentID: patentID, Name: "spec.pdf"}, nil).Once()

		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, multipartRequest(t, path, f.token, map[string]string{"type": "specification"}, "spec.pdf", "hello"))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "hello", uploaded)
	})

	t.Run("missing file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, multipartRequest(t, path, f.token, map[string]string{"name": "x"}, "", ""))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "file is required", errorCode(t, rec).Message)
	})

	t.Run("storage failure is masked", func(t *testing.T) {
		f.patents.On("UploadDocument", mock.Anything, f.userID, mock.Anything).
			Return(nil, errors.Wrap(stderrors.New("s3: AccessDenied"), errors.ErrCodeUploadFailed, "put object failed")).Once()
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, multipartRequest(t, path, f.token, nil, "a.txt", "x"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := errorCode(t, rec)
		assert.Equal(t, "DOC_002", body.Code)
		assert.NotContains(t, body.Message, "AccessDenied")
	})

	t.Run("delete", func(t *testing.T) {
		f.patents.On("DeleteDocument", mock.Anything, f.userID, docID).Return(nil).Once()
		rec := f.do(t, http.MethodDelete, path+"/"+docID.String(), nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestReportRoutes(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	match := &domainPatent.Patent{ID: uuid.New(), Title: "Neighbour"}
	f.reports.On("GetSimilarPatents", mock.Anything, f.userID, id).
		Return([]*domainPatent.SimilarPatent{{Patent: match, SimilarityScore: 81.5}}, nil)
	f.reports.On("GetAIAnalysis", mock.Anything, f.userID, id).
		Return(&domainPatent.AIAnalysis{TechnicalComplexity: 42, TechnicalSummary: "A tracker."}, nil)
	f.reports.On("GetSearchStrategy", mock.Anything, f.userID, id).
		Return(&domainPatent.SearchStrategy{Keywords: []string{"solar"}, SearchQueries: []string{"solar AND tracker"}}, nil)
	f.reports.On("GenerateReport", mock.Anything, f.userID, id).
		Return(nil, errors.Wrap(stderrors.New("upstream 503"), errors.ErrCodeAnalysisFailed, "quality analysis failed: upstream 503"))

	rec := f.do(t, http.MethodGet, "/api/patents/"+id.String()+"/similar", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Neighbour"`)
	assert.Contains(t, rec.Body.String(), `"similarity_score":81.5`)

	rec = f.do(t, http.MethodGet, "/api/patents/"+id.String()+"/analysis", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"technical_complexity":42`)
	assert.Contains(t, rec.Body.String(), `"technical_summary":"A tracker."`)

	other := uuid.New()
	f.reports.On("ComparePatents", mock.Anything, f.userID, id, other).Return(42.5, nil)
	rec = f.do(t, http.MethodGet, "/api/patents/"+id.String()+"/similarity/"+other.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"similarity_score":42.5}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/patents/"+id.String()+"/similarity/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/patents/"+id.String()+"/search-strategy", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"search_queries":["solar AND tracker"]`)

	rec = f.do(t, http.MethodPost, "/api/patents/"+id.String()+"/search-report", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := errorCode(t, rec)
	assert.Equal(t, "AI_002", body.Code)
	assert.Equal(t, "analysis failed", body.Message)
}

func TestSubscriptionRoutes(t *testing.T) {
	f := newFixture(t)
	sub := &domainSub.Subscription{ID: uuid.New(), UserID: f.userID, Plan: user.PlanPro, Status: domainSub.StatusActive}

	f.subs.On("Create", mock.Anything, f.userID, &subscription.CreateInput{Plan: "pro", PaymentMethod: "card"}).
		Return(nil, errors.New(errors.ErrCodeSubscriptionExists, "user already has an active subscription")).Once()
	f.subs.On("GetActive", mock.Anything, f.userID).Return(sub, nil).Once()
	f.subs.On("Cancel", mock.Anything, f.userID).Return(sub, nil).Once()
	f.subs.On("ChangePlan", mock.Anything, f.userID, "free").Return(sub, nil).Once()

	rec := f.do(t, http.MethodPost, "/api/subscriptions", map[string]string{"plan": "pro", "payment_method": "card"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SUB_002", errorCode(t, rec).Code)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/subscriptions/active", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/subscriptions/cancel", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/api/subscriptions/plan", map[string]string{"plan": "free"}).Code)

	f.subs.AssertExpectations(t)
}

func TestStaticUploadsAndUnknownRoutes(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/claims.txt", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "claims", rec.Body.String())

	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "COMMON_005", errorCode(t, rec).Code)
}

func TestServerRunShutsDownOnCancel(t *testing.T) {
	srv := NewServer(config.ServerConfig{
		Port:            0,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}, http.NotFoundHandler(), testutil.NewMockLogger())
	assert.Equal(t, ":0", srv.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
