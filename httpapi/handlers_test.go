package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"social-lab/auth"
	"social-lab/errors"
	"social-lab/mocks"
	"social-lab/presence"
	"social-lab/repositories"
	"social-lab/reputation"
	"social-lab/services"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubProvider feeds the reputation annotator canned provider details.
type stubProvider struct {
	details map[string]string
	err     error
}

func (p stubProvider) Details(_ context.Context, _ string) (map[string]string, error) {
	return p.details, p.err
}

type routerFixture struct {
	authSvc *mocks.MockIAuthService
	chatSvc *mocks.MockIChatService
	vpnLogs *repositories.VPNLogRepository
	router  *gin.Engine
}

func newRouterFixture(t *testing.T, provider reputation.DetailsProvider) *routerFixture {
	t.Helper()
	req := require.New(t)

	ctrl := gomock.NewController(t)
	authSvc := mocks.NewMockIAuthService(ctrl)
	chatSvc := mocks.NewMockIChatService(ctrl)

	opts := badger.DefaultOptions(t.TempDir()).WithLogger(nil)
	db, err := badger.Open(opts)
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	vpnLogs := repositories.NewVPNLogRepository(db)
	registry := presence.NewRegistry()

	router := NewRouter(
		NewAuthHandlers(log, authSvc, 24*time.Hour),
		NewChatHandlers(log, chatSvc),
		NewVPNHandlers(log, vpnLogs),
		NewWSHandler(log, registry, 32),
		reputation.NewAnnotator(log, provider, vpnLogs),
	)
	return &routerFixture{authSvc: authSvc, chatSvc: chatSvc, vpnLogs: vpnLogs, router: router}
}

func doJSON(router *gin.Engine, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func sessionCookie(t *testing.T, userID string) *http.Cookie {
	t.Helper()
	token, err := auth.GenerateToken(userID, time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: auth.SessionCookie, Value: token}
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("should return 201 with the pending account reference", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{})

		f.authSvc.EXPECT().
			Register(gomock.Any(), "alice", "a@x.com", "ComplexPass123!", gomock.Any()).
			Return("uuid-1", nil)

		rec := doJSON(f.router, http.MethodPost, "/api/v1/user/register",
			`{"handle":"alice","email":"a@x.com","password":"ComplexPass123!"}`)

		req.Equal(http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		req.Equal(true, body["success"])
		req.Equal("uuid-1", body["userId"])
		req.Contains(body["message"], "verify your email")
	})

	t.Run("should return 409 without naming the clashing field", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{})

		f.authSvc.EXPECT().
			Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", errors.ErrConflict)

		rec := doJSON(f.router, http.MethodPost, "/api/v1/user/register",
			`{"handle":"alice","email":"a@x.com","password":"ComplexPass123!"}`)

		req.Equal(http.StatusConflict, rec.Code)
		body := decodeBody(t, rec)
		req.Equal(false, body["success"])
		req.Equal(errors.ErrConflict.Error(), body["message"])
	})

	t.Run("should return 400 on a malformed payload", func(t *testing.T) {
		f := newRouterFixture(t, stubProvider{})
		rec := doJSON(f.router, http.MethodPost, "/api/v1/user/register", `{not json`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("MFA armed: should answer with requiresOTP and set no cookie", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{})

		f.authSvc.EXPECT().
			Login(gomock.Any(), "a@x.com", "ComplexPass123!", gomock.Any()).
			Return(services.LoginResult{RequiresOTP: true, AccountID: "uuid-1"}, nil)

		rec := doJSON(f.router, http.MethodPost, "/api/v1/user/login",
			`{"email":"a@x.com","password":"ComplexPass123!"}`)

		req.Equal(http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		req.Equal(true, body["requiresOTP"])
		req.Equal("uuid-1", body["userId"])
		req.Empty(rec.Result().Cookies())
	})

	t.Run("MFA disarmed: should set the HttpOnly session cookie", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{})

		token, err := auth.GenerateToken("uuid-1", time.Hour)
		req.NoError(err)
		f.authSvc.EXPECT().
			Login(gomock.Any(), "a@x.com", "ComplexPass123!", gomock.Any()).
			Return(services.LoginResult{
				AccountID: "uuid-1",
				Token:     services.Token(token),
				Account:   services.AccountView{ID: "uuid-1", Handle: "alice", Email: "a@x.com"},
			}, nil)

		rec := doJSON(f.router, http.MethodPost, "/api/v1/user/login",
			`{"email":"a@x.com","password":"ComplexPass123!"}`)

		req.Equal(http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		req.Equal("Welcome back alice", body["message"])

		cookies := rec.Result().Cookies()
		req.Len(cookies, 1)
		req.Equal(auth.SessionCookie, cookies[0].Name)
		req.Equal(token, cookies[0].Value)
		req.True(cookies[0].HttpOnly)
		req.Equal(http.SameSiteStrictMode, cookies[0].SameSite)
	})

	t.Run("should return 401 on bad credentials", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{})

		f.authSvc.EXPECT().
			Login(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(services.LoginResult{}, errors.ErrInvalidCredentials)

		rec := doJSON(f.router, http.MethodPost, "/api/v1/user/login",
			`{"email":"a@x.com","password":"WrongPass123!"}`)

		req.Equal(http.StatusUnauthorized, rec.Code)
	})

	t.Run("should return 403 when the email is unverified", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{})

		f.authSvc.EXPECT().
			Login(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(services.LoginResult{}, errors.ErrEmailNotVerified)

		rec := doJSON(f.router, http.MethodPost, "/api/v1/user/login",
			`{"email":"a@x.com","password":"ComplexPass123!"}`)

		req.Equal(http.StatusForbidden, rec.Code)
	})
}

func TestVerifyEndpoints(t *testing.T) {
	t.Run("verify-email should accept a well-formed code", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{})

		f.authSvc.EXPECT().VerifyEmail("uuid-1", "482193").Return(nil)

		rec := doJSON(f.router, http.MethodPost, "/api/v1/user/verify-email",
			`{"userId":"uuid-1","otp":"482193"}`)
		req.Equal(http.StatusOK, rec.Code)
	})

	t.Run("verify-email should reject a non-numeric code before the service", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{})

		f.authSvc.EXPECT().VerifyEmail(gomock.Any(), gomock.Any()).Times(0)

		rec := doJSON(f.router, http.MethodPost, "/api/v1/user/verify-email",
			`{"userId":"uuid-1","otp":"12a456"}`)
		req.Equal(http.StatusBadRequest, rec.Code)
	})

	t.Run("verify-login-otp should finalize the session with a cookie", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{})

		token, err := auth.GenerateToken("uuid-1", time.Hour)
		req.NoError(err)
		f.authSvc.EXPECT().VerifyLoginOTP("uuid-1", "482193").
			Return(services.SessionResult{
				Token:   services.Token(token),
				Account: services.AccountView{ID: "uuid-1", Handle: "alice"},
			}, nil)

		rec := doJSON(f.router, http.MethodPost, "/api/v1/user/verify-login-otp",
			`{"userId":"uuid-1","otp":"482193"}`)

		req.Equal(http.StatusOK, rec.Code)
		cookies := rec.Result().Cookies()
		req.Len(cookies, 1)
		req.Equal(token, cookies[0].Value)
	})

	t.Run("verify-login-otp should map an expired code to 400", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{})

		f.authSvc.EXPECT().VerifyLoginOTP("uuid-1", "482193").
			Return(services.SessionResult{}, errors.ErrOTPExpired)

		rec := doJSON(f.router, http.MethodPost, "/api/v1/user/verify-login-otp",
			`{"userId":"uuid-1","otp":"482193"}`)
		req.Equal(http.StatusBadRequest, rec.Code)
	})
}

func TestResendAndLogoutEndpoints(t *testing.T) {
	t.Run("resend routes should carry their flow context", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{})

		f.authSvc.EXPECT().ResendOTP(gomock.Any(), "uuid-1", services.ResendSignup).Return(nil)
		f.authSvc.EXPECT().ResendOTP(gomock.Any(), "uuid-1", services.ResendLogin).Return(nil)

		rec := doJSON(f.router, http.MethodPost, "/api/v1/user/resend-signup-otp", `{"userId":"uuid-1"}`)
		req.Equal(http.StatusOK, rec.Code)

		rec = doJSON(f.router, http.MethodPost, "/api/v1/user/resend-login-otp", `{"userId":"uuid-1"}`)
		req.Equal(http.StatusOK, rec.Code)
	})

	t.Run("logout should expire the cookie without any service call", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{})

		rec := doJSON(f.router, http.MethodGet, "/api/v1/user/logout", "",
			sessionCookie(t, "uuid-1"))

		req.Equal(http.StatusOK, rec.Code)
		cookies := rec.Result().Cookies()
		req.Len(cookies, 1)
		req.Equal(auth.SessionCookie, cookies[0].Name)
		req.Empty(cookies[0].Value)
		req.Negative(cookies[0].MaxAge)
	})
}

func TestMessageEndpoints(t *testing.T) {
	t.Run("should refuse an unauthenticated send", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{})

		f.chatSvc.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		rec := doJSON(f.router, http.MethodPost, "/api/v1/message/send/uuid-2",
			`{"textMessage":"hi"}`)
		req.Equal(http.StatusUnauthorized, rec.Code)
	})

	t.Run("should refuse a tampered cookie", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{})

		rec := doJSON(f.router, http.MethodPost, "/api/v1/message/send/uuid-2",
			`{"textMessage":"hi"}`,
			&http.Cookie{Name: auth.SessionCookie, Value: "not-a-token"})
		req.Equal(http.StatusUnauthorized, rec.Code)
	})

	t.Run("should send as the cookie identity, not a claimed one", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{})

		f.chatSvc.EXPECT().Send("uuid-1", "uuid-2", "hello there").
			Return(services.MessageView{
				ID: "msg-1", SenderID: "uuid-1", ReceiverID: "uuid-2", Message: "hello there",
			}, nil)

		rec := doJSON(f.router, http.MethodPost, "/api/v1/message/send/uuid-2",
			`{"textMessage":"hello there"}`, sessionCookie(t, "uuid-1"))

		req.Equal(http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		req.Equal(true, body["success"])
		newMessage, ok := body["newMessage"].(map[string]any)
		req.True(ok)
		req.Equal("hello there", newMessage["message"])
		req.Equal("uuid-1", newMessage["senderId"])
	})

	t.Run("should return an empty list for a fresh pair", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{})

		f.chatSvc.EXPECT().GetHistory("uuid-1", "uuid-2").Return(nil, nil)

		rec := doJSON(f.router, http.MethodGet, "/api/v1/message/all/uuid-2", "",
			sessionCookie(t, "uuid-1"))

		req.Equal(http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		messages, ok := body["messages"].([]any)
		req.True(ok)
		req.Empty(messages)
	})
}

func TestReputationAnnotation(t *testing.T) {
	t.Run("should flag a hosting provider and record the lookup", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{details: map[string]string{"org": "AS1234 Shady Hosting Ltd"}})

		f.authSvc.EXPECT().
			Login(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(services.LoginResult{}, errors.ErrInvalidCredentials)

		rec := doJSON(f.router, http.MethodPost, "/api/v1/user/login",
			`{"email":"a@x.com","password":"ComplexPass123!"}`)

		req.Equal("true", rec.Header().Get("X-VPN-Detected"))

		logs, err := f.vpnLogs.Recent(10)
		req.NoError(err)
		req.Len(logs, 1)
		req.True(logs[0].IsVPN)
	})

	t.Run("a lookup failure must not block the request", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{err: context.DeadlineExceeded})

		f.authSvc.EXPECT().
			Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("uuid-1", nil)

		rec := doJSON(f.router, http.MethodPost, "/api/v1/user/register",
			`{"handle":"alice","email":"a@x.com","password":"ComplexPass123!"}`)

		req.Equal(http.StatusCreated, rec.Code)
		req.Empty(rec.Header().Get("X-VPN-Detected"))
	})

	t.Run("vpn stats endpoint reflects the recorded lookups", func(t *testing.T) {
		req := require.New(t)
		f := newRouterFixture(t, stubProvider{details: map[string]string{"org": "Residential ISP"}})

		f.authSvc.EXPECT().
			Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("uuid-1", nil)

		doJSON(f.router, http.MethodPost, "/api/v1/user/register",
			`{"handle":"alice","email":"a@x.com","password":"ComplexPass123!"}`)

		rec := doJSON(f.router, http.MethodGet, "/api/v1/vpn/stats", "")
		req.Equal(http.StatusOK, rec.Code)

		var stats repositories.VPNStats
		req.NoError(json.Unmarshal(rec.Body.Bytes(), &stats))
		// The stats request itself is annotated too.
		req.GreaterOrEqual(stats.Total, 1)
		req.Zero(stats.Flagged)
	})
}
