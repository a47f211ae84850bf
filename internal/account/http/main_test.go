package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/loopline/accountd/internal/account/notify"
	"github.com/loopline/accountd/internal/account/service"
	"github.com/loopline/accountd/internal/account/shopify"
	"github.com/loopline/accountd/internal/account/store/drivers/sqlite"
	"github.com/loopline/accountd/pkg/cryptox"
	"github.com/loopline/accountd/pkg/httpx"
	"github.com/loopline/accountd/pkg/slogx"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "accountd-http-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	// Loosen the limiter profiles so request-heavy tests do not trip 429s.
	generous := httpx.RateLimitConfig{RequestsPerWindow: 10000, Window: time.Minute, Burst: 10000}
	httpx.StrictLimit = generous
	httpx.ModerateLimit = generous
	httpx.LenientLimit = generous

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type spyMailer struct {
	mu    sync.Mutex
	mails []notify.Mail
	ch    chan notify.Mail
}

func newSpyMailer() *spyMailer {
	return &spyMailer{ch: make(chan notify.Mail, 8)}
}

func (s *spyMailer) SendMail(_ context.Context, m notify.Mail) error {
	s.mu.Lock()
	s.mails = append(s.mails, m)
	s.mu.Unlock()
	s.ch <- m
	return nil
}

func (s *spyMailer) wait(t *testing.T) notify.Mail {
	t.Helper()
	select {
	case m := <-s.ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no mail dispatched")
		return notify.Mail{}
	}
}

type spySMS struct {
	ch chan notify.SMS
}

func newSpySMS() *spySMS {
	return &spySMS{ch: make(chan notify.SMS, 8)}
}

func (s *spySMS) SendSMS(_ context.Context, m notify.SMS) error {
	s.ch <- m
	return nil
}

func (s *spySMS) wait(t *testing.T) notify.SMS {
	t.Helper()
	select {
	case m := <-s.ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no sms dispatched")
		return notify.SMS{}
	}
}

type testEnv struct {
	router *Router
	mailer *spyMailer
	sms    *spySMS
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	logger := slogx.New(slogx.Config{
		Service: "account-service",
		Version: "test",
		Env:     "test",
		Level:   "error",
		Format:  "text",
	})

	mailer := newSpyMailer()
	sms := newSpySMS()

	router := NewRouter("test", st, logger)
	router.UserService = &service.UserService{Store: st}
	router.ResetService = &service.PasswordResetService{
		Store:   st,
		Mailer:  mailer,
		BaseURL: "https://account.example.test",
	}
	router.EmailConfirmationService = &service.EmailConfirmationService{
		Store:   st,
		Mailer:  mailer,
		BaseURL: "https://account.example.test",
	}
	router.Mailer = mailer
	router.SMSSender = sms
	router.ShopifyClient = shopify.NewClient(shopify.Config{
		APIKey:      "test-key",
		APISecret:   "test-secret",
		Scopes:      "read_orders",
		RedirectURI: "https://account.example.test/integrations/shopify/confirmation",
	})
	router.ApplyRoutes()

	return &testEnv{router: router, mailer: mailer, sms: sms}
}

// do runs one request through the full router, with optional bearer token
// and JSON body.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
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
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

// register creates an account over the API and returns its serialized form.
func (e *testEnv) register(t *testing.T, email string) userResponse {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/users", "", map[string]string{
		"first_name":   "Ada",
		"last_name":    "Lovelace",
		"email":        email,
		"mobile_phone": "+4915112345678",
		"company":      "Analytical Engines",
		"password":     "Sup3rsecret!",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var user userResponse
	decodeBody(t, rec, &user)

	// Registration also dispatches the confirmation mail; drain it so later
	// waits see only their own messages.
	e.mailer.wait(t)
	return user
}
