package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/loopline/accountd/internal/account/domain"
	"github.com/loopline/accountd/internal/account/notify"
	"github.com/loopline/accountd/internal/account/store"
	"github.com/loopline/accountd/internal/account/store/drivers/sqlite"
	"github.com/loopline/accountd/pkg/cryptox"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "accountd-service-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

const testPassword = "Sup3rsecret!"

func registerTestUser(t *testing.T, svc *UserService, email string) domain.User {
	t.Helper()

	user, err := svc.Register(context.Background(), RegisterParams{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       email,
		MobilePhone: "+4915112345678",
		Company:     "Analytical Engines",
		Password:    testPassword,
	})
	require.NoError(t, err)
	return user
}

// spyMailer records dispatched mail and signals arrival, since services
// send off the request path.
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

// resetTokenFromMail pulls the raw token out of the reset link, the last
// path segment of the only URL in the body.
func resetTokenFromMail(t *testing.T, body string) string {
	t.Helper()
	for _, field := range strings.Fields(body) {
		if strings.Contains(field, "/user/password/reset/") {
			parts := strings.Split(field, "/")
			return parts[len(parts)-1]
		}
	}
	t.Fatalf("no reset link in mail body: %q", body)
	return ""
}

// confirmationTokenFromMail returns the bare token line of the body.
func confirmationTokenFromMail(t *testing.T, body string) string {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(body), "\n")
	token := lines[len(lines)-1]
	require.NotEmpty(t, token)
	return token
}
