package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/userkeeper/internal/client/client"
	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/dmitrijs2005/userkeeper/internal/server/auth"
	"github.com/dmitrijs2005/userkeeper/internal/server/directory/memory"
	"github.com/dmitrijs2005/userkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/userkeeper/internal/server/password"
	"github.com/dmitrijs2005/userkeeper/internal/server/users"
)

// stubPasswords replaces readPassword with a queue of answers for the test.
func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })

	readPassword = func(int) ([]byte, error) {
		if len(answers) == 0 {
			return nil, errors.New("no more passwords")
		}
		pw := answers[0]
		answers = answers[1:]
		return []byte(pw), nil
	}
}

type testServer struct {
	url    string
	issuer *auth.Issuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	issuer, err := auth.NewIssuer("HS256", []byte("cli-secret"), time.Minute)
	require.NoError(t, err)

	dir := memory.New()
	svc := users.NewService(dir, password.NewHasher(bcrypt.MinCost), issuer, logging.Nop{})
	_, err = svc.EnsureAdmin(context.Background(), "admin", "secret")
	require.NoError(t, err)

	router := httpapi.NewRouter(httpapi.Options{
		Users:          svc,
		Guard:          auth.NewGuard(issuer, time.Now),
		Health:         dir,
		Logger:         logging.Nop{},
		RequestTimeout: time.Second,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{url: srv.URL, issuer: issuer}
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(EnvToken, "")
	t.Setenv(EnvServer, "")

	var out bytes.Buffer
	root := NewRootCommand(strings.NewReader(stdin), &out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLogin_PrintsToken(t *testing.T) {
	ts := newTestServer(t)
	stubPasswords(t, "secret")

	out, err := run(t, "admin\n", "--server", ts.url, "login")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	token := lines[len(lines)-1]
	p, err := ts.issuer.Validate(token, time.Now())
	require.NoError(t, err)
	assert.True(t, p.IsAdmin)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t)
	stubPasswords(t, "nope")

	_, err := run(t, "admin\n", "--server", ts.url, "login")
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Contains(t, err.Error(), "Wrong username or password")
}

func TestUsersList_WithToken(t *testing.T) {
	ts := newTestServer(t)
	stubPasswords(t)

	token, err := ts.issuer.Issue("ignored", true, time.Now())
	require.NoError(t, err)

	// The subject does not need to exist for the admin gate; only the claim counts.
	out, err := run(t, "", "--server", ts.url, "--token", token, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "USERNAME")
	assert.Contains(t, out, "admin")
}

func TestUsersCreate_InteractiveLogin(t *testing.T) {
	ts := newTestServer(t)
	stubPasswords(t, "secret", "bob-pw", "bob-pw")

	out, err := run(t, "admin\n", "--server", ts.url, "users", "create", "bob", "--full-name", "Bob B")
	require.NoError(t, err)
	assert.Contains(t, out, "created user bob")
	assert.Contains(t, out, "admin false")

	stubPasswords(t, "bob-pw")
	out, err = run(t, "bob\n", "--server", ts.url, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "authenticated :)")
}

func TestUsersCreate_PasswordMismatch(t *testing.T) {
	ts := newTestServer(t)
	stubPasswords(t, "secret", "one", "two")

	_, err := run(t, "admin\n", "--server", ts.url, "users", "create", "carol")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passwords do not match")
}

func TestUsersCreate_Duplicate(t *testing.T) {
	ts := newTestServer(t)
	token, err := ts.issuer.Issue("x", true, time.Now())
	require.NoError(t, err)
	stubPasswords(t, "pw", "pw")

	_, err = run(t, "", "--server", ts.url, "--token", token, "users", "create", "admin")
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrConflict)
}

func TestUsersList_NonAdminForbidden(t *testing.T) {
	ts := newTestServer(t)
	token, err := ts.issuer.Issue("x", false, time.Now())
	require.NoError(t, err)

	_, err = run(t, "", "--server", ts.url, "--token", token, "users", "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrForbidden)
}

func TestWhoAmI_ServerDown(t *testing.T) {
	ts := newTestServer(t)
	token, err := ts.issuer.Issue("x", false, time.Now())
	require.NoError(t, err)

	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()

	_, err = run(t, "", "--server", url, "--token", token, "--timeout", "2s", "whoami")
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrUnavailable)
	assert.Contains(t, err.Error(), "cannot reach server")
}

func TestGetSimpleText(t *testing.T) {
	var w bytes.Buffer

	got, err := GetSimpleText(bufio.NewReader(strings.NewReader("  alice \n")), "Username", &w)
	require.NoError(t, err)
	assert.Equal(t, "alice", got)
	assert.Equal(t, "Username: ", w.String())

	got, err = GetSimpleText(bufio.NewReader(strings.NewReader("partial")), "Username", &w)
	require.NoError(t, err)
	assert.Equal(t, "partial", got)

	_, err = GetSimpleText(bufio.NewReader(strings.NewReader("")), "Username", &w)
	assert.Error(t, err)
}

func TestGetPassword(t *testing.T) {
	stubPasswords(t, "pw")
	var w bytes.Buffer

	got, err := GetPassword("Password", &w)
	require.NoError(t, err)
	assert.Equal(t, []byte("pw"), got)
	assert.Equal(t, "Password: \n", w.String())

	_, err = GetPassword("Password", &w)
	assert.Error(t, err)
}
