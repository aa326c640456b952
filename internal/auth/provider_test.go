package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"codex/internal/api"
	"codex/internal/api/apitest"
	"codex/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvider(t *testing.T) (*Provider, *apitest.Server) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	client, err := api.New(srv.URL)
	require.NoError(t, err)
	return NewProvider(client, logger.Nop()), srv
}

func TestProvider_StartsLoading(t *testing.T) {
	p, _ := newProvider(t)
	assert.Equal(t, Loading, p.State())
}

func TestProbe_NoCookieIsUnauthenticated(t *testing.T) {
	p, _ := newProvider(t)
	assert.Equal(t, Unauthenticated, p.Probe(context.Background()))
	state, user := p.Snapshot()
	assert.Equal(t, Unauthenticated, state)
	assert.Nil(t, user)
}

func TestProbe_ServerErrorIsUnauthenticated(t *testing.T) {
	p, srv := newProvider(t)
	srv.Fail("GET /check-auth", http.StatusInternalServerError, "db down")
	assert.Equal(t, Unauthenticated, p.Probe(context.Background()))
}

func TestProbe_UnreachableIsUnauthenticated(t *testing.T) {
	p, srv := newProvider(t)
	srv.Close()
	assert.Equal(t, Unauthenticated, p.Probe(context.Background()))
}

func TestLogin_ThenProbe(t *testing.T) {
	p, srv := newProvider(t)
	srv.AddUser("Ada", "ada@example.com", "secret1")
	ctx := context.Background()

	require.NoError(t, p.Login(ctx, LoginForm{Email: " ada@example.com ", Password: "secret1"}))
	state, user := p.Snapshot()
	assert.Equal(t, Authenticated, state)
	require.NotNil(t, user)
	assert.Equal(t, "Ada", user.FirstName)

	assert.Equal(t, Authenticated, p.Probe(ctx))
}

func TestLogin_EmptyFieldsSkipNetwork(t *testing.T) {
	p, srv := newProvider(t)
	err := p.Login(context.Background(), LoginForm{Email: "ada@example.com"})
	assert.ErrorIs(t, err, ErrFieldsRequired)
	assert.Zero(t, srv.Hits("POST /login"))
}

func TestLogin_RejectedKeepsState(t *testing.T) {
	p, srv := newProvider(t)
	srv.AddUser("Ada", "ada@example.com", "secret1")
	p.Probe(context.Background())

	err := p.Login(context.Background(), LoginForm{Email: "ada@example.com", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", ErrorText(err, "Login failed"))
	assert.Equal(t, Unauthenticated, p.State())
}

func TestLogout_AlwaysUnauthenticated(t *testing.T) {
	p, srv := newProvider(t)
	srv.AddUser("Ada", "ada@example.com", "secret1")
	ctx := context.Background()
	require.NoError(t, p.Login(ctx, LoginForm{Email: "ada@example.com", Password: "secret1"}))

	srv.Fail("POST /logout", http.StatusInternalServerError, "boom")
	p.Logout(ctx)
	assert.Equal(t, Unauthenticated, p.State())
}

func TestRegister_Validation(t *testing.T) {
	valid := RegisterForm{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "pw", ConfirmPassword: "pw"}

	missing := valid
	missing.LastName = "  "
	assert.ErrorIs(t, missing.Validate(), ErrFieldsRequired)

	badEmail := valid
	badEmail.Email = "not-an-email"
	assert.ErrorIs(t, badEmail.Validate(), ErrInvalidEmail)

	mismatch := valid
	mismatch.ConfirmPassword = "other"
	assert.ErrorIs(t, mismatch.Validate(), ErrPasswordMismatch)

	assert.NoError(t, valid.Validate())
}

func TestRegister_MismatchSkipsNetwork(t *testing.T) {
	p, srv := newProvider(t)
	err := p.Register(context.Background(), RegisterForm{
		FirstName: "Ada", LastName: "L", Email: "ada@example.com", Password: "a", ConfirmPassword: "b",
	})
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	assert.Zero(t, srv.Hits("GET /check-user/{email}"))
	assert.Zero(t, srv.Hits("POST /register"))
}

func TestRegister_EmailTaken(t *testing.T) {
	p, srv := newProvider(t)
	srv.AddUser("Ada", "ada@example.com", "secret1")
	err := p.Register(context.Background(), RegisterForm{
		FirstName: "Ada", LastName: "L", Email: "ada@example.com", Password: "x", ConfirmPassword: "x",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Equal(t, "Email already exists", ErrorText(err, "Registration failed"))
	assert.Zero(t, srv.Hits("POST /register"))
}

func TestRegister_SignsIn(t *testing.T) {
	p, srv := newProvider(t)
	err := p.Register(context.Background(), RegisterForm{
		FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Password: "cobol1", ConfirmPassword: "cobol1",
	})
	require.NoError(t, err)
	state, user := p.Snapshot()
	assert.Equal(t, Authenticated, state)
	require.NotNil(t, user)
	assert.Equal(t, "Grace", user.FirstName)
	assert.Equal(t, 1, srv.Hits("POST /login"))
}

func TestErrorText_Fallback(t *testing.T) {
	assert.Equal(t, "Registration failed", ErrorText(context.Canceled, "Registration failed"))
}

func TestGreeting(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2024, 1, 1, h, 30, 0, 0, time.Local) }
	assert.Equal(t, "Good morning", Greeting(at(0)))
	assert.Equal(t, "Good morning", Greeting(at(11)))
	assert.Equal(t, "Good afternoon", Greeting(at(12)))
	assert.Equal(t, "Good afternoon", Greeting(at(17)))
	assert.Equal(t, "Good evening", Greeting(at(18)))
	assert.Equal(t, "Good evening", Greeting(at(23)))
}
