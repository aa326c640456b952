// Package auth holds the signed-in state shared by the shell and the CLI.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"codex/internal/api"
	"codex/internal/logger"
	"codex/internal/models"

	"github.com/go-playground/validator/v10"
)

const module = "auth"

type State int

const (
	Loading State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "loading"
	}
}

var (
	ErrFieldsRequired   = errors.New("All fields are required")
	ErrInvalidEmail     = errors.New("Please enter a valid email address")
	ErrPasswordMismatch = errors.New("Passwords do not match")
	ErrEmailTaken       = errors.New("Email already exists")
)

// Backend is the slice of the API client the provider needs.
type Backend interface {
	CheckAuth(ctx context.Context) (models.Identity, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout(ctx context.Context) error
	CheckUser(ctx context.Context, email string) (bool, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
}

type LoginForm struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type RegisterForm struct {
	FirstName       string `validate:"required"`
	LastName        string `validate:"required"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required"`
	ConfirmPassword string `validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports the first problem with the form, or nil.
func (f LoginForm) Validate() error {
	f.Email = strings.TrimSpace(f.Email)
	if err := validate.Struct(f); err != nil {
		return ErrFieldsRequired
	}
	return nil
}

func (f RegisterForm) Validate() error {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)

	err := validate.Struct(f)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				return ErrFieldsRequired
			}
		}
		return ErrInvalidEmail
	}
	if err != nil {
		return err
	}
	if f.Password != f.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}

// Provider is built once at the root and shared by reference.
type Provider struct {
	backend Backend
	log     logger.Logger

	mu    sync.RWMutex
	state State
	user  *models.User
}

func NewProvider(backend Backend, log logger.Logger) *Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &Provider{backend: backend, log: log, state: Loading}
}

// Snapshot returns the current state and a copy of the user.
func (p *Provider) Snapshot() (State, *models.User) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.user == nil {
		return p.state, nil
	}
	u := *p.user
	return p.state, &u
}

func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Provider) set(state State, user *models.User) {
	p.mu.Lock()
	p.state = state
	p.user = user
	p.mu.Unlock()
}

// Probe asks the server whether the cookie is still good. Failures are not
// surfaced: they leave the provider unauthenticated.
func (p *Provider) Probe(ctx context.Context) State {
	id, err := p.backend.CheckAuth(ctx)
	if err != nil {
		p.log.Warn(module, "auth probe failed", map[string]interface{}{"error": err})
		p.set(Unauthenticated, nil)
		return Unauthenticated
	}
	if !id.Authenticated {
		p.set(Unauthenticated, nil)
		return Unauthenticated
	}
	p.set(Authenticated, id.User)
	return Authenticated
}

func (p *Provider) Login(ctx context.Context, form LoginForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	user, err := p.backend.Login(ctx, strings.TrimSpace(form.Email), form.Password)
	if err != nil {
		p.log.Info(module, "login rejected", map[string]interface{}{"error": err})
		return err
	}
	p.set(Authenticated, user)
	p.log.Info(module, "logged in", nil)
	return nil
}

// Logout always ends unauthenticated, whatever the server says.
func (p *Provider) Logout(ctx context.Context) {
	if err := p.backend.Logout(ctx); err != nil {
		p.log.Warn(module, "logout request failed", map[string]interface{}{"error": err})
	}
	p.set(Unauthenticated, nil)
}

// Register validates locally, checks the email is free, creates the account
// and then signs in with the new credentials.
func (p *Provider) Register(ctx context.Context, form RegisterForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	email := strings.TrimSpace(form.Email)

	exists, err := p.backend.CheckUser(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return ErrEmailTaken
	}

	_, err = p.backend.Register(ctx, models.RegisterRequest{
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Email:     email,
		Password:  form.Password,
	})
	if err != nil {
		return err
	}
	return p.Login(ctx, LoginForm{Email: email, Password: form.Password})
}

// ErrorText turns an error from Login or Register into form copy.
func ErrorText(err error, fallback string) string {
	switch {
	case errors.Is(err, ErrFieldsRequired), errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrPasswordMismatch), errors.Is(err, ErrEmailTaken):
		return err.Error()
	}
	return api.ErrorText(err, fallback)
}

func Greeting(now time.Time) string {
	switch h := now.Hour(); {
	case h < 12:
		return "Good morning"
	case h < 18:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}
