package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"codex/internal/models"
)

type authResponse struct {
	Success bool         `json:"success"`
	User    *models.User `json:"user"`
}

type sessionsResponse struct {
	Sessions []models.Session `json:"sessions"`
}

type sessionResponse struct {
	Session models.Session `json:"session"`
}

type messagesResponse struct {
	Messages  []models.Message `json:"messages"`
	ChatCount int              `json:"chatCount"`
}

type documentsResponse struct {
	Documents []models.Document `json:"documents"`
}

type checkUserResponse struct {
	Exists bool `json:"exists"`
}

func (c *Client) CheckAuth(ctx context.Context) (models.Identity, error) {
	var id models.Identity
	err := c.doJSON(ctx, http.MethodGet, "/check-auth", nil, &id)
	return id, err
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out authResponse
	in := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/login", in, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/logout", nil, nil)
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var out authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/register", req, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) CheckUser(ctx context.Context, email string) (bool, error) {
	var out checkUserResponse
	err := c.doJSON(ctx, http.MethodGet, "/check-user/"+url.PathEscape(email), nil, &out)
	return out.Exists, err
}

func (c *Client) ListSessions(ctx context.Context) ([]models.Session, error) {
	var out sessionsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

func (c *Client) CreateSession(ctx context.Context) (models.Session, error) {
	var out sessionResponse
	err := c.doJSON(ctx, http.MethodPost, "/sessions/new", nil, &out)
	return out.Session, err
}

func (c *Client) RenameSession(ctx context.Context, id int64, name string) (models.Session, error) {
	var out sessionResponse
	err := c.doJSON(ctx, http.MethodPatch, sessionPath(id), map[string]string{"name": name}, &out)
	return out.Session, err
}

func (c *Client) DeleteSession(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, sessionPath(id), nil, nil)
}

func (c *Client) SessionMessages(ctx context.Context, id int64) ([]models.Message, error) {
	var out messagesResponse
	if err := c.doJSON(ctx, http.MethodGet, sessionPath(id)+"/messages", nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *Client) SessionDocuments(ctx context.Context, id int64) ([]models.Document, error) {
	var out documentsResponse
	if err := c.doJSON(ctx, http.MethodGet, sessionPath(id)+"/documents", nil, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	var out models.ChatResponse
	err := c.doJSON(ctx, http.MethodPost, "/chat", req, &out)
	return out, err
}

// Upload posts one file as multipart field "file". A zero sessionID lets the
// server create a new session.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader, sessionID int64) (models.UploadResponse, error) {
	var out models.UploadResponse

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return out, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return out, fmt.Errorf("read %s: %w", filename, err)
	}
	if sessionID != 0 {
		if err := mw.WriteField("session_id", strconv.FormatInt(sessionID, 10)); err != nil {
			return out, err
		}
	}
	if err := mw.Close(); err != nil {
		return out, err
	}

	err = c.do(ctx, http.MethodPost, "/upload", &buf, mw.FormDataContentType(), &out)
	return out, err
}

// UploadFile opens path and uploads it under its base name.
func (c *Client) UploadFile(ctx context.Context, path string, sessionID int64) (models.UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.UploadResponse{}, err
	}
	defer f.Close()
	return c.Upload(ctx, filepath.Base(path), f, sessionID)
}

func sessionPath(id int64) string {
	return "/sessions/" + strconv.FormatInt(id, 10)
}
