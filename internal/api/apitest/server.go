// Package apitest is an in-memory stand-in for the document-chat backend,
// used by package tests across the module.
package apitest

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"codex/internal/models"
)

const cookieName = "session"

type user struct {
	models.User
	password string
}

type chatRow struct {
	message  string
	response string
	mode     models.ChatMode
}

type session struct {
	models.Session
	owner string
	chats []chatRow
}

// Failure forces a route to answer with Status and {"error": Message}.
type Failure struct {
	Status  int
	Message string
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	users    map[string]*user
	sessions []*session
	tokens   map[string]string
	nextID   int64
	hits     map[string]int

	// Warning and Alert are echoed on every /chat reply
	Warning int
	Alert   int

	failures     map[string]Failure
	uploadErrors map[string]string
	clock        time.Time
}

func New() *Server {
	s := &Server{
		users:        map[string]*user{},
		tokens:       map[string]string{},
		hits:         map[string]int{},
		failures:     map[string]Failure{},
		uploadErrors: map[string]string{},
		nextID:       1,
		Warning:      5,
		Alert:        10,
		clock:        time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /check-auth", s.checkAuth)
	mux.HandleFunc("POST /login", s.login)
	mux.HandleFunc("POST /logout", s.logout)
	mux.HandleFunc("POST /register", s.register)
	mux.HandleFunc("GET /check-user/{email}", s.checkUser)
	mux.HandleFunc("GET /sessions", s.authed(s.listSessions))
	mux.HandleFunc("POST /sessions/new", s.authed(s.createSession))
	mux.HandleFunc("PATCH /sessions/{id}", s.authed(s.renameSession))
	mux.HandleFunc("DELETE /sessions/{id}", s.authed(s.deleteSession))
	mux.HandleFunc("GET /sessions/{id}/messages", s.authed(s.sessionMessages))
	mux.HandleFunc("GET /sessions/{id}/documents", s.authed(s.sessionDocuments))
	mux.HandleFunc("POST /upload", s.authed(s.upload))
	mux.HandleFunc("POST /chat", s.authed(s.chat))

	s.Server = httptest.NewServer(s.record(mux))
	return s
}

// AddUser registers an account directly.
func (s *Server) AddUser(firstName, email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = &user{User: models.User{FirstName: firstName, Email: email}, password: password}
}

// AddSession seeds a session for owner with the given documents and n complete exchanges.
func (s *Server) AddSession(owner string, createdAt time.Time, filenames []string, exchanges int) models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &session{owner: owner}
	sess.ID = s.id()
	sess.CreatedAt = createdAt.UTC().Format("2006-01-02T15:04:05.000000")
	sess.Documents = []models.Document{}
	for _, name := range filenames {
		sess.Documents = append(sess.Documents, models.Document{ID: s.id(), Filename: name})
	}
	for i := 0; i < exchanges; i++ {
		sess.chats = append(sess.chats, chatRow{
			message:  fmt.Sprintf("question %d", i+1),
			response: fmt.Sprintf("answer %d", i+1),
			mode:     models.ModeBalanced,
		})
	}
	s.sessions = append(s.sessions, sess)
	return cloneSession(sess)
}

// Fail makes route (a mux pattern such as "POST /chat") fail until cleared.
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = Failure{Status: status, Message: message}
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]Failure{}
}

// FailUpload rejects uploads of filename with message.
func (s *Server) FailUpload(filename, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadErrors[filename] = message
}

// Hits returns how many requests reached route.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// Session returns the server-side copy of a session.
func (s *Server) Session(id int64) (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess := s.find(id, ""); sess != nil {
		return cloneSession(sess), true
	}
	return models.Session{}, false
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := next.(*http.ServeMux).Handler(r)
		s.mu.Lock()
		s.hits[pattern]++
		f, failing := s.failures[pattern]
		s.mu.Unlock()
		if failing {
			writeError(w, f.Status, f.Message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authed(h func(w http.ResponseWriter, r *http.Request, email string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, ok := s.current(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		h(w, r, email)
	}
}

func (s *Server) current(r *http.Request) (string, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.tokens[c.Value]
	return email, ok
}

func (s *Server) checkAuth(w http.ResponseWriter, r *http.Request) {
	email, ok := s.current(r)
	out := models.Identity{Authenticated: ok}
	if ok {
		s.mu.Lock()
		if u := s.users[email]; u != nil {
			usr := u.User
			out.User = &usr
		}
		s.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	s.mu.Lock()
	u := s.users[strings.TrimSpace(in.Email)]
	s.mu.Unlock()
	if u == nil || u.password != in.Password {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	s.startSession(w, u.Email)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": u.User})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(cookieName); err == nil {
		s.mu.Lock()
		delete(s.tokens, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	s.mu.Lock()
	if _, exists := s.users[in.Email]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "Email already exists")
		return
	}
	u := &user{User: models.User{FirstName: in.FirstName, LastName: in.LastName, Email: in.Email}, password: in.Password}
	s.users[in.Email] = u
	s.mu.Unlock()
	s.startSession(w, in.Email)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "user": u.User})
}

func (s *Server) checkUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	_, exists := s.users[r.PathValue("email")]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request, email string) {
	s.mu.Lock()
	out := []models.Session{}
	for _, sess := range s.sessions {
		if sess.owner == email {
			out = append(out, cloneSession(sess))
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request, email string) {
	s.mu.Lock()
	sess := s.newSession(email)
	out := cloneSession(sess)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"session": out})
}

func (s *Server) renameSession(w http.ResponseWriter, r *http.Request, email string) {
	var in struct {
		Name *string `json:"name"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.find(pathID(r), email)
	if sess == nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if in.Name != nil {
		name := *in.Name
		sess.Name = &name
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "session": cloneSession(sess)})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := pathID(r)
	for i, sess := range s.sessions {
		if sess.ID == id && sess.owner == email {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Session deleted successfully"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Session not found")
}

func (s *Server) sessionMessages(w http.ResponseWriter, r *http.Request, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.find(pathID(r), email)
	if sess == nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	msgs := []models.Message{}
	for _, c := range sess.chats {
		msgs = append(msgs,
			models.Message{IsUser: true, Text: c.message, Mode: c.mode},
			models.Message{IsUser: false, Text: c.response, Mode: c.mode},
		)
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs, "chatCount": len(sess.chats)})
}

func (s *Server) sessionDocuments(w http.ResponseWriter, r *http.Request, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.find(pathID(r), email)
	if sess == nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": sess.Documents})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request, email string) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	_, _ = io.Copy(io.Discard, file)
	file.Close()

	if !strings.HasSuffix(header.Filename, ".pdf") {
		writeError(w, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, bad := s.uploadErrors[header.Filename]; bad {
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	var sess *session
	if raw := r.FormValue("session_id"); raw != "" {
		id, _ := strconv.ParseInt(raw, 10, 64)
		if sess = s.find(id, email); sess == nil {
			writeError(w, http.StatusBadRequest, "Invalid session")
			return
		}
	} else {
		sess = s.newSession(email)
	}
	doc := models.Document{ID: s.id(), Filename: header.Filename, UploadedAt: s.clock.Format(time.RFC3339)}
	sess.Documents = append(sess.Documents, doc)
	writeJSON(w, http.StatusOK, models.UploadResponse{Success: true, SessionID: sess.ID, Document: doc})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request, email string) {
	var in models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if in.Mode == "" {
		in.Mode = models.ModeBalanced
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.find(in.SessionID, email)
	if sess == nil {
		writeError(w, http.StatusBadRequest, "Invalid session")
		return
	}
	answer := fmt.Sprintf("(%s) answer to: %s", in.Mode, in.Message)
	sess.chats = append(sess.chats, chatRow{message: in.Message, response: answer, mode: in.Mode})
	writeJSON(w, http.StatusOK, models.ChatResponse{
		Response: answer,
		Session:  cloneSession(sess),
		Mode:     in.Mode,
		ChatUsage: models.ChatUsage{
			ChatCount:        len(sess.chats),
			WarningThreshold: s.Warning,
			AlertThreshold:   s.Alert,
		},
	})
}

func (s *Server) startSession(w http.ResponseWriter, email string) {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	token := hex.EncodeToString(b)
	s.mu.Lock()
	s.tokens[token] = email
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: token, Path: "/", HttpOnly: true})
}

// newSession must be called with mu held.
func (s *Server) newSession(email string) *session {
	s.clock = s.clock.Add(time.Minute)
	sess := &session{owner: email}
	sess.ID = s.id()
	sess.CreatedAt = s.clock.Format("2006-01-02T15:04:05.000000")
	sess.Documents = []models.Document{}
	s.sessions = append(s.sessions, sess)
	return sess
}

// find must be called with mu held; an empty owner matches any.
func (s *Server) find(id int64, owner string) *session {
	for _, sess := range s.sessions {
		if sess.ID == id && (owner == "" || sess.owner == owner) {
			return sess
		}
	}
	return nil
}

func (s *Server) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id
}

func cloneSession(sess *session) models.Session {
	out := sess.Session
	out.Documents = append([]models.Document{}, sess.Documents...)
	if sess.Name != nil {
		name := *sess.Name
		out.Name = &name
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
