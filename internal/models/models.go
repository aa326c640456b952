package models

import "time"

// ChatMode is the response style attached to an exchange
type ChatMode string

const (
	ModeConcise  ChatMode = "concise"
	ModeBalanced ChatMode = "balanced"
	ModeDetailed ChatMode = "detailed"
)

// ModeInfo describes a ChatMode for the selector
type ModeInfo struct {
	Mode        ChatMode
	Label       string
	Description string
}

// AvailableModes is ordered the way the selector lists them
var AvailableModes = []ModeInfo{
	{Mode: ModeConcise, Label: "Concise", Description: "Brief, focused answers"},
	{Mode: ModeBalanced, Label: "Balanced", Description: "Clear, well-explained answers"},
	{Mode: ModeDetailed, Label: "Detailed", Description: "Comprehensive, thorough explanations"},
}

// Label returns the display label, or the raw value for unknown modes
func (m ChatMode) Label() string {
	for _, info := range AvailableModes {
		if info.Mode == m {
			return info.Label
		}
	}
	return string(m)
}

func (m ChatMode) Valid() bool {
	for _, info := range AvailableModes {
		if info.Mode == m {
			return true
		}
	}
	return false
}

type Document struct {
	ID         int64  `json:"id"`
	Filename   string `json:"filename"`
	UploadedAt string `json:"uploaded_at,omitempty"`
}

type Session struct {
	ID        int64      `json:"id"`
	Name      *string    `json:"name,omitempty"`
	CreatedAt string     `json:"created_at"`
	Documents []Document `json:"documents"`
}

// IsDraft reports whether the session is a document-less "new chat" placeholder
func (s Session) IsDraft() bool {
	return len(s.Documents) == 0
}

// DisplayName falls back to the first document, then to "New Chat"
func (s Session) DisplayName() string {
	if s.Name != nil && *s.Name != "" {
		return *s.Name
	}
	if len(s.Documents) > 0 {
		return s.Documents[0].Filename
	}
	return "New Chat"
}

// CreatedTime parses CreatedAt; unparseable values sort as the zero time
func (s Session) CreatedTime() time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s.CreatedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

type Message struct {
	IsUser  bool     `json:"isUser"`
	Text    string   `json:"text"`
	Mode    ChatMode `json:"mode,omitempty"`
	IsError bool     `json:"isError,omitempty"`
}

// ChatUsage holds the server-computed exchange counter and thresholds
type ChatUsage struct {
	ChatCount        int `json:"chatCount"`
	WarningThreshold int `json:"warningThreshold"`
	AlertThreshold   int `json:"alertThreshold"`
}

type User struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
}

type Identity struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user"`
}

type ChatRequest struct {
	Message   string   `json:"message"`
	SessionID int64    `json:"session_id"`
	Mode      ChatMode `json:"mode"`
}

type ChatResponse struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources,omitempty"`
	Session  Session  `json:"session"`
	Mode     ChatMode `json:"mode,omitempty"`
	ChatUsage
}

type UploadResponse struct {
	Success   bool     `json:"success"`
	SessionID int64    `json:"session_id"`
	Document  Document `json:"document"`
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}
