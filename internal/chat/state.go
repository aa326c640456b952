// Package chat holds the transcript, attachments and usage counters of the
// active session.
//
// State is not safe for concurrent use. In the TUI it is owned by the
// bubbletea Update loop; network work happens in commands that carry the
// Generation they were issued under, and results from an older generation
// are dropped when they arrive.
package chat

import (
	"strings"

	"codex/internal/api"
	"codex/internal/models"
)

// ScrollHintDistance is how many lines above the bottom the transcript may
// sit before the jump-to-bottom hint appears.
const ScrollHintDistance = 3

const sendFallback = "Error sending message"

// Generation identifies one activation of a session.
type Generation uint64

type WarningLevel int

const (
	WarningNone WarningLevel = iota
	WarningSoft
	WarningAlert
)

func (w WarningLevel) Message() string {
	switch w {
	case WarningAlert:
		return "This conversation is getting quite long. Consider starting a new chat for better performance."
	case WarningSoft:
		return "Long conversations may impact response quality as context gets truncated."
	}
	return ""
}

// Outgoing is a chat request ready to post, tagged with its generation.
type Outgoing struct {
	Generation Generation
	Request    models.ChatRequest
}

type State struct {
	sessionID  int64
	generation Generation

	messages  []models.Message
	documents []models.Document
	usage     models.ChatUsage

	// thresholds are server-wide and arrive with the first chat reply
	thresholdsKnown bool
	isNewChat       bool
	loading         bool
	uploading       bool
	mode            models.ChatMode
}

func NewState() *State {
	return &State{mode: models.ModeBalanced, isNewChat: true}
}

// Activate resets everything for sessionID except the learned thresholds.
// Zero deactivates.
func (s *State) Activate(sessionID int64) Generation {
	s.generation++
	s.sessionID = sessionID
	s.messages = nil
	s.documents = nil
	s.usage.ChatCount = 0
	s.isNewChat = true
	s.loading = false
	s.uploading = false
	return s.generation
}

func (s *State) SessionID() int64 { return s.sessionID }
func (s *State) Generation() Generation { return s.generation }
func (s *State) Current(gen Generation) bool { return gen == s.generation }
func (s *State) Usage() models.ChatUsage { return s.usage }
func (s *State) IsNewChat() bool { return s.isNewChat }
func (s *State) Loading() bool { return s.loading }
func (s *State) Uploading() bool { return s.uploading }
func (s *State) Mode() models.ChatMode { return s.mode }

func (s *State) Messages() []models.Message {
	return append([]models.Message(nil), s.messages...)
}

func (s *State) Documents() []models.Document {
	return append([]models.Document(nil), s.documents...)
}

// SetMode ignores unknown modes.
func (s *State) SetMode(m models.ChatMode) bool {
	if !m.Valid() {
		return false
	}
	s.mode = m
	return true
}

// ApplyMessages installs a fetched transcript. Each complete exchange is a
// user message plus its reply, so chatCount is half the message count.
func (s *State) ApplyMessages(gen Generation, msgs []models.Message) bool {
	if !s.Current(gen) {
		return false
	}
	s.messages = append([]models.Message(nil), msgs...)
	s.usage.ChatCount = len(msgs) / 2
	s.isNewChat = s.usage.ChatCount == 0
	return true
}

func (s *State) ApplyDocuments(gen Generation, docs []models.Document) bool {
	if !s.Current(gen) {
		return false
	}
	s.documents = append([]models.Document(nil), docs...)
	return true
}

// BeginSend appends the user's message optimistically. It is a no-op when
// input is blank, no session is active or a reply is still pending.
func (s *State) BeginSend(input string) (Outgoing, bool) {
	if strings.TrimSpace(input) == "" || s.sessionID == 0 || s.loading {
		return Outgoing{}, false
	}
	s.messages = append(s.messages, models.Message{IsUser: true, Text: input, Mode: s.mode})
	s.loading = true
	return Outgoing{
		Generation: s.generation,
		Request:    models.ChatRequest{Message: input, SessionID: s.sessionID, Mode: s.mode},
	}, true
}

// ApplySendResult records the reply (or failure) for a request made under gen.
func (s *State) ApplySendResult(gen Generation, resp models.ChatResponse, err error) bool {
	if !s.Current(gen) {
		return false
	}
	s.loading = false

	if err != nil {
		s.messages = append(s.messages, models.Message{
			Text:    api.ErrorText(err, sendFallback),
			IsError: true,
		})
		return true
	}

	s.messages = append(s.messages, models.Message{Text: resp.Response, Mode: s.mode})
	if resp.Session.ID == s.sessionID {
		if resp.ChatCount > s.usage.ChatCount {
			s.usage.ChatCount = resp.ChatCount
		}
		s.usage.WarningThreshold = resp.WarningThreshold
		s.usage.AlertThreshold = resp.AlertThreshold
		s.thresholdsKnown = true
		if s.usage.ChatCount > 0 {
			s.isNewChat = false
		}
	}
	return true
}

// Warning is only raised once the server has told us its thresholds.
func (s *State) Warning() WarningLevel {
	return Level(s.usage, s.thresholdsKnown)
}

func Level(u models.ChatUsage, thresholdsKnown bool) WarningLevel {
	if !thresholdsKnown || u.ChatCount <= 0 {
		return WarningNone
	}
	switch {
	case u.ChatCount >= u.AlertThreshold:
		return WarningAlert
	case u.ChatCount >= u.WarningThreshold:
		return WarningSoft
	}
	return WarningNone
}

// ShowScrollHint reports whether the jump-to-bottom hint should be visible.
func ShowScrollHint(linesFromBottom int) bool {
	return linesFromBottom > ScrollHintDistance
}
