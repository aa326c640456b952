// Package sessions keeps the sidebar's list of chat sessions and the active
// selection.
package sessions

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"codex/internal/logger"
	"codex/internal/models"

	"github.com/mattn/go-runewidth"
)

const (
	module = "sessions"

	TitleWidth    = 25
	MaxNameLength = 50
)

type Backend interface {
	ListSessions(ctx context.Context) ([]models.Session, error)
	CreateSession(ctx context.Context) (models.Session, error)
	RenameSession(ctx context.Context, id int64, name string) (models.Session, error)
	DeleteSession(ctx context.Context, id int64) error
}

// List is owned by one goroutine (the bubbletea Update loop or a CLI command).
type List struct {
	backend Backend
	log     logger.Logger

	items    []models.Session
	activeID int64
}

func NewList(backend Backend, log logger.Logger) *List {
	if log == nil {
		log = logger.Nop()
	}
	return &List{backend: backend, log: log}
}

// Sorted returns drafts first, then newest first.
func (l *List) Sorted() []models.Session {
	return Sort(l.items)
}

func Sort(in []models.Session) []models.Session {
	out := make([]models.Session, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].IsDraft(), out[j].IsDraft()
		if di != dj {
			return di
		}
		return out[i].CreatedTime().After(out[j].CreatedTime())
	})
	return out
}

func (l *List) Len() int { return len(l.items) }

func (l *List) ActiveID() int64 { return l.activeID }

func (l *List) Active() (models.Session, bool) {
	return l.Get(l.activeID)
}

func (l *List) Get(id int64) (models.Session, bool) {
	if id == 0 {
		return models.Session{}, false
	}
	for _, s := range l.items {
		if s.ID == id {
			return s, true
		}
	}
	return models.Session{}, false
}

// Select makes id active; unknown ids clear the selection.
func (l *List) Select(id int64) {
	if _, ok := l.Get(id); ok {
		l.activeID = id
		return
	}
	l.activeID = 0
}

func (l *List) ClearSelection() { l.activeID = 0 }

// Draft returns the first document-less session, if any.
func (l *List) Draft() (models.Session, bool) {
	for _, s := range l.Sorted() {
		if s.IsDraft() {
			return s, true
		}
	}
	return models.Session{}, false
}

// Replace swaps in a freshly fetched list, dropping a selection that vanished.
func (l *List) Replace(items []models.Session) {
	l.items = append([]models.Session(nil), items...)
	if _, ok := l.Get(l.activeID); !ok {
		l.activeID = 0
	}
}

// ApplyCreated prepends a session the server just created and selects it.
func (l *List) ApplyCreated(s models.Session) {
	l.items = append([]models.Session{s}, l.items...)
	l.activeID = s.ID
}

// SetDocuments updates the cached document list of one session.
func (l *List) SetDocuments(id int64, docs []models.Document) {
	for i := range l.items {
		if l.items[i].ID == id {
			l.items[i].Documents = append([]models.Document(nil), docs...)
			return
		}
	}
}

// ApplyRename records a name the server accepted.
func (l *List) ApplyRename(id int64, name string) {
	for i := range l.items {
		if l.items[i].ID == id {
			n := name
			l.items[i].Name = &n
			return
		}
	}
}

// ApplyDelete drops id and returns the session to select next: the first
// remaining in sorted order when id was active, else the current selection.
func (l *List) ApplyDelete(id int64) int64 {
	kept := l.items[:0]
	for _, s := range l.items {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	l.items = kept
	if l.activeID == id {
		l.activeID = 0
		if sorted := l.Sorted(); len(sorted) > 0 {
			l.activeID = sorted[0].ID
		}
	}
	return l.activeID
}

func (l *List) Load(ctx context.Context) error {
	items, err := l.backend.ListSessions(ctx)
	if err != nil {
		l.log.Error(module, "fetch sessions failed", map[string]interface{}{"error": err})
		return err
	}
	l.Replace(items)
	return nil
}

// Create selects an existing draft instead of asking the server for another.
func (l *List) Create(ctx context.Context) (models.Session, error) {
	if draft, ok := l.Draft(); ok {
		l.activeID = draft.ID
		return draft, nil
	}
	s, err := l.backend.CreateSession(ctx)
	if err != nil {
		l.log.Error(module, "create session failed", map[string]interface{}{"error": err})
		return models.Session{}, err
	}
	l.ApplyCreated(s)
	return s, nil
}

// Rename applies the trimmed name locally only after the server accepts it.
func (l *List) Rename(ctx context.Context, id int64, name string) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}
	if _, err := l.backend.RenameSession(ctx, id, name); err != nil {
		l.log.Error(module, "rename session failed", map[string]interface{}{
			"session_id": id,
			"error":      err,
		})
		return err
	}
	l.ApplyRename(id, name)
	return nil
}

// Delete expects the caller to have confirmed already.
func (l *List) Delete(ctx context.Context, id int64) error {
	if err := l.backend.DeleteSession(ctx, id); err != nil {
		l.log.Error(module, "delete session failed", map[string]interface{}{
			"session_id": id,
			"error":      err,
		})
		return err
	}
	l.ApplyDelete(id)
	return nil
}

// CleanName trims name and enforces the rename limit.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("name cannot be empty")
	}
	if n := len([]rune(name)); n > MaxNameLength {
		return "", fmt.Errorf("name is %d characters, limit is %d", n, MaxNameLength)
	}
	return name, nil
}

// Title is the sidebar label, cut to TitleWidth terminal columns.
func Title(s models.Session) string {
	return runewidth.Truncate(s.DisplayName(), TitleWidth, "...")
}

func DocumentCount(s models.Session) string {
	if n := len(s.Documents); n != 1 {
		return fmt.Sprintf("%d documents", n)
	}
	return "1 document"
}
