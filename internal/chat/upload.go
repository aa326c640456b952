package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codex/internal/api"
	"codex/internal/models"
)

const (
	MaxDocuments   = 20
	uploadFallback = "Error uploading file"
)

var (
	ErrTooManyDocuments = fmt.Errorf("Maximum %d documents allowed per chat", MaxDocuments)
	ErrNotPDF           = errors.New("Only PDF files are allowed")
	ErrUploadBusy       = errors.New("An upload is already in progress")
)

// Uploader is the slice of the API client used for attachments.
type Uploader interface {
	UploadFile(ctx context.Context, path string, sessionID int64) (models.UploadResponse, error)
}

// UploadOutcome is the result for one file of a batch.
type UploadOutcome struct {
	Path      string
	SessionID int64
	Document  models.Document
	Err       error
}

func (o UploadOutcome) Filename() string {
	return filepath.Base(o.Path)
}

// CheckUploadLimit fails when adding n files to existing would pass MaxDocuments.
func CheckUploadLimit(existing, n int) error {
	if existing+n > MaxDocuments {
		return ErrTooManyDocuments
	}
	return nil
}

// ValidateFile checks that path names a readable regular .pdf file.
func ValidateFile(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return ErrNotPDF
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// UploadBatch uploads paths one after another. A failure is recorded for
// that file and the rest still go.
func UploadBatch(ctx context.Context, up Uploader, sessionID int64, paths []string) []UploadOutcome {
	out := make([]UploadOutcome, 0, len(paths))
	for _, p := range paths {
		out = append(out, UploadPath(ctx, up, sessionID, p))
	}
	return out
}

// UploadPath validates and uploads a single file of a batch.
func UploadPath(ctx context.Context, up Uploader, sessionID int64, path string) UploadOutcome {
	o := UploadOutcome{Path: path}
	if err := ValidateFile(path); err != nil {
		o.Err = err
		return o
	}
	resp, err := up.UploadFile(ctx, path, sessionID)
	if err != nil {
		o.Err = err
		return o
	}
	o.SessionID = resp.SessionID
	o.Document = resp.Document
	return o
}

// UploadNew uploads paths without a session. Files go with session zero
// until one upload creates a session; the rest are sent into it.
func UploadNew(ctx context.Context, up Uploader, paths []string) []UploadOutcome {
	out := make([]UploadOutcome, 0, len(paths))
	for i, p := range paths {
		o := UploadPath(ctx, up, 0, p)
		out = append(out, o)
		if o.Err == nil && o.SessionID != 0 {
			return append(out, UploadBatch(ctx, up, o.SessionID, paths[i+1:])...)
		}
	}
	return out
}

// BeginUpload checks the document cap for n new files. Over the cap it
// appends one error message and nothing should be uploaded.
func (s *State) BeginUpload(n int) bool {
	if n == 0 || s.sessionID == 0 || s.uploading {
		return false
	}
	if err := CheckUploadLimit(len(s.documents), n); err != nil {
		s.messages = append(s.messages, models.Message{Text: err.Error(), IsError: true})
		return false
	}
	s.uploading = true
	return true
}

// ApplyUpload records the result of one file while the batch is still
// running.
func (s *State) ApplyUpload(gen Generation, o UploadOutcome) bool {
	if !s.Current(gen) {
		return false
	}
	if o.Err != nil {
		s.messages = append(s.messages, models.Message{Text: UploadErrorText(o.Err), IsError: true})
		return true
	}
	s.documents = append(s.documents, o.Document)
	s.messages = append(s.messages, models.Message{
		Text: fmt.Sprintf("File %q has been uploaded and processed successfully.", o.Filename()),
	})
	return true
}

// FinishUpload clears the uploading flag once the last file is in.
func (s *State) FinishUpload(gen Generation) bool {
	if !s.Current(gen) {
		return false
	}
	s.uploading = false
	return true
}

// ApplyUploads records batch results in file order.
func (s *State) ApplyUploads(gen Generation, outcomes []UploadOutcome) bool {
	if !s.FinishUpload(gen) {
		return false
	}
	for _, o := range outcomes {
		s.ApplyUpload(gen, o)
	}
	return true
}

// UploadErrorText is the copy shown for a failed upload.
func UploadErrorText(err error) string {
	if errors.Is(err, ErrNotPDF) || errors.Is(err, ErrTooManyDocuments) {
		return err.Error()
	}
	return api.ErrorText(err, uploadFallback)
}

// Widget is the single-file uploader shown on the intro screen.
type Widget struct {
	busy bool
	err  string
}

func (w *Widget) Busy() bool { return w.busy }
func (w *Widget) Error() string { return w.err }
func (w *Widget) ClearError() { w.err = "" }

// Begin validates path and marks the widget busy.
func (w *Widget) Begin(path string) error {
	if w.busy {
		return ErrUploadBusy
	}
	path = strings.TrimSpace(path)
	if path == "" {
		w.err = "Choose a file to upload"
		return errors.New(w.err)
	}
	if err := ValidateFile(path); err != nil {
		w.err = err.Error()
		return err
	}
	w.err = ""
	w.busy = true
	return nil
}

// Finish clears busy and keeps the error text, if any.
func (w *Widget) Finish(err error) {
	w.busy = false
	if err != nil {
		w.err = UploadErrorText(err)
		return
	}
	w.err = ""
}

// UploadOne sends path to sessionID (zero lets the server create a session)
// and returns the session it landed in.
func UploadOne(ctx context.Context, up Uploader, path string, sessionID int64) (int64, error) {
	path = strings.TrimSpace(path)
	if err := ValidateFile(path); err != nil {
		return 0, err
	}
	resp, err := up.UploadFile(ctx, path, sessionID)
	if err != nil {
		return 0, err
	}
	return resp.SessionID, nil
}
