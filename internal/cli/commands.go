package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"codex/internal/api"
	"codex/internal/chat"
	"codex/internal/db"
	"codex/internal/models"
	"codex/internal/sessions"

	"github.com/spf13/cobra"
)

// sessionRow is the listing shape of one session.
type sessionRow struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Draft     bool     `json:"draft"`
	CreatedAt string   `json:"created_at"`
	Documents []string `json:"documents"`
}

func toRow(s models.Session) sessionRow {
	docs := make([]string, 0, len(s.Documents))
	for _, d := range s.Documents {
		docs = append(docs, d.Filename)
	}
	return sessionRow{ID: s.ID, Name: s.DisplayName(), Draft: s.IsDraft(), CreatedAt: s.CreatedAt, Documents: docs}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid session id %q", raw)
	}
	return id, nil
}

func (a *app) sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"ls"},
		Short:   "List chats, drafts first then newest",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.signIn(ctx); err != nil {
				return err
			}
			list := sessions.NewList(a.client, a.log)
			if err := list.Load(ctx); err != nil {
				return errors.New(api.ErrorText(err, "Error loading chats"))
			}

			rows := make([]sessionRow, 0, list.Len())
			for _, s := range list.Sorted() {
				rows = append(rows, toRow(s))
			}
			return a.emit(rows, func(w io.Writer) {
				if len(rows) == 0 {
					fmt.Fprintln(w, "No chats yet")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tDOCUMENTS\tCREATED")
				for _, s := range list.Sorted() {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.ID, sessions.Title(s), sessions.DocumentCount(s), s.CreatedAt)
				}
				_ = tw.Flush()
			})
		},
	}
}

func (a *app) newCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a new chat, reusing an empty draft if there is one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.signIn(ctx); err != nil {
				return err
			}
			list := sessions.NewList(a.client, a.log)
			if err := list.Load(ctx); err != nil {
				return errors.New(api.ErrorText(err, "Error loading chats"))
			}
			s, err := list.Create(ctx)
			if err != nil {
				return errors.New(api.ErrorText(err, "Error creating chat"))
			}
			return a.emit(toRow(s), func(w io.Writer) {
				fmt.Fprintf(w, "Chat %d ready\n", s.ID)
			})
		},
	}
}

func (a *app) renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a chat",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			name, err := sessions.CleanName(strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if err := a.signIn(ctx); err != nil {
				return err
			}
			list := sessions.NewList(a.client, a.log)
			if err := list.Rename(ctx, id, name); err != nil {
				return errors.New(api.ErrorText(err, "Error renaming chat"))
			}
			return a.emit(map[string]interface{}{"id": id, "name": name}, func(w io.Writer) {
				fmt.Fprintf(w, "Chat %d renamed to %q\n", id, name)
			})
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a chat with its messages and documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to delete chat %d without --yes", id)
			}
			if err := a.signIn(ctx); err != nil {
				return err
			}
			list := sessions.NewList(a.client, a.log)
			if err := list.Delete(ctx, id); err != nil {
				return errors.New(api.ErrorText(err, "Error deleting chat"))
			}
			return a.emit(map[string]interface{}{"id": id, "deleted": true}, func(w io.Writer) {
				fmt.Fprintf(w, "Chat %d deleted\n", id)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	return cmd
}

type uploadRow struct {
	File      string `json:"file"`
	SessionID int64  `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (a *app) uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <id> <file.pdf>...",
		Short: "Upload PDFs into a chat (id 0 starts a new one)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			paths := args[1:]
			if err := a.signIn(ctx); err != nil {
				return err
			}

			existing := 0
			if id != 0 {
				docs, err := a.client.SessionDocuments(ctx, id)
				if err != nil {
					return errors.New(api.ErrorText(err, "Error loading documents"))
				}
				existing = len(docs)
			}
			if err := chat.CheckUploadLimit(existing, len(paths)); err != nil {
				return err
			}

			var outcomes []chat.UploadOutcome
			if id == 0 {
				outcomes = chat.UploadNew(ctx, a.client, paths)
			} else {
				outcomes = chat.UploadBatch(ctx, a.client, id, paths)
			}

			rows := make([]uploadRow, 0, len(outcomes))
			failed := 0
			for _, o := range outcomes {
				row := uploadRow{File: o.Path, SessionID: o.SessionID}
				if o.Err != nil {
					row.Error = chat.UploadErrorText(o.Err)
					failed++
				}
				rows = append(rows, row)
			}

			if err := a.emit(rows, func(w io.Writer) {
				for _, r := range rows {
					if r.Error != "" {
						fmt.Fprintf(w, "✗ %s: %s\n", r.File, r.Error)
						continue
					}
					fmt.Fprintf(w, "✓ %s → chat %d\n", r.File, r.SessionID)
				}
			}); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d upload(s) failed", failed, len(rows))
			}
			return nil
		},
	}
}

type askResult struct {
	SessionID int64            `json:"session_id"`
	Mode      models.ChatMode  `json:"mode"`
	Response  string           `json:"response"`
	Sources   []string         `json:"sources,omitempty"`
	Usage     models.ChatUsage `json:"usage"`
	Warning   string           `json:"warning,omitempty"`
}

func (a *app) askCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "ask <id> <question>",
		Short: "Ask a question about a chat's documents",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			state := chat.NewState()
			if !state.SetMode(models.ChatMode(mode)) {
				return fmt.Errorf("unknown mode %q (concise, balanced or detailed)", mode)
			}
			if err := a.signIn(ctx); err != nil {
				return err
			}

			gen := state.Activate(id)
			msgs, err := a.client.SessionMessages(ctx, id)
			if err != nil {
				return errors.New(api.ErrorText(err, "Error loading messages"))
			}
			state.ApplyMessages(gen, msgs)

			out, ok := state.BeginSend(strings.Join(args[1:], " "))
			if !ok {
				return errors.New("question is empty")
			}
			resp, err := a.client.Chat(ctx, out.Request)
			state.ApplySendResult(out.Generation, resp, err)
			if err != nil {
				return errors.New(api.ErrorText(err, "Error sending message"))
			}

			res := askResult{
				SessionID: id,
				Mode:      state.Mode(),
				Response:  resp.Response,
				Sources:   resp.Sources,
				Usage:     state.Usage(),
				Warning:   state.Warning().Message(),
			}
			return a.emit(res, func(w io.Writer) {
				fmt.Fprintln(w, res.Response)
				for _, src := range res.Sources {
					fmt.Fprintf(w, "  source: %s\n", src)
				}
				if res.Warning != "" {
					fmt.Fprintf(w, "\n! %s\n", res.Warning)
				}
			})
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", string(models.ModeBalanced), "Response mode: concise, balanced or detailed")
	return cmd
}

func (a *app) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Print a chat's transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.signIn(ctx); err != nil {
				return err
			}
			msgs, err := a.client.SessionMessages(ctx, id)
			if err != nil {
				return errors.New(api.ErrorText(err, "Error loading messages"))
			}
			return a.emit(msgs, func(w io.Writer) {
				for _, m := range msgs {
					who := "codex"
					if m.IsUser {
						who = "you"
					}
					if m.Mode != "" {
						who += " [" + m.Mode.Label() + "]"
					}
					fmt.Fprintf(w, "%s:\n%s\n\n", who, m.Text)
				}
			})
		},
	}
}

func (a *app) themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light]",
		Short:     "Show or set the stored TUI theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{db.ThemeDark, db.ThemeLight},
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := a.openDB()
			if err != nil {
				return err
			}
			defer conn.Close()

			if len(args) == 1 {
				switch args[0] {
				case db.ThemeDark, db.ThemeLight:
				default:
					return fmt.Errorf("unknown theme %q (dark or light)", args[0])
				}
				if err := db.SaveTheme(conn, args[0] == db.ThemeDark); err != nil {
					return err
				}
			}

			dark, err := db.LoadTheme(conn, a.cfg.Theme.Default != db.ThemeLight)
			if err != nil {
				return err
			}
			name := db.ThemeLight
			if dark {
				name = db.ThemeDark
			}
			return a.emit(map[string]string{"theme": name}, func(w io.Writer) {
				fmt.Fprintln(w, name)
			})
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := map[string]string{"version": Version, "api": a.cfg.API.BaseURL}
			return a.emit(info, func(w io.Writer) {
				fmt.Fprintf(w, "codex %s (api %s)\n", Version, a.cfg.API.BaseURL)
			})
		},
	}
}
