package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/albertomaydayjhondoe/porterias/internal/backend"
	"github.com/albertomaydayjhondoe/porterias/internal/catalog"
	"github.com/albertomaydayjhondoe/porterias/internal/models"
	"github.com/albertomaydayjhondoe/porterias/internal/validate"
)

// today is a test seam.
var today = func() string { return time.Now().Format(time.DateOnly) }

// Publish asks for a media file, a title and a date, validates them and
// publishes through the backend.
func (a *App) Publish(ctx context.Context) error {
	b, err := a.activeBackend(ctx)
	if err != nil {
		return a.fail(err)
	}

	path, err := getSimpleText(a.reader, "Media file path", a.out)
	if err != nil {
		return err
	}
	upload, err := readUpload(path)
	if err != nil {
		return a.fail(err)
	}
	title, err := getSimpleText(a.reader, "Title (optional)", a.out)
	if err != nil {
		return err
	}
	date, err := getSimpleText(a.reader, fmt.Sprintf("Publish date YYYY-MM-DD (empty for %s)", today()), a.out)
	if err != nil {
		return err
	}
	if date == "" {
		date = today()
	}

	draft, err := validate.Validate(upload, title, date)
	if err != nil {
		return a.fail(err)
	}
	entry, err := b.Publish(ctx, upload, draft)
	if err != nil {
		return a.fail(err)
	}

	a.println(backend.SuccessMessage(entry))
	a.printNotice(b)
	return nil
}

// readUpload loads path. The declared type comes from the extension, the way
// a browser labels a picked file.
func readUpload(path string) (models.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Upload{}, fmt.Errorf("read media file: %w", err)
	}
	return models.Upload{
		Name:        filepath.Base(path),
		ContentType: contentTypeOf(path, data),
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}

func contentTypeOf(path string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			return mt
		}
	}
	ct := http.DetectContentType(data)
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	return ct
}

func (a *App) printNotice(b backend.Backend) {
	n, ok := b.(backend.Noticer)
	if !ok {
		return
	}
	notice := n.LastNotice()
	if notice.DownloadPath != "" {
		a.printf("Media saved to %s\n", notice.DownloadPath)
	}
	switch {
	case notice.Copied:
		a.println("Instructions copied to the clipboard")
	case notice.InstructionsFile != "":
		a.printf("Clipboard unavailable; instructions written to %s\n", notice.InstructionsFile)
	}
}

func (a *App) Unpublish(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.println("Usage: unpublish <id>")
		return errors.New("missing id")
	}
	b, err := a.activeBackend(ctx)
	if err != nil {
		return a.fail(err)
	}
	if err := b.Unpublish(ctx, args[0]); err != nil {
		return a.fail(err)
	}
	a.printf("Removed %s\n", args[0])
	a.printNotice(b)
	return nil
}

func (a *App) List(ctx context.Context) error {
	entries, err := a.entries(ctx)
	if err != nil {
		return err
	}
	a.printEntries(entries)
	return nil
}

// Home lists videos, newest publish date first.
func (a *App) Home(ctx context.Context) error {
	entries, err := a.entries(ctx)
	if err != nil {
		return err
	}
	a.printEntries(catalog.New(entries...).Home())
	return nil
}

// Archive lists images, newest publish date first.
func (a *App) Archive(ctx context.Context) error {
	entries, err := a.entries(ctx)
	if err != nil {
		return err
	}
	a.printEntries(catalog.New(entries...).Archive())
	return nil
}

// Months groups entries by publish month, optionally filtered by kind.
func (a *App) Months(ctx context.Context, args []string) error {
	var kind models.MediaKind
	if len(args) > 0 {
		kind = models.MediaKind(args[0])
		if !kind.Valid() {
			a.println("Usage: months [image|video]")
			return fmt.Errorf("unknown media kind %q", args[0])
		}
	}
	entries, err := a.entries(ctx)
	if err != nil {
		return err
	}
	groups := catalog.New(entries...).ByMonth(kind)
	if len(groups) == 0 {
		a.println("No entries")
		return nil
	}
	for _, g := range groups {
		a.printf("%s (%d)\n", g.Key, len(g.Entries))
		a.printEntries(g.Entries)
	}
	return nil
}

func (a *App) entries(ctx context.Context) ([]models.Entry, error) {
	b, err := a.activeBackend(ctx)
	if err != nil {
		return nil, a.fail(err)
	}
	entries, err := b.List(ctx)
	if err != nil {
		return nil, a.fail(err)
	}
	return entries, nil
}

func (a *App) printEntries(entries []models.Entry) {
	if len(entries) == 0 {
		a.println("No entries")
		return
	}
	writeEntries(a.out, entries)
}

func writeEntries(w io.Writer, entries []models.Entry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tKIND\tTITLE\tURL")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.PublishDate, e.MediaKind, e.Title, e.MediaURL())
	}
	_ = tw.Flush()
}
