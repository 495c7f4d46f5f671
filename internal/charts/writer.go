package charts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"spendlog/internal/core"
)

// Writer persists chart series as JSON artifacts, one directory per user.
// Namespacing by user id keeps concurrent dashboard views from ever reading
// someone else's freshly rendered charts.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

func (w *Writer) userDir(userID int64) string {
	return filepath.Join(w.dir, fmt.Sprintf("user-%d", userID))
}

func (w *Writer) artifactPath(userID int64, name string) string {
	return filepath.Join(w.userDir(userID), name+".json")
}

// WriteSet renders every series of the set into the user's directory. Each
// file is written to a temp name and renamed so readers never see a partial
// artifact.
func (w *Writer) WriteSet(userID int64, set Set) error {
	dir := w.userDir(userID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create chart directory: %w", err)
	}

	now := time.Now().UTC()
	for _, series := range set.All() {
		series.GeneratedAt = now
		if err := w.writeArtifact(userID, series); err != nil {
			return err
		}
	}

	slog.Info("Chart artifacts written", "user_id", userID, "dir", dir)
	return nil
}

func (w *Writer) writeArtifact(userID int64, series Series) error {
	body, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("marshal %s series: %w", series.Name, err)
	}

	path := w.artifactPath(userID, series.Name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0644); err != nil {
		return fmt.Errorf("write %s artifact: %w", series.Name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s artifact: %w", series.Name, err)
	}
	return nil
}

// Read returns the raw JSON of one chart artifact. Unknown chart names and
// missing artifacts both map to core.ErrNotFound.
func (w *Writer) Read(userID int64, name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: chart %q", core.ErrNotFound, name)
	}

	body, err := os.ReadFile(w.artifactPath(userID, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: chart %q not rendered yet", core.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s artifact: %w", name, err)
	}
	return body, nil
}
