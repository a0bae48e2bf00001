package export

import (
	"context"
	"fmt"
	"os"
)

// FileDownloader writes the artifact to Path, or to the artifact's own
// filename in the working directory when Path is empty.
type FileDownloader struct {
	Path string
}

func (d *FileDownloader) Download(_ context.Context, filename, _ string, data []byte) error {
	path := d.Path
	if path == "" {
		path = filename
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
