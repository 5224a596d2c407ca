package recorder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/bietiekay/nhk-record/internal/errors"
	"github.com/bietiekay/nhk-record/internal/logging"
)

// Assets are the reference images analysis compares captures against.
// Boundary idents mark programme transitions, the banner image is the
// title overlay shown at the start of a programme, and the background
// is the pillarbox fill used during partial-width segments.
type Assets struct {
	BoundaryRefs []string
	Banner       string
	Background   string
}

// LoadAssets scans dir for reference art. Image files named
// boundary*, banner* and background* are picked up; a missing or
// empty directory yields empty assets, and detectors without art fall
// back to schedule times.
func LoadAssets(dir string) (*Assets, error) {
	assets := &Assets{}
	if dir == "" {
		return assets, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.Warn("assets directory does not exist", "dir", dir)
			return assets, nil
		}
		return nil, apperrors.NewIOError(fmt.Sprintf("could not read assets directory %s", dir), err)
	}

	// os.ReadDir returns entries sorted by name, so reference order is
	// stable across runs.
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		switch ext := strings.ToLower(filepath.Ext(name)); ext {
		case ".png", ".jpg", ".jpeg":
		default:
			continue
		}

		path := filepath.Join(dir, name)
		switch lower := strings.ToLower(name); {
		case strings.HasPrefix(lower, "boundary"):
			assets.BoundaryRefs = append(assets.BoundaryRefs, path)
		case strings.HasPrefix(lower, "banner"):
			if assets.Banner == "" {
				assets.Banner = path
			}
		case strings.HasPrefix(lower, "background"):
			if assets.Background == "" {
				assets.Background = path
			}
		}
	}

	logging.Debug("assets loaded",
		"dir", dir,
		"boundary_refs", len(assets.BoundaryRefs),
		"banner", assets.Banner != "",
		"background", assets.Background != "")

	return assets, nil
}
