package media

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gobwas/glob"
)

// ScanOptions select the files of a directory that make up the playlist.
type ScanOptions struct {
	// Extension a movie must have, without the dot, compared case-sensitively.
	Extension string
	// HiddenPrefix marks base names to skip, e.g. "_" for AppleDouble files.
	HiddenPrefix string
	// MinSize is the size of one frame. Smaller files hold no whole frame.
	MinSize int64
	// Exclude are glob patterns matched against the full file name.
	Exclude []string
}

// BuildPlaylist walks dir once and collects the playable movies in
// listing order.
func BuildPlaylist(dir Directory, opts ScanOptions) (*Playlist, error) {
	excludes := make([]glob.Glob, 0, len(opts.Exclude))
	for _, pattern := range opts.Exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		excludes = append(excludes, g)
	}

	var entries []Entry
	err := dir.Walk(func(de DirEntry) {
		if de.IsDir {
			return
		}
		e := Entry{Name: de.Name, Size: de.Size}
		if e.Ext() != opts.Extension {
			slog.Debug("Ignoring non-movie file", "name", e.Name)
			return
		}
		switch {
		case opts.HiddenPrefix != "" && strings.HasPrefix(e.Base(), opts.HiddenPrefix):
			slog.Info("Skipping AppleDouble/hidden movie", "name", e.Name, "size", e.Size)
		case e.Size < opts.MinSize:
			slog.Info("Skipping too-small movie", "name", e.Name, "size", e.Size, "frameSize", opts.MinSize)
		case matchesAny(excludes, e.Name):
			slog.Info("Skipping excluded movie", "name", e.Name, "size", e.Size)
		default:
			entries = append(entries, e)
		}
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Found movies", "count", len(entries))
	if len(entries) == 0 {
		return nil, ErrEmptyPlaylist
	}
	return NewPlaylist(entries), nil
}

func matchesAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
