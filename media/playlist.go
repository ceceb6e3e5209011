package media

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Playlist is the ordered list of movies found at startup plus the
// position of the one currently playing. The entries never change after
// the scan; only the player moves the position.
type Playlist struct {
	entries []Entry
	current int
}

func NewPlaylist(entries []Entry) *Playlist {
	return &Playlist{entries: slices.Clone(entries)}
}

func (p *Playlist) Len() int {
	return len(p.entries)
}

func (p *Playlist) Entries() []Entry {
	return slices.Clone(p.entries)
}

func (p *Playlist) Index() int {
	return p.current
}

// Current is the entry at the playback position. The playlist must not
// be empty.
func (p *Playlist) Current() Entry {
	return p.entries[p.current]
}

// Advance moves to the next entry, wrapping to the first after the last.
func (p *Playlist) Advance() Entry {
	p.current = (p.current + 1) % len(p.entries)
	return p.entries[p.current]
}

// SelectInitial moves to the first entry whose base name starts with
// prefix, or to the first entry if none does. It returns the new index.
func (p *Playlist) SelectInitial(prefix string) int {
	p.current = 0
	if prefix == "" {
		return 0
	}
	if i := slices.IndexFunc(p.entries, func(e Entry) bool {
		return strings.HasPrefix(e.Base(), prefix)
	}); i >= 0 {
		p.current = i
	}
	return p.current
}
