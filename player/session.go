package player

import (
	"io"
	"log/slog"

	"github.com/google/uuid"

	"lautenbacher.net/gomovie/media"
)

// session is one pass over one open movie. Its id ties together the log
// lines of that pass.
type session struct {
	id    uuid.UUID
	entry media.Entry
	file  io.ReadCloser
	log   *slog.Logger
}

func newSession(entry media.Entry, file io.ReadCloser, index int) *session {
	id := uuid.New()
	return &session{
		id:    id,
		entry: entry,
		file:  file,
		log:   slog.With("session", id.String(), "movie", entry.Name, "index", index),
	}
}

func (s *session) close() {
	if err := s.file.Close(); err != nil {
		s.log.Warn("Closing movie failed", "error", err)
	}
}
