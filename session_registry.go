package bitmap

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"
)

// NewSurfaceID asks RenderOn for a freshly allocated surface
const NewSurfaceID int64 = -1

// SessionRegistry maps surface ids to their sessions. It is not safe for
// concurrent use: one control goroutine creates, looks up and removes
// sessions, worker goroutines never touch it.
type SessionRegistry struct {
	config   SessionConfig
	sessions map[int64]*SurfaceSession
}

// NewSessionRegistry creates an empty SessionRegistry
func NewSessionRegistry(config SessionConfig) *SessionRegistry {
	if config.Shaders == nil {
		config.Shaders = EmbeddedShaders{}
	}
	return &SessionRegistry{
		config:   config,
		sessions: make(map[int64]*SurfaceSession),
	}
}

// RenderOn forwards req to the session of id. With NewSurfaceID a surface
// of the requested size is allocated and a session is created for it.
// An unknown id drops the request and returns a nil session and no error.
func (r *SessionRegistry) RenderOn(id int64, req RenderRequest, reply ReplyFunc) (*SurfaceSession, error) {
	if id == NewSurfaceID {
		surface, newID, err := r.config.Allocator.Allocate(req.Width, req.Height)
		if err != nil {
			return nil, fmt.Errorf("allocate surface: %w", err)
		}

		session := NewSurfaceSession(newID, surface, r.config)
		r.sessions[newID] = session
		session.Render(req, reply)
		return session, nil
	}

	session, ok := r.sessions[id]
	if !ok {
		Logger().WithField("surface", id).Debug("Render for unknown surface dropped")
		return nil, nil
	}
	session.Render(req, reply)
	return session, nil
}

// Lookup returns the live session of id
func (r *SessionRegistry) Lookup(id int64) (*SurfaceSession, bool) {
	session, ok := r.sessions[id]
	return session, ok
}

// Len returns the number of live sessions
func (r *SessionRegistry) Len() int {
	return len(r.sessions)
}

// IDs returns the live surface ids in ascending order
func (r *SessionRegistry) IDs() []int64 {
	ids := make([]int64, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DisposeMany tears the listed sessions down one after another, each one
// finished before the next starts, and removes them. Unknown ids are
// skipped. Teardown errors are combined but every listed session is
// removed regardless.
func (r *SessionRegistry) DisposeMany(ids []int64) error {
	var err error
	for _, id := range ids {
		session, ok := r.sessions[id]
		if !ok {
			continue
		}
		err = multierr.Append(err, session.Dispose())
		delete(r.sessions, id)
	}
	return err
}

// DisposeAll tears down every live session
func (r *SessionRegistry) DisposeAll() error {
	return r.DisposeMany(r.IDs())
}
