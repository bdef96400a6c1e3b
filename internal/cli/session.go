package cli

import (
	"context"
	"fmt"

	"github.com/mgpai22/splice/internal/history"
	"github.com/mgpai22/splice/internal/project"
	"github.com/mgpai22/splice/internal/store"
	"github.com/mgpai22/splice/internal/timeline"
)

// an opened project: its stored row, the decoded sequence and the undo
// history of this invocation
type session struct {
	store   *store.Store
	project store.Project
	meta    project.Meta
	seq     *timeline.Sequence
	history *history.History
}

func openStore() (*store.Store, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open project database: %w", err)
	}
	return st, nil
}

// loads the project named ref from the database
func openSession(ctx context.Context, ref string) (*session, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	p, err := st.Load(ctx, ref)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	seq, meta, err := project.Decode(p.Document, registry, timeline.WithLogger(logger))
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to decode project %s: %w", p.Name, err)
	}
	if meta.FrameRate != 0 && meta.FrameRate != cfg.FrameRate {
		logger.Warnw("project frame rate differs from config",
			"project", p.Name, "project_rate", meta.FrameRate, "config_rate", cfg.FrameRate)
	}
	logger.Debugw("project opened", "project", p.Name, "id", p.ID, "length", seq.Length())
	return &session{
		store:   st,
		project: p,
		meta:    meta,
		seq:     seq,
		history: history.New(seq, cfg.UndoLevels, logger),
	}, nil
}

// rate the project's pts are counted in
func (s *session) rate() int64 {
	if s.meta.FrameRate > 0 {
		return s.meta.FrameRate
	}
	return cfg.FrameRate
}

// runs cmd through the session history
func (s *session) do(cmd history.Command) (*timeline.Result, error) {
	res, err := s.history.Do(cmd)
	if err != nil {
		return nil, err
	}
	logger.Infow("edit applied", "command", cmd.Name(), "created", res.Created())
	return res, nil
}

// writes the current sequence back to the database
func (s *session) save(ctx context.Context) error {
	if err := s.seq.Validate(); err != nil {
		return fmt.Errorf("refusing to save project %s: %w", s.project.Name, err)
	}
	s.meta.ID = s.project.ID
	s.meta.Name = s.project.Name
	data, err := project.Encode(s.seq, s.meta)
	if err != nil {
		return err
	}
	s.project.Document = data
	saved, err := s.store.Save(ctx, s.project)
	if err != nil {
		return err
	}
	s.project = saved
	logger.Debugw("project saved", "project", saved.Name, "bytes", len(data))
	return nil
}

func (s *session) close() {
	if err := s.store.Close(); err != nil {
		logger.Warnw("failed to close project database", "error", err)
	}
}

// opens ref, runs fn and saves the result
func withSession(ctx context.Context, ref string, fn func(*session) error) error {
	s, err := openSession(ctx, ref)
	if err != nil {
		return err
	}
	defer s.close()
	if err := fn(s); err != nil {
		return err
	}
	return s.save(ctx)
}
