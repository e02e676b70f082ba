package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/technotes/internal/events"
	"github.com/Skotchmaster/technotes/internal/logging"
	"github.com/Skotchmaster/technotes/internal/models"
	"github.com/Skotchmaster/technotes/internal/repo"
	"github.com/Skotchmaster/technotes/internal/search"
	"github.com/Skotchmaster/technotes/internal/transport"
	"github.com/Skotchmaster/technotes/internal/util"
)

type UserLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ownerLookupLimit bounds concurrent owner lookups while listing notes.
const ownerLookupLimit = 8

type NotesService struct {
	Notes  NoteRepository
	Users  UserLookup
	Index  NoteIndex
	Events events.Publisher
}

func (s *NotesService) List(ctx context.Context) ([]transport.NoteView, error) {
	notes, err := s.Notes.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, newError(ErrValidation, MsgNoNotes)
	}
	return s.withUsernames(ctx, notes)
}

// withUsernames resolves each note's owner concurrently. Results keep the
// input order; a missing owner yields an empty username.
func (s *NotesService) withUsernames(ctx context.Context, notes []models.Note) ([]transport.NoteView, error) {
	views := make([]transport.NoteView, len(notes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ownerLookupLimit)
	for i := range notes {
		g.Go(func() error {
			n := notes[i]
			views[i] = noteView(n, "")
			owner, err := s.Users.GetUserByID(gctx, n.UserID)
			if errors.Is(err, repo.ErrNotFound) {
				logging.FromContext(ctx).Warn("note_owner_missing", "note_id", n.ID, "user_id", n.UserID)
				return nil
			}
			if err != nil {
				return fmt.Errorf("lookup owner of note %s: %w", n.ID, err)
			}
			views[i].Username = owner.Username
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

func noteView(n models.Note, username string) transport.NoteView {
	return transport.NoteView{
		ID:        n.ID,
		User:      n.UserID,
		Username:  username,
		Title:     n.Title,
		Text:      n.Text,
		Completed: n.Completed,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func (s *NotesService) Create(ctx context.Context, req transport.CreateNoteRequest) (*transport.CreatedResponse, error) {
	l := logging.FromContext(ctx).With("svc", "notes.create")

	if err := validateRequest(req, MsgInvalidNoteData); err != nil {
		return nil, err
	}
	owner, err := uuid.Parse(req.User)
	if err != nil {
		return nil, newError(ErrValidation, MsgInvalidNoteData)
	}
	if err := s.ensureOwner(ctx, owner); err != nil {
		return nil, err
	}
	if err := s.ensureTitleFree(ctx, req.Title, uuid.Nil); err != nil {
		return nil, err
	}

	note := models.Note{
		UserID:    owner,
		Title:     req.Title,
		Text:      req.Text,
		Completed: req.Completed,
	}
	if err := s.Notes.CreateNote(ctx, &note); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, newError(ErrDuplicate, MsgDuplicateNoteTitle)
		}
		l.Error("create_note_failed", "status", 500, "error", err)
		return nil, err
	}

	s.indexNote(ctx, note)
	publish(ctx, s.Events, events.TopicNotes, note.ID.String(), "note_created", noteEventData(note))
	l.Info("note_created", "note_id", note.ID)

	return &transport.CreatedResponse{
		Message: fmt.Sprintf("New note %s created", note.Title),
		ID:      note.ID,
	}, nil
}

func (s *NotesService) Update(ctx context.Context, req transport.UpdateNoteRequest) (*transport.MessageResponse, error) {
	l := logging.FromContext(ctx).With("svc", "notes.update")

	if err := validateRequest(req, MsgInvalidNoteData); err != nil {
		return nil, err
	}

	note, err := s.Notes.GetNoteByID(ctx, req.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, newError(ErrNotFound, MsgNoteNotFound)
	}
	if err != nil {
		return nil, err
	}

	owner, err := uuid.Parse(req.User)
	if err != nil {
		return nil, newError(ErrValidation, MsgInvalidNoteData)
	}
	if err := s.ensureOwner(ctx, owner); err != nil {
		return nil, err
	}
	if err := s.ensureTitleFree(ctx, req.Title, note.ID); err != nil {
		return nil, err
	}

	note.UserID = owner
	note.Title = req.Title
	note.Text = req.Text
	note.Completed = *req.Completed
	if err := s.Notes.SaveNote(ctx, note); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, newError(ErrDuplicate, MsgDuplicateNoteTitle)
		}
		l.Error("update_note_failed", "status", 500, "error", err)
		return nil, err
	}

	s.indexNote(ctx, *note)
	publish(ctx, s.Events, events.TopicNotes, note.ID.String(), "note_updated", noteEventData(*note))

	return &transport.MessageResponse{Message: fmt.Sprintf("%s updated", note.Title)}, nil
}

func (s *NotesService) Delete(ctx context.Context, id uuid.UUID) (*transport.DeletedNoteResponse, error) {
	l := logging.FromContext(ctx).With("svc", "notes.delete")

	if id == uuid.Nil {
		return nil, newError(ErrValidation, MsgNoteIDRequired)
	}

	note, err := s.Notes.GetNoteByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, newError(ErrNotFound, MsgNoteNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Notes.DeleteNote(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newError(ErrNotFound, MsgNoteNotFound)
		}
		l.Error("delete_note_failed", "status", 500, "error", err)
		return nil, err
	}

	if s.Index != nil {
		if err := s.Index.DeleteNote(ctx, id.String()); err != nil {
			l.Warn("unindex_note_failed", "note_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicNotes, id.String(), "note_deleted", noteEventData(*note))

	return &transport.DeletedNoteResponse{
		Message: fmt.Sprintf("Note %s with ID %s deleted successfully", note.Title, note.ID),
		ID:      note.ID,
		Title:   note.Title,
	}, nil
}

// Search queries the full-text index when one is configured and falls back to
// a substring match in the store otherwise.
func (s *NotesService) Search(ctx context.Context, q string, page, size int) (*transport.SearchNotesResponse, error) {
	if q == "" {
		return nil, newError(ErrValidation, MsgSearchQueryMissing)
	}
	offset, limit := util.Calculate(page, size)
	page = offset/limit + 1

	var (
		total int64
		notes []models.Note
		err   error
	)
	if s.Index != nil {
		total, notes, err = s.searchIndex(ctx, q, offset, limit)
	} else {
		total, notes, err = s.Notes.SearchNotes(ctx, q, offset, limit)
	}
	if err != nil {
		return nil, err
	}

	views, err := s.withUsernames(ctx, notes)
	if err != nil {
		return nil, err
	}
	return &transport.SearchNotesResponse{
		Total: total,
		Page:  page,
		Size:  limit,
		Notes: views,
	}, nil
}

func (s *NotesService) searchIndex(ctx context.Context, q string, offset, limit int) (int64, []models.Note, error) {
	total, docs, err := s.Index.SearchNotes(ctx, q, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	notes := make([]models.Note, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			logging.FromContext(ctx).Warn("search_hit_skipped", "doc_id", d.ID, "error", err)
			continue
		}
		owner, _ := uuid.Parse(d.UserID)
		notes = append(notes, models.Note{
			ID:        id,
			UserID:    owner,
			Title:     d.Title,
			Text:      d.Text,
			Completed: d.Completed,
		})
	}
	return total, notes, nil
}

func (s *NotesService) ensureOwner(ctx context.Context, userID uuid.UUID) error {
	_, err := s.Users.GetUserByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return newError(ErrNotFound, MsgUserNotFound)
	}
	return err
}

// ensureTitleFree rejects a title held by any note other than self.
func (s *NotesService) ensureTitleFree(ctx context.Context, title string, self uuid.UUID) error {
	existing, err := s.Notes.FindNoteByTitle(ctx, title)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return newError(ErrDuplicate, MsgDuplicateNoteTitle)
	}
	return nil
}

func (s *NotesService) indexNote(ctx context.Context, n models.Note) {
	if s.Index == nil {
		return
	}
	doc := search.NoteDocument{
		ID:        n.ID.String(),
		UserID:    n.UserID.String(),
		Title:     n.Title,
		Text:      n.Text,
		Completed: n.Completed,
	}
	if err := s.Index.IndexNote(ctx, doc); err != nil {
		logging.FromContext(ctx).Warn("index_note_failed", "note_id", n.ID, "error", err)
	}
}

func noteEventData(n models.Note) map[string]any {
	return map[string]any{
		"note_id":   n.ID.String(),
		"user_id":   n.UserID.String(),
		"title":     n.Title,
		"completed": n.Completed,
	}
}
