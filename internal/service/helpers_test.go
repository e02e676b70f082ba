package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/technotes/internal/events"
	"github.com/Skotchmaster/technotes/internal/hash"
	"github.com/Skotchmaster/technotes/internal/models"
	"github.com/Skotchmaster/technotes/internal/repo"
	"github.com/Skotchmaster/technotes/internal/search"
	"github.com/Skotchmaster/technotes/internal/testdb"
)

type published struct {
	topic string
	key   string
	event events.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{topic: topic, key: key, event: e})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.event.Type)
	}
	return out
}

type fakeIndex struct {
	mu   sync.Mutex
	docs map[string]search.NoteDocument
	err  error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: map[string]search.NoteDocument{}}
}

func (f *fakeIndex) IndexNote(_ context.Context, doc search.NoteDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeIndex) DeleteNote(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) SearchNotes(_ context.Context, q string, from, size int) (int64, []search.NoteDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, nil, f.err
	}
	var hits []search.NoteDocument
	for _, d := range f.docs {
		if strings.Contains(strings.ToLower(d.Title+" "+d.Text), strings.ToLower(q)) {
			hits = append(hits, d)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Title < hits[j].Title })
	total := int64(len(hits))
	if from >= len(hits) {
		return total, nil, nil
	}
	hits = hits[from:]
	if len(hits) > size {
		hits = hits[:size]
	}
	return total, hits, nil
}

var errBoom = errors.New("boom")

func newStore(t *testing.T) *repo.GormRepo {
	t.Helper()
	return repo.New(testdb.New(t))
}

func seedUser(t *testing.T, store *repo.GormRepo, username, password string, roles ...string) *models.User {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{models.RoleEmployee}
	}
	pw, err := hash.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{Username: username, PasswordHash: pw, Roles: roles, Active: true}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

func requireServiceError(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, kind)
	assert.Equal(t, msg, se.Message)
}

func ptr[T any](v T) *T { return &v }
