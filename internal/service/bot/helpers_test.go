package bot

import (
	"context"
	"sync"

	apperrors "github.com/darkkaiser/stock-tracker/internal/pkg/errors"
	"github.com/darkkaiser/stock-tracker/internal/service/tracker/watchlist"
)

type sentReply struct {
	chatID int64
	text   string
}

// fakeReplier 전송된 응답을 기록합니다.
type fakeReplier struct {
	mu      sync.Mutex
	replies []sentReply
	err     error
}

func (r *fakeReplier) Reply(_ context.Context, chatID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.replies = append(r.replies, sentReply{chatID: chatID, text: text})
	return r.err
}

func (r *fakeReplier) sent() []sentReply {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]sentReply(nil), r.replies...)
}

// memoryStore 메모리 기반 watchlist.Store
type memoryStore struct {
	mu      sync.Mutex
	items   []watchlist.Item
	saves   int
	saveErr error
}

func (s *memoryStore) Load() ([]watchlist.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]watchlist.Item(nil), s.items...), nil
}

func (s *memoryStore) Save(items []watchlist.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.items = append([]watchlist.Item(nil), items...)
	return nil
}

type fakeLastCheck struct {
	value string
	ok    bool
	err   error
}

func (f fakeLastCheck) LoadLastCheck() (string, bool, error) {
	return f.value, f.ok, f.err
}

var errDiskFull = apperrors.New(apperrors.System, "disk full")
