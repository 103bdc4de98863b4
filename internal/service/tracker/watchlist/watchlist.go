// Package watchlist 추적 중인 상품 목록을 메모리에 보관하고, 변경 시 저장소에 반영합니다.
//
// 사이클 엔진과 명령 봇이 같은 List를 공유하며, 모든 접근은 List 내부의 뮤텍스로 직렬화됩니다.
package watchlist

import (
	"fmt"
	"strings"
	"sync"

	apperrors "github.com/darkkaiser/stock-tracker/internal/pkg/errors"
	applog "github.com/darkkaiser/stock-tracker/pkg/log"
)

const component = "tracker.watchlist"

// Item 추적 중인 상품 하나. URL이 식별자입니다.
type Item struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Notified bool   `json:"notified"`
}

// Store List가 사용하는 영속 저장소
type Store interface {
	Load() ([]Item, error)
	Save(items []Item) error
}

// List 추적 목록
type List struct {
	mu    sync.Mutex
	items []Item
	store Store

	// unsaved 메모리의 변경 사항이 아직 저장소에 반영되지 않았는지 여부
	unsaved bool
}

// New 빈 List를 생성합니다. 저장된 목록은 Reload로 읽어옵니다.
func New(store Store) *List {
	return &List{store: store}
}

// Reload 저장소의 목록으로 메모리 상태를 교체합니다. 실패하면 기존 목록을 유지합니다.
//
// 저장하지 못한 변경 사항이 남아 있으면 먼저 저장을 다시 시도합니다.
// 다시 실패하면 저장소의 오래된 목록으로 덮어쓰지 않고 메모리 목록을 그대로 사용합니다.
func (l *List) Reload() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.unsaved {
		if err := l.store.Save(l.snapshotLocked()); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"items": len(l.items),
				"error": err.Error(),
			}).Warn("저장되지 않은 변경 사항이 있어 메모리 목록을 유지합니다")

			return nil
		}
		l.unsaved = false
	}

	items, err := l.store.Load()
	if err != nil {
		return err
	}
	l.items = items

	return nil
}

// Snapshot 현재 목록의 복사본을 반환합니다.
func (l *List) Snapshot() []Item {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.snapshotLocked()
}

// Len 추적 중인 상품 수를 반환합니다.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.items)
}

// Apply URL별 notified 값을 반영하고, 실제로 바뀐 항목이 있을 때만 전체 목록을 한 번 저장합니다.
//
// changes에 있지만 목록에 없는 URL(사이클 도중 삭제된 항목 등)은 무시합니다.
// 반환값 dirty는 메모리 상태가 바뀌었는지 여부이며, 저장에 실패해도 true일 수 있습니다.
// 저장에 실패한 변경 사항은 다음 Reload에서 다시 저장을 시도합니다.
func (l *List) Apply(changes map[string]bool) (dirty bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.items {
		notified, ok := changes[l.items[i].URL]
		if !ok || l.items[i].Notified == notified {
			continue
		}
		l.items[i].Notified = notified
		dirty = true
	}

	if !dirty {
		return false, nil
	}

	if err := l.store.Save(l.snapshotLocked()); err != nil {
		l.unsaved = true
		return true, err
	}
	l.unsaved = false

	return true, nil
}

// Unsaved 저장소에 반영되지 않은 변경 사항이 있는지 반환합니다.
func (l *List) Unsaved() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.unsaved
}

// Add 상품을 목록 끝에 추가하고 저장합니다. 저장에 실패하면 추가를 취소합니다.
func (l *List) Add(item Item) error {
	item.URL = strings.TrimSpace(item.URL)
	item.Title = strings.TrimSpace(item.Title)
	if item.URL == "" {
		return apperrors.New(apperrors.InvalidInput, "상품 URL이 비어 있습니다")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, existing := range l.items {
		if existing.URL == item.URL {
			return apperrors.New(apperrors.Conflict, fmt.Sprintf("이미 추적 중인 상품입니다: %s", item.URL))
		}
	}

	l.items = append(l.items, item)
	if err := l.store.Save(l.snapshotLocked()); err != nil {
		l.items = l.items[:len(l.items)-1]
		return err
	}
	// 목록 전체를 저장했으므로 이전에 저장하지 못한 변경 사항도 함께 반영되었습니다.
	l.unsaved = false

	return nil
}

func (l *List) snapshotLocked() []Item {
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}
