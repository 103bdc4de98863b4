// Package storage 추적 목록(products.json)과 마지막 확인 시각(last_check.txt)을 파일로 보관합니다.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	apperrors "github.com/darkkaiser/stock-tracker/internal/pkg/errors"
	"github.com/darkkaiser/stock-tracker/internal/service/tracker/watchlist"
	applog "github.com/darkkaiser/stock-tracker/pkg/log"
)

const component = "tracker.storage"

// LastCheckLayout last_check.txt에 기록하는 시각 형식 (로컬 시간)
const LastCheckLayout = "2006-01-02 15:04:05"

// FileStore 파일 기반 저장소입니다. 모든 쓰기는 임시 파일을 거쳐 원자적으로 교체됩니다.
type FileStore struct {
	productsPath  string
	lastCheckPath string

	mu sync.Mutex
}

var _ watchlist.Store = (*FileStore)(nil)

// NewFileStore 새로운 FileStore 인스턴스를 생성합니다.
func NewFileStore(productsPath, lastCheckPath string) *FileStore {
	return &FileStore{
		productsPath:  productsPath,
		lastCheckPath: lastCheckPath,
	}
}

// ProductsPath 추적 목록 파일 경로를 반환합니다.
func (s *FileStore) ProductsPath() string {
	return s.productsPath
}

// Load 추적 목록을 읽습니다. 파일이 없으면 빈 목록을 반환합니다.
func (s *FileStore) Load() ([]watchlist.Item, error) {
	s.mu.Lock()
	data, err := os.ReadFile(s.productsPath)
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			applog.WithComponentAndFields(component, applog.Fields{
				"file": s.productsPath,
			}).Warn("추적 목록 파일 없음: 빈 목록으로 시작합니다")

			return []watchlist.Item{}, nil
		}
		return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("추적 목록 파일(%s)을 읽을 수 없습니다", s.productsPath))
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []watchlist.Item{}, nil
	}

	var items []watchlist.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ParsingFailed, fmt.Sprintf("추적 목록 파일(%s)의 JSON 형식이 올바르지 않습니다", s.productsPath))
	}
	if items == nil {
		items = []watchlist.Item{}
	}

	return items, nil
}

// Save 추적 목록 전체를 원자적으로 저장합니다.
func (s *FileStore) Save(items []watchlist.Item) error {
	if items == nil {
		items = []watchlist.Item{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "추적 목록을 JSON으로 변환하는데 실패했습니다")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(s.productsPath, buf.Bytes()); err != nil {
		return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("추적 목록 파일(%s) 저장에 실패했습니다", s.productsPath))
	}

	return nil
}

// SaveLastCheck 마지막 사이클 종료 시각을 기록합니다.
func (s *FileStore) SaveLastCheck(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(s.lastCheckPath, []byte(t.Local().Format(LastCheckLayout))); err != nil {
		return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("마지막 확인 시각 파일(%s) 저장에 실패했습니다", s.lastCheckPath))
	}

	return nil
}

// LoadLastCheck 기록된 마지막 확인 시각을 그대로 반환합니다. 파일이 없으면 ok는 false입니다.
func (s *FileStore) LoadLastCheck() (value string, ok bool, err error) {
	s.mu.Lock()
	data, err := os.ReadFile(s.lastCheckPath)
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("마지막 확인 시각 파일(%s)을 읽을 수 없습니다", s.lastCheckPath))
	}

	return strings.TrimSpace(string(data)), true, nil
}

// writeAtomic 같은 디렉토리의 임시 파일에 쓰고 fsync한 뒤 rename으로 교체합니다.
func writeAtomic(filename string, data []byte) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(filename)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	// Windows에서는 열린 파일을 지울 수 없으므로 Close가 Remove보다 먼저 실행되어야 합니다.
	defer os.Remove(tmpPath)
	defer tmpFile.Close()

	if _, err := tmpFile.Write(data); err != nil {
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := renameWithRetry(tmpPath, filename); err != nil {
		return err
	}

	// 디렉토리 엔트리 동기화 (실패해도 무시)
	if dirFile, err := os.Open(dir); err == nil {
		_ = dirFile.Sync()
		dirFile.Close()
	}

	return nil
}

// renameWithRetry 백신이나 인덱서가 파일을 잠시 잠그는 Windows 환경을 위해 rename을 몇 차례 재시도합니다.
func renameWithRetry(oldPath, newPath string) error {
	const maxRetries = 5
	const retryDelay = 10 * time.Millisecond

	var lastErr error
	for range maxRetries {
		if lastErr = os.Rename(oldPath, newPath); lastErr == nil {
			return nil
		}
		time.Sleep(retryDelay)
	}

	return lastErr
}
