package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// fileRepository stores token records as a JSON array on disk. It exists for
// local development without Postgres; the Postgres repository is authoritative.
type fileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) Repository {
	return &fileRepository{path: path}
}

func (r *fileRepository) load() ([]TokenRecord, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return []TokenRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token store: %w", err)
	}
	var records []TokenRecord
	if err := json.Unmarshal(data, &records); err != nil {
		// A corrupt store is an error, not an empty collection.
		return nil, fmt.Errorf("failed to parse token store %s: %w", r.path, err)
	}
	return records, nil
}

func (r *fileRepository) save(records []TokenRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token store: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

func (r *fileRepository) Create(ctx context.Context, record *TokenRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].IssuanceID == record.IssuanceID {
			return ErrDuplicate
		}
	}
	records = append(records, *record)
	return r.save(records)
}

func (r *fileRepository) GetByIssuanceID(ctx context.Context, issuanceID string) (*TokenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].IssuanceID == issuanceID {
			return &records[i], nil
		}
	}
	return nil, nil
}

func (r *fileRepository) ListAvailable(ctx context.Context) ([]TokenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return nil, err
	}
	available := []TokenRecord{}
	for _, record := range records {
		if record.IsAvailable {
			available = append(available, record)
		}
	}
	sortByCreatedDesc(available)
	return available, nil
}

func (r *fileRepository) ListAll(ctx context.Context) ([]TokenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return nil, err
	}
	sortByCreatedDesc(records)
	return records, nil
}

func (r *fileRepository) MarkUnavailable(ctx context.Context, issuanceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].IssuanceID == issuanceID {
			records[i].IsAvailable = false
			return r.save(records)
		}
	}
	return ErrNotFound
}

func sortByCreatedDesc(records []TokenRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}
