package retirements

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// fileRepository stores certificates as a JSON array on disk, for local
// development without Postgres.
type fileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) Repository {
	return &fileRepository{path: path}
}

func (r *fileRepository) load() ([]CertificateRecord, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return []CertificateRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate store: %w", err)
	}
	var records []CertificateRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse certificate store %s: %w", r.path, err)
	}
	return records, nil
}

func (r *fileRepository) save(records []CertificateRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode certificate store: %w", err)
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

func (r *fileRepository) Create(ctx context.Context, record *CertificateRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].CertificateID == record.CertificateID {
			return ErrDuplicate
		}
	}
	records = append(records, *record)
	return r.save(records)
}

func (r *fileRepository) GetByCertificateID(ctx context.Context, certificateID string) (*CertificateRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].CertificateID == certificateID {
			return &records[i], nil
		}
	}
	return nil, nil
}

func (r *fileRepository) List(ctx context.Context, filter Filter) ([]CertificateRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return nil, err
	}
	filtered := []CertificateRecord{}
	for _, record := range records {
		if filter.OwnerAddress != "" && record.OwnerAddress != filter.OwnerAddress {
			continue
		}
		if filter.MPTIssuanceID != "" && record.MPTIssuanceID != filter.MPTIssuanceID {
			continue
		}
		filtered = append(filtered, record)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].RetiredAt.After(filtered[j].RetiredAt)
	})
	return filtered, nil
}
