// Package sources manages the configured SMB sources: a JSON file next to
// the catalog database with credentials encrypted at rest, plus the
// runtime operations around it (registration, connection tests, catalog
// purge on removal).
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sharescan/sharescan/internal/logger"
	"github.com/sharescan/sharescan/pkg/catalog"
	"github.com/sharescan/sharescan/pkg/smb"
	"github.com/sharescan/sharescan/pkg/vault"
)

// FileName is the sources file kept in the data directory.
const FileName = "nas_connection.json"

var (
	// ErrDuplicateSource is returned when adding a source whose identifier
	// already exists.
	ErrDuplicateSource = errors.New("source already exists")

	// ErrSourceNotFound is returned when an identifier matches nothing.
	ErrSourceNotFound = errors.New("source not found")
)

// Manager owns the sources file. All operations are serialized; the file
// on disk always carries encrypted credentials.
type Manager struct {
	path   string
	vault  *vault.Vault
	client *smb.Client
	store  *catalog.Store

	mu sync.Mutex
}

// NewManager creates a manager for the sources file in dataDir.
func NewManager(dataDir string, v *vault.Vault, client *smb.Client, store *catalog.Store) *Manager {
	return &Manager{
		path:   filepath.Join(dataDir, FileName),
		vault:  v,
		client: client,
		store:  store,
	}
}

type sourcesFile struct {
	Sources []smb.Source `json:"sources"`
}

// Sources returns every configured source with credentials decrypted.
// It implements the scanner's source provider.
func (m *Manager) Sources() ([]smb.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load()
}

// Add persists a new source and then registers its SMB session. The
// source is saved before the connection attempt, so a temporarily
// unreachable host can be added and scanned later; a registration failure
// is still reported.
func (m *Manager) Add(ctx context.Context, src smb.Source) (string, error) {
	normalize(&src)

	m.mu.Lock()
	existing, err := m.load()
	if err != nil {
		m.mu.Unlock()
		return "", err
	}

	for _, e := range existing {
		if e.ID() == src.ID() {
			m.mu.Unlock()
			return "", fmt.Errorf("%w: %s", ErrDuplicateSource, src.ID())
		}
	}

	if err := m.save(append(existing, src)); err != nil {
		m.mu.Unlock()
		return "", err
	}
	m.mu.Unlock()

	logger.Info("source added", "source_id", src.ID(), "label", src.DisplayLabel())

	if err := m.client.Register(ctx, src); err != nil {
		return src.ID(), fmt.Errorf("source saved but connection failed: %w", err)
	}
	return src.ID(), nil
}

// Remove deletes a source and purges everything it contributed to the
// catalog. Returns the number of purged file rows.
func (m *Manager) Remove(sourceID string) (int64, error) {
	m.mu.Lock()
	existing, err := m.load()
	if err != nil {
		m.mu.Unlock()
		return 0, err
	}

	var (
		removed *smb.Source
		kept    []smb.Source
	)
	for _, src := range existing {
		if src.ID() == sourceID {
			s := src
			removed = &s
			continue
		}
		kept = append(kept, src)
	}
	if removed == nil {
		m.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceID)
	}

	if err := m.save(kept); err != nil {
		m.mu.Unlock()
		return 0, err
	}

	hostStillUsed := false
	for _, src := range kept {
		if src.Host == removed.Host {
			hostStillUsed = true
			break
		}
	}
	m.mu.Unlock()

	if !hostStillUsed {
		m.client.Unregister(removed.Host)
	}

	purged, err := m.store.PurgeLabel(removed.DisplayLabel())
	if err != nil {
		return 0, fmt.Errorf("source removed but catalog purge failed: %w", err)
	}
	logger.Info("source removed", "source_id", sourceID, "purged_files", purged)
	return purged, nil
}

// Resolve finds a source by its identifier.
func (m *Manager) Resolve(sourceID string) (smb.Source, error) {
	srcs, err := m.Sources()
	if err != nil {
		return smb.Source{}, err
	}
	for _, src := range srcs {
		if src.ID() == sourceID {
			return src, nil
		}
	}
	return smb.Source{}, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceID)
}

// RegisterAll establishes sessions for every configured source. Called on
// startup; failures are logged, not fatal.
func (m *Manager) RegisterAll(ctx context.Context) int {
	srcs, err := m.Sources()
	if err != nil {
		logger.Warn("failed to load sources", "error", err)
		return 0
	}

	registered := 0
	for _, src := range srcs {
		if err := m.client.Register(ctx, src); err != nil {
			logger.Warn("failed to register source", "source_id", src.ID(), "error", err)
			continue
		}
		registered++
	}
	logger.Info("sources registered", "registered", registered, "total", len(srcs))
	return registered
}

// SourceStatus is one source's connection state for the status report.
type SourceStatus struct {
	Host      string `json:"host"`
	Share     string `json:"share"`
	Label     string `json:"label"`
	Subfolder string `json:"subfolder"`
	Connected bool   `json:"connected"`
	SourceID  string `json:"source_id"`
}

// StatusReport summarizes configuration and reachability.
type StatusReport struct {
	Configured bool           `json:"configured"`
	Connected  bool           `json:"connected"`
	Sources    []SourceStatus `json:"sources"`
}

// Status probes every configured source and reports reachability.
func (m *Manager) Status(ctx context.Context) (*StatusReport, error) {
	srcs, err := m.Sources()
	if err != nil {
		return nil, err
	}

	report := &StatusReport{
		Configured: len(srcs) > 0,
		Sources:    []SourceStatus{},
	}
	for _, src := range srcs {
		result := m.client.TestConnection(ctx, src)
		if result.Success {
			report.Connected = true
		}
		report.Sources = append(report.Sources, SourceStatus{
			Host:      src.Host,
			Share:     src.Share,
			Label:     src.DisplayLabel(),
			Subfolder: src.Subfolder,
			Connected: result.Success,
			SourceID:  src.ID(),
		})
	}
	return report, nil
}

// load reads and decrypts the sources file. Plaintext credentials from
// older installs are re-saved encrypted on sight.
func (m *Manager) load() ([]smb.Source, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var f sourcesFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	needsMigration := false
	for i := range f.Sources {
		src := &f.Sources[i]
		normalize(src)

		if src.Password != "" && !vault.IsEncrypted(src.Password) {
			needsMigration = true
		}
		if src.Username != "" && !vault.IsEncrypted(src.Username) {
			needsMigration = true
		}

		if src.Username, err = m.vault.Decrypt(src.Username); err != nil {
			return nil, err
		}
		if src.Password, err = m.vault.Decrypt(src.Password); err != nil {
			return nil, err
		}
	}

	if needsMigration {
		logger.Info("migrating plaintext credentials to encrypted storage")
		if err := m.save(f.Sources); err != nil {
			return nil, err
		}
	}

	return f.Sources, nil
}

// save encrypts credentials and writes the sources file atomically enough
// for a single-writer manager (owner-only permissions, whole-file write).
func (m *Manager) save(srcs []smb.Source) error {
	out := sourcesFile{Sources: make([]smb.Source, len(srcs))}
	copy(out.Sources, srcs)

	var err error
	for i := range out.Sources {
		src := &out.Sources[i]
		if !vault.IsEncrypted(src.Username) {
			if src.Username, err = m.vault.Encrypt(src.Username); err != nil {
				return err
			}
		}
		if !vault.IsEncrypted(src.Password) {
			if src.Password, err = m.vault.Encrypt(src.Password); err != nil {
				return err
			}
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write sources file: %w", err)
	}
	return nil
}

// normalize fills in the defaults the file format allows to be omitted.
func normalize(src *smb.Source) {
	if src.Subfolder == "" {
		src.Subfolder = "/"
	}
	if src.Label == "" {
		src.Label = src.Share
	}
}
