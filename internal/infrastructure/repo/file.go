package repo

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"

	"tourmarket-backend/internal/domain"
	"tourmarket-backend/internal/infrastructure/backup"

	"go.uber.org/zap"
)

// FileStore owns the on-disk order record. Every operation loads the
// whole file, normalizes every record, and writes the whole file back
// when anything changed. Designed for small catalogs, not scale;
// concurrent writers race at file-system granularity (last writer
// wins).
type FileStore struct {
	path              string
	commissionPercent float64
	backups           *backup.Manager
	log               *zap.Logger

	now func() time.Time
}

type storeDocument struct {
	Orders []domain.Order `json:"orders"`
}

func NewFileStore(path string, commissionPercent float64, backups *backup.Manager, log *zap.Logger) *FileStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileStore{
		path:              path,
		commissionPercent: commissionPercent,
		backups:           backups,
		log:               log,
		now:               time.Now,
	}
}

// SetClock overrides the timestamp source, for tests.
func (s *FileStore) SetClock(now func() time.Time) { s.now = now }

// load reads and normalizes the entire store. The changed flag tells
// the caller whether the normalized view differs from the on-disk
// shape; the caller decides whether to persist it back. Malformed
// content is backed up under a reason tag and treated as an empty
// collection rather than failing the caller.
func (s *FileStore) load() ([]domain.Order, bool) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false
	}
	if err != nil {
		s.log.Warn("order store unreadable", zap.Error(err))
		return nil, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false
	}

	var records []json.RawMessage
	changed := false

	switch raw[0] {
	case '{':
		var doc struct {
			Orders []json.RawMessage `json:"orders"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return s.corrupted(reasonFor(err))
		}
		if doc.Orders == nil {
			return s.corrupted("invalid-structure")
		}
		records = doc.Orders
	case '[':
		// compatibility alias: a bare order collection; rewritten to
		// the object form on the next write
		if err := json.Unmarshal(raw, &records); err != nil {
			return s.corrupted(reasonFor(err))
		}
		changed = true
	default:
		if !json.Valid(raw) {
			return s.corrupted("invalid-json")
		}
		return s.corrupted("invalid-structure")
	}

	now := s.now().UTC()
	orders := make([]domain.Order, 0, len(records))
	for _, rec := range records {
		// record decoding is lenient: a legacy-shaped record heals in
		// place, it never escalates to a store-wide reset
		var o domain.Order
		_ = json.Unmarshal(rec, &o)
		norm := normalizeOrder(o, s.commissionPercent, now)
		if !structurallyEqual(rec, norm) {
			changed = true
		}
		orders = append(orders, norm)
	}
	return orders, changed
}

func reasonFor(err error) string {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		return "invalid-json"
	}
	return "invalid-structure"
}

func (s *FileStore) corrupted(reason string) ([]domain.Order, bool) {
	s.backups.Backup(reason)
	s.log.Warn("order store corrupted, resetting to empty collection",
		zap.String("reason", reason),
		zap.Error(&domain.StorageCorruptedError{Reason: reason}))
	return nil, false
}

func (s *FileStore) save(orders []domain.Order, reason string) error {
	if orders == nil {
		orders = []domain.Order{}
	}
	s.backups.Backup(reason)
	data, err := json.MarshalIndent(storeDocument{Orders: orders}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// ReadAll returns the orders visible to the actor: admins see all,
// everyone else only their own. A read may have a write side effect: if
// normalization changed the on-disk shape, the healed form is persisted
// before serving the request.
func (s *FileStore) ReadAll(actor domain.Actor) ([]domain.Order, error) {
	orders, changed := s.load()
	if changed {
		if err := s.save(orders, "normalized-on-read"); err != nil {
			return nil, err
		}
	}

	if !actor.Known() {
		return []domain.Order{}, nil
	}
	if actor.IsAdmin() {
		return orders, nil
	}
	visible := []domain.Order{}
	for _, o := range orders {
		if o.OwnedBy(actor) {
			visible = append(visible, o)
		}
	}
	return visible, nil
}

func (s *FileStore) FindByID(id string, actor domain.Actor) (*domain.Order, error) {
	if id == "" {
		return nil, nil
	}
	orders, err := s.ReadAll(actor)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == id {
			return &orders[i], nil
		}
	}
	return nil, nil
}

// Insert persists a new order. Ownership stamping is the caller's job;
// the store only normalizes and appends.
func (s *FileStore) Insert(o domain.Order) (domain.Order, error) {
	orders, _ := s.load()
	norm := normalizeOrder(o, s.commissionPercent, s.now().UTC())
	orders = append(orders, norm)
	if err := s.save(orders, "insert"); err != nil {
		return domain.Order{}, err
	}
	return norm, nil
}

// UpdateByID merges the patch onto the current record and re-normalizes
// before persisting. Admins may update any order; other actors only
// their own. A missing or invisible order yields (nil, nil).
func (s *FileStore) UpdateByID(id string, patch domain.OrderPatch, actor domain.Actor) (*domain.Order, error) {
	if id == "" || !actor.Known() {
		return nil, nil
	}

	orders, _ := s.load()
	idx := -1
	for i := range orders {
		if orders[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}

	current := orders[idx]
	if !actor.IsAdmin() && !current.OwnedBy(actor) {
		return nil, nil
	}

	merged := patch.Apply(current)
	merged.ID = current.ID
	norm := normalizeOrder(merged, s.commissionPercent, s.now().UTC())
	orders[idx] = norm

	if err := s.save(orders, "update"); err != nil {
		return nil, err
	}
	return &norm, nil
}
