// Package backup snapshots the order store file before every mutation,
// organizes snapshots into day-bucketed directories and prunes them to
// the configured keep-count. Nothing in here may fail the triggering
// read or write: every internal error is swallowed and, at most,
// logged.
package backup

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	dayRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	msZRe   = regexp.MustCompile(`:(\d{3})Z$`)
	unsafeR = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

const unknownDay = "unknown-date"

type Manager struct {
	storePath string
	root      string
	keep      int
	debug     bool
	log       *zap.Logger

	now func() time.Time
}

func New(storePath, root string, keep int, debug bool, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		storePath: storePath,
		root:      root,
		keep:      keep,
		debug:     debug,
		log:       log,
		now:       time.Now,
	}
}

// SetClock overrides the timestamp source, for tests.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// dbg emits the backup trace. The debug flag is the only gate, emitted
// at info level so the toggle works under the production logger too
// without raising the whole process to debug.
func (m *Manager) dbg(msg string, fields ...zap.Field) {
	if m.debug {
		m.log.Info(msg, fields...)
	}
}

// prefix is "<store-name>.backup." with the store file's extension
// stripped, e.g. "orders.backup." for orders.json.
func (m *Manager) prefix() string {
	base := filepath.Base(m.storePath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".backup."
}

func sanitizeReason(reason string) string {
	r := strings.TrimSpace(reason)
	if r == "" {
		r = "backup"
	}
	r = unsafeR.ReplaceAllString(r, "_")
	if len(r) > 40 {
		r = r[:40]
	}
	if r == "" {
		r = "backup"
	}
	return r
}

// Backup copies the store file into its day bucket under a
// filesystem-safe timestamp and the sanitized reason tag, then prunes.
// A missing store file is a no-op.
func (m *Manager) Backup(reason string) {
	if _, err := os.Stat(m.storePath); err != nil {
		return
	}
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return
	}

	m.sweep()

	nowUTC := m.now().UTC()
	// ":" and "." are not filesystem-safe on every platform
	ts := strings.NewReplacer(":", "-", ".", "-").Replace(nowUTC.Format("2006-01-02T15:04:05.000Z"))
	name := m.prefix() + ts + "." + sanitizeReason(reason) + ".json"

	day := nowUTC.Format("2006-01-02")
	dayDir := filepath.Join(m.root, day)
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		return
	}

	data, err := os.ReadFile(m.storePath)
	if err != nil {
		return
	}
	if err := os.WriteFile(filepath.Join(dayDir, name), data, 0o644); err != nil {
		return
	}

	m.dbg("backup created",
		zap.String("reason", sanitizeReason(reason)),
		zap.String("day", day),
		zap.String("file", name))

	m.cleanup()
}

func (m *Manager) isBackupName(name string) bool {
	return strings.HasPrefix(name, m.prefix()) && strings.HasSuffix(name, ".json")
}

// dayFromName extracts "YYYY-MM-DD" from a backup filename, or "".
func (m *Manager) dayFromName(name string) string {
	rest := strings.TrimPrefix(name, m.prefix())
	if len(rest) < 10 {
		return ""
	}
	day := rest[:10]
	if !dayRe.MatchString(day) {
		return ""
	}
	return day
}

// tsFromName recovers the backup timestamp from the filename. The
// stored form "2026-02-07T17-50-44-696Z" is mapped back to RFC3339
// before parsing.
func (m *Manager) tsFromName(name string) (time.Time, bool) {
	rest := strings.TrimPrefix(name, m.prefix())
	tsPart, _, ok := strings.Cut(rest, ".")
	if !ok || len(tsPart) < 20 || !strings.Contains(tsPart, "T") {
		return time.Time{}, false
	}
	day := tsPart[:10]
	clock := strings.ReplaceAll(tsPart[11:], "-", ":")
	clock = msZRe.ReplaceAllString(clock, ".${1}Z")
	t, err := time.Parse(time.RFC3339Nano, day+"T"+clock)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// safeMove renames, falling back to copy+remove across filesystems.
// Reports whether the file actually landed at the destination.
func safeMove(from, to string) bool {
	if err := os.Rename(from, to); err == nil {
		return true
	}
	data, err := os.ReadFile(from)
	if err != nil {
		return false
	}
	if err := os.WriteFile(to, data, 0o644); err != nil {
		return false
	}
	_ = os.Remove(from)
	return true
}

// sweep relocates stray backup files (left next to the store file or
// directly under the backup root) into the correct day bucket, so the
// retention count stays accurate regardless of how files arrived.
func (m *Manager) sweep() {
	moved := 0

	moveInto := func(dir, name string) {
		day := m.dayFromName(name)
		if day == "" {
			day = unknownDay
		}
		dayDir := filepath.Join(m.root, day)
		if err := os.MkdirAll(dayDir, 0o755); err != nil {
			return
		}
		if safeMove(filepath.Join(dir, name), filepath.Join(dayDir, name)) {
			moved++
		}
	}

	storeDir := filepath.Dir(m.storePath)
	if entries, err := os.ReadDir(storeDir); err == nil {
		for _, e := range entries {
			if e.IsDir() || !m.isBackupName(e.Name()) {
				continue
			}
			moveInto(storeDir, e.Name())
		}
	}

	if entries, err := os.ReadDir(m.root); err == nil {
		for _, e := range entries {
			if e.IsDir() || !m.isBackupName(e.Name()) {
				continue
			}
			moveInto(m.root, e.Name())
		}
	}

	if moved > 0 {
		m.dbg("sweep moved stray backups into day buckets", zap.Int("moved", moved))
	}
}

type backupFile struct {
	name  string
	path  string
	ts    time.Time
	hasTS bool
	mtime time.Time
}

func (m *Manager) listBackups() []backupFile {
	var out []backupFile
	_ = filepath.WalkDir(m.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !m.isBackupName(d.Name()) {
			return nil
		}
		bf := backupFile{name: d.Name(), path: path}
		bf.ts, bf.hasTS = m.tsFromName(d.Name())
		if info, err := d.Info(); err == nil {
			bf.mtime = info.ModTime()
		}
		out = append(out, bf)
		return nil
	})
	return out
}

// cleanup enumerates all backups across all day buckets, keeps the
// keep-count most recent and deletes the rest. Keep-count of zero or
// negative deletes everything.
func (m *Manager) cleanup() {
	m.sweep()

	all := m.listBackups()

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		at, bt := time.Time{}, time.Time{}
		if a.hasTS {
			at = a.ts
		}
		if b.hasTS {
			bt = b.ts
		}
		if !at.Equal(bt) {
			return at.After(bt)
		}
		return a.mtime.After(b.mtime)
	})

	keep := m.keep
	if keep < 0 {
		keep = 0
	}
	deleted := 0
	for i, f := range all {
		if i < keep {
			continue
		}
		if err := os.Remove(f.path); err == nil {
			deleted++
		}
	}
	if deleted > 0 {
		m.dbg("retention pruned old backups",
			zap.Int("keep", keep),
			zap.Int("total", len(all)),
			zap.Int("deleted", deleted))
	}

	m.removeEmptyDayDirs()
}

func (m *Manager) removeEmptyDayDirs() {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if !dayRe.MatchString(e.Name()) && e.Name() != unknownDay {
			continue
		}
		dayDir := filepath.Join(m.root, e.Name())
		inner, err := os.ReadDir(dayDir)
		if err != nil || len(inner) > 0 {
			continue
		}
		_ = os.Remove(dayDir)
	}
}
