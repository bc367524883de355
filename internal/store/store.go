// Package store persists canonical records to a delimited flat file. The
// file is always rewritten whole under a single-writer assumption; there
// is no append-in-place path.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"labelmill/internal"
	"labelmill/internal/normalize"
	"labelmill/internal/schema"
	"labelmill/internal/util"
)

type Store struct {
	path string
	log  *zap.Logger
}

func New(path string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{path: path, log: log}
}

func (s *Store) Path() string { return s.path }

// Load reads all persisted rows. A missing file is an empty store, not an
// error.
func (s *Store) Load() ([]internal.Record, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	out := make([]internal.Record, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		var rec internal.Record
		for i, name := range header {
			if i >= len(cells) {
				break
			}
			v := strings.TrimSpace(cells[i])
			if v == "" {
				continue
			}
			rec.Set(name, v)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Save normalizes, merges, gates and deduplicates rows, then rewrites the
// whole file. Rows failing the completeness gate are silently dropped;
// that filter keeps unusable half-records out of the store by design.
func (s *Store) Save(rows []internal.Record, mode internal.Mode) error {
	kept := make([]internal.Record, 0, len(rows))
	index := map[schema.Signature]int{}
	dropped := 0

	for _, raw := range rows {
		rec, ok := prepareForStorage(raw, mode)
		if !ok {
			dropped++
			continue
		}
		sig := schema.DedupSignature(rec)
		if at, seen := index[sig]; seen {
			// Last write wins on a signature collision.
			kept[at] = rec
			continue
		}
		index[sig] = len(kept)
		kept = append(kept, rec)
	}

	if err := s.writeAll(kept); err != nil {
		return err
	}
	s.log.Info("store saved",
		zap.String("path", s.path),
		zap.Int("rows", len(kept)),
		zap.Int("dropped", dropped),
		zap.String("mode", mode.String()))
	return nil
}

// Upsert merges new rows into the existing store: a dedup-signature match
// updates in place, an identity-key match updates in place, anything else
// appends. Delegating the final write to Save keeps upsert idempotent and
// convergent under repeated application.
func (s *Store) Upsert(newRows []internal.Record, mode internal.Mode) error {
	existing, err := s.Load()
	if err != nil {
		return err
	}

	bySig := map[schema.Signature]int{}
	byKey := map[schema.IdentityKey]int{}
	for i, rec := range existing {
		bySig[schema.DedupSignature(rec)] = i
		key := schema.Identity(rec)
		if !schema.EmptyIdentity(key) {
			byKey[key] = i
		}
	}

	for _, raw := range newRows {
		rec, ok := prepareForStorage(raw, mode)
		if !ok {
			continue
		}
		sig := schema.DedupSignature(rec)
		if at, hit := bySig[sig]; hit {
			existing[at] = overlay(existing[at], rec)
			continue
		}
		key := schema.Identity(rec)
		if !schema.EmptyIdentity(key) {
			if at, hit := byKey[key]; hit {
				existing[at] = overlay(existing[at], rec)
				bySig[schema.DedupSignature(existing[at])] = at
				continue
			}
		}
		bySig[sig] = len(existing)
		if !schema.EmptyIdentity(key) {
			byKey[key] = len(existing)
		}
		existing = append(existing, rec)
	}

	return s.Save(existing, mode)
}

// PruneToRecentSources retains rows whose SOURCE_FILE is among the `limit`
// most recent distinct sources. Rows with no source are manual entries and
// always survive. Retained rows are written back verbatim; they already
// passed normalization and the completeness gate when stored, and
// re-gating them here would evict rows the caller explicitly kept.
func (s *Store) PruneToRecentSources(recent []string, limit int) (int, error) {
	rows, err := s.Load()
	if err != nil {
		return 0, err
	}
	if limit > len(recent) {
		limit = len(recent)
	}
	allowed := map[string]bool{}
	for _, src := range recent[:limit] {
		allowed[src] = true
	}

	kept := rows[:0]
	for _, rec := range rows {
		if rec.SourceFile == "" || allowed[rec.SourceFile] {
			kept = append(kept, rec)
		}
	}
	removed := len(rows) - len(kept)
	if err := s.writeAll(kept); err != nil {
		return 0, err
	}
	s.log.Info("store pruned", zap.Int("removed", removed), zap.Int("keptSources", limit))
	return removed, nil
}

// prepareForStorage applies the full normalization pipeline and the
// mode-specific storage rules, then gates on completeness.
func prepareForStorage(raw internal.Record, mode internal.Mode) (internal.Record, bool) {
	rec := raw.Clone()

	rec.Barcode = normalize.CleanBarcode(rec.Barcode)
	rec.PLU = normalize.CleanBarcode(rec.PLU)
	rec.Reg = normalize.PriceText(rec.Reg)
	rec.Promo = normalize.PriceText(rec.Promo)
	rec.RegularPrice = normalize.PriceText(rec.RegularPrice)
	rec.PromoPrice = normalize.PriceText(rec.PromoPrice)
	rec.StartDate = normalize.DateOnly(rec.StartDate)
	rec.EndDate = normalize.DateOnly(rec.EndDate)

	rec = schema.MergeFreshLegacy(rec)
	if !schema.IsComplete(rec, mode) {
		return internal.Record{}, false
	}

	rec.Item = util.UpperTrim(rec.Item)
	rec.Brand = util.UpperTrim(rec.Brand)
	rec.UOM = util.UpperTrim(rec.UOM)

	if mode == internal.ModeFresh {
		if rec.UOM != "" && !strings.HasPrefix(rec.UOM, "/") {
			rec.UOM = "/" + rec.UOM
		}
		// COOP doubles as the UOM column in fresh catalogs.
		if rec.UOM != "" {
			rec.Coop = rec.UOM
		}
	}

	// Extension fields are stored only when they carry a value.
	for k, v := range rec.Extra {
		if strings.TrimSpace(v) == "" {
			delete(rec.Extra, k)
		}
	}
	return rec, true
}

// overlay copies non-empty fields of src over dst; empty fields never
// erase stored data.
func overlay(dst, src internal.Record) internal.Record {
	out := dst.Clone()
	for _, field := range internal.CoreFields {
		if v := src.Get(field); v != "" {
			out.Set(field, v)
		}
	}
	for k, v := range src.Extra {
		if v != "" {
			out.Set(k, v)
		}
	}
	return out
}

func (s *Store) writeAll(rows []internal.Record) error {
	header := append([]string{}, internal.CoreFields...)
	extras := map[string]bool{}
	for _, rec := range rows {
		for k := range rec.Extra {
			extras[k] = true
		}
	}
	extNames := make([]string, 0, len(extras))
	for k := range extras {
		extNames = append(extNames, k)
	}
	sort.Strings(extNames)
	header = append(header, extNames...)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".catalog-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		_ = tmp.Close()
		return err
	}
	line := make([]string, len(header))
	for _, rec := range rows {
		for i, name := range header {
			line[i] = rec.Get(name)
		}
		if err := w.Write(line); err != nil {
			_ = tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
