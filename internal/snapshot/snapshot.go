package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"fondsync/internal/vendorapi"
)

// fileHeader marks snapshot files as machine-owned.
const fileHeader = "# auto-generated by fondsync; do not edit by hand\n"

// importInfo records provenance of the snapshot content. Hash covers the
// normalized records only, so Time never influences diff detection and is
// carried over unchanged when the content is identical.
type importInfo struct {
	Hash string `yaml:"hash"`
	Time string `yaml:"time"`
}

type recordDoc struct {
	ID     string            `yaml:"id"`
	Fields map[string]string `yaml:"fields,omitempty"`
}

type document struct {
	Import  importInfo  `yaml:"import"`
	Entity  string      `yaml:"entity"`
	Records []recordDoc `yaml:"records"`
}

// Path returns the tracked snapshot file for an entity type.
func Path(dataDir string, entity vendorapi.EntityType) string {
	return filepath.Join(dataDir, fmt.Sprintf("fondsnet-%s.yaml", entity))
}

// Normalize returns the records in a canonical order: sorted by ID, ties
// broken by serialized fields. Vendor-side reordering of identical data must
// never register as a change.
func Normalize(records []vendorapi.Record) []vendorapi.Record {
	out := make([]vendorapi.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return fieldsKey(out[i].Fields) < fieldsKey(out[j].Fields)
	})
	return out
}

func fieldsKey(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := ""
	for _, k := range keys {
		s += k + "=" + fields[k] + ";"
	}
	return s
}

// Outcome is the result of comparing a fresh fetch against the tracked
// snapshot. When Changed, content holds the full new file ready to write.
type Outcome struct {
	Entity  vendorapi.EntityType
	Path    string
	Changed bool
	Hash    string

	content []byte
}

// Plan normalizes and serializes the fetched record set, then compares it
// against the snapshot at path. A missing snapshot counts as changed with the
// full set as the diff; a malformed snapshot is a fatal error.
func Plan(set vendorapi.RecordSet, path string, now time.Time) (Outcome, error) {
	docs := toDocs(Normalize(set.Records))

	recordsYAML, err := yaml.Marshal(docs)
	if err != nil {
		return Outcome{}, fmt.Errorf("serialize %s records: %w", set.Entity, err)
	}
	sum := sha256.Sum256(recordsYAML)
	hash := hex.EncodeToString(sum[:])

	existing, err := load(path)
	if err != nil {
		return Outcome{}, err
	}
	if existing != nil && existing.Import.Hash == hash {
		return Outcome{Entity: set.Entity, Path: path, Changed: false, Hash: hash}, nil
	}

	doc := document{
		Import: importInfo{
			Hash: hash,
			Time: now.UTC().Format(time.RFC3339),
		},
		Entity:  string(set.Entity),
		Records: docs,
	}
	content, err := yaml.Marshal(doc)
	if err != nil {
		return Outcome{}, fmt.Errorf("serialize %s snapshot: %w", set.Entity, err)
	}

	return Outcome{
		Entity:  set.Entity,
		Path:    path,
		Changed: true,
		Hash:    hash,
		content: append([]byte(fileHeader), content...),
	}, nil
}

// Write stores the new snapshot. It is a no-op for unchanged outcomes.
func (o Outcome) Write() error {
	if !o.Changed {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(o.Path), 0o755); err != nil {
		return fmt.Errorf("write snapshot %s: %w", o.Path, err)
	}
	if err := os.WriteFile(o.Path, o.content, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", o.Path, err)
	}
	return nil
}

// load reads the tracked snapshot. A missing file returns (nil, nil): the
// first-ever run has no baseline.
func load(path string) (*document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("malformed snapshot %s: %w", path, err)
	}
	return &doc, nil
}

func toDocs(records []vendorapi.Record) []recordDoc {
	docs := make([]recordDoc, len(records))
	for i, rec := range records {
		docs[i] = recordDoc{ID: rec.ID, Fields: rec.Fields}
	}
	return docs
}
