package snapshot

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"

	"github.com/roach88/extvars/internal/ir"
	"github.com/roach88/extvars/internal/registry"
)

// Magic starts every snapshot header line.
const Magic = "EXTVARS1"

// Version is the document version written by this package.
const Version = 1

// maxBody caps the decompressed body.
const maxBody = 64 << 20

// ErrChecksum is returned when the body does not match the header checksum.
var ErrChecksum = errors.New("snapshot checksum mismatch")

// ErrDigest is returned when the recorded digest does not match the records.
var ErrDigest = errors.New("snapshot digest mismatch")

// Document is the snapshot payload.
type Document struct {
	Version   int                 `json:"version" jsonschema:"title=Format version,minimum=1"`
	Project   string              `json:"project" jsonschema:"title=Project key,description=Opaque key the registry was saved under"`
	Digest    string              `json:"digest" jsonschema:"title=Registry digest,pattern=^[0-9a-f]{64}$"`
	Variables []ir.VariableRecord `json:"variables" jsonschema:"title=Variables,description=Records in category then list order"`
}

// New builds a document for reg. Records are listed in catalog category
// order, then in list order within a category.
func New(project string, reg ir.Registry) (*Document, error) {
	digest, err := ir.RegistryDigest(reg)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		Version:   Version,
		Project:   project,
		Digest:    digest,
		Variables: make([]ir.VariableRecord, 0, reg.Len()),
	}
	for _, cat := range registry.OrderedCategories(reg) {
		for _, rec := range reg[cat] {
			if rec.Category == "" {
				rec.Category = cat
			}
			doc.Variables = append(doc.Variables, rec)
		}
	}
	return doc, nil
}

// Registry regroups the document's records by category.
func (d *Document) Registry() ir.Registry {
	reg := make(ir.Registry)
	for _, rec := range d.Variables {
		reg[rec.Category] = append(reg[rec.Category], rec)
	}
	return reg
}

// canonical returns the canonical JSON body.
func (d *Document) canonical() ([]byte, error) {
	vars := make([]any, len(d.Variables))
	for i, rec := range d.Variables {
		vars[i] = map[string]any{
			"id":       rec.ID,
			"name":     rec.Name,
			"category": rec.Category,
		}
	}
	return ir.MarshalCanonical(map[string]any{
		"version":   d.Version,
		"project":   d.Project,
		"digest":    d.Digest,
		"variables": vars,
	})
}

// Write encodes doc to w.
func Write(w io.Writer, doc *Document) error {
	body, err := doc.canonical()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	sum := blake3.Sum256(body)

	if _, err := fmt.Fprintf(w, "%s %s\n", Magic, hex.EncodeToString(sum[:])); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if _, err := enc.Write(body); err != nil {
		enc.Close()
		return fmt.Errorf("write snapshot body: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush snapshot body: %w", err)
	}
	return nil
}

// Read decodes and verifies a snapshot.
func Read(r io.Reader) (*Document, error) {
	br := bufio.NewReader(r)
	header, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read snapshot header: %w", err)
	}
	magic, sumHex, ok := strings.Cut(strings.TrimSuffix(header, "\n"), " ")
	if !ok || magic != Magic {
		return nil, fmt.Errorf("not an extvars snapshot (header %q)", strings.TrimSpace(header))
	}
	want, err := hex.DecodeString(sumHex)
	if err != nil || len(want) != 32 {
		return nil, fmt.Errorf("malformed snapshot checksum %q", sumHex)
	}

	dec, err := zstd.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer dec.Close()

	body, err := io.ReadAll(io.LimitReader(dec, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	if len(body) > maxBody {
		return nil, fmt.Errorf("snapshot body exceeds %d bytes", maxBody)
	}

	got := blake3.Sum256(body)
	if !bytes.Equal(got[:], want) {
		return nil, ErrChecksum
	}

	var doc Document
	jd := json.NewDecoder(bytes.NewReader(body))
	jd.DisallowUnknownFields()
	if err := jd.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("unsupported snapshot version %d", doc.Version)
	}

	digest, err := ir.RegistryDigest(doc.Registry())
	if err != nil {
		return nil, err
	}
	if digest != doc.Digest {
		return nil, fmt.Errorf("%w: recorded %s, computed %s", ErrDigest, doc.Digest, digest)
	}
	return &doc, nil
}

// WriteFile writes doc to path, creating parent directories.
func WriteFile(path string, doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := Write(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads and verifies the snapshot at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
