package flat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// On-disk layout: one binary vector file per modality family plus one
// JSONL metadata file, always written and read together.
const (
	metadataFile = "metadata.jsonl"

	indexMagic   = "RCLFLAT1"
	indexVersion = uint32(1)
)

// metaRecord is one line of metadata.jsonl, ordered by chunk ID so the
// file stays human-inspectable and diffable.
type metaRecord struct {
	ID           uint64    `json:"id"`
	Modality     string    `json:"modality"`
	TextPreview  string    `json:"text_preview"`
	SourcePath   string    `json:"source_path"`
	SourceOffset int       `json:"source_offset"`
	CreatedAt    time.Time `json:"created_at"`
	Deleted      bool      `json:"deleted"`
}

// indexFileName returns the vector file for a family.
func indexFileName(family domain.ModalityFamily) string {
	return fmt.Sprintf("index-%s.bin", family)
}

// Persist writes the vector files and metadata as one consistent
// snapshot: everything is staged to temp files first, then renamed
// into place.
func (s *Store) Persist(_ context.Context) error {
	if s.opts.Dir == "" {
		return fmt.Errorf("%w: no data directory configured", domain.ErrInvalidInput)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := os.MkdirAll(s.opts.Dir, 0o700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st := s.getState()

	staged := make(map[string][]byte, len(st.families)+1)
	for family, fs := range st.families {
		payload, err := encodeFamily(fs)
		if err != nil {
			return fmt.Errorf("encode %s index: %w", family, err)
		}
		staged[indexFileName(family)] = payload
	}

	meta, err := encodeMetadata(st)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	staged[metadataFile] = meta

	// Stage everything before renaming anything so a failure leaves
	// the previous snapshot untouched.
	for name, data := range staged {
		tmp := filepath.Join(s.opts.Dir, name+".tmp")
		if err := os.WriteFile(tmp, data, 0o600); err != nil {
			return fmt.Errorf("stage %s: %w", name, err)
		}
	}
	for name := range staged {
		tmp := filepath.Join(s.opts.Dir, name+".tmp")
		if err := os.Rename(tmp, filepath.Join(s.opts.Dir, name)); err != nil {
			return fmt.Errorf("commit %s: %w", name, err)
		}
	}

	return nil
}

// Load replaces in-memory state with the persisted snapshot. A missing
// store yields an empty index. Metadata referencing a chunk absent
// from its family's vector file, or vice versa, fails with
// domain.ErrCorruptState.
func (s *Store) Load(_ context.Context) error {
	if s.opts.Dir == "" {
		return fmt.Errorf("%w: no data directory configured", domain.ErrInvalidInput)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	records, metaExists, err := readMetadata(filepath.Join(s.opts.Dir, metadataFile))
	if err != nil {
		return err
	}

	newState := s.emptyState()

	// Collect expected IDs per family from metadata. Tombstoned
	// entries keep their vector slot, so they are expected too.
	expected := map[domain.ModalityFamily]map[uint64]bool{
		domain.FamilyText:  {},
		domain.FamilyImage: {},
	}
	for _, rec := range records {
		modality, err := domain.ParseModality(rec.Modality)
		if err != nil {
			return fmt.Errorf("%w: metadata chunk %d: %v", domain.ErrCorruptState, rec.ID, err)
		}
		expected[modality.Family()][rec.ID] = true

		newState.chunks[rec.ID] = domain.Chunk{
			ID:           rec.ID,
			Modality:     modality,
			TextPreview:  rec.TextPreview,
			SourcePath:   rec.SourcePath,
			SourceOffset: rec.SourceOffset,
			CreatedAt:    rec.CreatedAt,
		}
		if rec.Deleted {
			newState.deleted.Add(rec.ID)
		}
		if rec.ID >= newState.nextID {
			newState.nextID = rec.ID + 1
		}
	}

	anyIndexFile := false
	for family, fs := range newState.families {
		path := filepath.Join(s.opts.Dir, indexFileName(family))
		ids, vectors, exists, err := decodeFamily(path, fs.dim)
		if err != nil {
			return err
		}
		if exists {
			anyIndexFile = true
		}
		if !exists && len(expected[family]) > 0 {
			return fmt.Errorf("%w: metadata references %s chunks but %s is missing",
				domain.ErrCorruptState, family, indexFileName(family))
		}

		for _, id := range ids {
			if !expected[family][id] {
				return fmt.Errorf("%w: %s holds chunk %d with no metadata record",
					domain.ErrCorruptState, indexFileName(family), id)
			}
			delete(expected[family], id)
		}
		if len(expected[family]) > 0 {
			return fmt.Errorf("%w: metadata references %d %s chunks absent from %s",
				domain.ErrCorruptState, len(expected[family]), family, indexFileName(family))
		}

		fs.ids = ids
		fs.vectors = vectors
	}

	if !metaExists && anyIndexFile {
		return fmt.Errorf("%w: vector files present but %s is missing", domain.ErrCorruptState, metadataFile)
	}

	s.state.Store(newState)
	return nil
}

// encodeMetadata renders metadata.jsonl, one record per line ordered
// by chunk ID.
func encodeMetadata(st *state) ([]byte, error) {
	ids := make([]uint64, 0, len(st.chunks))
	for id := range st.chunks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var buf bytes.Buffer
	for _, id := range ids {
		chunk := st.chunks[id]
		rec := metaRecord{
			ID:           chunk.ID,
			Modality:     string(chunk.Modality),
			TextPreview:  chunk.TextPreview,
			SourcePath:   chunk.SourcePath,
			SourceOffset: chunk.SourceOffset,
			CreatedAt:    chunk.CreatedAt,
			Deleted:      st.deleted.Contains(id),
		}
		line, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// readMetadata parses metadata.jsonl. Returns exists=false when the
// file is absent.
func readMetadata(path string) ([]metaRecord, bool, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open metadata: %w", err)
	}
	defer f.Close()

	var records []metaRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec metaRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, true, fmt.Errorf("%w: metadata line %d: %v", domain.ErrCorruptState, line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, true, fmt.Errorf("read metadata: %w", err)
	}
	return records, true, nil
}

// encodeFamily renders one family's vector file: a fixed header with a
// checksum over the zstd-compressed record payload.
func encodeFamily(fs *familyState) ([]byte, error) {
	var payload bytes.Buffer
	for i, id := range fs.ids {
		if err := binary.Write(&payload, binary.LittleEndian, id); err != nil {
			return nil, err
		}
		for _, x := range fs.vectors[i] {
			if err := binary.Write(&payload, binary.LittleEndian, math.Float32bits(x)); err != nil {
				return nil, err
			}
		}
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	compressed := enc.EncodeAll(payload.Bytes(), nil)
	if err := enc.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.WriteString(indexMagic)
	if err := binary.Write(&out, binary.LittleEndian, indexVersion); err != nil {
		return nil, err
	}
	if err := binary.Write(&out, binary.LittleEndian, uint32(fs.dim)); err != nil {
		return nil, err
	}
	if err := binary.Write(&out, binary.LittleEndian, uint64(len(fs.ids))); err != nil {
		return nil, err
	}
	if err := binary.Write(&out, binary.LittleEndian, crc32.ChecksumIEEE(compressed)); err != nil {
		return nil, err
	}
	out.Write(compressed)
	return out.Bytes(), nil
}

// decodeFamily reads one family's vector file. Returns exists=false
// when the file is absent; any structural problem is ErrCorruptState.
func decodeFamily(path string, wantDim int) (ids []uint64, vectors [][]float32, exists bool, err error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}

	name := filepath.Base(path)
	headerLen := len(indexMagic) + 4 + 4 + 8 + 4
	if len(data) < headerLen {
		return nil, nil, true, fmt.Errorf("%w: %s truncated header", domain.ErrCorruptState, name)
	}
	if string(data[:len(indexMagic)]) != indexMagic {
		return nil, nil, true, fmt.Errorf("%w: %s bad magic", domain.ErrCorruptState, name)
	}

	off := len(indexMagic)
	version := binary.LittleEndian.Uint32(data[off:])
	off += 4
	dim := int(binary.LittleEndian.Uint32(data[off:]))
	off += 4
	count := binary.LittleEndian.Uint64(data[off:])
	off += 8
	checksum := binary.LittleEndian.Uint32(data[off:])
	off += 4

	if version != indexVersion {
		return nil, nil, true, fmt.Errorf("%w: %s unsupported version %d", domain.ErrCorruptState, name, version)
	}
	if dim != wantDim {
		return nil, nil, true, fmt.Errorf("%w: %s has dimension %d, index configured for %d",
			domain.ErrCorruptState, name, dim, wantDim)
	}

	compressed := data[off:]
	if crc32.ChecksumIEEE(compressed) != checksum {
		return nil, nil, true, fmt.Errorf("%w: %s checksum mismatch", domain.ErrCorruptState, name)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, nil, true, err
	}
	defer dec.Close()

	payload, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, nil, true, fmt.Errorf("%w: %s payload: %v", domain.ErrCorruptState, name, err)
	}

	recordSize := 8 + dim*4
	if uint64(len(payload)) != count*uint64(recordSize) {
		return nil, nil, true, fmt.Errorf("%w: %s payload size mismatch", domain.ErrCorruptState, name)
	}

	ids = make([]uint64, 0, count)
	vectors = make([][]float32, 0, count)
	for i := uint64(0); i < count; i++ {
		rec := payload[i*uint64(recordSize):]
		ids = append(ids, binary.LittleEndian.Uint64(rec))

		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(rec[8+j*4:]))
		}
		vectors = append(vectors, vec)
	}
	return ids, vectors, true, nil
}
