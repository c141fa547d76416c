package index

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/s2"

	"github.com/orbiseo/orbiseo/codec"
)

// Snapshot file layout:
//
//	magic       [4]byte  "ORB1"
//	version     uint8
//	codecLen    uint8
//	codecName   [codecLen]byte
//	payload     s2-compressed codec encoding of snapshotPayload
const snapshotVersion = 1

var snapshotMagic = [4]byte{'O', 'R', 'B', '1'}

var (
	ErrInvalidSnapshot     = errors.New("invalid snapshot file")
	ErrUnsupportedSnapshot = errors.New("unsupported snapshot version")
)

type snapshotPayload struct {
	Records []Record `json:"records"`
}

// Save writes a snapshot of all live records to w using c. A nil codec
// uses codec.Default.
func (ix *Index) Save(w io.Writer, c codec.Codec) error {
	if c == nil {
		c = codec.Default
	}

	ix.mu.RLock()
	payload := snapshotPayload{Records: make([]Record, 0, ix.live.GetCardinality())}
	it := ix.live.Iterator()
	for it.HasNext() {
		payload.Records = append(payload.Records, *ix.records[it.Next()])
	}
	ix.mu.RUnlock()

	data, err := c.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	name := c.Name()
	if len(name) > 255 {
		return fmt.Errorf("codec name too long: %s", name)
	}

	header := make([]byte, 0, 6+len(name))
	header = append(header, snapshotMagic[:]...)
	header = append(header, snapshotVersion, uint8(len(name)))
	header = append(header, name...)
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write snapshot header: %w", err)
	}

	zw := s2.NewWriter(w)
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return fmt.Errorf("failed to write snapshot payload: %w", err)
	}
	return zw.Close()
}

// Load reads a snapshot from r and returns a fully rebuilt Index. The
// codec is resolved from the snapshot header.
func Load(r io.Reader) (*Index, error) {
	var fixed [6]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return nil, fmt.Errorf("%w: short header", ErrInvalidSnapshot)
	}
	if [4]byte(fixed[:4]) != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidSnapshot)
	}
	if fixed[4] != snapshotVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedSnapshot, fixed[4])
	}

	nameBuf := make([]byte, fixed[5])
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return nil, fmt.Errorf("%w: short codec name", ErrInvalidSnapshot)
	}

	c, ok := codec.ByName(string(nameBuf))
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", ErrInvalidSnapshot, nameBuf)
	}

	data, err := io.ReadAll(s2.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot payload: %w", err)
	}

	var payload snapshotPayload
	if err := c.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	ix := New()
	for _, rec := range payload.Records {
		if err := ix.Upsert(rec); err != nil {
			return nil, fmt.Errorf("failed to restore record %q: %w", rec.Keyword, err)
		}
	}

	return ix, nil
}

// SaveFile writes a snapshot atomically: it writes to a temp file in
// the target directory and renames it into place.
func (ix *Index) SaveFile(path string, c codec.Codec) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := ix.Save(tmp, c); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// LoadFile reads a snapshot file written by SaveFile.
func LoadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f)
}
