package emit

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/unisem"
	"github.com/syssam/unisem/schema"
)

// SnapshotVersion is the encoding version written by EncodeSnapshot.
const SnapshotVersion = 1

type snapshot struct {
	Version int                  `msgpack:"v"`
	Model   *schema.UnifiedModel `msgpack:"model"`
}

// EncodeSnapshot encodes u as a compact binary snapshot, suitable for
// caching composed models.
func EncodeSnapshot(u *schema.UnifiedModel) ([]byte, error) {
	if u == nil {
		return nil, errors.New("unisem: snapshot: nil model")
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(&snapshot{Version: SnapshotVersion, Model: u}); err != nil {
		return nil, fmt.Errorf("unisem: snapshot %q: %w", u.Name, err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot decodes a snapshot written by EncodeSnapshot and checks
// the model it holds.
func DecodeSnapshot(data []byte) (*schema.UnifiedModel, error) {
	var s snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, unisem.NewParseError("", "invalid snapshot", err)
	}
	if s.Version != SnapshotVersion {
		return nil, unisem.NewParseError("v", fmt.Sprintf("unsupported snapshot version %d", s.Version), nil)
	}
	if err := Check(s.Model); err != nil {
		return nil, err
	}
	return s.Model, nil
}
