package matrix

import (
	"math"
	"math/rand"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// EncodingVersion tags the layout written by Encode.
const EncodingVersion = 1

// smallest possible record: two empty keys, the fixed64 value, a one-byte visit count
const minRecordSize = 1 + 1 + 8 + 1

// Encode writes the matrix as
//
//	varint(version) varint(count) { bytes(context) bytes(action) fixed64(value) varint(visits) }
//
// where bytes is a varint length prefix followed by the raw key. Records are
// sorted, so equal matrices encode to equal bytes.
func (m *Matrix) Encode() []byte {
	buf := make([]byte, 0, 16+len(m.entries)*24)
	buf = protowire.AppendVarint(buf, EncodingVersion)
	buf = protowire.AppendVarint(buf, uint64(len(m.entries)))
	for _, k := range m.sortedKeys() {
		e := m.entries[k]
		buf = protowire.AppendBytes(buf, []byte(k.ctx))
		buf = protowire.AppendBytes(buf, []byte(k.action))
		buf = protowire.AppendFixed64(buf, math.Float64bits(e.Value))
		buf = protowire.AppendVarint(buf, e.Visits)
	}
	return buf
}

// Decode builds a new matrix from data produced by Encode. Any validation
// failure yields an error matching ErrCorruptData and no matrix; nothing is
// applied partially.
func Decode(data []byte, cfg Config) (*Matrix, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	entries, err := decodeEntries(data)
	if err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Matrix{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		entries: entries,
	}, nil
}

func decodeEntries(data []byte) (map[key]Entry, error) {
	if len(data) == 0 {
		return nil, corruptAt(0, "empty stream")
	}
	r := reader{buf: data}

	version, err := r.varint("version")
	if err != nil {
		return nil, err
	}
	if version != EncodingVersion {
		return nil, corruptAt(0, "unknown version %d", version)
	}
	count, err := r.varint("record count")
	if err != nil {
		return nil, err
	}
	if count > uint64(r.remaining()/minRecordSize) {
		return nil, corruptAt(r.off, "record count %d exceeds remaining %d bytes", count, r.remaining())
	}

	entries := make(map[key]Entry, int(count))
	for i := uint64(0); i < count; i++ {
		start := r.off
		ctx, err := r.bytes("context")
		if err != nil {
			return nil, err
		}
		action, err := r.bytes("action")
		if err != nil {
			return nil, err
		}
		bits, err := r.fixed64("value")
		if err != nil {
			return nil, err
		}
		visits, err := r.varint("visits")
		if err != nil {
			return nil, err
		}
		value := math.Float64frombits(bits)
		if !isFinite(value) {
			return nil, corruptAt(start, "record %d: non-finite value", i)
		}
		k := key{Context(ctx), Action(action)}
		if _, dup := entries[k]; dup {
			return nil, corruptAt(start, "record %d: duplicate key %q/%q", i, k.ctx, k.action)
		}
		entries[k] = Entry{Value: value, Visits: visits}
	}
	if r.remaining() != 0 {
		return nil, corruptAt(r.off, "%d trailing bytes", r.remaining())
	}
	return entries, nil
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int { return len(r.buf) - r.off }

func (r *reader) varint(field string) (uint64, error) {
	v, n := protowire.ConsumeVarint(r.buf[r.off:])
	if n < 0 {
		return 0, corruptAt(r.off, "%s: %v", field, protowire.ParseError(n))
	}
	r.off += n
	return v, nil
}

func (r *reader) bytes(field string) (string, error) {
	v, n := protowire.ConsumeBytes(r.buf[r.off:])
	if n < 0 {
		return "", corruptAt(r.off, "%s: %v", field, protowire.ParseError(n))
	}
	r.off += n
	return string(v), nil
}

func (r *reader) fixed64(field string) (uint64, error) {
	v, n := protowire.ConsumeFixed64(r.buf[r.off:])
	if n < 0 {
		return 0, corruptAt(r.off, "%s: %v", field, protowire.ParseError(n))
	}
	r.off += n
	return v, nil
}
