package diag

import (
	"encoding/binary"
	"sort"

	"github.com/minio/highwayhash"
)

// hashKey is the 256-bit key the inspector/graph package uses to seed
// highwayhash.New64; reused here for the same "hash some bytes into a
// stable dedup key" purpose.
var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// EdgeRef is the minimal, package-agnostic description of a borrow edge
// needed to compute a deduplication key for a diverging-edge report. The
// borrow package's Edge (and its Label/EdgeKind) carry richer data; callers
// project down to EdgeRef so this package never needs to import borrow.
type EdgeRef struct {
	Kind    string
	Mut     bool
	FieldID int
	Target  uint64
	Line    int
	Column  int
}

func (e EdgeRef) bytes() []byte {
	buf := make([]byte, 0, len(e.Kind)+1+8+8+8+8)
	buf = append(buf, e.Kind...)
	buf = append(buf, 0)
	if e.Mut {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], uint64(e.FieldID))
	buf = append(buf, scratch[:]...)
	binary.LittleEndian.PutUint64(scratch[:], e.Target)
	buf = append(buf, scratch[:]...)
	binary.LittleEndian.PutUint64(scratch[:], uint64(e.Line))
	buf = append(buf, scratch[:]...)
	binary.LittleEndian.PutUint64(scratch[:], uint64(e.Column))
	buf = append(buf, scratch[:]...)
	return buf
}

// PairKey returns a deterministic key for the *unordered* pair (a, b), so
// that reporting (a, b) and (b, a) dedupe to the same triggering site.
func PairKey(a, b EdgeRef) (uint64, error) {
	ab, ba := a.bytes(), b.bytes()
	ordered := [][]byte{ab, ba}
	sort.Slice(ordered, func(i, j int) bool {
		return string(ordered[i]) < string(ordered[j])
	})
	hash, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, err
	}
	hash.Write(ordered[0])
	hash.Write(ordered[1])
	return hash.Sum64(), nil
}
