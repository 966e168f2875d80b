// Package catalog provides the shard key model and the catalog document
// mapping every shard key to the range of the logical corpus it holds,
// together with persistence abstractions for the document.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrMalformedKey indicates a shard key string that does not follow the
// "<id>" or "<id>-<index>" form.
var ErrMalformedKey = errors.New("malformed shard key")

// Key identifies a single shard file. A primary holding shard ID n is
// addressed as "n", its replicas as "n-1", "n-2" and so on. The zero Index
// marks the primary itself.
type Key struct {
	// ID is the shard identifier. IDs are dense: after every completed
	// operation they span 0..count-1.
	ID int
	// Index is the replica index of the key. Index 0 is the primary,
	// replicas start at 1.
	Index int
}

// NewPrimary returns the key of the primary holding shard id.
func NewPrimary(id int) Key {
	return Key{ID: id}
}

// NewReplica returns the key of replica index of shard id.
func NewReplica(id, index int) Key {
	return Key{ID: id, Index: index}
}

// ParseKey parses the serialized form of a shard key. It is the inverse of
// String and accepts only the forms "<id>" and "<id>-<index>" with a
// non-negative id and a positive index.
func ParseKey(value string) (Key, error) {
	parts := strings.Split(value, "-")
	if len(parts) > 2 {
		return Key{}, fmt.Errorf("%w: %q", ErrMalformedKey, value)
	}

	id, err := parseKeyComponent(parts[0])
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q", ErrMalformedKey, value)
	}

	key := Key{ID: id}
	if len(parts) == 2 {
		index, err := parseKeyComponent(parts[1])
		if err != nil || index < 1 {
			return Key{}, fmt.Errorf("%w: %q", ErrMalformedKey, value)
		}
		key.Index = index
	}

	return key, nil
}

// parseKeyComponent parses a single decimal component of a key. Signs are
// rejected so that "1--2" and "+1" do not slip through strconv.
func parseKeyComponent(value string) (int, error) {
	if value == "" || value[0] == '+' || value[0] == '-' {
		return 0, ErrMalformedKey
	}
	return strconv.Atoi(value)
}

// IsPrimary reports whether the key addresses a primary shard file.
func (k Key) IsPrimary() bool {
	return k.Index == 0
}

// Primary returns the key of the primary this key belongs to. For a primary
// key it returns the key itself.
func (k Key) Primary() Key {
	return Key{ID: k.ID}
}

// String returns the serialized form of the key: "4" for a primary,
// "4-2" for a replica.
func (k Key) String() string {
	if k.Index == 0 {
		return strconv.Itoa(k.ID)
	}
	return strconv.Itoa(k.ID) + "-" + strconv.Itoa(k.Index)
}

// MarshalText implements encoding.TextMarshaler so keys serialize as catalog
// document member names.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(text []byte) error {
	key, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = key
	return nil
}

// SortKeys sorts keys in place by (ID, Index) ascending, primaries before
// their replicas.
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ID != keys[j].ID {
			return keys[i].ID < keys[j].ID
		}
		return keys[i].Index < keys[j].Index
	})
}

// Range is the inclusive span [Start, End] of the logical corpus a shard
// holds. A replica's range always mirrors its primary's. An empty shard is
// encoded as End = Start-1.
type Range struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Span returns the number of corpus bytes the range covers.
func (r Range) Span() int64 {
	return r.End - r.Start + 1
}

// Catalog is the full shard catalog: one range per key, primaries and
// replicas alike. It serializes to a single JSON document keyed by the
// string form of the keys.
type Catalog map[Key]Range

// Keys returns every key in the catalog, sorted.
func (c Catalog) Keys() []Key {
	keys := make([]Key, 0, len(c))
	for key := range c {
		keys = append(keys, key)
	}
	SortKeys(keys)
	return keys
}

// PrimaryIDs returns the sorted shard IDs that have a primary entry.
func (c Catalog) PrimaryIDs() []int {
	var ids []int
	for key := range c {
		if key.IsPrimary() {
			ids = append(ids, key.ID)
		}
	}
	sort.Ints(ids)
	return ids
}

// ReplicaKeys returns every replica key in the catalog, sorted.
func (c Catalog) ReplicaKeys() []Key {
	var keys []Key
	for key := range c {
		if !key.IsPrimary() {
			keys = append(keys, key)
		}
	}
	SortKeys(keys)
	return keys
}

// Replicas returns the sorted replica keys of shard id.
func (c Catalog) Replicas(id int) []Key {
	var keys []Key
	for key := range c {
		if key.ID == id && !key.IsPrimary() {
			keys = append(keys, key)
		}
	}
	SortKeys(keys)
	return keys
}

// ReplicationLevel returns the highest replica index present in the catalog,
// or 0 when no shard has replicas.
func (c Catalog) ReplicationLevel() int {
	level := 0
	for key := range c {
		if key.Index > level {
			level = key.Index
		}
	}
	return level
}

// CorpusSize returns the total number of corpus bytes covered by the primary
// entries.
func (c Catalog) CorpusSize() int64 {
	var size int64
	for key, rng := range c {
		if key.IsPrimary() {
			size += rng.Span()
		}
	}
	return size
}

// Clone returns an independent copy of the catalog.
func (c Catalog) Clone() Catalog {
	clone := make(Catalog, len(c))
	for key, rng := range c {
		clone[key] = rng
	}
	return clone
}
