// Package partition splits a logical corpus into contiguous shard segments.
package partition

import (
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/catalog"
	"gitlab.com/shardkeeper/shardkeeper/internal/shardkeeper/commonerr"
)

// Split divides data into count contiguous segments. With q = len/count, the
// first count-1 segments are q bytes long and the last one absorbs the
// remainder. Segments alias the input slice; callers that retain them beyond
// the lifetime of data must copy.
func Split(data []byte, count int) ([][]byte, error) {
	if count < 1 {
		return nil, commonerr.InvalidShardCountError{Count: count}
	}

	q := len(data) / count
	segments := make([][]byte, count)

	offset := 0
	for i := 0; i < count-1; i++ {
		segments[i] = data[offset : offset+q]
		offset += q
	}
	segments[count-1] = data[offset:]

	return segments, nil
}

// Ranges returns the inclusive corpus range of each segment, in order. An
// empty segment yields a zero-span range with End = Start-1.
func Ranges(segments [][]byte) []catalog.Range {
	ranges := make([]catalog.Range, len(segments))

	var offset int64
	for i, segment := range segments {
		ranges[i] = catalog.Range{Start: offset, End: offset + int64(len(segment)) - 1}
		offset += int64(len(segment))
	}

	return ranges
}
