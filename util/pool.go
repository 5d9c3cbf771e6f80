package util

import "sync"

// DefaultBufSize is the read buffer size for a session (32 KiB).  One
// Read fills at most this much, so it also bounds the size of a single
// logged data chunk.
const DefaultBufSize = 32 * 1024

// BufPool provides reusable read buffers for sessions, so a burst of
// short-lived connections does not allocate a fresh 32 KiB slice each.
var BufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultBufSize)
		return &buf
	},
}

// GetBuf retrieves a buffer from the pool.  Callers must return it
// with [PutBuf] when finished.
func GetBuf() *[]byte {
	return BufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool for reuse.
func PutBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	BufPool.Put(buf)
}
