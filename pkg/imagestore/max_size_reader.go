package imagestore

import (
	"fmt"
	"io"
)

// TooLargeError is returned by readers from NewMaxSizeReader once the
// source exceeds the configured cap.
type TooLargeError struct {
	MaxBytes int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("exceeds limit of %d bytes", e.MaxBytes)
}

// NewMaxSizeReader caps r at maxSize bytes. Reading past the cap yields a
// *TooLargeError instead of silently truncating the data.
func NewMaxSizeReader(r io.Reader, maxSize int64) io.Reader {
	return &maxSizeReader{r: r, max: maxSize, left: maxSize}
}

type maxSizeReader struct {
	r    io.Reader
	max  int64
	left int64
}

func (m *maxSizeReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	// read one byte past the remaining budget so an oversized source is
	// caught on this call rather than the next
	if int64(len(p)) > m.left+1 {
		p = p[:m.left+1]
	}
	n, err := m.r.Read(p)
	if int64(n) <= m.left {
		m.left -= int64(n)
		return n, err
	}
	n = int(m.left)
	m.left = 0
	return n, &TooLargeError{MaxBytes: m.max}
}
