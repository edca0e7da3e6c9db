// Package checksum guards editor payloads in transit. The editors send
// a checksum with every save and verify the checksum on every load, so
// a corrupted or truncated payload is rejected before it reaches the
// merge pipeline.
package checksum

import (
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"
)

// Get returns the checksum for data as a hex string.
func Get(data string) string {
	sum := blake3.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether data matches the given checksum.
func Verify(data, sum string) bool {
	return Get(data) == sum
}

// Send frames data for transmission to the editor: the first line
// carries the checksum, the second line the readwrite flag as 0 or 1,
// and the rest is the data itself.
func Send(data string, readwrite bool) string {
	var b strings.Builder
	b.WriteString(Get(data))
	b.WriteByte('\n')
	if readwrite {
		b.WriteByte('1')
	} else {
		b.WriteByte('0')
	}
	b.WriteByte('\n')
	b.WriteString(data)
	return b.String()
}

// Receive unframes a payload produced by Send, returning the data and
// whether the checksum matched.
func Receive(framed string) (data string, readwrite bool, ok bool) {
	parts := strings.SplitN(framed, "\n", 3)
	if len(parts) != 3 {
		return "", false, false
	}
	data = parts[2]
	if !Verify(data, parts[0]) {
		return "", false, false
	}
	return data, parts[1] == "1", true
}
