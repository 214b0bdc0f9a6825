package qobuz

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// fileURLSignature signs a track/getFileUrl request. The API expects the md5
// of the method name, the sorted parameters and the timestamp, followed by the
// application secret.
func fileURLSignature(trackID string, formatID int, timestamp int64, secret string) string {
	raw := fmt.Sprintf("trackgetFileUrlformat_id%dintentstreamtrack_id%s%d%s", formatID, trackID, timestamp, secret)
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
