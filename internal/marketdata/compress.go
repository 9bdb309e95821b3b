package marketdata

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// compressThreshold is the minimum payload size worth paying zstd's
// framing overhead for, following the teacher's
// internal/performance/message_compressor.go MinSizeForCompression idea.
const compressThreshold = 512

// maybeCompress zstd-compresses payload when it is at least
// compressThreshold bytes long, returning the original bytes and false
// otherwise.
func maybeCompress(payload []byte) ([]byte, bool, error) {
	if len(payload) < compressThreshold {
		return payload, false, nil
	}
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, false, fmt.Errorf("marketdata: new zstd writer: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		w.Close()
		return nil, false, fmt.Errorf("marketdata: zstd write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, false, fmt.Errorf("marketdata: zstd close: %w", err)
	}
	return buf.Bytes(), true, nil
}
