package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ContentHash returns a hex digest of file contents, used as the parse
// cache key so unchanged files are never parsed twice.
func ContentHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// AnonTypeID creates a deterministic identity for an unnamed type (an
// anonymous struct/union/enum) from its defining position.
func AnonTypeID(filePath string, line, col uint) string {
	input := fmt.Sprintf("%s:%d:%d", filePath, line, col)
	hash := sha256.Sum256([]byte(input))
	return "c:anon@" + hex.EncodeToString(hash[:8])
}
