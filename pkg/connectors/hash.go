package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// hashTriple builds a stable synthetic id from (source, company, title)
// when a connector's native posting carries no id of its own.
func hashTriple(source, company, title string) string {
	joined := strings.ToLower(strings.Join([]string{source, company, title}, "|"))
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])[:16]
}
