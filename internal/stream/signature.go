package stream

import (
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// VerifySignature проверяет подпись вебхука: hex(keccak256(body + secret)).
// Любое несоответствие или пустые входы — отказ. Никаких "разрешить при
// ошибке проверки": не прошло — значит не прошло.
func VerifySignature(body []byte, signature, secret string) bool {
	if len(body) == 0 || signature == "" || secret == "" {
		return false
	}

	buf := make([]byte, 0, len(body)+len(secret))
	buf = append(buf, body...)
	buf = append(buf, secret...)

	want := hex.EncodeToString(crypto.Keccak256(buf))

	got := strings.ToLower(strings.TrimPrefix(signature, "0x"))
	if len(got) != len(want) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
