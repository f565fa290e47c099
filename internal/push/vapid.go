package push

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// VAPIDPublicKeyLen is the byte length of an uncompressed P-256 public key,
// the format push services expect for the applicationServerKey
const VAPIDPublicKeyLen = 65

// DecodeVAPIDPublicKey decodes the server-distributed base64url VAPID public
// key into its binary form, tolerating padded input
func DecodeVAPIDPublicKey(s string) ([]byte, error) {
	key, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("decode vapid public key: %w", err)
	}
	if len(key) != VAPIDPublicKeyLen {
		return nil, fmt.Errorf("vapid public key must be %d bytes, got %d", VAPIDPublicKeyLen, len(key))
	}
	return key, nil
}
