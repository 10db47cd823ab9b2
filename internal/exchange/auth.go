package exchange

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"hash"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// HMAC signs payload with secret using the given hash
func HMAC(payload, secret []byte, h func() hash.Hash) []byte {
	mac := hmac.New(h, secret)
	mac.Write(payload)
	return mac.Sum(nil)
}

// HmacSHA512Hex is the hex HMAC-SHA512 used by form-payload signers
func HmacSHA512Hex(payload, secret string) string {
	return hex.EncodeToString(HMAC([]byte(payload), []byte(secret), sha512.New))
}

// SHA256 returns the raw digest of payload
func SHA256(payload []byte) []byte {
	sum := sha256.Sum256(payload)
	return sum[:]
}

// SHA512 returns the raw digest of payload
func SHA512(payload []byte) []byte {
	sum := sha512.Sum512(payload)
	return sum[:]
}

// Base64 encodes b with standard padding
func Base64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// JSONEncode marshals v with sorted map keys
func JSONEncode(v interface{}) (string, error) {
	b, err := jsonAPI.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UUID returns a random v4 UUID
func UUID() string {
	return uuid.NewString()
}

// UUIDCompact returns a random v4 UUID without dashes
func UUIDCompact() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
