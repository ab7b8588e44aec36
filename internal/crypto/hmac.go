package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// HMACAuth holds the credentials required for HMAC-authenticated requests
// against the Gate.io and OKX REST APIs.
type HMACAuth struct {
	Key        string // API key
	Secret     string // API secret
	Passphrase string // API passphrase (OKX only)
}

// GateHeaders returns the HTTP headers for a Gate.io v4 API request.
// The signature is hex(HMAC-SHA512(secret, payload)) where payload is
//
//	method \n path \n query \n hex(SHA512(body)) \n timestamp
//
// Returned header keys:
//   - KEY
//   - Timestamp
//   - SIGN
func (h *HMACAuth) GateHeaders(method, path, query, body string) map[string]string {
	return h.GateHeadersAt(method, path, query, body, time.Now().Unix())
}

// GateHeadersAt is like GateHeaders but lets the caller supply the Unix
// timestamp (useful for deterministic testing).
func (h *HMACAuth) GateHeadersAt(method, path, query, body string, unixTS int64) map[string]string {
	ts := strconv.FormatInt(unixTS, 10)

	bodyHash := sha512.Sum512([]byte(body))
	message := method + "\n" + path + "\n" + query + "\n" + hex.EncodeToString(bodyHash[:]) + "\n" + ts

	mac := hmac.New(sha512.New, []byte(h.Secret))
	mac.Write([]byte(message))

	return map[string]string{
		"KEY":       h.Key,
		"Timestamp": ts,
		"SIGN":      hex.EncodeToString(mac.Sum(nil)),
	}
}

// OKXHeaders returns the HTTP headers for an OKX v5 API request. The
// signature is base64(HMAC-SHA256(secret, timestamp+method+requestPath+body))
// with an ISO-8601 millisecond timestamp; requestPath includes the query
// string.
//
// Returned header keys:
//   - OK-ACCESS-KEY
//   - OK-ACCESS-SIGN
//   - OK-ACCESS-TIMESTAMP
//   - OK-ACCESS-PASSPHRASE
func (h *HMACAuth) OKXHeaders(method, requestPath, body string) map[string]string {
	return h.OKXHeadersAt(method, requestPath, body, time.Now())
}

// OKXHeadersAt is like OKXHeaders but lets the caller supply the time
// (useful for deterministic testing).
func (h *HMACAuth) OKXHeadersAt(method, requestPath, body string, at time.Time) map[string]string {
	ts := at.UTC().Format("2006-01-02T15:04:05.000Z")

	message := ts + method + requestPath + body
	sig := hmacSHA256Base64([]byte(h.Secret), message)

	return map[string]string{
		"OK-ACCESS-KEY":        h.Key,
		"OK-ACCESS-SIGN":       sig,
		"OK-ACCESS-TIMESTAMP":  ts,
		"OK-ACCESS-PASSPHRASE": h.Passphrase,
	}
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// hmacSHA256Base64 computes HMAC-SHA256 of message using key and returns the
// result as a base64 standard-encoded string.
func hmacSHA256Base64(key []byte, message string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// String returns a redacted representation suitable for logging.
func (h *HMACAuth) String() string {
	redact := func(s string) string {
		if len(s) <= 4 {
			return "****"
		}
		return s[:4] + "****"
	}
	return fmt.Sprintf("HMACAuth{key=%s, secret=%s}", redact(h.Key), redact(h.Secret))
}
