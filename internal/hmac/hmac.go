package hmac

import (
	cryptoHMAC "crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/url"

	"github.com/DMarby/filterlab/internal/params"
)

// QueryParam is the query parameter a request signature is passed in
const QueryParam = "hmac"

// HMAC is a utility for creating and verifying HMACs
type HMAC struct {
	Key []byte
}

// Create creates a HMAC of the message, encoded as urlsafe base64
func (h *HMAC) Create(message string) (string, error) {
	mac := cryptoHMAC.New(sha256.New, h.Key)

	_, err := mac.Write([]byte(message))
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Validate validates that the message matches a given HMAC
func (h *HMAC) Validate(message, mac string) (bool, error) {
	expectedMAC, err := h.Create(message)
	if err != nil {
		return false, err
	}

	return cryptoHMAC.Equal([]byte(mac), []byte(expectedMAC)), nil
}

// Sign returns path with its query parameters and their signature appended
func (h *HMAC) Sign(path string, query url.Values) (string, error) {
	message := signedMessage(path, query)

	mac, err := h.Create(message)
	if err != nil {
		return "", err
	}

	signed := url.Values{}
	for k, v := range query {
		signed[k] = v
	}
	signed.Set(QueryParam, mac)

	return path + params.BuildQuery(signed), nil
}

// Verify reports whether the signature in the query matches the path and the remaining query parameters
func (h *HMAC) Verify(path string, query url.Values) (bool, error) {
	mac := query.Get(QueryParam)
	if mac == "" {
		return false, nil
	}

	return h.Validate(signedMessage(path, query), mac)
}

func signedMessage(path string, query url.Values) string {
	unsigned := url.Values{}
	for k, v := range query {
		if k != QueryParam {
			unsigned[k] = v
		}
	}

	return path + params.BuildQuery(unsigned)
}
