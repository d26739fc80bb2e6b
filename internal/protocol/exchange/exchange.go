// Package exchange encodes the out-of-band PSK transport URI:
//
//	algochat-psk://v1?addr=<recipient>&psk=<base64url(32)>&label=<urlencoded>
//
// The URI travels outside the protocol (QR scan, paste) and announces that
// the bearer holds a 32-byte PSK for messaging the named address.
package exchange

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
)

const (
	Scheme  = "algochat-psk"
	version = "v1"
	PSKSize = 32
)

var (
	ErrInvalidURI       = errors.New("exchange: not an algochat-psk uri")
	ErrInvalidKeyLength = errors.New("exchange: psk must be 32 bytes")
)

type (
	Exchange struct {
		Addr  string
		PSK   [PSKSize]byte
		Label string
	}
)

// Encode renders the URI. The label is optional and percent-encoded.
func Encode(addr string, psk []byte, label string) (string, error) {
	if len(psk) != PSKSize {
		return "", ErrInvalidKeyLength
	}
	uri := fmt.Sprintf("%s://%s?addr=%s&psk=%s", Scheme, version,
		url.QueryEscape(addr), base64.RawURLEncoding.EncodeToString(psk))
	if label != "" {
		uri += "&label=" + url.QueryEscape(label)
	}
	return uri, nil
}

// Decode parses a URI produced by Encode or by another implementation.
func Decode(raw string) (*Exchange, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, ErrInvalidURI
	}
	if u.Scheme != Scheme || u.Host != version {
		return nil, ErrInvalidURI
	}

	q := u.Query()
	addr := q.Get("addr")
	pskB64 := q.Get("psk")
	if addr == "" || pskB64 == "" {
		return nil, ErrInvalidURI
	}

	psk, err := base64.RawURLEncoding.DecodeString(pskB64)
	if err != nil {
		return nil, ErrInvalidURI
	}
	if len(psk) != PSKSize {
		return nil, ErrInvalidKeyLength
	}

	ex := &Exchange{Addr: addr, Label: q.Get("label")}
	copy(ex.PSK[:], psk)
	return ex, nil
}
