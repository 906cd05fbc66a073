package hairlens

import (
	crand "crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// TokenGenerator produces opaque unpredictable identifiers.
type TokenGenerator interface {
	Next() (string, error)
}

type UuidGenerator struct{}

func (UuidGenerator) Next() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("uuid: %w", err)
	}
	return id.String(), nil
}

const defaultTokenBytes = 48

// RandomTokenGenerator encodes Bytes (default 48) bytes of crypto/rand output
// as unpadded url safe base64, so tokens never contain ':' and stay safe
// to embed in cache keys and headers.
type RandomTokenGenerator struct {
	Bytes int
}

func (g RandomTokenGenerator) Next() (string, error) {
	n := g.Bytes
	if n <= 0 {
		n = defaultTokenBytes
	}
	raw := make([]byte, n)
	// crypto/rand - getentropy(2)
	bytesRead, err := crand.Read(raw)
	if err != nil {
		return "", fmt.Errorf("rand read: %w", err)
	}
	if bytesRead != n {
		return "", fmt.Errorf("bytes read %d / required %d", bytesRead, n)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
