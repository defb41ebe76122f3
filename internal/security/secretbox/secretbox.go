// Package secretbox sella secretos de configuración (client secrets de los
// proveedores) con una clave maestra AES-256-GCM.
//
// Formato: base64(nonce)|base64(ciphertext).
package secretbox

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dropDatabas3/tidasone/internal/security/aead"
)

// EnvVar es la variable con la clave maestra (base64 o hex, 32 bytes).
const EnvVar = "SECRETBOX_MASTER_KEY"

const sep = "|"

// ErrFormat: el valor no tiene el formato nonce|ciphertext.
var ErrFormat = errors.New("secretbox: formato inválido, esperado base64(nonce)|base64(ciphertext)")

// Box sella/abre valores con una clave fija.
type Box struct {
	key []byte
}

// New crea un Box desde una clave en base64 (std o raw) o hex.
func New(key string) (*Box, error) {
	k, err := ParseKey(key)
	if err != nil {
		return nil, err
	}
	return &Box{key: k}, nil
}

// ParseKey decodifica una clave de 32 bytes en base64 o hex.
func ParseKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%s vacía; genere una con: tidasone secrets gen-key", EnvVar)
	}
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == aead.KeySize {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(key); err == nil && len(b) == aead.KeySize {
		return b, nil
	}
	if len(key) == 2*aead.KeySize {
		if b, err := hex.DecodeString(key); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("clave inválida: se requieren %d bytes en base64 o hex", aead.KeySize)
}

// GenerateKey devuelve una clave nueva en base64.
func GenerateKey() (string, error) {
	k := make([]byte, aead.KeySize)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		return "", fmt.Errorf("random: %w", err)
	}
	return base64.StdEncoding.EncodeToString(k), nil
}

// IsSealed indica si v tiene forma de valor sellado.
func IsSealed(v string) bool {
	parts := strings.Split(v, sep)
	if len(parts) != 2 {
		return false
	}
	n, err := base64.StdEncoding.DecodeString(parts[0])
	return err == nil && len(n) == aead.NonceSize
}

// Seal cifra plain con un nonce aleatorio.
func (b *Box) Seal(plain string) (string, error) {
	nonce := make([]byte, aead.NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}
	ct, err := aead.Encrypt(aead.AES256GCM, b.key, nonce, []byte(plain), nil)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Open descifra un valor producido por Seal.
func (b *Box) Open(sealed string) (string, error) {
	parts := strings.Split(strings.TrimSpace(sealed), sep)
	if len(parts) != 2 {
		return "", ErrFormat
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("decode nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	pt, err := aead.Decrypt(aead.AES256GCM, b.key, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("secretbox open: %w", err)
	}
	return pt, nil
}
