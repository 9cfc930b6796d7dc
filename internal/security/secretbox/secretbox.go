// Package secretbox sella secretos en reposo (client secrets OAuth, passwords
// SMTP) con AES-256-GCM. La clave de cifrado se deriva con HKDF-SHA256 a
// partir de la clave maestra y un propósito, así cada uso tiene su sub-clave.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	nonceSizeGCM      = 12 // AES-GCM nonce size recomendado (96 bits)
	requiredKeyLength = 32 // 32 bytes => AES-256
	sep               = "|"

	// Prefix marca un valor sellado: sb1:base64(nonce)|base64(ciphertext)
	Prefix = "sb1:"
)

// ErrNoKey se retorna al abrir un valor sellado sin Box configurado.
var ErrNoKey = errors.New("secretbox: sealed value but no master key configured")

// Box sella y abre secretos con una sub-clave derivada.
// Un *Box nil es válido: Seal retorna el texto plano y Open solo acepta
// valores no sellados.
type Box struct {
	aead cipher.AEAD
}

// ParseKey decodifica la clave maestra (base64 std, base64 raw, hex de 64
// chars o 32 bytes crudos).
func ParseKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if len(key) == 64 {
		if h, err := hex.DecodeString(key); err == nil {
			return h, nil
		}
	}
	if len(key) == requiredKeyLength {
		return []byte(key), nil
	}
	return nil, fmt.Errorf("clave inválida: %d bytes (requiere %d); genere una con: openssl rand -base64 32", len(key), requiredKeyLength)
}

// New crea un Box para purpose. masterKey vacía retorna (nil, nil).
func New(masterKey, purpose string) (*Box, error) {
	if strings.TrimSpace(masterKey) == "" {
		return nil, nil
	}
	k, err := ParseKey(masterKey)
	if err != nil {
		return nil, err
	}

	sub := make([]byte, requiredKeyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, k, nil, []byte(purpose)), sub); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}

	block, err := aes.NewCipher(sub)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &Box{aead: aesgcm}, nil
}

// Enabled reporta si el Box sella de verdad.
func (b *Box) Enabled() bool { return b != nil }

// IsSealed reporta si s tiene formato de valor sellado.
func IsSealed(s string) bool { return strings.HasPrefix(s, Prefix) }

// Seal cifra plain. Con Box nil (o plain vacío) retorna plain sin cambios.
func (b *Box) Seal(plain string) (string, error) {
	if b == nil || plain == "" {
		return plain, nil
	}
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}
	ct := b.aead.Seal(nil, nonce, []byte(plain), nil)
	return Prefix + base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Open descifra un valor sellado. Valores sin Prefix se retornan tal cual
// (filas escritas antes de configurar la clave).
func (b *Box) Open(s string) (string, error) {
	if !IsSealed(s) {
		return s, nil
	}
	if b == nil {
		return "", ErrNoKey
	}

	parts := strings.Split(strings.TrimPrefix(s, Prefix), sep)
	if len(parts) != 2 {
		return "", errors.New("formato inválido: esperado base64(nonce)|base64(ciphertext)")
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("decode nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(nonce) != nonceSizeGCM {
		return "", fmt.Errorf("nonce inválido: esperado %d bytes, obtuvo %d", nonceSizeGCM, len(nonce))
	}

	pt, err := b.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("gcm auth/decrypt: %w", err)
	}
	return string(pt), nil
}
