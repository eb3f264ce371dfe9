package util

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	nonceSize = 24
	keySize   = 32
)

// GenerateSymmetricKey returns a random key suitable for EncryptSymmetric
func GenerateSymmetricKey() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("could not generate symmetric key: %w", err)
	}
	return key, nil
}

// encrypt using symetric key
func EncryptSymmetric(msg, key []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	var paddedKey [keySize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	if len(key) <= keySize {
		copy(paddedKey[:], key)
	} else {
		copy(paddedKey[:], key[0:keySize])
	}
	return secretbox.Seal(nonce[:], msg, &nonce, &paddedKey), nil
}

// decrypt using symetric key
func DecryptSymmetric(msg, key []byte) ([]byte, bool) {
	var paddedKey [keySize]byte
	if len(msg) < nonceSize {
		return nil, false
	}
	var decryptNonce [nonceSize]byte
	copy(decryptNonce[:], msg[:nonceSize])
	if len(key) <= keySize {
		copy(paddedKey[:], key)
	} else {
		copy(paddedKey[:], key[0:keySize])
	}
	return secretbox.Open(nil, msg[nonceSize:], &decryptNonce, &paddedKey)
}
