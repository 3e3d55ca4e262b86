package cache

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/pkg/errors"
)

// encryptedKV AES-GCM 加密缓存包装 Encrypting wrapper around a KV.
//
// 读取时解密失败会按历史明文数据原样返回，保证旧缓存可平滑迁移。
type encryptedKV struct {
	inner KV
	aead  cipher.AEAD
}

var _ KV = (*encryptedKV)(nil)

// NewEncrypted 用 secret 派生的密钥包装 inner，secret 为空时直接返回 inner
func NewEncrypted(inner KV, secret string) (KV, error) {
	if secret == "" {
		return inner, nil
	}
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, errors.Wrap(err, "cache: new cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "cache: new gcm")
	}
	return &encryptedKV{inner: inner, aead: aead}, nil
}

func (e *encryptedKV) Get(key string) ([]byte, error) {
	val, err := e.inner.Get(key)
	if err != nil {
		return nil, err
	}
	plain, derr := e.open(val)
	if derr != nil {
		// 历史明文数据 legacy plaintext payload
		return val, nil
	}
	return plain, nil
}

func (e *encryptedKV) Set(key string, value []byte) error {
	sealed, err := e.seal(value)
	if err != nil {
		return err
	}
	return e.inner.Set(key, sealed)
}

func (e *encryptedKV) Remove(key string) error {
	return e.inner.Remove(key)
}

func (e *encryptedKV) Keys() ([]string, error) {
	return e.inner.Keys()
}

func (e *encryptedKV) seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Wrap(err, "cache: read nonce")
	}
	return e.aead.Seal(nonce, nonce, plain, nil), nil
}

func (e *encryptedKV) open(sealed []byte) ([]byte, error) {
	ns := e.aead.NonceSize()
	if len(sealed) < ns {
		return nil, errors.New("cache: ciphertext too short")
	}
	return e.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
}
