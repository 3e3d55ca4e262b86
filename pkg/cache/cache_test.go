package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskvKV_RoundTrip(t *testing.T) {
	kv, err := NewDiskv(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)

	_, err = kv.Get("entries/2026-01-02")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set("entries/2026-01-02", []byte(`{"date":"2026-01-02"}`)))
	val, err := kv.Get("entries/2026-01-02")
	require.NoError(t, err)
	assert.Equal(t, `{"date":"2026-01-02"}`, string(val))

	keys, err := kv.Keys()
	require.NoError(t, err)
	assert.Contains(t, keys, "entries/2026-01-02")

	require.NoError(t, kv.Remove("entries/2026-01-02"))
	_, err = kv.Get("entries/2026-01-02")
	assert.ErrorIs(t, err, ErrNotFound)

	// 删除不存在的键不报错
	assert.NoError(t, kv.Remove("entries/2026-01-03"))
}

func TestEncryptedKV_RoundTrip(t *testing.T) {
	inner := NewMemory()
	kv, err := NewEncrypted(inner, "secret-key")
	require.NoError(t, err)

	require.NoError(t, kv.Set("entries/2026-01-02", []byte("plaintext body")))

	// 底层存储不可见明文
	raw, err := inner.Get("entries/2026-01-02")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "plaintext")

	val, err := kv.Get("entries/2026-01-02")
	require.NoError(t, err)
	assert.Equal(t, "plaintext body", string(val))
}

func TestEncryptedKV_LegacyPlaintextFallback(t *testing.T) {
	inner := NewMemory()
	require.NoError(t, inner.Set("entries/2026-01-01", []byte(`{"legacy":true}`)))

	kv, err := NewEncrypted(inner, "secret-key")
	require.NoError(t, err)

	val, err := kv.Get("entries/2026-01-01")
	require.NoError(t, err)
	assert.Equal(t, `{"legacy":true}`, string(val))
}

func TestEncryptedKV_EmptySecretPassthrough(t *testing.T) {
	inner := NewMemory()
	kv, err := NewEncrypted(inner, "")
	require.NoError(t, err)
	assert.Equal(t, inner, kv)
}

func TestJSONCodec(t *testing.T) {
	kv := NewMemory()
	type payload struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	}
	require.NoError(t, SetJSON(kv, "meta", payload{Date: "2026-01-02", Count: 3}))

	var got payload
	require.NoError(t, GetJSON(kv, "meta", &got))
	assert.Equal(t, payload{Date: "2026-01-02", Count: 3}, got)

	assert.ErrorIs(t, GetJSON(kv, "missing", &got), ErrNotFound)
}
