package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaptureBufferKeepsHead(t *testing.T) {
	b := NewCaptureBuffer(8)

	n, err := b.Write([]byte("hello "))
	assert.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.False(t, b.Truncated())

	n, err = b.Write([]byte("world"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello wo", b.String())
	assert.True(t, b.Truncated())

	n, err = b.Write([]byte("more"))
	assert.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "hello wo", b.String())
	assert.Equal(t, int64(15), b.TotalBytes())
}

func TestCaptureBufferExactFit(t *testing.T) {
	b := NewCaptureBuffer(4)
	_, _ = b.Write([]byte("abcd"))
	assert.Equal(t, "abcd", b.String())
	assert.False(t, b.Truncated())
}

func TestCaptureBufferZeroCapacity(t *testing.T) {
	b := NewCaptureBuffer(0)
	n, err := b.Write([]byte("x"))
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, b.String())
	assert.True(t, b.Truncated())
}

func TestCaptureBufferBytesIsCopy(t *testing.T) {
	b := NewCaptureBuffer(4)
	_, _ = b.Write([]byte("abc"))
	out := b.Bytes()
	out[0] = 'z'
	assert.Equal(t, "abc", b.String())
}
