package collab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntity_Push(t *testing.T) {
	e := NewEntity("test", 4)
	require.NoError(t, e.Push([]byte("hello")))

	data := <-e.Events()
	assert.Equal(t, []byte("hello"), data)
}

func TestEntity_PushPreservesOrder(t *testing.T) {
	e := NewEntity("test", 8)
	require.NoError(t, e.Push([]byte("one")))
	require.NoError(t, e.Push([]byte("two")))
	require.NoError(t, e.Push([]byte("three")))

	assert.Equal(t, []byte("one"), <-e.Events())
	assert.Equal(t, []byte("two"), <-e.Events())
	assert.Equal(t, []byte("three"), <-e.Events())
}

func TestEntity_PushClosed(t *testing.T) {
	e := NewEntity("test", 4)
	require.NoError(t, e.Close())
	assert.True(t, e.IsClosed())
	assert.Error(t, e.Push([]byte("fail")))
}

func TestEntity_PushFull(t *testing.T) {
	e := NewEntity("test", 1)
	require.NoError(t, e.Push([]byte("first")))
	err := e.Push([]byte("overflow"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "buffer full")
}

func TestEntity_CloseIdempotent(t *testing.T) {
	e := NewEntity("test", 4)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.True(t, e.IsClosed())
}

func TestEntity_DefaultBuffer(t *testing.T) {
	e := NewEntity("test", 0)
	for i := 0; i < 64; i++ {
		require.NoError(t, e.Push([]byte("x")))
	}
	assert.Error(t, e.Push([]byte("overflow")))
}
