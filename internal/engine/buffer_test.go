package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_FirstBufferedOrder(t *testing.T) {
	b := NewBuffer()
	b.Add(BufferItem{"b", "x"})
	b.Add(BufferItem{"a", "y"})
	b.Add(BufferItem{"b", "z"})
	b.Add(BufferItem{"a", "y"})

	assert.Equal(t, []BufferItem{{"b", "x"}, {"b", "z"}, {"a", "y"}}, b.Pending())
	assert.Equal(t, []BufferItem{{"b", "x"}, {"b", "z"}, {"a", "y"}, {"a", "y"}}, b.Items())
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, 2, b.Count(BufferItem{"a", "y"}))
	assert.Equal(t, 0, b.Count(BufferItem{"c", "w"}), "missing entries count zero")
}

func TestBuffer_RemoveKeepsPosition(t *testing.T) {
	b := NewBuffer()
	b.Add(BufferItem{"a", "x"})
	b.Add(BufferItem{"b", "y"})

	require.NoError(t, b.Remove(BufferItem{"a", "x"}))
	assert.Equal(t, []BufferItem{{"b", "y"}}, b.Pending())

	b.Add(BufferItem{"a", "x"})
	assert.Equal(t, []BufferItem{{"a", "x"}, {"b", "y"}}, b.Pending(),
		"a re-buffered item keeps its first-buffered position")
}

func TestBuffer_RemoveUnderflow(t *testing.T) {
	b := NewBuffer()
	err := b.Remove(BufferItem{"a", "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBufferUnderflow))

	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeBufferUnderflow, re.Code)
	assert.Equal(t, "a?x", re.Event)

	b.Add(BufferItem{"a", "x"})
	require.NoError(t, b.Remove(BufferItem{"a", "x"}))
	assert.ErrorIs(t, b.Remove(BufferItem{"a", "x"}), ErrBufferUnderflow)
	assert.Equal(t, 0, b.Len())
}

func TestBufferItem_Event(t *testing.T) {
	item := BufferItem{Actor: "Customer", Message: "pizza"}
	assert.Equal(t, "Customer?pizza", item.Event())
	assert.Equal(t, "Customer?pizza", item.String())
}
