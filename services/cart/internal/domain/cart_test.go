package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ozanyurtsever/shopcore/pkg/errors"
)

func TestCart_AddLine_MergesQuantities(t *testing.T) {
	c := NewCart("u-1")

	require.NoError(t, c.AddLine("p-1", 2))
	require.NoError(t, c.AddLine("p-1", 3))

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 5, c.Lines[0].Quantity)
}

func TestCart_AddLine_QuantityCap(t *testing.T) {
	c := NewCart("u-1")

	require.NoError(t, c.AddLine("p-1", MaxLineQuantity))
	err := c.AddLine("p-1", 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCart_AddLine_LineCap(t *testing.T) {
	c := NewCart("u-1")
	for i := 0; i < MaxLines; i++ {
		require.NoError(t, c.AddLine(string(rune('a'+i%26))+string(rune('0'+i/26)), 1))
	}

	err := c.AddLine("one-too-many", 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCart_RemoveLine(t *testing.T) {
	c := NewCart("u-1")
	require.NoError(t, c.AddLine("p-1", 1))
	require.NoError(t, c.AddLine("p-2", 1))

	c.RemoveLine("p-1")

	require.Len(t, c.Lines, 1)
	assert.Equal(t, "p-2", c.Lines[0].ProductID)

	// removing an absent product is a no-op
	c.RemoveLine("ghost")
	assert.Len(t, c.Lines, 1)
}

func TestCart_SetLineQuantity(t *testing.T) {
	c := NewCart("u-1")
	require.NoError(t, c.AddLine("p-1", 1))

	require.NoError(t, c.SetLineQuantity("p-1", 7))
	assert.Equal(t, 7, c.Lines[0].Quantity)

	require.NoError(t, c.SetLineQuantity("p-1", 0))
	assert.True(t, c.IsEmpty())

	err := c.SetLineQuantity("ghost", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
