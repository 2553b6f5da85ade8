package idwrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNow_Sortable(t *testing.T) {
	a := NewNow()
	time.Sleep(2 * time.Millisecond)
	b := NewNow()
	assert.Equal(t, -1, a.Compare(b))
	assert.False(t, a.IsZero())
	assert.True(t, IDWrap{}.IsZero())
	assert.WithinDuration(t, time.Now(), b.Time(), time.Minute)
}

func TestText(t *testing.T) {
	id := NewNow()
	parsed, err := NewText(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = NewText("nope")
	require.Error(t, err)
	assert.Panics(t, func() { NewTextMust("nope") })
}

func TestScanValue(t *testing.T) {
	id := NewNow()
	v, err := id.Value()
	require.NoError(t, err)

	var fromString IDWrap
	require.NoError(t, fromString.Scan(v))
	assert.Equal(t, id, fromString)

	var fromBytes IDWrap
	require.NoError(t, fromBytes.Scan([]byte(id.String())))
	assert.Equal(t, id, fromBytes)

	var bad IDWrap
	assert.Error(t, bad.Scan(42))
}
