package domain

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeiMarshalsAsString(t *testing.T) {
	v, ok := new(big.Int).SetString("6200000000000000000000", 10)
	require.True(t, ok)

	out, err := json.Marshal(NewWei(v))
	require.NoError(t, err)
	assert.Equal(t, `"6200000000000000000000"`, string(out))
}

func TestWeiUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"quoted", `"123456"`, "123456"},
		{"bare number", `123456`, "123456"},
		{"null", `null`, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w Wei
			require.NoError(t, json.Unmarshal([]byte(tt.in), &w))
			assert.Equal(t, tt.want, w.Int.String())
		})
	}
}

func TestWeiUnmarshalRejectsGarbage(t *testing.T) {
	var w Wei
	assert.Error(t, json.Unmarshal([]byte(`"1.5e18"`), &w))
}

func TestNewWeiCopies(t *testing.T) {
	src := big.NewInt(100)
	w := NewWei(src)
	src.SetInt64(999)
	assert.Equal(t, "100", w.Int.String())

	out := w.BigInt()
	out.SetInt64(5)
	assert.Equal(t, "100", w.Int.String())
}

func TestNewWeiNil(t *testing.T) {
	assert.Nil(t, NewWei(nil))
	var w *Wei
	assert.Nil(t, w.BigInt())
}
