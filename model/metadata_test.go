package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataValue(t *testing.T) {
	t.Run("Nil metadata is stored as empty object", func(t *testing.T) {
		var m Metadata
		v, err := m.Value()

		require.NoError(t, err)
		assert.Equal(t, []byte("{}"), v)
	})

	t.Run("Metadata is stored as json", func(t *testing.T) {
		m := Metadata{"dataset": "/d/wordnet/3.1"}
		v, err := m.Value()

		require.NoError(t, err)
		assert.JSONEq(t, `{"dataset":"/d/wordnet/3.1"}`, string(v.([]byte)))
	})
}

func TestMetadataScan(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected Metadata
	}{
		{"Scan from bytes", []byte(`{"dataset":"/d/conceptnet/4/en"}`), Metadata{"dataset": "/d/conceptnet/4/en"}},
		{"Scan from text", `{"surface":"a volcano erupts"}`, Metadata{"surface": "a volcano erupts"}},
		{"Scan from nil", nil, Metadata{}},
		{"Scan from metadata", Metadata{"k": "v"}, Metadata{"k": "v"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var m Metadata
			require.NoError(t, m.Scan(test.value))
			assert.Equal(t, test.expected, m)
		})
	}

	t.Run("Scan rejects invalid json", func(t *testing.T) {
		var m Metadata
		assert.Error(t, m.Scan([]byte("{broken")))
	})

	t.Run("Scan rejects unsupported types", func(t *testing.T) {
		var m Metadata
		err := m.Scan(42)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported type int")
	})

	t.Run("String accessor", func(t *testing.T) {
		m := Metadata{"dataset": "/d/wiktionary/en", "weight": 2.0}

		s, ok := m.String("dataset")
		assert.True(t, ok)
		assert.Equal(t, "/d/wiktionary/en", s)

		_, ok = m.String("weight")
		assert.False(t, ok)
	})
}
