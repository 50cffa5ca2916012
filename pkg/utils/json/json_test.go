package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name"`
	Tags  []string `json:"tags,omitempty"`
	Score float64  `json:"score"`
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	in := sample{Name: "chunker", Tags: []string{"a", "b"}, Score: 0.87}

	data, err := Marshal(in)
	require.NoError(t, err)

	var out sample
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestEncoderDecoder(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, NewEncoder(buf).Encode(sample{Name: "retriever"}))

	var out sample
	require.NoError(t, NewDecoder(buf).Decode(&out))
	assert.Equal(t, "retriever", out.Name)
}

func TestUnmarshalInvalid(t *testing.T) {
	var out sample
	assert.Error(t, Unmarshal([]byte(`{"name":`), &out))
}
