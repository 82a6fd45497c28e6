package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const game = `{"turn": "12", "player": {"name": "red"}, "score": 40}`

func TestGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		key   string
		want  string
		found bool
	}{
		{name: "string", key: "turn", want: `"12"`, found: true},
		{name: "object", key: "player", want: `{"name": "red"}`, found: true},
		{name: "number", key: "score", want: `40`, found: true},
		{name: "missing", key: "seed", found: false},
		{name: "nested path is literal", key: "player.name", found: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, found, err := Get([]byte(game), tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGet_SpecialCharacterKey(t *testing.T) {
	t.Parallel()

	doc := []byte(`{"a.b": 1, "a": {"b": 2}, "x*": 3}`)

	got, found, err := Get(doc, "a.b")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "1", got)

	got, found, err = Get(doc, "x*")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "3", got)
}

func TestSet_UpdateExisting(t *testing.T) {
	t.Parallel()

	out, err := Set([]byte(game), "turn", "13", true)
	require.NoError(t, err)
	assert.JSONEq(t, `{"turn": "13", "player": {"name": "red"}, "score": 40}`, string(out))

	keys, err := Keys(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"turn", "player", "score"}, keys)
}

func TestSet_ReplacesNonStringValueWithString(t *testing.T) {
	t.Parallel()

	out, err := Set([]byte(game), "score", "99", true)
	require.NoError(t, err)

	got, found, err := Get(out, "score")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `"99"`, got)
}

func TestSet_UpdateMissingKey(t *testing.T) {
	t.Parallel()

	_, err := Set([]byte(game), "seed", "1", true)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestSet_AddAppendsKey(t *testing.T) {
	t.Parallel()

	out, err := Set([]byte(game), "seed", "1", false)
	require.NoError(t, err)

	keys, err := Keys(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"turn", "player", "score", "seed"}, keys)
}

func TestSet_DottedKeyIsLiteral(t *testing.T) {
	t.Parallel()

	out, err := Set([]byte(`{"player": {"name": "red"}}`), "player.name", "blue", false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"player": {"name": "red"}, "player.name": "blue"}`, string(out))
}

func TestInvalidDocuments(t *testing.T) {
	t.Parallel()

	_, _, err := Get([]byte(`{"turn":`), "turn")
	require.ErrorIs(t, err, ErrInvalid)

	_, err = Set([]byte(`["turn"]`), "turn", "1", false)
	require.ErrorIs(t, err, ErrNotObject)

	_, err = Keys(nil)
	require.ErrorIs(t, err, ErrInvalid)
}
