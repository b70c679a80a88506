package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeValidEnvelope(t *testing.T) {
	env, err := Decode([]byte(`{"type":"vote","payload":{"ideaId":"i1"}}`))
	require.NoError(t, err)
	assert.Equal(t, CmdVote, env.Type)

	var p VotePayload
	require.NoError(t, env.Bind(&p))
	assert.Equal(t, "i1", p.IdeaID)
}

func TestDecodeMalformedFrame(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrMalformedFrame)

	_, err = Decode([]byte(`"just a string"`))
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestDecodeMissingType(t *testing.T) {
	_, err := Decode([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrMissingType)
}

func TestBindMismatchedPayload(t *testing.T) {
	env, err := Decode([]byte(`{"type":"cursor-move","payload":{"x":"not a number"}}`))
	require.NoError(t, err)

	var p CursorMovePayload
	assert.ErrorIs(t, env.Bind(&p), ErrBadPayload)
}

func TestBindEmptyPayload(t *testing.T) {
	env, err := Decode([]byte(`{"type":"join"}`))
	require.NoError(t, err)

	var p JoinPayload
	assert.ErrorIs(t, env.Bind(&p), ErrBadPayload)
}

func TestEventRoundTrip(t *testing.T) {
	frame, err := json.Marshal(IdeaVoted("i1", 3))
	require.NoError(t, err)

	env, err := Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, EventIdeaVoted, env.Type)

	var voted IdeaVotedEvent
	require.NoError(t, env.Bind(&voted))
	assert.Equal(t, 3, voted.Votes)
}
