package samples

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRound(t *testing.T) {
	round, err := NextRound(1, StatusRejectRemake)
	require.NoError(t, err)
	assert.Equal(t, 2, round)

	round, err = NextRound(3, StatusApprove)
	require.NoError(t, err)
	assert.Equal(t, 3, round)

	round, err = NextRound(0, StatusProceed)
	require.NoError(t, err)
	assert.Equal(t, 1, round)

	round, err = NextRound(-2, StatusRejectRemake)
	require.NoError(t, err)
	assert.Equal(t, 2, round)
}

func TestNextRoundRejectsMissingOrUnknownStatus(t *testing.T) {
	_, err := NextRound(1, "")
	assert.ErrorIs(t, err, ErrStatusRequired)

	_, err = NextRound(1, "maybe")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestStatusLabels(t *testing.T) {
	statuses := Statuses()
	require.Len(t, statuses, 5)
	assert.Equal(t, StatusApprove, statuses[0].Value)
	assert.Equal(t, "Reject & Request for Remake", StatusRejectRemake.Label())
	assert.Equal(t, "Unknown", SubmitStatus("other").Label())
}
