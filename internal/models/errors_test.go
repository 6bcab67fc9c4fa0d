package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKeys_AllCategorisedAndDistinct(t *testing.T) {
	t.Parallel()

	keys := AllErrorKeys()
	require.NotEmpty(t, keys)

	seen := make(map[ErrorKey]bool, len(keys))
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
		assert.NotEqual(t, CodeInternal, k.Category(), "key %s has no category", k)
		assert.Regexp(t, `^[a-z_]+$`, string(k))
	}
}

func TestErrorKey_UnknownIsInternal(t *testing.T) {
	t.Parallel()
	assert.Equal(t, CodeInternal, ErrorKey("not_a_key").Category())
}

func TestAppError_KeyMatching(t *testing.T) {
	t.Parallel()

	base := NewKeyedError(KeyPostNotYours)
	wrapped := fmt.Errorf("delete post: %w", base)

	assert.True(t, HasKey(wrapped, KeyPostNotYours))
	assert.True(t, errors.Is(wrapped, NewKeyedError(KeyPostNotYours)))
	assert.False(t, errors.Is(wrapped, NewKeyedError(KeyCommentNotYours)))
	assert.Equal(t, ErrorKey(""), KeyOf(errors.New("plain")))
	assert.Equal(t, CodeForbidden, base.Code)
}

func TestAppError_WithParamCopies(t *testing.T) {
	t.Parallel()

	base := NewKeyedError(KeyNoSuchPollOption)
	withParam := base.WithParam("option", "7")

	assert.Nil(t, base.Params)
	assert.Equal(t, "7", withParam.Params["option"])
	assert.Equal(t, "no_such_poll_option", withParam.Error())

	cause := errors.New("boom")
	withCause := withParam.WithCause(cause)
	assert.ErrorIs(t, withCause, cause)
	assert.Contains(t, withCause.Error(), "boom")
}

func TestPollState(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PollStateClosed, PollStateOpen.Close())
	assert.Equal(t, PollStateClosed, PollStateClosed.Close())

	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.Equal(t, PollStateOpen, (&Poll{State: PollStateOpen}).StateAt(now))
	assert.Equal(t, PollStateOpen, (&Poll{State: PollStateOpen, ClosesAt: &future}).StateAt(now))
	assert.Equal(t, PollStateClosed, (&Poll{State: PollStateOpen, ClosesAt: &past}).StateAt(now))
	assert.Equal(t, PollStateClosed, (&Poll{State: PollStateClosed, ClosesAt: &future}).StateAt(now))
}

func TestCommunityModerator_Outranks(t *testing.T) {
	t.Parallel()

	now := time.Now()
	older := CommunityModerator{CreatedAt: now.Add(-time.Hour)}
	newer := CommunityModerator{CreatedAt: now}

	assert.True(t, older.OutranksModerator(&newer))
	assert.False(t, newer.OutranksModerator(&older))
	assert.False(t, older.OutranksModerator(&older))
}
