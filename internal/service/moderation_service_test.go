package service

import (
	"context"
	"testing"
	"time"

	"hearth/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t1 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	t2 = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
)

const (
	alice uint = iota + 1
	bob
	carol
	remoteRita
	suspendedSam
	adminAda
)

type moderationFixture struct {
	users       *userRepoStub
	communities *communityRepoStub
	posts       *postRepoStub
	svc         *ModerationService
}

// newModerationFixture builds local community 1 moderated by alice (t1) and
// bob (t2), and remote community 2.
func newModerationFixture() *moderationFixture {
	users := newUserRepo(
		&models.User{ID: alice, Username: "alice", Local: true},
		&models.User{ID: bob, Username: "bob", Local: true},
		&models.User{ID: carol, Username: "carol", Local: true},
		&models.User{ID: remoteRita, Username: "rita", Host: "elsewhere.test"},
		&models.User{ID: suspendedSam, Username: "sam", Local: true, Suspended: true},
		&models.User{ID: adminAda, Username: "ada", Local: true, IsAdmin: true},
	)
	communities := newCommunityRepo(
		&models.Community{ID: 1, Name: "gophers", Local: true},
		&models.Community{ID: 2, Name: "rustaceans", Host: "elsewhere.test"},
	)
	communities.mod(1, alice, t1)
	communities.mod(1, bob, t2)
	communities.mod(1, suspendedSam, t2.Add(time.Hour))
	posts := newPostRepo(
		&models.Post{ID: 10, CommunityID: 1, AuthorID: carol, Title: "hello"},
		&models.Post{ID: 11, CommunityID: 3, AuthorID: carol, Title: "elsewhere"},
	)
	svc := NewModerationService(users, communities, posts)
	svc.now = func() time.Time { return t2.Add(24 * time.Hour) }
	return &moderationFixture{users: users, communities: communities, posts: posts, svc: svc}
}

func moderatorIDs(mods []models.CommunityModerator) []uint {
	out := make([]uint, 0, len(mods))
	for _, m := range mods {
		out = append(out, m.UserID)
	}
	return out
}

func TestModerationService_RemoveModeratorSeniority(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newModerationFixture()

	err := f.svc.RemoveModerator(ctx, bob, 1, alice)
	assertKey(t, err, models.KeyCommunityModeratorsRemoveMustBeOld)

	require.NoError(t, f.svc.RemoveModerator(ctx, alice, 1, bob))
	mods, err := f.svc.ListModerators(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{alice, suspendedSam}, moderatorIDs(mods))
}

func TestModerationService_RemoveModeratorEdges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name   string
		actor  uint
		cid    uint
		target uint
		key    models.ErrorKey
	}{
		{name: "self removal", actor: alice, cid: 1, target: alice, key: models.KeyCommunityModeratorsRemoveMustBeOld},
		{name: "actor not moderator", actor: carol, cid: 1, target: bob, key: models.KeyMustBeModerator},
		{name: "remote target", actor: alice, cid: 1, target: remoteRita, key: models.KeyModeratorsOnlyLocal},
		{name: "remote community", actor: alice, cid: 2, target: bob, key: models.KeyCommunityModeratorsNotLocal},
		{name: "suspended actor", actor: suspendedSam, cid: 1, target: bob, key: models.KeyUserSuspended},
		{name: "unknown community", actor: alice, cid: 99, target: bob, key: models.KeyNoSuchCommunity},
		{name: "unknown target", actor: alice, cid: 1, target: 99, key: models.KeyNoSuchUser},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newModerationFixture()
			assertKey(t, f.svc.RemoveModerator(ctx, tt.actor, tt.cid, tt.target), tt.key)
			assert.Len(t, f.communities.moderators[1], 3, "nothing removed")
		})
	}
}

func TestModerationService_RemoveNonModeratorIsNoop(t *testing.T) {
	t.Parallel()
	f := newModerationFixture()
	require.NoError(t, f.svc.RemoveModerator(context.Background(), alice, 1, carol))
	assert.True(t, f.communities.removeCalled)
	assert.Len(t, f.communities.moderators[1], 3)
}

func TestModerationService_AddModerator(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newModerationFixture()

	assertKey(t, f.svc.AddModerator(ctx, carol, 1, carol), models.KeyMustBeModerator)
	assertKey(t, f.svc.AddModerator(ctx, alice, 1, remoteRita), models.KeyModeratorsOnlyLocal)
	assertKey(t, f.svc.AddModerator(ctx, alice, 2, carol), models.KeyCommunityModeratorsNotLocal)
	assert.Zero(t, f.communities.addCalls)

	require.NoError(t, f.svc.AddModerator(ctx, bob, 1, carol))
	mod, err := f.communities.GetModerator(ctx, 1, carol)
	require.NoError(t, err)
	require.NotNil(t, mod)
	assert.Equal(t, t2.Add(24*time.Hour), mod.CreatedAt)

	// re-adding alice must not reset her seniority
	require.NoError(t, f.svc.AddModerator(ctx, bob, 1, alice))
	mod, err = f.communities.GetModerator(ctx, 1, alice)
	require.NoError(t, err)
	assert.Equal(t, t1, mod.CreatedAt)

	// the newly added moderator is junior to bob
	assertKey(t, f.svc.RemoveModerator(ctx, carol, 1, bob), models.KeyCommunityModeratorsRemoveMustBeOld)
	require.NoError(t, f.svc.RemoveModerator(ctx, bob, 1, carol))
}

func TestModerationService_ListModerators(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newModerationFixture()

	_, err := f.svc.ListModerators(ctx, 2)
	assertKey(t, err, models.KeyCommunityModeratorsNotLocal)

	mods, err := f.svc.ListModerators(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{alice, bob, suspendedSam}, moderatorIDs(mods))
}

func TestModerationService_EditCommunity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	desc := strPtr("all about go")

	tests := []struct {
		name  string
		actor uint
		cid   uint
		key   models.ErrorKey
	}{
		{name: "moderator", actor: bob, cid: 1},
		{name: "admin without moderation", actor: adminAda, cid: 1},
		{name: "plain user", actor: carol, cid: 1, key: models.KeyCommunityEditDenied},
		{name: "remote community", actor: adminAda, cid: 2, key: models.KeyCommunityNotLocal},
		{name: "suspended moderator", actor: suspendedSam, cid: 1, key: models.KeyUserSuspended},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newModerationFixture()
			community, err := f.svc.EditCommunity(ctx, tt.actor, tt.cid, EditCommunityInput{Description: desc})
			if tt.key != "" {
				assertKey(t, err, tt.key)
				assert.Nil(t, f.communities.updated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "all about go", community.Description)
			require.NotNil(t, f.communities.updated)
		})
	}
}

func TestModerationService_CreateCommunity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newModerationFixture()

	_, err := f.svc.CreateCommunity(ctx, openSettings, carol, CreateCommunityInput{Name: "bad name!"})
	assertKey(t, err, models.KeyCommunityNameDisallowedChars)

	_, err = f.svc.CreateCommunity(ctx, openSettings, suspendedSam, CreateCommunityInput{Name: "ok"})
	assertKey(t, err, models.KeyUserSuspended)

	community, err := f.svc.CreateCommunity(ctx, openSettings, carol, CreateCommunityInput{Name: "knitting"})
	require.NoError(t, err)
	assert.True(t, community.Local)
	assert.Equal(t, "hearth.test", community.Host)
	mods, err := f.svc.ListModerators(ctx, community.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{carol}, moderatorIDs(mods))
}

func TestModerationService_PostActions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newModerationFixture()

	assertKey(t, f.svc.SetPostSticky(ctx, carol, 1, 10, true), models.KeyMustBeModerator)
	assertKey(t, f.svc.SetPostSticky(ctx, alice, 1, 11, true), models.KeyPostNotInCommunity)
	assertKey(t, f.svc.SetPostSticky(ctx, alice, 1, 404, true), models.KeyNoSuchPost)
	assertKey(t, f.svc.RemoveCommunityPost(ctx, alice, 2, 10), models.KeyCommunityNotLocal)

	require.NoError(t, f.svc.SetPostSticky(ctx, alice, 1, 10, true))
	assert.True(t, f.posts.sticky[10])
	require.NoError(t, f.svc.RemoveCommunityPost(ctx, bob, 1, 10))
	assert.True(t, f.posts.deleted[10])
}
