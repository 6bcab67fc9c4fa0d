package service

import (
	"context"
	"testing"

	"hearth/internal/models"
	"hearth/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commentFixture struct {
	svc           *CommentService
	comments      *commentRepoStub
	notifications *notificationRepoStub
}

// newCommentFixture: post 1 by alice, comment 50 on it by bob, a deleted
// comment 51, and live comment 52 under deleted post 2.
func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()
	users := newUserRepo(
		&models.User{ID: alice, Username: "alice", Local: true},
		&models.User{ID: bob, Username: "bob", Local: true},
		&models.User{ID: carol, Username: "carol", Local: true},
		&models.User{ID: suspendedSam, Username: "sam", Local: true, Suspended: true},
	)
	posts := newPostRepo(
		&models.Post{ID: 1, AuthorID: alice, CommunityID: 1, Title: "Hello world", ContentText: strPtr("x")},
		&models.Post{ID: 2, AuthorID: alice, CommunityID: 1, Title: "[deleted]", Deleted: true},
	)
	comments := newCommentRepo(
		&models.Comment{ID: 50, PostID: 1, AuthorID: bob, ContentText: strPtr("first")},
		&models.Comment{ID: 51, PostID: 1, AuthorID: bob, Deleted: true},
		&models.Comment{ID: 52, PostID: 2, AuthorID: bob, ContentText: strPtr("orphan")},
	)
	notifRepo := &notificationRepoStub{}
	notifications := NewNotificationService(notifRepo, &publisherStub{})
	return &commentFixture{
		svc:           NewCommentService(users, posts, comments, notifications, newRenderer(t)),
		comments:      comments,
		notifications: notifRepo,
	}
}

func TestCommentService_ContentRules(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name  string
		actor uint
		input validation.CommentContentInput
		key   models.ErrorKey
	}{
		{name: "empty text", actor: carol, input: validation.CommentContentInput{ContentText: strPtr("")}, key: models.KeyCommentEmpty},
		{name: "neither field", actor: carol, input: validation.CommentContentInput{}, key: models.KeyCommentEmpty},
		{name: "both fields", actor: carol, input: validation.CommentContentInput{ContentText: strPtr("a"), ContentMarkdown: strPtr("b")}, key: models.KeyCommentContentConflict},
		{name: "suspended", actor: suspendedSam, input: validation.CommentContentInput{ContentText: strPtr("a")}, key: models.KeyUserSuspended},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newCommentFixture(t)
			_, err := f.svc.ReplyToPost(ctx, tt.actor, 1, tt.input)
			assertKey(t, err, tt.key)
			_, err = f.svc.ReplyToComment(ctx, tt.actor, 50, tt.input)
			assertKey(t, err, tt.key)
			assert.Empty(t, f.comments.created)
			assert.Empty(t, f.notifications.stored)
		})
	}
}

func TestCommentService_ReplyToPostNotifiesAuthor(t *testing.T) {
	t.Parallel()
	f := newCommentFixture(t)

	comment, err := f.svc.ReplyToPost(context.Background(), carol, 1, validation.CommentContentInput{ContentMarkdown: strPtr("*nice*")})
	require.NoError(t, err)
	assert.Nil(t, comment.ParentID)
	require.NotNil(t, comment.ContentHTML)
	assert.Contains(t, *comment.ContentHTML, "<em>nice</em>")

	require.Len(t, f.notifications.stored, 1)
	n := f.notifications.stored[0]
	assert.Equal(t, alice, n.RecipientID)
	assert.Equal(t, models.NotificationKindPostReply, n.Kind)
	assert.Equal(t, comment.ID, n.ReplyID)
	assert.Equal(t, "Hello world", n.TitleParams["post_title"])
}

func TestCommentService_ReplyToCommentNotifiesParentAuthor(t *testing.T) {
	t.Parallel()
	f := newCommentFixture(t)

	comment, err := f.svc.ReplyToComment(context.Background(), carol, 50, validation.CommentContentInput{ContentText: strPtr("agreed")})
	require.NoError(t, err)
	require.NotNil(t, comment.ParentID)
	assert.Equal(t, uint(50), *comment.ParentID)
	assert.Equal(t, uint(1), comment.PostID)

	require.Len(t, f.notifications.stored, 1)
	n := f.notifications.stored[0]
	assert.Equal(t, bob, n.RecipientID)
	assert.Equal(t, models.NotificationKindReplyReply, n.Kind)
	assert.Equal(t, models.MessageNotificationTitleReplyReply, n.TitleKey)
	assert.Equal(t, "Hello world", n.TitleParams["post_title"])
}

func TestCommentService_SelfReplyIsSilent(t *testing.T) {
	t.Parallel()
	f := newCommentFixture(t)
	_, err := f.svc.ReplyToPost(context.Background(), alice, 1, validation.CommentContentInput{ContentText: strPtr("bump")})
	require.NoError(t, err)
	assert.Len(t, f.comments.created, 1)
	assert.Empty(t, f.notifications.stored)
}

func TestCommentService_NotificationFailureKeepsComment(t *testing.T) {
	t.Parallel()
	f := newCommentFixture(t)
	f.notifications.createFn = func(context.Context, *models.Notification) (bool, error) {
		return false, models.NewInternalError(assert.AnError)
	}
	comment, err := f.svc.ReplyToPost(context.Background(), carol, 1, validation.CommentContentInput{ContentText: strPtr("hi")})
	require.NoError(t, err)
	assert.NotZero(t, comment.ID)
}

func TestCommentService_DeletedTargets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newCommentFixture(t)
	in := validation.CommentContentInput{ContentText: strPtr("hi")}

	_, err := f.svc.ReplyToPost(ctx, carol, 2, in)
	assertKey(t, err, models.KeyNoSuchPost)
	_, err = f.svc.ReplyToComment(ctx, carol, 51, in)
	assertKey(t, err, models.KeyNoSuchComment)
	_, err = f.svc.ReplyToComment(ctx, carol, 999, in)
	assertKey(t, err, models.KeyNoSuchComment)
	_, err = f.svc.ReplyToComment(ctx, carol, 52, in)
	assertKey(t, err, models.KeyNoSuchPost)
	assert.Empty(t, f.comments.created)
	assert.Empty(t, f.notifications.stored)

	_, err = f.svc.EditComment(ctx, bob, 51, validation.CommentContentInput{ContentText: strPtr("resurrected")})
	assertKey(t, err, models.KeyNoSuchComment)
	assert.Nil(t, f.comments.updated)
}

func TestCommentService_EditAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newCommentFixture(t)

	_, err := f.svc.EditComment(ctx, carol, 50, validation.CommentContentInput{ContentText: strPtr("hijack")})
	assertKey(t, err, models.KeyCommentNotYours)

	edited, err := f.svc.EditComment(ctx, bob, 50, validation.CommentContentInput{ContentMarkdown: strPtr("`code`")})
	require.NoError(t, err)
	assert.Nil(t, edited.ContentText)
	assert.Contains(t, *edited.ContentHTML, "<code>code</code>")
	assert.Same(t, edited, f.comments.updated)

	assertKey(t, f.svc.DeleteComment(ctx, carol, 50), models.KeyCommentNotYours)
	require.NoError(t, f.svc.DeleteComment(ctx, bob, 50))
	assert.True(t, f.comments.deleted[50])
}

func TestCommentService_GetComment(t *testing.T) {
	t.Parallel()
	f := newCommentFixture(t)

	got, err := f.svc.GetComment(context.Background(), 50)
	require.NoError(t, err)
	require.NotNil(t, got.Post)
	assert.Equal(t, uint(1), got.Post.ID)
	assert.Equal(t, "Hello world", got.Post.Title)
	assert.Nil(t, got.Post.ContentText, "only the post's id and title are attached")

	_, err = f.svc.GetComment(context.Background(), 999)
	assertKey(t, err, models.KeyNoSuchComment)
}
