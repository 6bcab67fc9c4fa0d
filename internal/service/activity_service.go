package service

import (
	"context"
	"sort"
	"time"

	"hearth/internal/models"
	"hearth/internal/repository"
)

const userThingsLimit = 30

// ThingKind tells the two kinds of user activity apart.
type ThingKind string

const (
	ThingPost    ThingKind = "post"
	ThingComment ThingKind = "comment"
)

// Thing is one entry in a user's activity feed: a post or a comment.
type Thing struct {
	Type    ThingKind       `json:"type"`
	Created time.Time       `json:"created"`
	Post    *models.Post    `json:"post,omitempty"`
	Comment *models.Comment `json:"comment,omitempty"`
}

type ActivityService struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
}

func NewActivityService(
	users repository.UserRepository,
	posts repository.PostRepository,
	comments repository.CommentRepository,
) *ActivityService {
	return &ActivityService{users: users, posts: posts, comments: comments}
}

// UserThings merges the user's live posts and comments, newest first, capped
// at 30 entries.
func (s *ActivityService) UserThings(ctx context.Context, userID uint) ([]Thing, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	posts, err := s.posts.ListByAuthor(ctx, userID, userThingsLimit)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByAuthor(ctx, userID, userThingsLimit)
	if err != nil {
		return nil, err
	}

	things := make([]Thing, 0, len(posts)+len(comments))
	for i := range posts {
		things = append(things, Thing{Type: ThingPost, Created: posts[i].CreatedAt, Post: &posts[i]})
	}
	for i := range comments {
		things = append(things, Thing{Type: ThingComment, Created: comments[i].CreatedAt, Comment: &comments[i]})
	}
	sort.SliceStable(things, func(i, j int) bool {
		return things[i].Created.After(things[j].Created)
	})
	if len(things) > userThingsLimit {
		things = things[:userThingsLimit]
	}
	return things, nil
}
