package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hearth/internal/database"
	"hearth/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	Host              string
	Users             int
	Communities       int
	PostsPerCommunity int
	CommentsPerPost   int
	Seed              int64
	SkipBcrypt        bool
	Clean             bool
}

// Summary counts what a run created.
type Summary struct {
	Users       int
	Communities int
	Posts       int
	Comments    int
	Likes       int
}

// Run fills db with users, communities (each with two moderators), posts of
// every content form, likes and comment threads.
func Run(ctx context.Context, db *gorm.DB, opts Options) (Summary, error) {
	var sum Summary
	if opts.Users < 2 {
		return sum, fmt.Errorf("seed needs at least 2 users, got %d", opts.Users)
	}
	if opts.Clean {
		if err := Clean(ctx, db); err != nil {
			return sum, err
		}
	}

	f, err := NewFactory(db, opts.Host, opts.Seed, opts.SkipBcrypt)
	if err != nil {
		return sum, err
	}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		u, err := f.CreateUser(ctx, func(u *models.User) { u.IsAdmin = i == 0 })
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)

	kinds := []PostKind{PostKindText, PostKindMarkdown, PostKindLink, PostKindPoll}
	for c := 0; c < opts.Communities; c++ {
		owner := users[c%len(users)]
		community, err := f.CreateCommunity(ctx, owner)
		if err != nil {
			return sum, fmt.Errorf("create community: %w", err)
		}
		sum.Communities++

		junior := users[(c+1)%len(users)]
		if _, err := f.communities.AddModerator(ctx, community.ID, junior.ID, community.CreatedAt.Add(time.Second)); err != nil {
			return sum, fmt.Errorf("add moderator: %w", err)
		}

		for p := 0; p < opts.PostsPerCommunity; p++ {
			author := users[gofakeit.Number(0, len(users)-1)]
			post, err := f.CreatePost(ctx, author, community, kinds[p%len(kinds)])
			if err != nil {
				return sum, fmt.Errorf("create post: %w", err)
			}
			sum.Posts++

			// the community owner likes every post so listings show a score
			if _, err := f.likes.LikePost(ctx, post.ID, owner.ID); err != nil {
				return sum, fmt.Errorf("like post: %w", err)
			}
			sum.Likes++

			var parent *models.Comment
			for i := 0; i < opts.CommentsPerPost; i++ {
				commenter := users[gofakeit.Number(0, len(users)-1)]
				comment, err := f.CreateComment(ctx, commenter, post, parent)
				if err != nil {
					return sum, fmt.Errorf("create comment: %w", err)
				}
				sum.Comments++
				// alternate between top-level replies and nested ones
				if i%2 == 0 {
					parent = comment
				} else {
					parent = nil
				}
			}
		}
	}

	slog.InfoContext(ctx, "seed complete",
		"users", sum.Users, "communities", sum.Communities, "posts", sum.Posts, "comments", sum.Comments, "likes", sum.Likes)
	return sum, nil
}

// Clean deletes every row the application owns, children first.
func Clean(ctx context.Context, db *gorm.DB) error {
	tables := database.PersistentModels()
	for i := len(tables) - 1; i >= 0; i-- {
		if err := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(tables[i]).Error; err != nil {
			return fmt.Errorf("clean %T: %w", tables[i], err)
		}
	}
	return nil
}
