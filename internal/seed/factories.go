// Package seed creates demo data for development databases and tests. Every
// record it writes satisfies the same rules the API enforces.
package seed

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"hearth/internal/markdown"
	"hearth/internal/models"
	"hearth/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded local user gets.
const DefaultPassword = "password123"

var nameUnsafe = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Factory builds domain entities and persists them through the repositories.
type Factory struct {
	db          *gorm.DB
	host        string
	skipBcrypt  bool
	renderer    *markdown.Renderer
	communities repository.CommunityRepository
	posts       repository.PostRepository
	comments    repository.CommentRepository
	likes       repository.LikeRepository
}

// NewFactory creates a Factory writing local records for host. A non-zero
// seed makes the generated content reproducible.
func NewFactory(db *gorm.DB, host string, seed int64, skipBcrypt bool) (*Factory, error) {
	gofakeit.Seed(seed)
	renderer, err := markdown.NewRenderer(64)
	if err != nil {
		return nil, err
	}
	return &Factory{
		db:          db,
		host:        host,
		skipBcrypt:  skipBcrypt,
		renderer:    renderer,
		communities: repository.NewCommunityRepository(db),
		posts:       repository.NewPostRepository(db),
		comments:    repository.NewCommentRepository(db),
		likes:       repository.NewLikeRepository(db),
	}, nil
}

// safeName squeezes s into the username/community character class.
func safeName(s string, suffix int) string {
	name := nameUnsafe.ReplaceAllString(s, "_")
	name = fmt.Sprintf("%s_%d", name, suffix)
	if len(name) > 64 {
		name = name[len(name)-64:]
	}
	return name
}

// CreateUser persists a local user. Overrides run before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	email := strings.ToLower(gofakeit.Email())
	user := &models.User{
		Username:    safeName(gofakeit.Username(), gofakeit.Number(100, 99999)),
		Host:        f.host,
		Local:       true,
		Email:       &email,
		Description: gofakeit.Sentence(10),
	}

	// bcrypt is slow enough to matter when seeding hundreds of users
	hash := DefaultPassword
	if !f.skipBcrypt {
		b, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(b)
	}
	user.PasswordHash = &hash

	for _, override := range overrides {
		override(user)
	}
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateCommunity persists a local community moderated by moderator.
func (f *Factory) CreateCommunity(ctx context.Context, moderator *models.User, overrides ...func(*models.Community)) (*models.Community, error) {
	community := &models.Community{
		Name:        safeName(gofakeit.HipsterWord(), gofakeit.Number(10, 9999)),
		Host:        f.host,
		Local:       true,
		Description: gofakeit.Sentence(12),
	}
	for _, override := range overrides {
		override(community)
	}
	if err := f.communities.CreateWithModerator(ctx, community, moderator.ID); err != nil {
		return nil, err
	}
	return community, nil
}

// PostKind selects the content form of a generated post.
type PostKind int

const (
	PostKindText PostKind = iota
	PostKindMarkdown
	PostKindLink
	PostKindPoll
)

// CreatePost persists a post of the given kind. Poll posts carry a text body.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, community *models.Community, kind PostKind) (*models.Post, error) {
	post := &models.Post{
		Title:       gofakeit.Sentence(5),
		AuthorID:    author.ID,
		CommunityID: community.ID,
		Local:       true,
	}
	switch kind {
	case PostKindLink:
		href := fmt.Sprintf("https://%s/%s", gofakeit.DomainName(), gofakeit.Word())
		post.Href = &href
	case PostKindMarkdown:
		src := fmt.Sprintf("**%s**\n\n%s", gofakeit.BuzzWord(), gofakeit.Paragraph(1, 2, 8, "\n\n"))
		html, err := f.renderer.Render(src)
		if err != nil {
			return nil, err
		}
		post.ContentMarkdown = &src
		post.ContentHTML = &html
	default:
		text := gofakeit.Paragraph(1, 3, 8, "\n")
		post.ContentText = &text
	}
	if kind == PostKindPoll {
		post.Poll = &models.Poll{State: models.PollStateOpen, Multiple: gofakeit.Bool()}
		seen := map[string]bool{}
		for len(post.Poll.Options) < 3 {
			name := gofakeit.Color()
			if seen[name] {
				continue
			}
			seen[name] = true
			post.Poll.Options = append(post.Poll.Options, models.PollOption{Name: name})
		}
	}
	if err := f.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a plain-text comment. parent may be nil.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	text := gofakeit.Sentence(gofakeit.Number(4, 16))
	comment := &models.Comment{
		PostID:      post.ID,
		AuthorID:    author.ID,
		ContentText: &text,
		Local:       true,
	}
	if parent != nil {
		comment.ParentID = &parent.ID
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}
