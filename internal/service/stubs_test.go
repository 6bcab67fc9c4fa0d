package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"hearth/internal/mail"
	"hearth/internal/markdown"
	"hearth/internal/media"
	"hearth/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func assertKey(t *testing.T, err error, key models.ErrorKey) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, key, models.KeyOf(err), "got %v", err)
}

func newRenderer(t *testing.T) *markdown.Renderer {
	t.Helper()
	r, err := markdown.NewRenderer(16)
	require.NoError(t, err)
	return r
}

// userRepoStub is a stub for repository.UserRepository backed by a map.
type userRepoStub struct {
	users          map[uint]*models.User
	createFn       func(context.Context, *models.User) error
	updatedProfile *models.User
	passwordHash   map[uint]string
	suspended      map[uint]bool
	avatars        map[uint]*string
}

func newUserRepo(users ...*models.User) *userRepoStub {
	s := &userRepoStub{
		users:        map[uint]*models.User{},
		passwordHash: map[uint]string{},
		suspended:    map[uint]bool{},
		avatars:      map[uint]*string{},
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, models.NewKeyedError(models.KeyNoSuchUser)
	}
	cp := *u
	return &cp, nil
}
func (s *userRepoStub) GetLocalByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range s.users {
		if u.Local && strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.NewKeyedError(models.KeyNoSuchLocalUserByName)
}
func (s *userRepoStub) GetLocalByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Local && u.Email != nil && *u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.NewKeyedError(models.KeyNoSuchLocalUserByEmail)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	if s.createFn != nil {
		return s.createFn(ctx, user)
	}
	user.ID = uint(len(s.users) + 1)
	s.users[user.ID] = user
	return nil
}
func (s *userRepoStub) UpdateProfile(_ context.Context, user *models.User) error {
	s.updatedProfile = user
	return nil
}
func (s *userRepoStub) UpdatePassword(_ context.Context, id uint, hash string) error {
	s.passwordHash[id] = hash
	return nil
}
func (s *userRepoStub) SetSuspended(_ context.Context, id uint, suspended bool) error {
	s.suspended[id] = suspended
	return nil
}
func (s *userRepoStub) SetAdmin(_ context.Context, _ uint, _ bool) error { return nil }
func (s *userRepoStub) SetAvatar(_ context.Context, id uint, mediaID *string) error {
	s.avatars[id] = mediaID
	if u, ok := s.users[id]; ok {
		u.AvatarMediaID = mediaID
	}
	return nil
}
func (s *userRepoStub) ListAdmins(_ context.Context) ([]models.User, error) { return nil, nil }

// communityRepoStub is a stub for repository.CommunityRepository.
type communityRepoStub struct {
	communities  map[uint]*models.Community
	moderators   map[uint][]models.CommunityModerator
	createFn     func(context.Context, *models.Community, uint) error
	updated      *models.Community
	addCalls     int
	removeCalled bool
}

func newCommunityRepo(communities ...*models.Community) *communityRepoStub {
	s := &communityRepoStub{
		communities: map[uint]*models.Community{},
		moderators:  map[uint][]models.CommunityModerator{},
	}
	for _, c := range communities {
		s.communities[c.ID] = c
	}
	return s
}

func (s *communityRepoStub) mod(communityID, userID uint, at time.Time) {
	s.moderators[communityID] = append(s.moderators[communityID],
		models.CommunityModerator{CommunityID: communityID, UserID: userID, CreatedAt: at})
}

func (s *communityRepoStub) GetByID(_ context.Context, id uint) (*models.Community, error) {
	c, ok := s.communities[id]
	if !ok {
		return nil, models.NewKeyedError(models.KeyNoSuchCommunity)
	}
	cp := *c
	return &cp, nil
}
func (s *communityRepoStub) CreateWithModerator(ctx context.Context, community *models.Community, moderatorID uint) error {
	if s.createFn != nil {
		return s.createFn(ctx, community, moderatorID)
	}
	community.ID = uint(len(s.communities) + 1)
	s.communities[community.ID] = community
	s.mod(community.ID, moderatorID, time.Now())
	return nil
}
func (s *communityRepoStub) UpdateDescription(_ context.Context, community *models.Community) error {
	s.updated = community
	return nil
}
func (s *communityRepoStub) ListModerators(_ context.Context, communityID uint) ([]models.CommunityModerator, error) {
	return s.moderators[communityID], nil
}
func (s *communityRepoStub) GetModerator(_ context.Context, communityID, userID uint) (*models.CommunityModerator, error) {
	for _, m := range s.moderators[communityID] {
		if m.UserID == userID {
			cp := m
			return &cp, nil
		}
	}
	return nil, nil
}
func (s *communityRepoStub) AddModerator(_ context.Context, communityID, userID uint, at time.Time) (bool, error) {
	s.addCalls++
	if m, _ := s.GetModerator(context.Background(), communityID, userID); m != nil {
		return false, nil
	}
	s.mod(communityID, userID, at)
	return true, nil
}

// RemoveJuniorModerator mirrors the conditional DELETE: the target goes only
// if the actor's appointment is strictly earlier.
func (s *communityRepoStub) RemoveJuniorModerator(_ context.Context, communityID, actorID, targetID uint) (bool, error) {
	s.removeCalled = true
	actor, _ := s.GetModerator(context.Background(), communityID, actorID)
	target, _ := s.GetModerator(context.Background(), communityID, targetID)
	if actor == nil || target == nil || !actor.OutranksModerator(target) {
		return false, nil
	}
	kept := s.moderators[communityID][:0]
	for _, m := range s.moderators[communityID] {
		if m.UserID != targetID {
			kept = append(kept, m)
		}
	}
	s.moderators[communityID] = kept
	return true, nil
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	posts    map[uint]*models.Post
	createFn func(context.Context, *models.Post) error
	created  *models.Post
	updated  *models.Post
	sticky   map[uint]bool
	deleted  map[uint]bool
}

func newPostRepo(posts ...*models.Post) *postRepoStub {
	s := &postRepoStub{posts: map[uint]*models.Post{}, sticky: map[uint]bool{}, deleted: map[uint]bool{}}
	for _, p := range posts {
		s.posts[p.ID] = p
	}
	return s
}

func (s *postRepoStub) GetByID(_ context.Context, id uint) (*models.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, models.NewKeyedError(models.KeyNoSuchPost)
	}
	cp := *p
	return &cp, nil
}
func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	if s.createFn != nil {
		return s.createFn(ctx, post)
	}
	post.ID = 100
	s.created = post
	return nil
}
func (s *postRepoStub) UpdateContent(_ context.Context, post *models.Post) error {
	s.updated = post
	return nil
}
func (s *postRepoStub) SetSticky(_ context.Context, id uint, sticky bool) error {
	s.sticky[id] = sticky
	return nil
}
func (s *postRepoStub) MarkDeleted(_ context.Context, id uint) error {
	s.deleted[id] = true
	return nil
}
func (s *postRepoStub) ListByCommunity(_ context.Context, communityID uint, _, _ int) ([]models.Post, error) {
	var out []models.Post
	for _, p := range s.posts {
		if p.CommunityID == communityID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *postRepoStub) ListRecent(_ context.Context, _, _ int) ([]models.Post, error) {
	var out []models.Post
	for _, p := range s.posts {
		if !p.Deleted {
			out = append(out, *p)
		}
	}
	return out, nil
}
func (s *postRepoStub) ListByAuthor(_ context.Context, authorID uint, _ int) ([]models.Post, error) {
	var out []models.Post
	for _, p := range s.posts {
		if p.AuthorID == authorID && !p.Deleted {
			out = append(out, *p)
		}
	}
	return out, nil
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	comments map[uint]*models.Comment
	created  []*models.Comment
	updated  *models.Comment
	deleted  map[uint]bool
}

func newCommentRepo(comments ...*models.Comment) *commentRepoStub {
	s := &commentRepoStub{comments: map[uint]*models.Comment{}, deleted: map[uint]bool{}}
	for _, c := range comments {
		s.comments[c.ID] = c
	}
	return s
}

func (s *commentRepoStub) GetByID(_ context.Context, id uint) (*models.Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return nil, models.NewKeyedError(models.KeyNoSuchComment)
	}
	cp := *c
	return &cp, nil
}
func (s *commentRepoStub) Create(_ context.Context, comment *models.Comment) error {
	comment.ID = uint(500 + len(s.created))
	s.created = append(s.created, comment)
	return nil
}
func (s *commentRepoStub) UpdateContent(_ context.Context, comment *models.Comment) error {
	s.updated = comment
	return nil
}
func (s *commentRepoStub) MarkDeleted(_ context.Context, id uint) error {
	s.deleted[id] = true
	return nil
}
func (s *commentRepoStub) ListByPost(_ context.Context, _ uint) ([]models.Comment, error) {
	return nil, nil
}
func (s *commentRepoStub) ListByAuthor(_ context.Context, authorID uint, _ int) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range s.comments {
		if c.AuthorID == authorID && !c.Deleted {
			out = append(out, *c)
		}
	}
	return out, nil
}

// likeRepoStub is a stub for repository.LikeRepository keyed by target then user.
type likeRepoStub struct {
	posts    map[uint]map[uint]bool
	comments map[uint]map[uint]bool
}

func newLikeRepo() *likeRepoStub {
	return &likeRepoStub{posts: map[uint]map[uint]bool{}, comments: map[uint]map[uint]bool{}}
}

func toggleLike(set map[uint]map[uint]bool, target, user uint, on bool) bool {
	if set[target] == nil {
		set[target] = map[uint]bool{}
	}
	changed := set[target][user] != on
	if on {
		set[target][user] = true
	} else {
		delete(set[target], user)
	}
	return changed
}

func (s *likeRepoStub) LikePost(_ context.Context, postID, userID uint) (bool, error) {
	return toggleLike(s.posts, postID, userID, true), nil
}
func (s *likeRepoStub) UnlikePost(_ context.Context, postID, userID uint) (bool, error) {
	return toggleLike(s.posts, postID, userID, false), nil
}
func (s *likeRepoStub) LikeComment(_ context.Context, commentID, userID uint) (bool, error) {
	return toggleLike(s.comments, commentID, userID, true), nil
}
func (s *likeRepoStub) UnlikeComment(_ context.Context, commentID, userID uint) (bool, error) {
	return toggleLike(s.comments, commentID, userID, false), nil
}
func (s *likeRepoStub) PostScore(_ context.Context, postID, viewerID uint) (int64, bool, error) {
	return int64(len(s.posts[postID])), s.posts[postID][viewerID], nil
}
func (s *likeRepoStub) CommentScore(_ context.Context, commentID, viewerID uint) (int64, bool, error) {
	return int64(len(s.comments[commentID])), s.comments[commentID][viewerID], nil
}

// pollRepoStub is a stub for repository.PollRepository.
type pollRepoStub struct {
	polls     map[uint]*models.Poll
	replaceFn func(context.Context, uint, uint, []uint, time.Time) error
	replaced  []uint
	closed    []uint
	counts    map[uint]int64
	mine      []uint
}

func (s *pollRepoStub) GetByPostID(_ context.Context, postID uint) (*models.Poll, error) {
	p, ok := s.polls[postID]
	if !ok {
		return nil, models.NewKeyedError(models.KeyPostNotPoll)
	}
	cp := *p
	cp.Options = append([]models.PollOption(nil), p.Options...)
	return &cp, nil
}
func (s *pollRepoStub) Close(_ context.Context, pollID uint) error {
	s.closed = append(s.closed, pollID)
	return nil
}
func (s *pollRepoStub) ReplaceVotes(ctx context.Context, pollID, userID uint, optionIDs []uint, now time.Time) error {
	if s.replaceFn != nil {
		return s.replaceFn(ctx, pollID, userID, optionIDs, now)
	}
	s.replaced = optionIDs
	return nil
}
func (s *pollRepoStub) CountVotes(_ context.Context, _ uint) (map[uint]int64, error) {
	return s.counts, nil
}
func (s *pollRepoStub) UserVotes(_ context.Context, _, _ uint) ([]uint, error) {
	return s.mine, nil
}

// notificationRepoStub keeps the (kind, reply) uniqueness of the real table.
type notificationRepoStub struct {
	stored   []*models.Notification
	createFn func(context.Context, *models.Notification) (bool, error)
}

func (s *notificationRepoStub) CreateIfAbsent(ctx context.Context, n *models.Notification) (bool, error) {
	if s.createFn != nil {
		return s.createFn(ctx, n)
	}
	for _, existing := range s.stored {
		if existing.Kind == n.Kind && existing.ReplyID == n.ReplyID {
			return false, nil
		}
	}
	n.ID = uint(len(s.stored) + 1)
	s.stored = append(s.stored, n)
	return true, nil
}
func (s *notificationRepoStub) ListForUser(_ context.Context, userID uint, _ int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range s.stored {
		if n.RecipientID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}
func (s *notificationRepoStub) MarkSeen(_ context.Context, _ uint, ids []uint) (int64, error) {
	return int64(len(ids)), nil
}

type publisherStub struct {
	published []*models.Notification
	err       error
}

func (p *publisherStub) PublishNotification(_ context.Context, n *models.Notification) error {
	p.published = append(p.published, n)
	return p.err
}

// forgotKeyRepoStub is a stub for repository.ForgotPasswordKeyRepository that
// enforces expiry and single use.
type forgotKeyRepoStub struct {
	keys  map[string]*models.ForgotPasswordKey
	users *userRepoStub
}

func (s *forgotKeyRepoStub) Create(_ context.Context, key *models.ForgotPasswordKey) error {
	s.keys[key.Key] = key
	return nil
}
func (s *forgotKeyRepoStub) GetValid(_ context.Context, key string, now time.Time) (*models.ForgotPasswordKey, error) {
	k, ok := s.keys[key]
	if !ok || !k.ValidAt(now) {
		return nil, models.NewKeyedError(models.KeyNoSuchForgotPasswordKey)
	}
	return k, nil
}
func (s *forgotKeyRepoStub) ConsumeAndSetPassword(ctx context.Context, key string, now time.Time, hash string) (uint, error) {
	k, err := s.GetValid(ctx, key, now)
	if err != nil {
		return 0, err
	}
	delete(s.keys, key)
	s.users.passwordHash[k.UserID] = hash
	return k.UserID, nil
}
func (s *forgotKeyRepoStub) Delete(_ context.Context, key string) error {
	delete(s.keys, key)
	return nil
}
func (s *forgotKeyRepoStub) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type mailerStub struct {
	sent []mail.Envelope
	err  error
}

func (m *mailerStub) Send(_ context.Context, env mail.Envelope) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, env)
	return nil
}

// mediaRepoStub is a stub for repository.MediaRepository.
type mediaRepoStub struct {
	media map[string]*models.Media
}

func (s *mediaRepoStub) Create(_ context.Context, m *models.Media) error {
	s.media[m.ID] = m
	return nil
}
func (s *mediaRepoStub) GetByID(_ context.Context, id string) (*models.Media, error) {
	m, ok := s.media[id]
	if !ok {
		return nil, models.NewKeyedError(models.KeyNoSuchAttachment)
	}
	return m, nil
}

// memStore is an in-memory media.Store.
type memStore struct {
	files map[string][]byte
}

func (s *memStore) Save(_ context.Context, id string, data []byte) (string, error) {
	s.files[id] = data
	return id, nil
}
func (s *memStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := s.files[path]
	if !ok {
		return nil, media.ErrMissing
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}
