package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"hearth/internal/models"
	"hearth/internal/observability"
	"hearth/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// PollService runs voting and closing for polls attached to posts.
type PollService struct {
	users       repository.UserRepository
	posts       repository.PostRepository
	polls       repository.PollRepository
	communities repository.CommunityRepository
	now         func() time.Time
}

// PollResults is a poll with per-option vote counts and its effective state.
type PollResults struct {
	Poll      *models.Poll     `json:"poll"`
	State     models.PollState `json:"state"`
	YourVotes []uint           `json:"your_votes,omitempty"`
}

func NewPollService(
	users repository.UserRepository,
	posts repository.PostRepository,
	polls repository.PollRepository,
	communities repository.CommunityRepository,
) *PollService {
	return &PollService{
		users:       users,
		posts:       posts,
		polls:       polls,
		communities: communities,
		now:         time.Now,
	}
}

// Vote replaces the actor's votes on the post's poll with optionIDs. An
// empty set withdraws the actor's votes.
func (s *PollService) Vote(ctx context.Context, actorID, postID uint, optionIDs []uint) (err error) {
	ctx, end := observability.StartSpan(ctx, "poll.vote", attribute.Int64("post_id", int64(postID)))
	defer func() { end(err) }()

	if _, err = requireActiveUser(ctx, s.users, actorID); err != nil {
		return err
	}
	if _, err = s.livePost(ctx, postID); err != nil {
		return err
	}
	poll, err := s.polls.GetByPostID(ctx, postID)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if poll.StateAt(now) == models.PollStateClosed {
		return models.NewKeyedError(models.KeyPollIsClosed)
	}

	choices := dedupeIDs(optionIDs)
	for _, id := range choices {
		if !poll.HasOption(id) {
			return models.NewKeyedError(models.KeyNoSuchPollOption).
				WithParam("option_id", strconv.FormatUint(uint64(id), 10))
		}
	}
	if !poll.Multiple && len(choices) > 1 {
		return models.NewKeyedError(models.KeyPollSingleChoice)
	}

	// The repository re-checks the open state under the row lock.
	return s.polls.ReplaceVotes(ctx, poll.ID, actorID, choices, now)
}

// Close closes the post's poll. The post author and the community's
// moderators may close it; closing twice is a no-op.
func (s *PollService) Close(ctx context.Context, actorID, postID uint) error {
	if _, err := requireActiveUser(ctx, s.users, actorID); err != nil {
		return err
	}
	post, err := s.livePost(ctx, postID)
	if err != nil {
		return err
	}
	if post.Poll == nil {
		return models.NewKeyedError(models.KeyPostNotPoll)
	}
	if post.AuthorID != actorID {
		mod, err := s.communities.GetModerator(ctx, post.CommunityID, actorID)
		if err != nil {
			return err
		}
		if mod == nil {
			return models.NewKeyedError(models.KeyPostNotYours)
		}
	}
	if post.Poll.State == models.PollStateClosed {
		return nil
	}
	return s.polls.Close(ctx, post.Poll.ID)
}

// Results returns vote counts. viewerID 0 means an anonymous viewer.
func (s *PollService) Results(ctx context.Context, postID, viewerID uint) (*PollResults, error) {
	poll, err := s.polls.GetByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	counts, err := s.polls.CountVotes(ctx, poll.ID)
	if err != nil {
		return nil, err
	}
	for i := range poll.Options {
		poll.Options[i].Votes = counts[poll.Options[i].ID]
	}

	res := &PollResults{Poll: poll, State: poll.StateAt(s.now().UTC())}
	if viewerID != 0 {
		res.YourVotes, err = s.polls.UserVotes(ctx, poll.ID, viewerID)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// livePost loads a post that has not been deleted.
func (s *PollService) livePost(ctx context.Context, postID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Deleted {
		return nil, models.NewKeyedError(models.KeyNoSuchPost)
	}
	return post, nil
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
