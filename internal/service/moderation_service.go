package service

import (
	"context"
	"time"

	"hearth/internal/config"
	"hearth/internal/models"
	"hearth/internal/observability"
	"hearth/internal/repository"
	"hearth/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// ModerationService authorizes moderator-list changes and moderator actions
// on community content.
type ModerationService struct {
	users       repository.UserRepository
	communities repository.CommunityRepository
	posts       repository.PostRepository
	now         func() time.Time
}

type CreateCommunityInput struct {
	Name        string
	Description string
}

type EditCommunityInput struct {
	Description *string
}

func NewModerationService(
	users repository.UserRepository,
	communities repository.CommunityRepository,
	posts repository.PostRepository,
) *ModerationService {
	return &ModerationService{
		users:       users,
		communities: communities,
		posts:       posts,
		now:         time.Now,
	}
}

// localCommunity loads a community and rejects remote ones with key.
func (s *ModerationService) localCommunity(ctx context.Context, communityID uint, key models.ErrorKey) (*models.Community, error) {
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if !community.Local {
		return nil, models.NewKeyedError(key)
	}
	return community, nil
}

func (s *ModerationService) requireModerator(ctx context.Context, communityID, userID uint) (*models.CommunityModerator, error) {
	mod, err := s.communities.GetModerator(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if mod == nil {
		return nil, models.NewKeyedError(models.KeyMustBeModerator)
	}
	return mod, nil
}

// localTarget loads the user a moderator-list change targets.
func (s *ModerationService) localTarget(ctx context.Context, userID uint) (*models.User, error) {
	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !target.Local {
		return nil, models.NewKeyedError(models.KeyModeratorsOnlyLocal)
	}
	return target, nil
}

// ListModerators returns moderators in seniority order, oldest first.
func (s *ModerationService) ListModerators(ctx context.Context, communityID uint) ([]models.CommunityModerator, error) {
	if _, err := s.localCommunity(ctx, communityID, models.KeyCommunityModeratorsNotLocal); err != nil {
		return nil, err
	}
	return s.communities.ListModerators(ctx, communityID)
}

// AddModerator appoints targetID. Re-adding an existing moderator keeps their
// original seniority.
func (s *ModerationService) AddModerator(ctx context.Context, actorID, communityID, targetID uint) (err error) {
	ctx, end := observability.StartSpan(ctx, "moderation.add_moderator",
		attribute.Int64("community_id", int64(communityID)),
		attribute.Int64("target_id", int64(targetID)),
	)
	defer func() { end(err) }()

	if _, err = requireActiveUser(ctx, s.users, actorID); err != nil {
		return err
	}
	if _, err = s.localCommunity(ctx, communityID, models.KeyCommunityModeratorsNotLocal); err != nil {
		return err
	}
	if _, err = s.localTarget(ctx, targetID); err != nil {
		return err
	}
	if _, err = s.requireModerator(ctx, communityID, actorID); err != nil {
		return err
	}
	_, err = s.communities.AddModerator(ctx, communityID, targetID, s.now().UTC())
	return err
}

// RemoveModerator removes targetID when the actor was appointed strictly
// earlier. The seniority comparison runs inside the DELETE itself. Removing a
// user who is not a moderator succeeds without change.
func (s *ModerationService) RemoveModerator(ctx context.Context, actorID, communityID, targetID uint) (err error) {
	ctx, end := observability.StartSpan(ctx, "moderation.remove_moderator",
		attribute.Int64("community_id", int64(communityID)),
		attribute.Int64("target_id", int64(targetID)),
	)
	defer func() { end(err) }()

	if _, err = requireActiveUser(ctx, s.users, actorID); err != nil {
		return err
	}
	if _, err = s.localCommunity(ctx, communityID, models.KeyCommunityModeratorsNotLocal); err != nil {
		return err
	}
	if _, err = s.localTarget(ctx, targetID); err != nil {
		return err
	}
	if _, err = s.requireModerator(ctx, communityID, actorID); err != nil {
		return err
	}

	removed, err := s.communities.RemoveJuniorModerator(ctx, communityID, actorID, targetID)
	if err != nil || removed {
		return err
	}
	target, err := s.communities.GetModerator(ctx, communityID, targetID)
	if err != nil {
		return err
	}
	if target != nil {
		return models.NewKeyedError(models.KeyCommunityModeratorsRemoveMustBeOld)
	}
	return nil
}

// CreateCommunity creates a local community with the creator as its first
// moderator.
func (s *ModerationService) CreateCommunity(ctx context.Context, settings config.Settings, actorID uint, in CreateCommunityInput) (*models.Community, error) {
	if _, err := requireActiveUser(ctx, s.users, actorID); err != nil {
		return nil, err
	}
	if err := validation.ValidateCommunityName(in.Name); err != nil {
		return nil, err
	}
	community := &models.Community{
		Name:        in.Name,
		Host:        settings.LocalHostname,
		Local:       true,
		Description: in.Description,
	}
	if err := s.communities.CreateWithModerator(ctx, community, actorID); err != nil {
		return nil, err
	}
	return community, nil
}

// EditCommunity updates community metadata. Admins may edit any local
// community; otherwise the actor must moderate it.
func (s *ModerationService) EditCommunity(ctx context.Context, actorID, communityID uint, in EditCommunityInput) (*models.Community, error) {
	actor, err := requireActiveUser(ctx, s.users, actorID)
	if err != nil {
		return nil, err
	}
	community, err := s.localCommunity(ctx, communityID, models.KeyCommunityNotLocal)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin {
		mod, err := s.communities.GetModerator(ctx, communityID, actorID)
		if err != nil {
			return nil, err
		}
		if mod == nil {
			return nil, models.NewKeyedError(models.KeyCommunityEditDenied)
		}
	}
	if in.Description == nil {
		return community, nil
	}
	community.Description = *in.Description
	if err := s.communities.UpdateDescription(ctx, community); err != nil {
		return nil, err
	}
	return community, nil
}

// communityPost runs the shared checks for moderator actions on a post.
func (s *ModerationService) communityPost(ctx context.Context, actorID, communityID, postID uint) (*models.Post, error) {
	if _, err := requireActiveUser(ctx, s.users, actorID); err != nil {
		return nil, err
	}
	if _, err := s.localCommunity(ctx, communityID, models.KeyCommunityNotLocal); err != nil {
		return nil, err
	}
	if _, err := s.requireModerator(ctx, communityID, actorID); err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := validation.RequirePostInCommunity(post, communityID); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *ModerationService) SetPostSticky(ctx context.Context, actorID, communityID, postID uint, sticky bool) error {
	post, err := s.communityPost(ctx, actorID, communityID, postID)
	if err != nil {
		return err
	}
	return s.posts.SetSticky(ctx, post.ID, sticky)
}

// RemoveCommunityPost soft-deletes a post on behalf of the community's moderators.
func (s *ModerationService) RemoveCommunityPost(ctx context.Context, actorID, communityID, postID uint) error {
	post, err := s.communityPost(ctx, actorID, communityID, postID)
	if err != nil {
		return err
	}
	return s.posts.MarkDeleted(ctx, post.ID)
}
