package validation

import "hearth/internal/models"

// RequirePostOwner fails unless userID authored post.
func RequirePostOwner(post *models.Post, userID uint) error {
	if post.AuthorID != userID {
		return models.NewKeyedError(models.KeyPostNotYours)
	}
	return nil
}

// RequireCommentOwner fails unless userID authored comment.
func RequireCommentOwner(comment *models.Comment, userID uint) error {
	if comment.AuthorID != userID {
		return models.NewKeyedError(models.KeyCommentNotYours)
	}
	return nil
}

// RequirePostInCommunity fails when post belongs to another community.
func RequirePostInCommunity(post *models.Post, communityID uint) error {
	if post.CommunityID != communityID {
		return models.NewKeyedError(models.KeyPostNotInCommunity)
	}
	return nil
}

// RequireLinkPost returns the post's href, failing for non-link posts.
func RequireLinkPost(post *models.Post) (string, error) {
	if !post.IsLink() {
		return "", models.NewKeyedError(models.KeyPostNotLink)
	}
	return *post.Href, nil
}
