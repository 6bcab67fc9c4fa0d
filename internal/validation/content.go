package validation

import (
	"strings"
	"unicode/utf8"

	"hearth/internal/models"
)

// MaxTitleLength bounds post titles in runes.
const MaxTitleLength = 300

// ContentForm is the single content representation a post carries.
type ContentForm string

const (
	ContentFormLink     ContentForm = "link"
	ContentFormText     ContentForm = "text"
	ContentFormMarkdown ContentForm = "markdown"
)

// PollInput is the poll part of a post submission.
type PollInput struct {
	Options  []string
	Multiple bool
}

// PostContentInput is a raw post submission. Nil and whitespace-only fields
// are both treated as absent.
type PostContentInput struct {
	Title           string
	Href            *string
	ContentText     *string
	ContentMarkdown *string
	Poll            *PollInput
}

// PostContent is a validated post payload. Exactly one of Href, Text and
// Markdown is meaningful, selected by Form.
type PostContent struct {
	Title       string
	Form        ContentForm
	Href        string
	Text        string
	Markdown    string
	PollOptions []string
	PollMulti   bool
	HasPoll     bool
}

// CommentContentInput is a raw comment submission.
type CommentContentInput struct {
	ContentText     *string
	ContentMarkdown *string
}

// CommentContent is a validated comment payload.
type CommentContent struct {
	Form     ContentForm
	Text     string
	Markdown string
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// ValidateTitle trims a post title and enforces its length bounds.
func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > MaxTitleLength {
		return "", models.NewKeyedError(models.KeyPostTitleInvalid)
	}
	return title, nil
}

// ValidatePostContent checks a post submission. The href/poll conflict is
// reported ahead of the generic content conflict.
func ValidatePostContent(in PostContentInput) (PostContent, error) {
	title, err := ValidateTitle(in.Title)
	if err != nil {
		return PostContent{}, err
	}

	hasHref := present(in.Href)
	hasText := present(in.ContentText)
	hasMarkdown := present(in.ContentMarkdown)

	if hasHref && in.Poll != nil {
		return PostContent{}, models.NewKeyedError(models.KeyPostConflictHrefPoll)
	}

	count := 0
	for _, p := range []bool{hasHref, hasText, hasMarkdown} {
		if p {
			count++
		}
	}
	switch {
	case count == 0:
		return PostContent{}, models.NewKeyedError(models.KeyPostNeedsContent)
	case count > 1:
		return PostContent{}, models.NewKeyedError(models.KeyPostContentConflict)
	}

	out := PostContent{Title: title}
	switch {
	case hasHref:
		href, err := NormalizeHref(*in.Href)
		if err != nil {
			return PostContent{}, err
		}
		out.Form = ContentFormLink
		out.Href = href
	case hasText:
		out.Form = ContentFormText
		out.Text = *in.ContentText
	default:
		out.Form = ContentFormMarkdown
		out.Markdown = *in.ContentMarkdown
	}

	if in.Poll != nil {
		options, err := ValidatePollOptions(in.Poll.Options)
		if err != nil {
			return PostContent{}, err
		}
		out.HasPoll = true
		out.PollOptions = options
		out.PollMulti = in.Poll.Multiple
	}

	return out, nil
}

// ValidatePollOptions trims option names and rejects empty sets and
// duplicates. Comparison is exact after trimming, so "Red" and "red" are
// distinct options.
func ValidatePollOptions(options []string) ([]string, error) {
	if len(options) == 0 {
		return nil, models.NewKeyedError(models.KeyPostPollEmpty)
	}
	out := make([]string, 0, len(options))
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		name := strings.TrimSpace(opt)
		if name == "" {
			return nil, models.NewKeyedError(models.KeyPostPollEmpty)
		}
		if _, dup := seen[name]; dup {
			return nil, models.NewKeyedError(models.KeyPostPollOptionsConflict).WithParam("option", name)
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

// ValidateCommentContent checks a comment submission: exactly one non-blank
// field is required. Blank fields count as absent, as they do for posts.
func ValidateCommentContent(in CommentContentInput) (CommentContent, error) {
	if present(in.ContentText) && present(in.ContentMarkdown) {
		return CommentContent{}, models.NewKeyedError(models.KeyCommentContentConflict)
	}
	switch {
	case present(in.ContentText):
		return CommentContent{Form: ContentFormText, Text: *in.ContentText}, nil
	case present(in.ContentMarkdown):
		return CommentContent{Form: ContentFormMarkdown, Markdown: *in.ContentMarkdown}, nil
	}
	return CommentContent{}, models.NewKeyedError(models.KeyCommentEmpty)
}
