package models

// MessageKey names a display template rendered outside the engine.
type MessageKey string

const (
	MessageEmailContentForgotPassword  MessageKey = "email_content_forgot_password"
	MessageEmailSubjectForgotPassword  MessageKey = "email_subject_forgot_password"
	MessageNotificationTitlePostReply  MessageKey = "notification_title_post_reply"
	MessageNotificationTitleReplyReply MessageKey = "notification_title_comment_reply"
)

// Message is a template key plus the parameters substituted into it.
type Message struct {
	Key    MessageKey        `json:"key"`
	Params map[string]string `json:"params,omitempty"`
}
