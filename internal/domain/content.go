package domain

// ContentType identifies which store a content id belongs to. Ids are only
// unique within a content type.
type ContentType string

const (
	ContentTypeGame       ContentType = "game"
	ContentTypeProgram    ContentType = "program"
	ContentTypeBlogPost   ContentType = "blog_post"
	ContentTypeForumTopic ContentType = "forum_topic"
	ContentTypeForumReply ContentType = "forum_reply"
)

// IsCatalog reports whether t is a catalog store (games or programs). Only
// catalog items can be rated, favorited, downloaded or scored.
func (t ContentType) IsCatalog() bool {
	return t == ContentTypeGame || t == ContentTypeProgram
}

// IsReportable reports whether users may file a content report against t.
func (t ContentType) IsReportable() bool {
	switch t {
	case ContentTypeGame, ContentTypeProgram, ContentTypeBlogPost, ContentTypeForumTopic, ContentTypeForumReply:
		return true
	}
	return false
}

// ContentRef addresses one piece of content.
type ContentRef struct {
	ContentID   string      `json:"content_id"`
	ContentType ContentType `json:"content_type"`
}
