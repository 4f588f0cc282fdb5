package dto

import (
	"time"

	"github.com/samber/lo"

	"whisperwall/domain"
	"whisperwall/services"
)

type ContentRequest struct {
	Content string `json:"content"`
}

type ReplyResponse struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	Content    string    `json:"content"`
	AuthorCode string    `json:"author_code"`
	CreatedAt  time.Time `json:"created_at"`
	Likes      int       `json:"likes"`
	LikedBy    []string  `json:"liked_by"`
}

type PostResponse struct {
	ID          string          `json:"id"`
	Content     string          `json:"content"`
	AuthorCode  string          `json:"author_code"`
	CreatedAt   time.Time       `json:"created_at"`
	Likes       int             `json:"likes"`
	LikedBy     []string        `json:"liked_by"`
	ReportCount int             `json:"report_count"`
	Language    string          `json:"language,omitempty"`
	Replies     []ReplyResponse `json:"replies"`
}

type ReportResponse struct {
	Post    PostResponse `json:"post"`
	Removed bool         `json:"removed"`
}

func ToReplyResponse(r domain.Reply) ReplyResponse {
	return ReplyResponse{
		ID:         r.ID.String(),
		PostID:     r.PostID.String(),
		Content:    r.Content,
		AuthorCode: r.AuthorCode.String(),
		CreatedAt:  r.CreatedAt,
		Likes:      r.Likes,
		LikedBy:    codes(r.LikedBy),
	}
}

func ToPostResponse(p domain.Post) PostResponse {
	return PostResponse{
		ID:          p.ID.String(),
		Content:     p.Content,
		AuthorCode:  p.AuthorCode.String(),
		CreatedAt:   p.CreatedAt,
		Likes:       p.Likes,
		LikedBy:     codes(p.LikedBy),
		ReportCount: p.ReportCount,
		Language:    p.Language,
		Replies:     lo.Map(p.Replies, func(r domain.Reply, _ int) ReplyResponse { return ToReplyResponse(r) }),
	}
}

func ToPostResponses(posts []domain.Post) []PostResponse {
	return lo.Map(posts, func(p domain.Post, _ int) PostResponse { return ToPostResponse(p) })
}

func ToReportResponse(r services.ReportResult) ReportResponse {
	return ReportResponse{Post: ToPostResponse(r.Post), Removed: r.Removed}
}

func codes(values []domain.Code) []string {
	return lo.Map(values, func(c domain.Code, _ int) string { return c.String() })
}
