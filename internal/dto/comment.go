package dto

import (
	"Orion_Video/internal/model"
	"Orion_Video/internal/service"
)

// CommentResponse 评论的响应结构，日期和时间分开给，前端直接展示
type CommentResponse struct {
	ID          string `json:"id"`
	AuthorID    uint64 `json:"author_id"`
	AuthorName  string `json:"author_name"`
	AuthorImage string `json:"author_image"`
	Content     string `json:"content"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Editable    *bool  `json:"editable,omitempty"`
}

type ThreadResponse struct {
	VideoID  uint64            `json:"video_id"`
	Comments []CommentResponse `json:"comments"`
}

func ToCommentResponse(c *model.Comment) CommentResponse {
	return CommentResponse{
		ID:          c.ID,
		AuthorID:    c.AuthorID,
		AuthorName:  c.AuthorName,
		AuthorImage: c.AuthorImage,
		Content:     c.Content,
		Date:        c.CreatedAt.Format("2006-01-02"),
		Time:        c.CreatedAt.Format("15:04:05"),
	}
}

func ToThreadResponse(view *service.ThreadView) ThreadResponse {
	resp := ThreadResponse{
		VideoID:  view.VideoID,
		Comments: make([]CommentResponse, 0, len(view.Comments)),
	}
	for i := range view.Comments {
		cr := ToCommentResponse(&view.Comments[i].Comment)
		cr.Editable = view.Comments[i].Editable
		resp.Comments = append(resp.Comments, cr)
	}
	return resp
}
