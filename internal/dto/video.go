package dto

import (
	"Orion_Video/internal/model"
	"Orion_Video/internal/service"
	"time"
)

// AuthorResponse 作者的公开信息，不包含邮箱和密码
type AuthorResponse struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

type VideoResponse struct {
	ID          uint64         `json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	Video       string         `json:"video"`
	Views       uint64         `json:"views"`
	Likes       []uint64       `json:"likes"`
	LikeCount   uint64         `json:"like_count"`
	Author      AuthorResponse `json:"author"`
}

// ToVideoResponse 把DB模型转换为API响应模型，Author没有preload时只返回AuthorID
func ToVideoResponse(video *model.Video) VideoResponse {
	resp := VideoResponse{
		ID:          video.ID,
		CreatedAt:   video.CreatedAt,
		Title:       video.Title,
		Description: video.Description,
		Image:       video.ImagePath,
		Video:       video.VideoPath,
		Views:       video.Views,
		Likes:       video.Likes,
		LikeCount:   video.LikeCount,
		Author:      AuthorResponse{ID: video.AuthorID},
	}
	if resp.Likes == nil {
		resp.Likes = []uint64{}
	}
	if video.Author.ID != 0 {
		resp.Author.Name = video.Author.Name
		resp.Author.Image = video.Author.Image
	}
	return resp
}

func ToVideoResponses(videos []model.Video) []VideoResponse {
	response := make([]VideoResponse, 0, len(videos))
	for i := range videos {
		response = append(response, ToVideoResponse(&videos[i]))
	}
	return response
}

type LikeResponse struct {
	Liked     bool     `json:"liked"`
	Likes     []uint64 `json:"likes"`
	LikeCount uint64   `json:"like_count"`
}

func ToLikeResponse(r *service.LikeResult) LikeResponse {
	likes := r.Likes
	if likes == nil {
		likes = []uint64{}
	}
	return LikeResponse{Liked: r.Liked, Likes: likes, LikeCount: r.LikeCount}
}
