package dto

import (
	"Orion_Video/internal/model"
	"time"
)

type UserResponse struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	Videos    []uint64  `json:"videos"`
}

func ToUserResponse(u *model.User, videoIDs []uint64) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Image:     u.Image,
		CreatedAt: u.CreatedAt,
		Videos:    videoIDs,
	}
}
