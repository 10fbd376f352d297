package dto

import (
	"ai-research-be/internal/entity"
)

type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AdminLoginResponse struct {
	AccessToken string `json:"access_token"`
}

// AdminDashboardResponse summarizes the live system for the operator view.
type AdminDashboardResponse struct {
	Jobs          map[string]int `json:"jobs"`
	JobsTotal     int            `json:"jobs_total"`
	Papers        int64          `json:"papers"`
	Chunks        int64          `json:"chunks"`
	Conversations int64          `json:"conversations"`
	RecentJobs    []*entity.Job  `json:"recent_jobs"`
}
