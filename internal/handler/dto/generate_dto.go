package dto

import "time"

type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required,max=2000"`
	Style  string `json:"style" binding:"omitempty,oneof=natural artistic"`
}

type GenerateResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
}
