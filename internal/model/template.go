package model

import "time"

// EmailTemplate is a reusable notification template managed through the coding
// API. Templates are an independent resource slice; nothing in the coding
// workflow reads them.
type EmailTemplate struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
}
