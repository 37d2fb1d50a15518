package models

import "time"

// DateTimeLayout is the timestamp format used in API responses
const DateTimeLayout = "02-01-2006 15:04:05"

type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"not null;type:varchar(200)" json:"title"`
	Slug        string     `gorm:"uniqueIndex;not null;type:varchar(255)" json:"slug"`
	Excerpt     string     `gorm:"type:varchar(500)" json:"excerpt"`
	Content     string     `gorm:"type:text" json:"content"`
	ContentHTML string     `gorm:"type:text" json:"content_html"`
	CoverImage  string     `gorm:"type:text" json:"cover_image"`
	Published   bool       `gorm:"default:false;index" json:"published"`
	PublishedAt *time.Time `gorm:"default:null" json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PostResponse represents the post data returned in API responses
type PostResponse struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Excerpt     string  `json:"excerpt"`
	Content     string  `json:"content"`
	ContentHTML string  `json:"contentHtml"`
	CoverImage  string  `json:"coverImage"`
	Published   bool    `json:"published"`
	PublishedAt *string `json:"publishedAt,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// Publish marks the post as published, stamping the first publication time only once
func (p *Post) Publish(now time.Time) {
	p.Published = true
	if p.PublishedAt == nil {
		p.PublishedAt = &now
	}
}

// ToResponse converts a Post model to a PostResponse
func (p *Post) ToResponse() *PostResponse {
	var publishedAt *string
	if p.PublishedAt != nil {
		formatted := p.PublishedAt.Format(DateTimeLayout)
		publishedAt = &formatted
	}

	return &PostResponse{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Excerpt:     p.Excerpt,
		Content:     p.Content,
		ContentHTML: p.ContentHTML,
		CoverImage:  p.CoverImage,
		Published:   p.Published,
		PublishedAt: publishedAt,
		CreatedAt:   p.CreatedAt.Format(DateTimeLayout),
		UpdatedAt:   p.UpdatedAt.Format(DateTimeLayout),
	}
}
