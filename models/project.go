package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Project struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title      string    `gorm:"not null;type:varchar(200)" json:"title"`
	Slug       string    `gorm:"uniqueIndex;not null;type:varchar(255)" json:"slug"`
	Client     string    `gorm:"type:varchar(150)" json:"client"`
	Summary    string    `gorm:"type:text" json:"summary"`
	Year       int       `json:"year"`
	CoverImage string    `gorm:"type:text" json:"cover_image"`
	VideoURL   string    `gorm:"type:text" json:"video_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProjectResponse represents the project data returned in API responses
type ProjectResponse struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Client     string    `json:"client"`
	Summary    string    `json:"summary"`
	Year       int       `json:"year"`
	CoverImage string    `json:"coverImage"`
	VideoURL   string    `json:"videoUrl"`
	CreatedAt  string    `json:"createdAt"`
	UpdatedAt  string    `json:"updatedAt"`
}

// ToResponse converts a Project model to a ProjectResponse
func (p *Project) ToResponse() *ProjectResponse {
	return &ProjectResponse{
		ID:         p.ID,
		Title:      p.Title,
		Slug:       p.Slug,
		Client:     p.Client,
		Summary:    p.Summary,
		Year:       p.Year,
		CoverImage: p.CoverImage,
		VideoURL:   p.VideoURL,
		CreatedAt:  p.CreatedAt.Format(DateTimeLayout),
		UpdatedAt:  p.UpdatedAt.Format(DateTimeLayout),
	}
}
