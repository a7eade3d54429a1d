package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Project represents a portfolio project card with its gallery and links
type Project struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	ImageURL    string    `json:"imageUrl"`
	Images      []string  `json:"images"`
	GithubURL   string    `json:"githubUrl"`
	LiveDemoURL string    `json:"liveDemoUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MarshalJSON never emits null for the list fields.
func (p Project) MarshalJSON() ([]byte, error) {
	type project Project
	out := project(p.Normalized())
	return json.Marshal(out)
}

// Normalized returns a copy whose slices are non-nil and not shared with p.
func (p Project) Normalized() Project {
	p.Tags = cloneStrings(p.Tags)
	p.Images = cloneStrings(p.Images)
	return p
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
