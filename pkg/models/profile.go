package models

import (
	"strings"
	"time"
)

// Profile is the subject record workflows act upon: the traveller a welcome
// series or price alert is addressed to.
type Profile struct {
	ID         string         `json:"id"         validate:"required"`
	Email      string         `json:"email"      validate:"required,email"`
	FirstName  string         `json:"first_name"`
	LastName   string         `json:"last_name"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// ApplyTags merges tags into the profile. A "key:value" tag sets an
// attribute (later tags win); a plain tag is appended once to Tags.
func (p *Profile) ApplyTags(tags []string) {
	if p.Attributes == nil {
		p.Attributes = make(map[string]any)
	}

	for _, tag := range tags {
		if key, value, ok := strings.Cut(tag, ":"); ok && key != "" {
			p.Attributes[key] = value

			continue
		}

		if !p.HasTag(tag) {
			p.Tags = append(p.Tags, tag)
		}
	}

	p.UpdatedAt = time.Now().UTC()
}

// HasTag reports whether the profile already carries a plain tag.
func (p *Profile) HasTag(tag string) bool {
	for _, existing := range p.Tags {
		if existing == tag {
			return true
		}
	}

	return false
}

// TemplateData returns the profile fields merged for email rendering.
func (p *Profile) TemplateData() map[string]any {
	data := map[string]any{
		"email":      p.Email,
		"first_name": p.FirstName,
		"last_name":  p.LastName,
	}

	for k, v := range p.Attributes {
		data[k] = v
	}

	return data
}
