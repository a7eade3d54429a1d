package models

import (
	"encoding/json"
	"strings"
	"time"
)

// SiteSettingsKey is the identifier of the one and only settings document.
const SiteSettingsKey = "site"

type HeroSettings struct {
	Name              string `json:"name" bson:"name"`
	Title             string `json:"title" bson:"title"`
	Subtitle          string `json:"subtitle" bson:"subtitle"`
	PrimaryCtaLabel   string `json:"primaryCtaLabel" bson:"primaryCtaLabel"`
	SecondaryCtaLabel string `json:"secondaryCtaLabel" bson:"secondaryCtaLabel"`
	HeroImageURL      string `json:"heroImageUrl" bson:"heroImageUrl"`
}

type AboutSettings struct {
	Headline    string   `json:"headline" bson:"headline"`
	Description string   `json:"description" bson:"description"`
	Skills      []string `json:"skills" bson:"skills"`
}

type SocialLink struct {
	Platform string `json:"platform" bson:"platform"`
	URL      string `json:"url" bson:"url"`
}

type ContactSettings struct {
	Email       string       `json:"email" bson:"email"`
	Location    string       `json:"location" bson:"location"`
	SocialLinks []SocialLink `json:"socialLinks" bson:"socialLinks"`
}

// SiteSettings is the singleton document driving the hero, about and contact sections.
type SiteSettings struct {
	Hero      HeroSettings    `json:"hero"`
	About     AboutSettings   `json:"about"`
	Contact   ContactSettings `json:"contact"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`

	// LegacyContact is set by stores when the stored contact section still used the
	// fixed github/linkedin/twitter fields and was normalised on read.
	LegacyContact bool `json:"-"`
}

// DefaultSiteSettings returns the content used when no settings document exists yet.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		Hero: HeroSettings{
			Name:              "Your Name",
			Title:             "Full-Stack Developer",
			Subtitle:          "I build fast, scalable, and beautifully designed applications with clean architecture.",
			PrimaryCtaLabel:   "View Projects",
			SecondaryCtaLabel: "Contact Me",
			HeroImageURL:      "",
		},
		About: AboutSettings{
			Headline:    "About Me",
			Description: "I'm a passionate full-stack developer focused on building modern, fast, and scalable web apps.",
			Skills:      []string{"React", "Node.js", "Express", "MongoDB", "TypeScript", "TailwindCSS"},
		},
		Contact: ContactSettings{
			Email:       "yourmail@example.com",
			Location:    "Your City, Country",
			SocialLinks: []SocialLink{},
		},
		Version: 1,
	}
}

// MarshalJSON never emits null for skills or socialLinks.
func (s SiteSettings) MarshalJSON() ([]byte, error) {
	type siteSettings SiteSettings
	return json.Marshal(siteSettings(s.Normalized()))
}

// Normalized returns a deep copy with non-nil slices.
func (s SiteSettings) Normalized() SiteSettings {
	s.About.Skills = cloneStrings(s.About.Skills)
	links := make([]SocialLink, len(s.Contact.SocialLinks))
	copy(links, s.Contact.SocialLinks)
	s.Contact.SocialLinks = links
	return s
}

// StoredContact is the persisted contact shape. It reads both the socialLinks array and
// the older fixed github/linkedin/twitter fields; it only ever writes the former.
type StoredContact struct {
	Email       string       `json:"email" bson:"email"`
	Location    string       `json:"location" bson:"location"`
	SocialLinks []SocialLink `json:"socialLinks" bson:"socialLinks"`
	Github      string       `json:"github,omitempty" bson:"github,omitempty"`
	Linkedin    string       `json:"linkedin,omitempty" bson:"linkedin,omitempty"`
	Twitter     string       `json:"twitter,omitempty" bson:"twitter,omitempty"`
}

func NewStoredContact(c ContactSettings) StoredContact {
	links := make([]SocialLink, len(c.SocialLinks))
	copy(links, c.SocialLinks)
	return StoredContact{Email: c.Email, Location: c.Location, SocialLinks: links}
}

// IsLegacy reports whether any of the fixed social fields is present.
func (c StoredContact) IsLegacy() bool {
	return c.Github != "" || c.Linkedin != "" || c.Twitter != ""
}

// Contact folds the legacy fixed fields into socialLinks.
func (c StoredContact) Contact() ContactSettings {
	return ContactSettings{
		Email:    c.Email,
		Location: c.Location,
		SocialLinks: MergeLegacyLinks(c.SocialLinks, map[string]string{
			"github":   c.Github,
			"linkedin": c.Linkedin,
			"twitter":  c.Twitter,
		}),
	}
}

// legacyPlatforms fixes the order legacy entries are appended in.
var legacyPlatforms = []string{"github", "linkedin", "twitter"}

// MergeLegacyLinks replaces or appends one entry per non-empty legacy field. Existing
// entries for other platforms keep their position.
func MergeLegacyLinks(links []SocialLink, legacy map[string]string) []SocialLink {
	out := make([]SocialLink, len(links))
	copy(out, links)

	for _, platform := range legacyPlatforms {
		url := strings.TrimSpace(legacy[platform])
		if url == "" {
			continue
		}
		replaced := false
		for i := range out {
			if strings.EqualFold(out[i].Platform, platform) {
				out[i].URL = url
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, SocialLink{Platform: platform, URL: url})
		}
	}
	return out
}
