package models

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rpupo63/portfolio-site-backend/errs"
)

// ReadOnlyFields lists keys clients may echo back from a document they read. They are
// accepted by the strict decoders and ignored.
type ReadOnlyFields struct {
	ID        json.RawMessage `json:"id,omitempty"`
	MongoID   json.RawMessage `json:"_id,omitempty"`
	CreatedAt json.RawMessage `json:"createdAt,omitempty"`
	UpdatedAt json.RawMessage `json:"updatedAt,omitempty"`
	V         json.RawMessage `json:"__v,omitempty"`
}

// ProjectPatch carries the writable project fields. A nil pointer means the field was
// not sent; it is used both for creation and for partial updates.
type ProjectPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	ImageURL    *string   `json:"imageUrl"`
	Images      *[]string `json:"images"`
	GithubURL   *string   `json:"githubUrl"`
	LiveDemoURL *string   `json:"liveDemoUrl"`

	ReadOnlyFields
}

// Validate checks the required-text invariant. On create both fields must be present.
func (p ProjectPatch) Validate(creating bool) error {
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"title", p.Title},
		{"description", p.Description},
	} {
		if f.value == nil {
			if creating {
				return errs.NewMissingRequiredFieldError(f.name)
			}
			continue
		}
		if strings.TrimSpace(*f.value) == "" {
			if creating {
				return errs.NewMissingRequiredFieldError(f.name)
			}
			return errs.NewInvalidFieldError(f.name, "must not be empty")
		}
	}
	return nil
}

// ApplyTo overwrites every field present in the patch.
func (p ProjectPatch) ApplyTo(project *Project) {
	if p.Title != nil {
		project.Title = *p.Title
	}
	if p.Description != nil {
		project.Description = *p.Description
	}
	if p.Tags != nil {
		project.Tags = cloneStrings(*p.Tags)
	}
	if p.ImageURL != nil {
		project.ImageURL = *p.ImageURL
	}
	if p.Images != nil {
		project.Images = cloneStrings(*p.Images)
	}
	if p.GithubURL != nil {
		project.GithubURL = *p.GithubURL
	}
	if p.LiveDemoURL != nil {
		project.LiveDemoURL = *p.LiveDemoURL
	}
}

// sectionReadOnly tolerates the sub-document ids older stores attached to each section.
type sectionReadOnly struct {
	MongoID json.RawMessage `json:"_id,omitempty"`
}

type HeroPatch struct {
	Name              *string `json:"name"`
	Title             *string `json:"title"`
	Subtitle          *string `json:"subtitle"`
	PrimaryCtaLabel   *string `json:"primaryCtaLabel"`
	SecondaryCtaLabel *string `json:"secondaryCtaLabel"`
	HeroImageURL      *string `json:"heroImageUrl"`

	sectionReadOnly
}

type AboutPatch struct {
	Headline    *string   `json:"headline"`
	Description *string   `json:"description"`
	Skills      *[]string `json:"skills"`

	sectionReadOnly
}

type SocialLinkInput struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`

	sectionReadOnly
}

type ContactPatch struct {
	Email       *string            `json:"email"`
	Location    *string            `json:"location"`
	SocialLinks *[]SocialLinkInput `json:"socialLinks"`

	// Legacy fixed fields, folded into socialLinks on apply.
	Github   *string `json:"github"`
	Linkedin *string `json:"linkedin"`
	Twitter  *string `json:"twitter"`

	sectionReadOnly
}

// SettingsPatch is a section-scoped partial update of SiteSettings.
type SettingsPatch struct {
	Hero    *HeroPatch    `json:"hero"`
	About   *AboutPatch   `json:"about"`
	Contact *ContactPatch `json:"contact"`

	// Version, when set, must equal the stored version for the write to proceed.
	Version *int64 `json:"version"`

	ReadOnlyFields
}

// Validate checks the social link entries, which need both halves.
func (p SettingsPatch) Validate() error {
	if p.Contact == nil || p.Contact.SocialLinks == nil {
		return nil
	}
	for i, link := range *p.Contact.SocialLinks {
		if strings.TrimSpace(link.Platform) == "" {
			return errs.NewInvalidFieldError(socialLinkField(i, "platform"), "must not be empty")
		}
		if strings.TrimSpace(link.URL) == "" {
			return errs.NewInvalidFieldError(socialLinkField(i, "url"), "must not be empty")
		}
	}
	return nil
}

func socialLinkField(i int, name string) string {
	return "contact.socialLinks[" + strconv.Itoa(i) + "]." + name
}

// IsEmpty reports whether the patch touches no section.
func (p SettingsPatch) IsEmpty() bool {
	return p.Hero == nil && p.About == nil && p.Contact == nil
}

// ApplyTo shallow-merges each present section onto s: present fields overwrite, omitted
// fields and absent sections are left as they are.
func (p SettingsPatch) ApplyTo(s *SiteSettings) {
	if h := p.Hero; h != nil {
		setString(&s.Hero.Name, h.Name)
		setString(&s.Hero.Title, h.Title)
		setString(&s.Hero.Subtitle, h.Subtitle)
		setString(&s.Hero.PrimaryCtaLabel, h.PrimaryCtaLabel)
		setString(&s.Hero.SecondaryCtaLabel, h.SecondaryCtaLabel)
		setString(&s.Hero.HeroImageURL, h.HeroImageURL)
	}
	if a := p.About; a != nil {
		setString(&s.About.Headline, a.Headline)
		setString(&s.About.Description, a.Description)
		if a.Skills != nil {
			s.About.Skills = cloneStrings(*a.Skills)
		}
	}
	if c := p.Contact; c != nil {
		setString(&s.Contact.Email, c.Email)
		setString(&s.Contact.Location, c.Location)
		if c.SocialLinks != nil {
			links := make([]SocialLink, 0, len(*c.SocialLinks))
			for _, in := range *c.SocialLinks {
				links = append(links, SocialLink{
					Platform: strings.TrimSpace(in.Platform),
					URL:      strings.TrimSpace(in.URL),
				})
			}
			s.Contact.SocialLinks = links
		}
		sent := map[string]*string{"github": c.Github, "linkedin": c.Linkedin, "twitter": c.Twitter}
		legacy := map[string]string{}
		for _, platform := range legacyPlatforms {
			v := sent[platform]
			if v == nil {
				continue
			}
			// an empty legacy key clears that platform
			if strings.TrimSpace(*v) == "" {
				s.Contact.SocialLinks = removeLinks(s.Contact.SocialLinks, platform)
				continue
			}
			legacy[platform] = *v
		}
		if len(legacy) > 0 {
			s.Contact.SocialLinks = MergeLegacyLinks(s.Contact.SocialLinks, legacy)
		}
	}
}

func removeLinks(links []SocialLink, platform string) []SocialLink {
	out := make([]SocialLink, 0, len(links))
	for _, l := range links {
		if !strings.EqualFold(l.Platform, platform) {
			out = append(out, l)
		}
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
