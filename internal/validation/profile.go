package validation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

const (
	NameMaxLength = 100
	BioMaxLength  = 300
)

// ProfileInput is the full profile payload used by setup.
type ProfileInput struct {
	Name        string   `json:"name"`
	Year        string   `json:"year"`
	CollegeMail string   `json:"collegeMail"`
	TechStacks  []string `json:"techStacks"`
	Roles       []string `json:"roles"`
	LinkedIn    string   `json:"linkedin"`
	GitHub      string   `json:"github"`
	Bio         string   `json:"bio"`
}

func (in *ProfileInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Year = strings.TrimSpace(in.Year)
	in.CollegeMail = NormalizeEmail(in.CollegeMail)
	in.TechStacks = NormalizeSet(in.TechStacks)
	in.Roles = NormalizeSet(in.Roles)
	in.LinkedIn = strings.TrimSpace(in.LinkedIn)
	in.GitHub = strings.TrimSpace(in.GitHub)
	in.Bio = strings.TrimSpace(in.Bio)

	fields := Fields{}
	fields.check("name", validateName(in.Name))
	if in.Year == "" {
		fields["year"] = "Year is required"
	}
	if ValidateEmail(in.CollegeMail) != nil {
		fields["collegeMail"] = "Invalid college email format"
	}
	if len(in.TechStacks) == 0 {
		fields["techStacks"] = "At least one tech stack is required"
	}
	if len(in.Roles) == 0 {
		fields["roles"] = "At least one role is required"
	}
	fields.check("linkedin", validateLink(in.LinkedIn))
	fields.check("github", validateLink(in.GitHub))
	fields.check("bio", validateBio(in.Bio))
	return fields.Err()
}

// ProfilePatch is a partial update; nil fields are left untouched.
// collegeMail is fixed after setup.
type ProfilePatch struct {
	Name       *string   `json:"name"`
	Year       *string   `json:"year"`
	TechStacks *[]string `json:"techStacks"`
	Roles      *[]string `json:"roles"`
	LinkedIn   *string   `json:"linkedin"`
	GitHub     *string   `json:"github"`
	Bio        *string   `json:"bio"`
}

func (p *ProfilePatch) Validate() error {
	fields := Fields{}

	if p.Name != nil {
		*p.Name = strings.TrimSpace(*p.Name)
		fields.check("name", validateName(*p.Name))
	}
	if p.Year != nil {
		*p.Year = strings.TrimSpace(*p.Year)
		if *p.Year == "" {
			fields["year"] = "Year is required"
		}
	}
	if p.TechStacks != nil {
		*p.TechStacks = NormalizeSet(*p.TechStacks)
		if len(*p.TechStacks) == 0 {
			fields["techStacks"] = "At least one tech stack is required"
		}
	}
	if p.Roles != nil {
		*p.Roles = NormalizeSet(*p.Roles)
		if len(*p.Roles) == 0 {
			fields["roles"] = "At least one role is required"
		}
	}
	if p.LinkedIn != nil {
		*p.LinkedIn = strings.TrimSpace(*p.LinkedIn)
		fields.check("linkedin", validateLink(*p.LinkedIn))
	}
	if p.GitHub != nil {
		*p.GitHub = strings.TrimSpace(*p.GitHub)
		fields.check("github", validateLink(*p.GitHub))
	}
	if p.Bio != nil {
		*p.Bio = strings.TrimSpace(*p.Bio)
		fields.check("bio", validateBio(*p.Bio))
	}

	return fields.Err()
}

// NormalizeSet trims entries, drops blanks and removes case-insensitive
// duplicates, keeping the first spelling.
func NormalizeSet(values []string) []string {
	trimmed := lo.FilterMap(values, func(v string, _ int) (string, bool) {
		v = strings.TrimSpace(v)
		return v, v != ""
	})
	return lo.UniqBy(trimmed, strings.ToLower)
}

func validateName(name string) error {
	if name == "" {
		return errors.New("Name is required")
	}
	if utf8.RuneCountInString(name) > NameMaxLength {
		return fmt.Errorf("Name is too long (max %d characters)", NameMaxLength)
	}
	return nil
}

func validateBio(bio string) error {
	if utf8.RuneCountInString(bio) > BioMaxLength {
		return fmt.Errorf("Bio cannot exceed %d characters", BioMaxLength)
	}
	return nil
}

// validateLink accepts an empty value, an http(s) URL or a bare host/path
// such as "github.com/asha".
func validateLink(link string) error {
	if link == "" {
		return nil
	}
	if !strings.Contains(link, "://") {
		link = "https://" + link
	}
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || !strings.Contains(u.Host, ".") {
		return errors.New("must be a valid link")
	}
	return nil
}
