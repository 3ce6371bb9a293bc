package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Profile struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	CollegeMail string    `db:"college_mail" json:"collegeMail"`
	Name        string    `db:"name" json:"name"`
	Year        string    `db:"year" json:"year"`
	TechStacks  StringSet `db:"tech_stacks" json:"techStacks"`
	Roles       StringSet `db:"roles" json:"roles"`
	LinkedIn    string    `db:"linkedin" json:"linkedin,omitempty"`
	GitHub      string    `db:"github" json:"github,omitempty"`
	Bio         string    `db:"bio" json:"bio,omitempty"`
	IsPosted    bool      `db:"is_posted" json:"isPosted"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`

	// Computed fields (not in database)
	BioHTML   string `db:"-" json:"bioHtml,omitempty"`
	AvatarURL string `db:"-" json:"avatarUrl,omitempty"`
}

// StringSet is stored as a JSON array in a TEXT column.
type StringSet []string

func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringSet) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = StringSet{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported type %T for StringSet", src)
	}

	var out []string
	err := json.Unmarshal(raw, &out)
	if err != nil {
		return fmt.Errorf("decode string set: %w", err)
	}
	*s = out
	return nil
}
