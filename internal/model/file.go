package model

import (
	"time"
)

const (
	FileTypeAvatar = "avatar"

	FileOwnerProfile = "profile"
)

type File struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`    // Who uploaded this file
	OwnerType    string    `db:"owner_type"` // "profile"
	OwnerID      string    `db:"owner_id"`
	Type         string    `db:"type"`
	Filename     string    `db:"filename"`
	OriginalName string    `db:"original_name"`
	MimeType     string    `db:"mime_type"`
	Size         int64     `db:"size"`
	StoragePath  string    `db:"storage_path"`
	CreatedAt    time.Time `db:"created_at"`
}
