package models

import "time"

// Resume holds the metadata for an uploaded resume file. The file bytes
// themselves live in blob storage under StorageKey.
//
// Deleting a resume does not cascade to applications that reference it;
// a dangling ResumeID is tolerated and rendered as "None".
type Resume struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Version    string    `json:"version"`
	StorageKey string    `json:"storage_key"`
	UploadedAt time.Time `json:"upload_date"`
	SizeBytes  int64     `json:"file_size"`
}
