package models

import "time"

// FileRecord is the metadata kept for one uploaded file.
type FileRecord struct {
	ID           string    `json:"uuid"`
	StoredName   string    `json:"stored_name"`
	StoragePath  string    `json:"-"`
	OriginalName string    `json:"original_name,omitempty"`
	SizeBytes    int64     `json:"size_bytes"`
	Sender       string    `json:"sender,omitempty"`
	Receiver     string    `json:"receiver,omitempty"`
	Notified     bool      `json:"notified"`
	NotifyCount  int       `json:"notify_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName is the name a downloaded copy should carry.
func (f *FileRecord) DisplayName() string {
	if f.OriginalName != "" {
		return f.OriginalName
	}
	return f.StoredName
}

// SizeKB renders the size the way share emails show it: whole kilobytes, rounded down.
func (f *FileRecord) SizeKB() string {
	return formatKB(f.SizeBytes)
}
