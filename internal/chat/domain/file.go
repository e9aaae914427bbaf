package domain

import "time"

// FileRecord uploaded file metadata (postgres)
type FileRecord struct {
	ID           string    `gorm:"primaryKey;type:varchar(512)"`
	Filename     string    `gorm:"not null"`
	OriginalName string    `gorm:"not null"`
	MimeType     string    `gorm:"not null;default:'application/octet-stream'"`
	Size         int64     `gorm:"not null;default:0"`
	Path         string    `gorm:"not null"`
	UserID       string    `gorm:"index;not null"`
	UploadDate   time.Time `gorm:"autoCreateTime"`
}

// TableName gorm table
func (FileRecord) TableName() string {
	return "chat_files"
}
