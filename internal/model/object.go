package model

import "time"

// Object is a bucket entry for the SQL storage backend. Version is bumped
// on every write and doubles as the entity tag for conditional writes.
type Object struct {
	Key         string    `gorm:"column:object_key;primaryKey"`
	Body        []byte    `gorm:"not null"`
	ContentType string    `gorm:"not null;default:application/octet-stream"`
	Size        int64     `gorm:"not null"`
	Version     int64     `gorm:"not null;default:1"`
	UpdatedAt   time.Time `gorm:"not null"`
}
