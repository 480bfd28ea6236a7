package entities

import (
	"path/filepath"
	"time"
)

// WorkingFileEntry records a file written to a working directory
type WorkingFileEntry struct {
	Name      string    `json:"name"`
	Dir       string    `json:"dir"`
	CreatedAt time.Time `json:"created_at"`
}

// Path returns the absolute location of the entry
func (e WorkingFileEntry) Path() string {
	return filepath.Join(e.Dir, e.Name)
}
