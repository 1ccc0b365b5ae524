// Package models contains domain types for the Car Manual Assistant client.
package models

import "time"

// Document is a manual the backend can answer questions against.
// The name is assigned by the server at upload time and is the only key.
type Document struct {
	Name string `json:"name" msgpack:"name"`
}

// Selection is the registry's view of the document scoped for questions.
type Selection struct {
	Name  string `json:"name,omitempty"`
	Set   bool   `json:"set"`
	Stale bool   `json:"stale"` // Name is not in the current document list
}

// Active reports whether the selection should be treated as a real document.
func (s Selection) Active() bool {
	return s.Set && !s.Stale
}

// Label returns the header text shown above the conversation.
func (s Selection) Label() string {
	if !s.Set {
		return "No manual selected"
	}
	return "Manual: " + s.Name
}

// ManualFile is a stored manual as kept by the local stub backend.
type ManualFile struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}
