package domain

import "time"

// ArtifactBlob is a stored rendering referenced by VisualArtifact.Ref.
type ArtifactBlob struct {
	ID        string
	MimeType  string
	Data      []byte
	Prompt    string
	CreatedAt time.Time
}
