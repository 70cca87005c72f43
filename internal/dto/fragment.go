package dto

// Fragment is one buffered scene description received from a camera.
type Fragment struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Snapshot  string `json:"snapshot,omitempty"`
}
