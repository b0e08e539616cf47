package models

// Role identifies the author of a transcript message
type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// Message is one entry in a session transcript. Messages are appended
// in completion order and never mutated or reordered afterwards.
type Message struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Text string `json:"text"`
}
