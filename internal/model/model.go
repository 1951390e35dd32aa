package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func ParseRole(value string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(value))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleTeacher:
		return RoleTeacher, nil
	case RoleStudent:
		return RoleStudent, nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Principal is the authenticated user as the backend reports it. Absence of
// a Principal means "not authenticated".
type Principal struct {
	ID             string `json:"_id"`
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	FullName       string `json:"fullName,omitempty"`
	Role           Role   `json:"role"`
	Department     string `json:"department,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// UnmarshalJSON accepts both the Mongo-style "_id" and a plain "id" field;
// some backend endpoints emit one, some the other.
func (p *Principal) UnmarshalJSON(data []byte) error {
	type alias Principal
	aux := struct {
		*alias
		AltID string `json:"id"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = aux.AltID
	}
	return nil
}

func (p *Principal) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Notification is a backend-owned record mirrored locally. The read flag only
// transitions false to true locally once the backend has confirmed it.
type Notification struct {
	ID           string    `json:"_id"`
	Recipient    string    `json:"recipient"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	RelatedEvent string    `json:"relatedEvent,omitempty"`
	Priority     Priority  `json:"priority"`
	Read         bool      `json:"isRead"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
