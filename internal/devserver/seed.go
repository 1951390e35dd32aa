package devserver

import (
	"fmt"
	"time"

	"campushub/portal/internal/model"
)

// SeedDemoData loads the demo accounts and a handful of notifications so the
// portal client has something to talk to out of the box. Password for every
// account is "dev-password".
func (s *Server) SeedDemoData() error {
	users := []model.Principal{
		{Email: "admin@demo.local", FirstName: "Ada", LastName: "Admin", Role: model.RoleAdmin, Department: "Administration"},
		{Email: "teacher@demo.local", FirstName: "Tina", LastName: "Teacher", Role: model.RoleTeacher, Department: "Computer Science"},
		{Email: "student@demo.local", FirstName: "Sam", LastName: "Student", Role: model.RoleStudent, Department: "Computer Science"},
	}

	for i := range users {
		users[i].FullName = users[i].FirstName + " " + users[i].LastName
		created, err := s.store.CreateUser(users[i], "dev-password")
		if err != nil {
			return fmt.Errorf("seed user %s: %w", users[i].Email, err)
		}
		users[i] = created
	}

	teacher, student := users[1], users[2]
	now := time.Now().UTC()

	s.store.AddNotification(model.Notification{
		Recipient: teacher.ID,
		Type:      "event_approved",
		Title:     "Event approved",
		Message:   "Your event 'Intro to Go' was approved.",
		Priority:  model.PriorityHigh,
		CreatedAt: now.Add(-2 * time.Hour),
	})
	s.store.AddNotification(model.Notification{
		Recipient: teacher.ID,
		Type:      "event_reminder",
		Title:     "Event starts soon",
		Message:   "'Intro to Go' starts in one hour.",
		Priority:  model.PriorityUrgent,
		CreatedAt: now.Add(-30 * time.Minute),
	})
	s.store.AddNotification(model.Notification{
		Recipient: student.ID,
		Type:      "registration_confirmed",
		Title:     "Registration confirmed",
		Message:   "You are registered for 'Intro to Go'.",
		Priority:  model.PriorityMedium,
		CreatedAt: now.Add(-1 * time.Hour),
	})

	return nil
}

// AddNotification exposes the store for tests and local tooling.
func (s *Server) AddNotification(n model.Notification) model.Notification {
	return s.store.AddNotification(n)
}
