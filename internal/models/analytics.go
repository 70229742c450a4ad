package models

import "time"

type Analytics struct {
	Range                string    `json:"range"`
	Since                time.Time `json:"since"`
	TasksCreated         int       `json:"tasks_created"`
	TasksCompleted       int       `json:"tasks_completed"`
	TasksPending         int       `json:"tasks_pending"`
	CompletionRate       float64   `json:"completion_rate"`
	ConversationsStarted int       `json:"conversations_started"`
	MessagesSent         int       `json:"messages_sent"`
}
