package domain

import "time"

// Comment is a message in a ticket thread.
type Comment struct {
	ID        int64
	TicketID  int64
	AuthorID  int64
	Content   string
	CreatedAt time.Time
}
