package ws

import (
	"time"

	"github.com/google/uuid"
)

type ConnInfo struct {
	ConnID      string
	UserID      uint64
	IP          string
	RequestID   string
	ConnectedAt time.Time
}

func newConnID() string {
	return uuid.NewString()
}
