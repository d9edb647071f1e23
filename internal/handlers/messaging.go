package handlers

import (
	"github.com/rentitout/backend/internal/messaging"
)

// Messaging is the chat service shared by the REST and socket handlers.
var Messaging *messaging.Service

// Feed delivers chat inserts to open socket threads.
var Feed messaging.Feed

func InitMessaging(svc *messaging.Service, feed messaging.Feed) {
	Messaging = svc
	Feed = feed
}
