package redis

import "fmt"

const sessionsIndexKey = "thequeue:sessions"

func requestKey(id string) string {
	return fmt.Sprintf("thequeue:request:%s", id)
}

// sessionQueueKey is a sorted set of request ids scored by position.
func sessionQueueKey(sessionID string) string {
	return fmt.Sprintf("thequeue:session:%s:requests", sessionID)
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("thequeue:session:%s", sessionID)
}

func slugKey(slug string) string {
	return fmt.Sprintf("thequeue:slug:%s", slug)
}
