package notifier

import (
	"fmt"
	"regexp"
)

// Topic represents a trigger routing key
type Topic struct {
	streamRegex *regexp.Regexp

	Value string
}

// Stream returns the stream name from the Topic value
func (t *Topic) Stream() (string, error) {
	matches := t.streamRegex.FindStringSubmatch(t.Value)

	if matches == nil {
		return "", fmt.Errorf("topic: %q does not match topic regex", t.Value)
	}

	if len(matches) < 2 {
		return "", fmt.Errorf("topic: stream not found in topic")
	}

	return matches[1], nil
}

// NewTopic constructs a new Topic
func NewTopic(value string) *Topic {
	return &Topic{
		streamRegex: regexp.MustCompile(`^status\.(\w+)$`),
		Value:       value,
	}
}
