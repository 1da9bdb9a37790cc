package models

import (
	"strconv"
	"strings"
)

const (
	ClientConfigCommentEnabled = "comment.enabled"
	ClientConfigCounterEnabled = "counter.enabled"
)

// ClientConfig holds the feature flags the backend publishes for front-ends.
// Keys are dotted, e.g. "comment.enabled".
type ClientConfig map[string]any

func (c ClientConfig) Bool(key string, def bool) bool {
	v, ok := c[key]
	if !ok || v == nil {
		return def
	}
	switch tv := v.(type) {
	case bool:
		return tv
	case float64:
		return tv != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(tv))
		if err != nil {
			return def
		}
		return b
	}
	return def
}

func (c ClientConfig) CommentEnabled() bool {
	return c.Bool(ClientConfigCommentEnabled, true)
}

func (c ClientConfig) CounterEnabled() bool {
	return c.Bool(ClientConfigCounterEnabled, true)
}
