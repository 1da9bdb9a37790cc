package models

import "encoding/json"

type ListType string

const (
	ListNormal   ListType = "normal"
	ListDraft    ListType = "draft"
	ListUnlisted ListType = "unlisted"
)

var ListTypes = []ListType{ListNormal, ListDraft, ListUnlisted}

// ParseListType maps a query value to a list type, falling back to the
// normal list for anything unknown.
func ParseListType(s string) ListType {
	for _, lt := range ListTypes {
		if string(lt) == s {
			return lt
		}
	}
	return ListNormal
}

// Privileged list types are only shown to privileged viewers.
func (lt ListType) Privileged() bool {
	return lt == ListDraft || lt == ListUnlisted
}

type FeedCard struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Avatar    string    `json:"avatar"`
	Draft     int       `json:"draft"`
	Listed    int       `json:"listed"`
	Top       int       `json:"top"`
	Hashtags  []Hashtag `json:"hashtags"`
	CreatedAt Time      `json:"createdAt"`
	UpdatedAt Time      `json:"updatedAt"`
}

func (c *FeedCard) UnmarshalJSON(b []byte) error {
	type rawCard FeedCard
	var raw rawCard
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*c = FeedCard(raw)
	c.Hashtags = DedupeHashtags(c.Hashtags)
	if c.UpdatedAt.Before(c.CreatedAt.Time) {
		c.UpdatedAt = c.CreatedAt
	}
	return nil
}

func (c *FeedCard) Edited() bool {
	return !c.UpdatedAt.Equal(c.CreatedAt.Time)
}

type FeedList struct {
	Size    int        `json:"size"`
	Data    []FeedCard `json:"data"`
	HasNext bool       `json:"hasNext"`
}
