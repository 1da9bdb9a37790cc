package models

type HashtagSummary struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	CreatedAt Time   `json:"createdAt"`
	UpdatedAt Time   `json:"updatedAt"`
	Feeds     int    `json:"feeds"`
}

type HashtagDetail struct {
	ID    int        `json:"id"`
	Name  string     `json:"name"`
	Feeds []FeedCard `json:"feeds"`
}

// NonEmptyHashtags keeps only hashtags attached to at least one feed.
func NonEmptyHashtags(tags []HashtagSummary) []HashtagSummary {
	res := make([]HashtagSummary, 0, len(tags))
	for _, t := range tags {
		if t.Feeds > 0 {
			res = append(res, t)
		}
	}
	return res
}
