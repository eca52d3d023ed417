package domain

import "time"

// News represents a single news article shown in the feed
type News struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	URL         string    `json:"url" db:"url"`
	Published   time.Time `json:"published" db:"published"`
}

// Batch is the ordered set of news returned by one fetch
type Batch []News
