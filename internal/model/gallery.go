package model

import "time"

const (
	CategoryMain       = "main"
	CategoryCaravaggio = "caravaggio"
	CategoryGogh       = "gogh"
	CategoryLeopold    = "leopold"
)

var Categories = []string{CategoryMain, CategoryCaravaggio, CategoryGogh, CategoryLeopold}

func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

type Artwork struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Year      string    `json:"year,omitempty"`
	Location  string    `json:"location,omitempty"`
	Category  string    `json:"category"`
	ImageURL  string    `json:"imageUrl"`
	ImageKey  string    `json:"-"`
	YouTube   string    `json:"youtube,omitempty"`
	Read      int       `json:"read"`
	Likes     int       `json:"likes"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"timestamp"`
	UpdatedAt time.Time `json:"lastModified"`
}

// ChatRecord is one persisted docent turn shown on the history page.
type ChatRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ImageURL  string    `json:"imageUrl"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Examples  []string  `json:"examples"`
	ImageID   string    `json:"imageID,omitempty"`
}

type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
