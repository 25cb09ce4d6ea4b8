package models

import (
	"time"

	"github.com/google/uuid"
)

// Story is a community post. Author fields are joined from users on read.
type Story struct {
	ID               uuid.UUID `db:"id"                 json:"id"`
	UserID           uuid.UUID `db:"user_id"            json:"user_id"`
	Recipient        string    `db:"recipient"          json:"recipient"`
	Content          string    `db:"content"            json:"content"`
	LocationName     *string   `db:"location_name"      json:"-"`
	LocationAddress  *string   `db:"location_address"   json:"-"`
	ActivityImageURL *string   `db:"activity_image_url" json:"activity_image_url,omitempty"`
	CreatedAt        time.Time `db:"created_at"         json:"created_at"`

	AuthorUsername  string  `db:"-" json:"-"`
	AuthorAvatarURL *string `db:"-" json:"-"`
}

// StoryLocation is the optional place attached to a story.
type StoryLocation struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Module is an education module shown on the learning page.
type Module struct {
	ID          string    `db:"id"          json:"id"`
	Title       string    `db:"title"       json:"title"`
	Description string    `db:"description" json:"description"`
	Icon        string    `db:"icon"        json:"icon"`
	Color       string    `db:"color"       json:"color"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`

	Sections []ModuleSection `db:"-" json:"sections,omitempty"`
}

// ModuleSection is one ordered section of a Module.
type ModuleSection struct {
	ID          uuid.UUID `db:"id"          json:"id"`
	ModuleID    string    `db:"module_id"   json:"module_id"`
	Title       string    `db:"title"       json:"title"`
	Description string    `db:"description" json:"description"`
	Icon        string    `db:"icon"        json:"icon"`
	Color       string    `db:"color"       json:"color"`
	Highlights  []string  `db:"highlights"  json:"highlights"`
	OrderIndex  int       `db:"order_index" json:"order_index"`
}

// VeterinaryService is a clinic or pet shop shown on the map.
type VeterinaryService struct {
	ID           int        `db:"id"             json:"id"`
	Name         string     `db:"name"           json:"name"`
	Address      string     `db:"address"        json:"address"`
	Phone        string     `db:"phone"          json:"phone"`
	Rating       float64    `db:"rating"         json:"rating"`
	TotalReviews int        `db:"total_reviews"  json:"totalReviews"`
	OpenHours    string     `db:"open_hours"     json:"openHours"`
	Services     []string   `db:"services"       json:"services"`
	Position     [2]float64 `db:"-"              json:"position"`
	GoogleMapURL string     `db:"google_map_url" json:"googleMapUrl"`
}
