package models

import "time"

type Room struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Type        string    `json:"type"`
	Price       int64     `json:"price"`
	PriceUSD    int64     `json:"price_usd"`
	Description string    `json:"description"`
	Features    []string  `json:"features"`
	Image       string    `json:"image"`
	Rating      string    `json:"rating"`
	MaxGuests   int       `json:"max_guests"`
	TotalRooms  int       `json:"total_rooms"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateRoomRequest struct {
	Name        string   `json:"name" binding:"required"`
	Slug        string   `json:"slug"`
	Type        string   `json:"type" binding:"required"`
	Price       int64    `json:"price" binding:"required,gt=0"`
	PriceUSD    int64    `json:"price_usd"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Image       string   `json:"image"`
	Rating      string   `json:"rating"`
	MaxGuests   int      `json:"max_guests"`
	TotalRooms  int      `json:"total_rooms"`
}

type UpdateRoomRequest struct {
	Name        *string   `json:"name"`
	Slug        *string   `json:"slug"`
	Type        *string   `json:"type"`
	Price       *int64    `json:"price"`
	PriceUSD    *int64    `json:"price_usd"`
	Description *string   `json:"description"`
	Features    *[]string `json:"features"`
	Image       *string   `json:"image"`
	Rating      *string   `json:"rating"`
	MaxGuests   *int      `json:"max_guests"`
	TotalRooms  *int      `json:"total_rooms"`
	IsActive    *bool     `json:"is_active"`
}
