package database

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type seedRoom struct {
	name        string
	slug        string
	roomType    string
	price       int64
	priceUSD    int64
	description string
	features    []string
	image       string
	rating      string
	maxGuests   int
	totalRooms  int
}

var seedRooms = []seedRoom{
	{
		name:        "Standard Bungalow",
		slug:        "standard-bungalow",
		roomType:    "standard",
		price:       950000,
		priceUSD:    65,
		description: "A cozy retreat wrapped in natural bamboo and warm wood tones. Fall asleep to the gentle rustle of palm trees outside your window.",
		features: []string{
			"Queen-size bed with premium linens",
			"Air conditioning & ceiling fan",
			"Garden view private terrace",
			"Ensuite bathroom with rain shower",
		},
		image:      "/images/room-superior.png",
		rating:     "4.7",
		maxGuests:  2,
		totalRooms: 8,
	},
	{
		name:        "Deluxe Bungalow",
		slug:        "deluxe-bungalow",
		roomType:    "deluxe",
		price:       1600000,
		priceUSD:    110,
		description: "Wake up to panoramic ocean views from your private balcony. Spacious interiors blend Balinese craftsmanship with modern luxury.",
		features: []string{
			"King-size bed with ocean view",
			"AC, Smart TV & mini bar",
			"Private balcony with lounger",
			"Outdoor shower & soaking tub",
		},
		image:      "/images/room-deluxe.png",
		rating:     "4.8",
		maxGuests:  3,
		totalRooms: 5,
	},
	{
		name:        "Suite Bungalow",
		slug:        "suite-bungalow",
		roomType:    "suite",
		price:       2700000,
		priceUSD:    185,
		description: "The ultimate island escape with a private plunge pool and direct beach access. Where luxury meets the untouched beauty of Bali.",
		features: []string{
			"Separate bedroom & living area",
			"Private plunge pool & deck",
			"Direct beach access",
			"Premium bath amenities & bathrobe",
		},
		image:      "/images/room-suite.png",
		rating:     "4.9",
		maxGuests:  4,
		totalRooms: 3,
	},
}

// SeedRooms inserts the default room inventory when the table is empty.
func SeedRooms(db *sql.DB, logger *zap.Logger) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM rooms").Scan(&count); err != nil {
		return fmt.Errorf("failed to count rooms: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, r := range seedRooms {
		_, err := db.Exec(
			`INSERT INTO rooms (name, slug, type, price, price_usd, description, features, image, rating, max_guests, total_rooms)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			r.name, r.slug, r.roomType, r.price, r.priceUSD, r.description,
			pq.Array(r.features), r.image, r.rating, r.maxGuests, r.totalRooms,
		)
		if err != nil {
			return fmt.Errorf("failed to seed room %q: %w", r.slug, err)
		}
	}

	logger.Info("Seeded rooms", zap.Int("count", len(seedRooms)))
	return nil
}
