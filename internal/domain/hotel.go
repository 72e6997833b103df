package domain

import (
	"time"
)

type Hotel struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	UserID        string    `json:"userId" bson:"user_id"`
	Name          string    `json:"name" bson:"name"`
	City          string    `json:"city" bson:"city"`
	Country       string    `json:"country" bson:"country"`
	Description   string    `json:"description" bson:"description"`
	Type          string    `json:"type" bson:"type"`
	PricePerNight float64   `json:"pricePerNight" bson:"price_per_night"`
	StarRating    int       `json:"starRating,omitempty" bson:"star_rating,omitempty"`
	Facilities    []string  `json:"facilities" bson:"facilities"`
	AdultCount    int       `json:"adultCount" bson:"adult_count"`
	ChildCount    int       `json:"childCount" bson:"child_count"`
	ImageURLs     []string  `json:"imageUrls" bson:"image_urls"`
	LastUpdated   time.Time `json:"lastUpdated" bson:"last_updated"`
}

// HotelInput carries the validated form fields of a create or update
// submission. Ownership is never part of it: the pipeline assigns the owner
// from the authenticated caller, so a client-supplied userId has nowhere to
// land.
type HotelInput struct {
	Name          string
	City          string
	Country       string
	Description   string
	Type          string
	PricePerNight float64
	StarRating    int
	Facilities    []string
	AdultCount    int
	ChildCount    int
}

// ImageFile is an uploaded image buffered in memory for the duration of one
// request. The pipeline trades it for a durable URL and discards the bytes.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func (in *HotelInput) Validate() error {
	var v ValidationError
	if in.Name == "" {
		v.Add("name", "name is required")
	}
	if in.City == "" {
		v.Add("city", "city is required")
	}
	if in.Country == "" {
		v.Add("country", "country is required")
	}
	if in.Description == "" {
		v.Add("description", "description is required")
	}
	if in.Type == "" {
		v.Add("type", "hotel type is required")
	}
	if in.PricePerNight <= 0 {
		v.Add("pricePerNight", "price per night must be a positive number")
	}
	if in.StarRating < 0 || in.StarRating > 5 {
		v.Add("starRating", "star rating must be between 1 and 5")
	}
	if len(in.Facilities) == 0 {
		v.Add("facilities", "facilities are required")
	}
	if in.AdultCount < 1 {
		v.Add("adultCount", "at least one adult is required")
	}
	if in.ChildCount < 0 {
		v.Add("childCount", "child count cannot be negative")
	}
	return v.OrNil()
}
