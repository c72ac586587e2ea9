package models

// Category separates food stops from sightseeing stops.
type Category string

const (
	CategoryFood  Category = "Food"
	CategoryPlace Category = "Place"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategoryFood || c == CategoryPlace
}

// Reel is a short-form video tagged with a place. Reels are owned by the
// backend; the client only reads them and asks for upvotes or saves.
type Reel struct {
	ID            string         `json:"id" validate:"required"`
	InstagramURL  string         `json:"instagram_url" validate:"required"`
	EmbedCode     string         `json:"embed_code"`
	Title         string         `json:"title" validate:"required"`
	Description   string         `json:"description,omitempty"`
	Location      string         `json:"location" validate:"required"`
	Type          Category       `json:"type" validate:"required,oneof=Food Place"`
	CreatorHandle string         `json:"creator_handle,omitempty"`
	Tags          []string       `json:"tags"`
	Metadata      map[string]any `json:"metadata"`
	Upvotes       int            `json:"upvotes" validate:"gte=0"`
	Saves         int            `json:"saves" validate:"gte=0"`
}

// MetadataString returns a metadata value such as "price", "hygiene", "vibe" or "timing".
func (r Reel) MetadataString(key string) string {
	if r.Metadata == nil {
		return ""
	}
	if v, ok := r.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// ReelFilter narrows a reel listing.
type ReelFilter struct {
	Location string
	Category Category
	Limit    int
}
