package models

// PendingItem is a discovered reel staged for inclusion in the next plan.
type PendingItem struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Location string   `json:"location"`
	Category Category `json:"type"`
	Source   Reel     `json:"raw"`
}

// PendingItemFromReel stages a reel under its own identifier.
func PendingItemFromReel(r Reel) PendingItem {
	return PendingItem{
		ID:       r.ID,
		Title:    r.Title,
		Location: r.Location,
		Category: r.Type,
		Source:   r,
	}
}

// Stop converts the pending item into a plan stop.
func (p PendingItem) Stop() Stop {
	return Stop{
		ID:        p.ID,
		Name:      p.Title,
		Category:  p.Category,
		QuickInfo: p.Location,
	}
}
