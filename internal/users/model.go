package users

import "time"

// User is a registered account. Phone and Address are filled in by the user
// and go into drafted legal documents.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	PictureURL string    `json:"pictureUrl,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Contact holds the fields a user may edit.
type Contact struct {
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}
