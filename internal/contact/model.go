package contact

import "time"

// Message is a storefront contact-form submission.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}
