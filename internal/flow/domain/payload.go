package domain

// Payload carries the user input for one step transition. Each step reads
// only the fields it requires; handlers fail the transition when a required
// field is missing.
type Payload struct {
	CountryCode string
	PhoneNumber string
	Email       string
	OTP         string
	FirstName   string
	LastName    string
	Pin         string
}
