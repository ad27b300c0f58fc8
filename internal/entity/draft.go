package entity

// Draft is a follow-up email ready for review.
type Draft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender is the signature block a draft is written from.
type Sender struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Company string `json:"company"`
}
