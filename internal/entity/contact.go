package entity

// Contact is the best-effort projection of a business card onto contact fields.
// Any field may be empty; RawData keeps the OCR text the fields came from.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	RawData string `json:"rawData,omitempty"`
}

// IsEmpty reports whether no contact field was recovered.
func (c Contact) IsEmpty() bool {
	return c.Name == "" && c.Email == "" && c.Role == "" && c.Company == "" && c.Phone == ""
}
