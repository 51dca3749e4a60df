package directory

// Contact is the directory record returned by a name lookup.
type Contact struct {
	ID    string `json:"contact_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ContactDetails extends Contact with the fields only a direct
// contact fetch returns.
type ContactDetails struct {
	ID    string `json:"contact_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
