// Package payins manages payin records and the analytics built on top of
// them.
package payins

// Payin is a single tracked payin record. Date and EncodedDate are calendar
// dates in YYYY-MM-DD form; the audit stamps are RFC3339 instants.
type Payin struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Amount      float64 `json:"amount"`
	Referror    string  `json:"referror"`
	Mentor      string  `json:"mentor"`
	Date        string  `json:"date"`
	IsEncoded   bool    `json:"isEncoded"`
	EncodedDate string  `json:"encodedDate,omitempty"`

	CreatedBy     string `json:"createdBy,omitempty"`
	CreatedByName string `json:"createdByName,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedBy     string `json:"updatedBy,omitempty"`
	UpdatedByName string `json:"updatedByName,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

// Input carries the writable fields of a payin.
type Input struct {
	Name      string  `json:"name" validate:"required,min=2,max=120"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Referror  string  `json:"referror" validate:"max=120"`
	Mentor    string  `json:"mentor" validate:"max=120"`
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	IsEncoded bool    `json:"isEncoded"`
}
