package domain

import "time"

type ClientStatus string

const (
	ClientStatusProspect ClientStatus = "prospect"
	ClientStatusActive   ClientStatus = "actif"
	ClientStatusInactive ClientStatus = "inactif"
)

// Client is a customer contact owned by an organisation.
type Client struct {
	ID             string       `json:"id" gorm:"primaryKey"`
	Name           string       `json:"name" gorm:"not null"`
	Company        string       `json:"company" gorm:"not null"`
	PhoneNumber    string       `json:"phone_number" gorm:"column:phone_number"`
	Email          string       `json:"email"`
	Country        string       `json:"country"`
	Status         ClientStatus `json:"status"`
	OrganisationID string       `json:"organisation_id" gorm:"column:organisation_id;index"`
	CreatedAt      time.Time    `json:"created_at"`
}

// ClientMatch is a client scored against a spoken name and company.
type ClientMatch struct {
	Client            Client  `json:"client" gorm:"embedded"`
	NameSimilarity    float64 `json:"name_similarity" gorm:"column:name_similarity"`
	CompanySimilarity float64 `json:"company_similarity" gorm:"column:company_similarity"`
}
