package domain

import (
	"time"
)

type TeamRole string

const (
	TeamRoleAdmin   TeamRole = "admin"
	TeamRoleManager TeamRole = "manager"
	TeamRoleSales   TeamRole = "sales"
)

// User is a CRM user. Password issuance lives outside this service; only the
// profile fields the assistant reads are mapped.
type User struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	FullName       string    `json:"full_name" gorm:"column:full_name"`
	Email          string    `json:"email" gorm:"uniqueIndex"`
	TeamRole       TeamRole  `json:"team_role" gorm:"column:team_role"`
	OrganisationID string    `json:"organisation_id" gorm:"column:organisation_id;index"`
	CreatedAt      time.Time `json:"created_at"`
}
