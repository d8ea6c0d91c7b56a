package models

type Greenhouse struct {
	ID       int64  `json:"id" db:"id"`
	TenantID int64  `json:"tenant_id,omitempty" db:"tenant_id"`
	Name     string `json:"name" db:"name"`
	Location string `json:"location" db:"location"`
}
