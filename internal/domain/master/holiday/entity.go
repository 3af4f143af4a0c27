package holiday

import "time"

type Type string

const (
	TypeRegular Type = "regular"
	TypeDouble  Type = "double"
	TypeSpecial Type = "special"
)

// Holiday is a company calendar day paid on top of worked hours.
type Holiday struct {
	ID        string
	CompanyID string
	Name      string
	Date      time.Time
	Type      Type
	CreatedAt time.Time
}
