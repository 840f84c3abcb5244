package types

import "time"

// Entity carries the audit timestamps embedded by persisted records.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity stamps both timestamps with at, normalized to UTC.
func NewEntity(at time.Time) Entity {
	at = at.UTC()
	return Entity{CreatedAt: at, UpdatedAt: at}
}

// Touch moves UpdatedAt forward to at.
func (e *Entity) Touch(at time.Time) {
	e.UpdatedAt = at.UTC()
}
