package models

import (
	"encoding/json"
)

// AdminUser is an administrative identity. EventAccess holds a JSON array of
// event id strings so the same column works on both database dialects; an
// empty list on a non-god admin means no access at all.
type AdminUser struct {
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
	IsGodAdmin   bool   `db:"is_god_admin" json:"is_god_admin"`
	EventAccess  string `db:"event_access" json:"-"`
}

func (a *AdminUser) AccessList() []string {
	if a.EventAccess == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(a.EventAccess), &ids); err != nil {
		return nil
	}
	return ids
}
