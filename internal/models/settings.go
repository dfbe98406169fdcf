package models

import "time"

// Settings is the single persisted record of site-wide booking settings.
type Settings struct {
	SecurityDepositEnabled bool      `json:"security_deposit_enabled"`
	SecurityDepositAmount  int64     `json:"security_deposit_amount"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// DefaultSettings is used when no settings row has been saved yet.
func DefaultSettings() Settings {
	return Settings{SecurityDepositEnabled: false, SecurityDepositAmount: 0}
}

// SecurityDeposit returns the deposit to collect, zero when disabled.
func (s Settings) SecurityDeposit() int64 {
	if !s.SecurityDepositEnabled || s.SecurityDepositAmount < 0 {
		return 0
	}
	return s.SecurityDepositAmount
}
