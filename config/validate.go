package config

import (
	"errors"
	"fmt"
)

var (
	ErrNoAccounts       = errors.New("config: at least one account required")
	ErrDuplicateAccount = errors.New("config: duplicate account id")
	ErrBadVenueMode     = errors.New("config: venue mode must be sim or ws")
)

// Validate 基础校验：账户、费率、撮合来源。
func (c AppConfig) Validate() error {
	if len(c.Accounts) == 0 {
		return ErrNoAccounts
	}
	seen := make(map[string]bool, len(c.Accounts))
	for _, a := range c.Accounts {
		if a.ID == "" {
			return fmt.Errorf("config: account id required")
		}
		if seen[a.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateAccount, a.ID)
		}
		seen[a.ID] = true
		if a.InitialCash < 0 {
			return fmt.Errorf("config: account %s initial cash negative", a.ID)
		}
	}

	switch c.Venue.Mode {
	case "sim":
		if c.Venue.CapacityRatio <= 0 || c.Venue.CapacityRatio > 1 {
			return fmt.Errorf("config: capacityRatio must be in (0,1], got %f", c.Venue.CapacityRatio)
		}
		if c.Venue.SlippageBuy < 0 || c.Venue.SlippageSell < 0 {
			return fmt.Errorf("config: slippage must not be negative")
		}
	case "ws":
		if c.Venue.FeedURL == "" {
			return fmt.Errorf("config: feedURL required in ws mode")
		}
	default:
		return fmt.Errorf("%w: %q", ErrBadVenueMode, c.Venue.Mode)
	}

	if c.Risk.MaxOrderNotional < 0 {
		return fmt.Errorf("config: maxOrderNotional must not be negative")
	}
	if c.Fees.CommissionRate < 0 || c.Fees.StampDutyRate < 0 || c.Fees.TransferFeeRate < 0 || c.Fees.MinCommission < 0 {
		return fmt.Errorf("config: fee rates must not be negative")
	}
	return nil
}
