package model

import "time"

// UsageStat summarises how much a subscription was used over a lookback window.
type UsageStat struct {
	SubscriptionID string
	Minutes        int
	LastUsedAt     *time.Time
	Source         string
	WindowDays     int
	CollectedAt    time.Time
}
