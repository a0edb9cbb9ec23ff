// Package pledge holds the backer-side records: a pledge token live until it
// is refunded or claimed, and the reward issued in exchange for a burned
// pledge once the campaign is finalized.
package pledge

import "time"

// Pledge is one backer's funding commitment, represented as a
// single-ownership token in the campaign's pledge collection.
type Pledge struct {
	Address         string
	Owner           string
	CampaignAddress string
	Number          int64 // sequence within the campaign, from totalPledges
	Price           int64 // lamports paid at mint time
	CreatedAt       time.Time
}

// Reward is the token issued to a backer in exchange for a burned pledge.
type Reward struct {
	Address         string
	Owner           string
	CampaignAddress string
	PledgeAddress   string // the pledge burned to obtain this reward
	CreatedAt       time.Time
}
