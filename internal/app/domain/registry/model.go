// Package registry holds the campaign layer's local bookkeeping records.
// The external asset store owns the authoritative campaign snapshot; the
// registry is an index of campaigns this deployment has touched plus a
// journal of executed commands the reconciler replays to detect drift after
// a partial external commit.
package registry

import "time"

// Snapshot is the last campaign state this deployment observed.
type Snapshot struct {
	Address            string
	Name               string
	CreatorWallet      string
	Status             string
	Goal               int64
	TotalPledges       int64
	RefundedPledges    int64
	TotalDeposited     int64
	CurrentlyDeposited int64
	LastSyncedAt       time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ReceiptKind classifies a journaled command.
type ReceiptKind string

const (
	KindPledge     ReceiptKind = "pledge"
	KindRefund     ReceiptKind = "refund"
	KindWithdrawal ReceiptKind = "withdrawal"
	KindClaim      ReceiptKind = "claim"
)

// Receipt records one committed command against a campaign. The ledger
// signature ties the journal entry to the external transfer, which is what
// makes post-crash drift detectable.
type Receipt struct {
	ID              string
	CampaignAddress string
	Kind            ReceiptKind
	TokenAddress    string // pledge or reward token, when one was minted or burned
	Wallet          string // backer or creator the funds moved to or from
	Amount          int64
	OrderNumber     int // set for withdrawals
	Signature       string
	CreatedAt       time.Time
}
