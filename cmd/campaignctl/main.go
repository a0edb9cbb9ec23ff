// Package main implements campaignctl, the operator CLI for driving a
// campaign through its lifecycle against the asset-ledger endpoint.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/forgelight-labs/campaign_layer/internal/app/services/campaigns"
	"github.com/forgelight-labs/campaign_layer/internal/app/services/reconcile"
	"github.com/forgelight-labs/campaign_layer/internal/app/storage/memory"
	"github.com/forgelight-labs/campaign_layer/internal/chain"
	"github.com/forgelight-labs/campaign_layer/internal/config"
	"github.com/forgelight-labs/campaign_layer/pkg/logger"
)

const usage = `Usage: campaignctl <command> [flags]

Commands:
  create      Create a draft campaign
  show        Print the current campaign state
  initialize  Move a draft campaign to active
  pledge      Buy one pledge at the current curve price
  refund      Refund a pledge at the current curve value
  withdraw    Claim every due payment order and pause the campaign
  finalize    Set up rewards and complete the campaign
  claim       Exchange a pledge for a reward
  pledges     List a wallet's pledges in a campaign
  rewards     List a wallet's rewards in a campaign
  reconcile   Check and repair a campaign's counters
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "create":
		runCreate(ctx, os.Args[2:])
	case "show":
		runShow(ctx, os.Args[2:])
	case "initialize":
		runInitialize(ctx, os.Args[2:])
	case "pledge":
		runPledge(ctx, os.Args[2:])
	case "refund":
		runRefund(ctx, os.Args[2:])
	case "withdraw":
		runWithdraw(ctx, os.Args[2:])
	case "finalize":
		runFinalize(ctx, os.Args[2:])
	case "claim":
		runClaim(ctx, os.Args[2:])
	case "pledges":
		runPledges(ctx, os.Args[2:])
	case "rewards":
		runRewards(ctx, os.Args[2:])
	case "reconcile":
		runReconcile(ctx, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
}

// newService builds a campaign service over the configured RPC endpoint. The
// CLI keeps no registry; the asset store is the only state it touches.
func newService() *campaigns.Service {
	cfg := config.LoadOrDefault()
	if v := os.Getenv("CHAIN_RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}

	client, err := chain.NewClient(chain.Config{
		RPCURL:            cfg.Chain.RPCURL,
		Timeout:           cfg.Chain.Timeout(),
		RequestsPerSecond: cfg.Chain.RequestsPerSecond,
	})
	if err != nil {
		log.Fatalf("configure chain client: %v", err)
	}

	mem := memory.New()
	return campaigns.New(client, client, client, mem, mem, logger.New(logger.Config{
		Component: "campaignctl",
		Level:     cfg.LogLevel,
	}))
}

func newChainClient() *chain.Client {
	cfg := config.LoadOrDefault()
	if v := os.Getenv("CHAIN_RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	client, err := chain.NewClient(chain.Config{
		RPCURL:            cfg.Chain.RPCURL,
		Timeout:           cfg.Chain.Timeout(),
		RequestsPerSecond: cfg.Chain.RequestsPerSecond,
	})
	if err != nil {
		log.Fatalf("configure chain client: %v", err)
	}
	return client
}

func runCreate(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	name := fs.String("name", "", "Campaign name")
	symbol := fs.String("symbol", "", "Campaign symbol")
	description := fs.String("description", "", "Campaign description")
	creator := fs.String("creator", "", "Creator wallet address")
	goal := fs.Int64("goal", 0, "Funding goal in lamports")
	duration := fs.Int("duration", 0, "Project duration in months")
	start := fs.Int64("start", 0, "Project start date, unix seconds")
	basePrice := fs.Int64("base-price", 0, "Bonding curve base price (default 100000000)")
	slope := fs.Int64("slope", 0, "Bonding curve slope (default 10000000)")
	fs.Parse(args)

	created, err := newService().Create(ctx, campaigns.CreateParams{
		Name:             *name,
		Symbol:           *symbol,
		Description:      *description,
		CreatorWallet:    *creator,
		Goal:             *goal,
		DurationMonths:   *duration,
		ProjectStartDate: *start,
		BasePrice:        *basePrice,
		BondingSlope:     *slope,
	})
	if err != nil {
		log.Fatalf("create campaign: %v", err)
	}
	fmt.Printf("campaign created at %s\n", created.Address)
}

func runShow(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	address := fs.String("campaign", "", "Campaign address")
	fs.Parse(args)

	current, err := newService().Get(ctx, *address)
	if err != nil {
		log.Fatalf("load campaign: %v", err)
	}

	out := struct {
		Address            string `json:"address"`
		Name               string `json:"name"`
		Status             string `json:"status"`
		CreatorWallet      string `json:"creatorWallet"`
		Goal               int64  `json:"goal"`
		DurationMonths     int    `json:"durationMonths"`
		TotalPledges       int64  `json:"totalPledges"`
		RefundedPledges    int64  `json:"refundedPledges"`
		TotalDeposited     int64  `json:"totalDeposited"`
		CurrentlyDeposited int64  `json:"currentlyDeposited"`
		PledgePrice        int64  `json:"pledgePrice"`
	}{
		Address:            current.Address,
		Name:               current.Name,
		Status:             string(current.Status()),
		CreatorWallet:      current.CreatorWallet,
		Goal:               current.Goal,
		DurationMonths:     current.DurationMonths,
		TotalPledges:       current.TotalPledges,
		RefundedPledges:    current.RefundedPledges,
		TotalDeposited:     current.TotalDeposited,
		CurrentlyDeposited: current.CurrentlyDeposited,
		PledgePrice:        current.PledgePrice(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}

func runInitialize(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("initialize", flag.ExitOnError)
	address := fs.String("campaign", "", "Campaign address")
	creator := fs.String("creator", "", "Creator wallet address")
	fs.Parse(args)

	updated, err := newService().Initialize(ctx, *address, *creator)
	if err != nil {
		log.Fatalf("initialize campaign: %v", err)
	}
	collection, _ := updated.PledgesCollection()
	fmt.Printf("campaign active, pledges collection %s\n", collection)
}

func runPledge(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("pledge", flag.ExitOnError)
	address := fs.String("campaign", "", "Campaign address")
	backer := fs.String("backer", "", "Backer wallet address")
	fs.Parse(args)

	minted, err := newService().Pledge(ctx, *address, *backer)
	if err != nil {
		log.Fatalf("pledge: %v", err)
	}
	fmt.Printf("pledge #%d minted at %s for %d lamports\n", minted.Number, minted.Address, minted.Price)
}

func runRefund(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("refund", flag.ExitOnError)
	address := fs.String("campaign", "", "Campaign address")
	pledgeAddr := fs.String("pledge", "", "Pledge token address")
	backer := fs.String("backer", "", "Backer wallet address")
	fs.Parse(args)

	if err := newService().Refund(ctx, *address, *pledgeAddr, *backer); err != nil {
		log.Fatalf("refund: %v", err)
	}
	fmt.Println("pledge refunded")
}

func runWithdraw(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("withdraw", flag.ExitOnError)
	address := fs.String("campaign", "", "Campaign address")
	creator := fs.String("creator", "", "Creator wallet address")
	fs.Parse(args)

	claimed, err := newService().Withdraw(ctx, *address, *creator)
	if err != nil {
		log.Fatalf("withdraw: %v", err)
	}
	for _, order := range claimed {
		fmt.Printf("payment order %d settled for %d lamports (%s)\n", order.OrderNumber, order.Amount, order.Signature)
	}
}

func runFinalize(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("finalize", flag.ExitOnError)
	address := fs.String("campaign", "", "Campaign address")
	creator := fs.String("creator", "", "Creator wallet address")
	fs.Parse(args)

	updated, err := newService().Finalize(ctx, *address, *creator)
	if err != nil {
		log.Fatalf("finalize: %v", err)
	}
	fmt.Printf("campaign finalized with %d rewards available\n", updated.NetSupply())
}

func runClaim(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("claim", flag.ExitOnError)
	address := fs.String("campaign", "", "Campaign address")
	pledgeAddr := fs.String("pledge", "", "Pledge token address")
	backer := fs.String("backer", "", "Backer wallet address")
	fs.Parse(args)

	reward, err := newService().Claim(ctx, *address, *pledgeAddr, *backer)
	if err != nil {
		log.Fatalf("claim: %v", err)
	}
	fmt.Printf("reward minted at %s\n", reward.Address)
}

func runPledges(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("pledges", flag.ExitOnError)
	address := fs.String("campaign", "", "Campaign address")
	owner := fs.String("owner", "", "Wallet to list pledges for")
	fs.Parse(args)

	pledges, err := newService().Pledges(ctx, *address, *owner)
	if err != nil {
		log.Fatalf("list pledges: %v", err)
	}
	for _, p := range pledges {
		fmt.Println(p.Address)
	}
}

func runRewards(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("rewards", flag.ExitOnError)
	address := fs.String("campaign", "", "Campaign address")
	owner := fs.String("owner", "", "Wallet to list rewards for")
	fs.Parse(args)

	rewards, err := newService().Rewards(ctx, *address, *owner)
	if err != nil {
		log.Fatalf("list rewards: %v", err)
	}
	for _, r := range rewards {
		fmt.Println(r.Address)
	}
}

func runReconcile(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	address := fs.String("campaign", "", "Campaign address")
	fs.Parse(args)

	svc := reconcile.New(newChainClient(), logger.NewDefault("campaignctl"))
	report, err := svc.Reconcile(ctx, *address)
	if err != nil {
		log.Fatalf("reconcile: %v", err)
	}
	if report.Drift == 0 {
		fmt.Println("counters consistent with live tokens")
		return
	}
	fmt.Printf("drift %d repaired=%v (live %d, counted %d)\n", report.Drift, report.Repaired, report.LiveTokens, report.NetSupply)
}
