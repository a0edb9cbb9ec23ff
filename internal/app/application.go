package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/forgelight-labs/campaign_layer/internal/app/services/campaigns"
	"github.com/forgelight-labs/campaign_layer/internal/app/services/reconcile"
	"github.com/forgelight-labs/campaign_layer/internal/app/storage"
	"github.com/forgelight-labs/campaign_layer/internal/app/storage/memory"
	"github.com/forgelight-labs/campaign_layer/internal/app/system"
	"github.com/forgelight-labs/campaign_layer/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Campaigns storage.CampaignStore
	Receipts  storage.ReceiptStore
}

// Dependencies are the external collaborators campaign commands act on. All
// three are usually the same chain client; tests substitute fakes.
type Dependencies struct {
	Assets campaigns.AssetStore
	Ledger campaigns.Ledger
	Tokens campaigns.TokenIssuer
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Campaigns *campaigns.Service
	Reconcile *reconcile.Service
	Registry  storage.CampaignStore
	Receipts  storage.ReceiptStore
}

// New builds a fully initialised application with the provided stores and
// collaborators.
func New(deps Dependencies, stores Stores, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}
	if deps.Assets == nil {
		return nil, fmt.Errorf("asset store is required")
	}

	mem := memory.New()
	if stores.Campaigns == nil {
		stores.Campaigns = mem
	}
	if stores.Receipts == nil {
		stores.Receipts = mem
	}

	manager := system.NewManager()

	campaignService := campaigns.New(deps.Assets, deps.Ledger, deps.Tokens, stores.Campaigns, stores.Receipts, log)
	reconcileService := reconcile.New(deps.Assets, log)

	if err := manager.Register(system.NoopService{ServiceName: "campaigns"}); err != nil {
		return nil, fmt.Errorf("register campaigns service: %w", err)
	}

	schedule := strings.TrimSpace(os.Getenv("RECONCILE_SCHEDULE"))
	runner := reconcile.NewRunner(reconcileService, stores.Campaigns, schedule, log)
	if err := manager.Register(runner); err != nil {
		return nil, fmt.Errorf("register %s: %w", runner.Name(), err)
	}

	return &Application{
		manager:   manager,
		log:       log,
		Campaigns: campaignService,
		Reconcile: reconcileService,
		Registry:  stores.Campaigns,
		Receipts:  stores.Receipts,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
