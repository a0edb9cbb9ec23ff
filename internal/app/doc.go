// Package app composes the campaign layer into a running application.
//
// # Architecture Role
//
// The app package wires the campaign services to their collaborators and
// stores and manages their lifecycle. It is NOT a business logic layer;
// campaign rules live in internal/app/domain/ and the command flows in
// internal/app/services/.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Main application struct, wiring, and lifecycle
//	├── domain/             # Domain models and pure transition logic
//	│   ├── campaign/       # Campaign aggregate, pricing, schedule, codec
//	│   ├── pledge/         # Pledge and reward token views
//	│   └── registry/       # Local snapshot and receipt records
//	├── services/           # Command and background services
//	│   ├── campaigns/      # Lifecycle commands against the chain
//	│   └── reconcile/      # Counter drift detection and repair
//	├── storage/            # Registry store interfaces and implementations
//	│   ├── interfaces.go   # CampaignStore, ReceiptStore
//	│   ├── memory/         # In-memory implementation for testing
//	│   └── postgres/       # PostgreSQL implementation for production
//	├── httpapi/            # HTTP API handlers and routing
//	├── system/             # Service lifecycle management
//	└── metrics/            # Application metrics
//
// # Dependency Direction
//
//	cmd/campaignserver/, cmd/campaignctl/
//	      │
//	      ▼
//	internal/app/ (composition)
//	      │
//	      ├──► internal/app/services/ (command flows)
//	      │           │
//	      │           └──► internal/app/domain/ (pure transitions)
//	      │
//	      ├──► internal/chain/ (asset store, ledger, token issuer)
//	      │
//	      └──► internal/platform/ (migrations)
//
// The authoritative campaign state lives in the external asset store; the
// local stores are a registry and audit trail, never the source of truth.
package app
