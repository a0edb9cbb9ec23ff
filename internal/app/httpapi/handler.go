package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	app "github.com/forgelight-labs/campaign_layer/internal/app"
	"github.com/forgelight-labs/campaign_layer/internal/app/domain/campaign"
	"github.com/forgelight-labs/campaign_layer/internal/app/services/campaigns"
	"github.com/forgelight-labs/campaign_layer/internal/chain"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a mux exposing the core REST API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}
	mux := http.NewServeMux()
	mux.HandleFunc("/campaigns", h.campaigns)
	mux.HandleFunc("/campaigns/", h.campaignResources)
	return mux
}

// campaignView is the wire shape of a campaign snapshot.
type campaignView struct {
	Address            string             `json:"address"`
	Name               string             `json:"name"`
	Symbol             string             `json:"symbol"`
	Description        string             `json:"description"`
	CreatorWallet      string             `json:"creator_wallet"`
	Status             string             `json:"status"`
	Goal               int64              `json:"goal"`
	DurationMonths     int                `json:"duration_months"`
	ProjectStartDate   int64              `json:"project_start_date"`
	BasePrice          int64              `json:"base_price"`
	BondingSlope       int64              `json:"bonding_slope"`
	TotalPledges       int64              `json:"total_pledges"`
	RefundedPledges    int64              `json:"refunded_pledges"`
	TotalDeposited     int64              `json:"total_deposited"`
	CurrentlyDeposited int64              `json:"currently_deposited"`
	PledgePrice        int64              `json:"pledge_price"`
	PledgesCollection  string             `json:"pledges_collection,omitempty"`
	RewardsCollection  string             `json:"rewards_collection,omitempty"`
	RewardsIssuer      string             `json:"rewards_issuer,omitempty"`
	PaymentOrders      []paymentOrderView `json:"payment_orders,omitempty"`
}

type paymentOrderView struct {
	OrderNumber  int    `json:"order_number"`
	DueTimestamp int64  `json:"due_timestamp"`
	Amount       int64  `json:"amount"`
	Status       string `json:"status"`
}

func viewCampaign(c campaign.Campaign) campaignView {
	view := campaignView{
		Address:            c.Address,
		Name:               c.Name,
		Symbol:             c.Symbol,
		Description:        c.Description,
		CreatorWallet:      c.CreatorWallet,
		Status:             string(c.Status()),
		Goal:               c.Goal,
		DurationMonths:     c.DurationMonths,
		ProjectStartDate:   c.ProjectStartDate,
		BasePrice:          c.BasePrice,
		BondingSlope:       c.BondingSlope,
		TotalPledges:       c.TotalPledges,
		RefundedPledges:    c.RefundedPledges,
		TotalDeposited:     c.TotalDeposited,
		CurrentlyDeposited: c.CurrentlyDeposited,
		PledgePrice:        c.PledgePrice(),
	}
	if collection, ok := c.PledgesCollection(); ok {
		view.PledgesCollection = collection
	}
	if final, ok := c.Detail.(campaign.Finalized); ok {
		view.RewardsCollection = final.RewardsCollection
		view.RewardsIssuer = final.RewardsIssuer
	}
	for _, order := range c.PaymentOrders {
		view.PaymentOrders = append(view.PaymentOrders, paymentOrderView{
			OrderNumber:  order.OrderNumber,
			DueTimestamp: order.DueTimestamp,
			Amount:       order.Amount,
			Status:       string(order.Status),
		})
	}
	return view
}

func (h *handler) campaigns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var payload struct {
			Name             string `json:"name"`
			Symbol           string `json:"symbol"`
			Description      string `json:"description"`
			CreatorWallet    string `json:"creator_wallet"`
			Goal             int64  `json:"goal"`
			DurationMonths   int    `json:"duration_months"`
			ProjectStartDate int64  `json:"project_start_date"`
			BasePrice        int64  `json:"base_price"`
			BondingSlope     int64  `json:"bonding_slope"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		created, err := h.app.Campaigns.Create(r.Context(), campaigns.CreateParams{
			Name:             payload.Name,
			Symbol:           payload.Symbol,
			Description:      payload.Description,
			CreatorWallet:    payload.CreatorWallet,
			Goal:             payload.Goal,
			DurationMonths:   payload.DurationMonths,
			ProjectStartDate: payload.ProjectStartDate,
			BasePrice:        payload.BasePrice,
			BondingSlope:     payload.BondingSlope,
		})
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, viewCampaign(created))

	case http.MethodGet:
		snapshots, err := h.app.Registry.ListSnapshots(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, snapshots)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) campaignResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/campaigns"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	address := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		current, err := h.app.Campaigns.Get(r.Context(), address)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, viewCampaign(current))
		return
	}

	switch parts[1] {
	case "initialize":
		h.initialize(w, r, address)
	case "pledges":
		h.pledges(w, r, address)
	case "refunds":
		h.refunds(w, r, address)
	case "withdrawals":
		h.withdrawals(w, r, address)
	case "finalize":
		h.finalize(w, r, address)
	case "claims":
		h.claims(w, r, address)
	case "rewards":
		h.rewards(w, r, address)
	case "receipts":
		h.receipts(w, r, address)
	case "reconcile":
		h.reconcile(w, r, address)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *handler) initialize(w http.ResponseWriter, r *http.Request, address string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		CreatorWallet string `json:"creator_wallet"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := h.app.Campaigns.Initialize(r.Context(), address, payload.CreatorWallet)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, viewCampaign(updated))
}

func (h *handler) pledges(w http.ResponseWriter, r *http.Request, address string) {
	switch r.Method {
	case http.MethodPost:
		var payload struct {
			BackerWallet string `json:"backer_wallet"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		minted, err := h.app.Campaigns.Pledge(r.Context(), address, payload.BackerWallet)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, minted)

	case http.MethodGet:
		owner := r.URL.Query().Get("owner")
		pledges, err := h.app.Campaigns.Pledges(r.Context(), address, owner)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, pledges)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) refunds(w http.ResponseWriter, r *http.Request, address string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		PledgeAddress string `json:"pledge_address"`
		BackerWallet  string `json:"backer_wallet"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.app.Campaigns.Refund(r.Context(), address, payload.PledgeAddress, payload.BackerWallet); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) withdrawals(w http.ResponseWriter, r *http.Request, address string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		CreatorWallet string `json:"creator_wallet"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	claimed, err := h.app.Campaigns.Withdraw(r.Context(), address, payload.CreatorWallet)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, claimed)
}

func (h *handler) finalize(w http.ResponseWriter, r *http.Request, address string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		CreatorWallet string `json:"creator_wallet"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := h.app.Campaigns.Finalize(r.Context(), address, payload.CreatorWallet)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, viewCampaign(updated))
}

func (h *handler) claims(w http.ResponseWriter, r *http.Request, address string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		PledgeAddress string `json:"pledge_address"`
		BackerWallet  string `json:"backer_wallet"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	reward, err := h.app.Campaigns.Claim(r.Context(), address, payload.PledgeAddress, payload.BackerWallet)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, reward)
}

func (h *handler) rewards(w http.ResponseWriter, r *http.Request, address string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rewards, err := h.app.Campaigns.Rewards(r.Context(), address, r.URL.Query().Get("owner"))
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *handler) receipts(w http.ResponseWriter, r *http.Request, address string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	receipts, err := h.app.Receipts.ListReceipts(r.Context(), address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

func (h *handler) reconcile(w http.ResponseWriter, r *http.Request, address string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	report, err := h.app.Reconcile.Reconcile(r.Context(), address)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		CampaignAddress string `json:"campaign_address"`
		LiveTokens      int64  `json:"live_tokens"`
		NetSupply       int64  `json:"net_supply"`
		Drift           int64  `json:"drift"`
		Repaired        bool   `json:"repaired"`
	}{
		CampaignAddress: report.CampaignAddress,
		LiveTokens:      report.LiveTokens,
		NetSupply:       report.NetSupply,
		Drift:           report.Drift,
		Repaired:        report.Repaired,
	})
}

// statusForError maps domain sentinel errors to HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, chain.ErrAssetNotFound):
		return http.StatusNotFound
	case errors.Is(err, campaign.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, campaign.ErrInvalidCampaignState),
		errors.Is(err, campaign.ErrInvalidRefundState),
		errors.Is(err, campaign.ErrInsufficientFunds),
		errors.Is(err, campaign.ErrOrderNotClaimable):
		return http.StatusConflict
	case errors.Is(err, campaign.ErrMalformedCampaign):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
