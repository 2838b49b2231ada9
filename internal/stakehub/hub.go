// Package stakehub implements the orchestrator (spec.md §4.I): it
// sequences external calls around the sub-packages' pure state
// transitions and returns the side-effecting messages the host must
// dispatch, mirroring the teacher's vm.go wiring of sub-components
// (mempool, state, block builder) behind one exported type.
//
// Hub is explicitly not safe for concurrent transition calls (spec.md
// §5): the caller serializes invocations, the same way the consensus
// engine serializes block execution into platformvm rather than having
// the VM lock internally.
package stakehub

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erisprotocol/alliancehub/internal/logging"
	"github.com/erisprotocol/alliancehub/internal/stakehub/events"
	"github.com/erisprotocol/alliancehub/internal/stakehub/hubconfig"
	"github.com/erisprotocol/alliancehub/internal/stakehub/hubtypes"
	"github.com/erisprotocol/alliancehub/internal/stakehub/ledger"
	"github.com/erisprotocol/alliancehub/internal/stakehub/metrics"
	"github.com/erisprotocol/alliancehub/internal/stakehub/sharemath"
	"github.com/erisprotocol/alliancehub/internal/stakehub/store"
	"github.com/erisprotocol/alliancehub/internal/stakehub/strategy"
)

// Hub is the top-level orchestrator. Every exported method is one
// transition: it loads the pieces of state it needs from Store,
// computes the new values by calling into the leaf packages, writes
// them back only on success, and returns the queued side-effecting
// messages plus the normative event for that transition.
type Hub struct {
	Store          *store.Store
	ValidatorProxy hubtypes.ValidatorProxy
	Staking        hubtypes.StakingModule
	Bank           hubtypes.BankModule
	TokenFactory   hubtypes.TokenFactory
	GaugeLoader    hubtypes.GaugeLoader // may be nil unless Strategy.Kind == Gauges
	Metrics        *metrics.Metrics
	Logger         logging.Logger
	// SelfAddress is this hub's own address, the only sender Callback
	// accepts (spec.md §6 "Callback(_) — self-invocation only").
	SelfAddress string
}

// New builds a Hub. metrics and logger may be nil/zero-valued;
// metrics.NoOp() and logging.NewNop() are substituted so callers (tests,
// or hosts that don't want instrumentation) don't have to construct
// them explicitly.
func New(
	st *store.Store,
	validatorProxy hubtypes.ValidatorProxy,
	staking hubtypes.StakingModule,
	bank hubtypes.BankModule,
	tokenFactory hubtypes.TokenFactory,
	gaugeLoader hubtypes.GaugeLoader,
	m *metrics.Metrics,
	logger logging.Logger,
	selfAddress string,
) *Hub {
	if m == nil {
		m = metrics.NoOp()
	}
	if logger == (logging.Logger{}) {
		logger = logging.NewNop()
	}
	return &Hub{
		Store:          st,
		ValidatorProxy: validatorProxy,
		Staking:        staking,
		Bank:           bank,
		TokenFactory:   tokenFactory,
		GaugeLoader:    gaugeLoader,
		Metrics:        m,
		Logger:         logger,
		SelfAddress:    selfAddress,
	}
}

// txState is the set of singletons almost every transition touches,
// loaded once at the top of a method and written back as a unit on
// success — the in-memory analogue of the teacher's per-block state
// diff applied atomically at the end of block execution.
type txState struct {
	token  store.StakeToken
	ledger ledger.Ledger
	config hubconfig.Config
}

func (h *Hub) loadTxState() (txState, error) {
	var ts txState
	var err error
	if ts.token, _, err = h.Store.StakeToken(); err != nil {
		return ts, err
	}
	if ts.ledger, _, err = h.Store.Delegations(); err != nil {
		return ts, err
	}
	if ts.config, _, err = h.Store.Config(); err != nil {
		return ts, err
	}
	return ts, nil
}

func (h *Hub) commitTxState(ts txState) error {
	if err := h.Store.SaveStakeToken(ts.token); err != nil {
		return err
	}
	if err := h.Store.SaveDelegations(ts.ledger); err != nil {
		return err
	}
	return h.Store.SaveConfig(ts.config)
}

func (h *Hub) whitelist(ctx context.Context) ([]string, error) {
	wl, err := h.ValidatorProxy.Whitelist(ctx)
	if err != nil {
		return nil, fmt.Errorf("stakehub: loading validator whitelist: %w", err)
	}
	return wl, nil
}

// pickBondTarget dispatches Strategy.PickBondTarget (Uniform) or
// Strategy.FindNewDelegation (Gauges/Defined), resolving a Gauges share
// vector through the configured loader when needed (spec.md §4.D).
func (h *Hub) pickBondTarget(ctx context.Context, cfg hubconfig.Config, whitelist []string, current map[string]uint64, totalBonded, deposit uint64) (string, error) {
	switch cfg.Strategy.Kind {
	case strategy.Uniform:
		return cfg.Strategy.PickBondTarget(whitelist, current)
	case strategy.Defined:
		return strategy.FindNewDelegation(cfg.Strategy.Defined, whitelist, current, totalBonded, deposit)
	case strategy.Gauges:
		shares, err := h.loadGaugeShares(ctx, whitelist)
		if err != nil {
			return "", err
		}
		return strategy.FindNewDelegation(shares, whitelist, current, totalBonded, deposit)
	default:
		return "", fmt.Errorf("stakehub: unknown strategy kind %d", cfg.Strategy.Kind)
	}
}

func (h *Hub) loadGaugeShares(ctx context.Context, whitelist []string) (map[string]uint64, error) {
	if h.GaugeLoader == nil {
		return nil, fmt.Errorf("stakehub: delegation strategy is Gauges but no gauge loader is configured")
	}
	shares, err := h.GaugeLoader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("stakehub: loading gauge vector: %w", err)
	}
	if err := strategy.ValidateGaugeShares(shares, whitelist); err != nil {
		return nil, err
	}
	return shares, nil
}

func receiverOr(receiver, sender string) string {
	if receiver == "" {
		return sender
	}
	return receiver
}

// Bond deposits utoken and mints shares to receiver (sender if empty),
// spec.md §6 "Bond { receiver? }".
func (h *Hub) Bond(ctx context.Context, sender, receiver string, amount uint64) ([]hubtypes.Msg, events.Event, error) {
	if amount == 0 {
		return nil, events.Event{}, hubtypes.ErrZeroAmount
	}
	to := receiverOr(receiver, sender)

	ts, err := h.loadTxState()
	if err != nil {
		return nil, events.Event{}, err
	}

	whitelist, err := h.whitelist(ctx)
	if err != nil {
		return nil, events.Event{}, err
	}

	target, err := h.pickBondTarget(ctx, ts.config, whitelist, ts.ledger.ToMap(), ts.token.TotalUtokenBonded, amount)
	if err != nil {
		h.Logger.Warn("bond rejected", zap.Error(err))
		return nil, events.Event{}, err
	}

	shares := sharemath.ComputeMintAmount(ts.token.TotalSupply, amount, ts.token.TotalUtokenBonded)

	ts.ledger = ts.ledger.Delegate(ledger.Delegation{Validator: target, Amount: amount})
	ts.token.TotalSupply += shares
	ts.token.TotalUtokenBonded += amount

	if err := h.commitTxState(ts); err != nil {
		return nil, events.Event{}, err
	}

	msgs := []hubtypes.Msg{
		{Kind: hubtypes.MsgDelegate, Validator: target, Amount: amount},
		{Kind: hubtypes.MsgMint, Denom: ts.token.StakeDenom, Amount: shares, To: to},
	}
	evt := events.New("erishub/bond").
		With("sender", sender).
		With("receiver", to).
		With("validator", target).
		With("utoken_amount", fmt.Sprint(amount)).
		With("ustake_minted", fmt.Sprint(shares))

	h.Metrics.SetTotals(ts.token.TotalUtokenBonded, ts.token.TotalSupply)
	h.Metrics.MarkTransition("bond")
	h.Logger.Info("bond", zap.String("sender", sender), zap.Uint64("amount", amount), zap.Uint64("shares", shares))
	return msgs, evt, nil
}

// Donate deposits utoken without minting shares, raising the exchange
// rate directly. Gated by Config.AllowDonations (spec.md §6 "Donate
// {}").
func (h *Hub) Donate(ctx context.Context, sender string, amount uint64) ([]hubtypes.Msg, events.Event, error) {
	if amount == 0 {
		return nil, events.Event{}, hubtypes.ErrZeroAmount
	}

	ts, err := h.loadTxState()
	if err != nil {
		return nil, events.Event{}, err
	}
	if !ts.config.AllowDonations {
		return nil, events.Event{}, hubtypes.ErrDonationsDisabled
	}

	whitelist, err := h.whitelist(ctx)
	if err != nil {
		return nil, events.Event{}, err
	}
	target, err := h.pickBondTarget(ctx, ts.config, whitelist, ts.ledger.ToMap(), ts.token.TotalUtokenBonded, amount)
	if err != nil {
		return nil, events.Event{}, err
	}

	ts.ledger = ts.ledger.Delegate(ledger.Delegation{Validator: target, Amount: amount})
	ts.token.TotalUtokenBonded += amount

	if err := h.commitTxState(ts); err != nil {
		return nil, events.Event{}, err
	}

	msgs := []hubtypes.Msg{{Kind: hubtypes.MsgDelegate, Validator: target, Amount: amount}}
	evt := events.New("erishub/donate").
		With("sender", sender).
		With("validator", target).
		With("utoken_amount", fmt.Sprint(amount))

	h.Metrics.SetTotals(ts.token.TotalUtokenBonded, ts.token.TotalSupply)
	h.Metrics.MarkTransition("donate")
	h.Logger.Info("donate", zap.String("sender", sender), zap.Uint64("amount", amount))
	return msgs, evt, nil
}
