package stakehub

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erisprotocol/alliancehub/internal/stakehub/events"
	"github.com/erisprotocol/alliancehub/internal/stakehub/hubtypes"
	"github.com/erisprotocol/alliancehub/internal/stakehub/ledger"
	"github.com/erisprotocol/alliancehub/internal/stakehub/strategy"
	"github.com/erisprotocol/alliancehub/internal/stakehub/tune"
)

// TuneDelegations recomputes the delegation goal from the configured
// strategy's share vector (spec.md §6 "TuneDelegations {}", §4.F).
// Owner-only. The goal's TunePeriod is taken from Config.EpochPeriod:
// original_source reads a dedicated tune_period field from a constants
// module not present in the retrieval pack, so reusing the epoch
// period (the hub's other "how long is a round" tunable) is the
// recorded open-question decision (see DESIGN.md).
func (h *Hub) TuneDelegations(ctx context.Context, sender string, now int64) (events.Event, error) {
	cfg, _, err := h.Store.Config()
	if err != nil {
		return events.Event{}, err
	}
	if err := cfg.AssertOwner(sender); err != nil {
		return events.Event{}, err
	}

	whitelist, err := h.whitelist(ctx)
	if err != nil {
		return events.Event{}, err
	}

	var gaugeShares map[string]uint64
	switch cfg.Strategy.Kind {
	case strategy.Defined:
		gaugeShares = cfg.Strategy.Defined
	case strategy.Gauges:
		if h.GaugeLoader == nil {
			return events.Event{}, fmt.Errorf("stakehub: delegation strategy is Gauges but no gauge loader is configured")
		}
		if gaugeShares, err = h.GaugeLoader.Load(ctx); err != nil {
			return events.Event{}, fmt.Errorf("stakehub: loading gauge vector: %w", err)
		}
		// An empty vector clears the goal; a non-empty one must validate.
		if len(gaugeShares) > 0 {
			if err := strategy.ValidateGaugeShares(gaugeShares, whitelist); err != nil {
				return events.Event{}, err
			}
		}
	}

	result := tune.Tune(cfg.Strategy.Kind, gaugeShares, now, cfg.EpochPeriod)
	if result.Save {
		if err := h.Store.SaveDelegationGoal(result.Goal); err != nil {
			return events.Event{}, err
		}
	} else if err := h.Store.ClearDelegationGoal(); err != nil {
		return events.Event{}, err
	}

	evt := events.New("erishub/tune_delegations").
		With("sender", sender).
		With("saved", fmt.Sprint(result.Save))

	h.Metrics.MarkTransition("tune_delegations")
	h.Logger.Info("tune_delegations", zap.Bool("saved", result.Save))
	return evt, nil
}

// Rebalance plans and applies redelegations that converge the ledger
// toward the current delegation goal, or a uniform split when none is
// saved (spec.md §6 "Rebalance { min_redelegation? }", §4.F).
// Owner-only.
func (h *Hub) Rebalance(ctx context.Context, sender string, minRedelegation *uint64, now int64) ([]hubtypes.Msg, events.Event, error) {
	cfg, _, err := h.Store.Config()
	if err != nil {
		return nil, events.Event{}, err
	}
	if err := cfg.AssertOwner(sender); err != nil {
		return nil, events.Event{}, err
	}

	l, _, err := h.Store.Delegations()
	if err != nil {
		return nil, events.Event{}, err
	}

	whitelist, err := h.whitelist(ctx)
	if err != nil {
		return nil, events.Event{}, err
	}

	goal, hasGoal, err := h.Store.DelegationGoal()
	if err != nil {
		return nil, events.Event{}, err
	}
	var goalPtr *tune.Goal
	if hasGoal {
		goalPtr = &goal
	}

	current := l.ToMap()
	target := tune.WantedDelegations(goalPtr, now, whitelist, l.Sum())

	var minRe uint64
	if minRedelegation != nil {
		minRe = *minRedelegation
	}
	plan := tune.Rebalance(current, target, minRe)

	moves := make([]ledger.Redelegation, 0, len(plan.Redelegations))
	msgs := make([]hubtypes.Msg, 0, len(plan.Redelegations))
	for _, m := range plan.Redelegations {
		moves = append(moves, ledger.Redelegation{Src: m.Src, Dst: m.Dst, Amount: m.Amount})
		msgs = append(msgs, hubtypes.Msg{Kind: hubtypes.MsgRedelegate, Src: m.Src, Dst: m.Dst, Amount: m.Amount})
	}
	l, err = l.Redelegate(moves)
	if err != nil {
		return nil, events.Event{}, err
	}
	if err := h.Store.SaveDelegations(l); err != nil {
		return nil, events.Event{}, err
	}

	evt := events.New("erishub/rebalance").
		With("sender", sender).
		With("redelegations", fmt.Sprint(len(plan.Redelegations))).
		With("utoken_moved", fmt.Sprint(plan.TotalMoved))

	h.Metrics.MarkTransition("rebalance")
	h.Logger.Info("rebalance", zap.Int("moves", len(plan.Redelegations)), zap.Uint64("moved", plan.TotalMoved))
	return msgs, evt, nil
}
