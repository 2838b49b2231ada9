package stakehub

import (
	"context"

	"go.uber.org/zap"

	"github.com/erisprotocol/alliancehub/internal/stakehub/events"
	"github.com/erisprotocol/alliancehub/internal/stakehub/hubconfig"
)

// TransferOwnership proposes a new owner (spec.md §6
// "TransferOwnership { new_owner }", §4.G two-step transfer).
func (h *Hub) TransferOwnership(sender, newOwner string) (events.Event, error) {
	cfg, _, err := h.Store.Config()
	if err != nil {
		return events.Event{}, err
	}
	cfg, err = hubconfig.TransferOwnership(cfg, sender, newOwner)
	if err != nil {
		return events.Event{}, err
	}
	if err := h.Store.SaveConfig(cfg); err != nil {
		return events.Event{}, err
	}

	h.Metrics.MarkTransition("transfer_ownership")
	h.Logger.Info("transfer_ownership", zap.String("new_owner", newOwner))
	return events.New("erishub/transfer_ownership").With("sender", sender).With("new_owner", newOwner), nil
}

// DropOwnershipProposal clears any pending ownership transfer (spec.md
// §6 "DropOwnershipProposal {}").
func (h *Hub) DropOwnershipProposal(sender string) (events.Event, error) {
	cfg, _, err := h.Store.Config()
	if err != nil {
		return events.Event{}, err
	}
	cfg, err = hubconfig.DropOwnershipProposal(cfg, sender)
	if err != nil {
		return events.Event{}, err
	}
	if err := h.Store.SaveConfig(cfg); err != nil {
		return events.Event{}, err
	}

	h.Metrics.MarkTransition("drop_ownership_proposal")
	h.Logger.Info("drop_ownership_proposal", zap.String("sender", sender))
	return events.New("erishub/drop_ownership_proposal").With("sender", sender), nil
}

// AcceptOwnership commits a pending ownership transfer (spec.md §6
// "AcceptOwnership {}").
func (h *Hub) AcceptOwnership(sender string) (events.Event, error) {
	cfg, _, err := h.Store.Config()
	if err != nil {
		return events.Event{}, err
	}
	cfg, err = hubconfig.AcceptOwnership(cfg, sender)
	if err != nil {
		return events.Event{}, err
	}
	if err := h.Store.SaveConfig(cfg); err != nil {
		return events.Event{}, err
	}

	h.Metrics.MarkTransition("accept_ownership")
	h.Logger.Info("accept_ownership", zap.String("new_owner", sender))
	return events.New("erishub/accept_ownership").With("new_owner", sender), nil
}

// UpdateConfig applies a set of optional field changes in the spec's
// fixed order (spec.md §6 "UpdateConfig { …optional… }", §4.G+).
func (h *Hub) UpdateConfig(ctx context.Context, sender string, update hubconfig.Update) (events.Event, error) {
	cfg, _, err := h.Store.Config()
	if err != nil {
		return events.Event{}, err
	}

	var whitelist []string
	if update.Strategy != nil {
		whitelist, err = h.whitelist(ctx)
		if err != nil {
			return events.Event{}, err
		}
	}

	cfg, err = hubconfig.UpdateConfig(cfg, sender, update, whitelist)
	if err != nil {
		h.Logger.Warn("update_config rejected", zap.Error(err))
		return events.Event{}, err
	}
	if err := h.Store.SaveConfig(cfg); err != nil {
		return events.Event{}, err
	}

	h.Metrics.MarkTransition("update_config")
	h.Logger.Info("update_config", zap.String("sender", sender))
	return events.New("erishub/update_config").With("sender", sender), nil
}
