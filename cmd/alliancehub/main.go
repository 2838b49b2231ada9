// Command alliancehub is a thin inspection entry point over a hub's
// on-disk state (SPEC_FULL.md §0): it opens the store directly and
// prints one view as JSON, for operators checking on a deployment
// without standing up the host chain that owns the live Bank/Staking
// collaborators. It deliberately carries no subcommands for mutating
// transitions — every state change here goes through a host dispatching
// into a *stakehub.Hub, never through this binary.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/erisprotocol/alliancehub/internal/stakehub/ledger"
	"github.com/erisprotocol/alliancehub/internal/stakehub/store"
)

func main() {
	dbPath := flag.String("db", "", "path to the hub's goleveldb directory")
	view := flag.String("view", "config", "one of: config, stake-token, pending-batch, previous-batches, delegations, exchange-rates")
	flag.Parse()

	if *dbPath == "" {
		fmt.Println("couldn't start: -db is required")
		os.Exit(1)
	}

	kv, err := store.OpenLevelDB(*dbPath)
	if err != nil {
		fmt.Printf("couldn't open store at %s: %s\n", *dbPath, err)
		os.Exit(1)
	}
	defer kv.Close()

	st := store.New(kv)

	out, err := render(st, *view)
	if err != nil {
		fmt.Printf("couldn't render view %q: %s\n", *view, err)
		os.Exit(1)
	}
	fmt.Println(out)
}

func render(st *store.Store, view string) (string, error) {
	var v interface{}
	var err error

	switch view {
	case "config":
		v, _, err = st.Config()
	case "stake-token":
		v, _, err = st.StakeToken()
	case "pending-batch":
		v, _, err = st.PendingBatch()
	case "previous-batches":
		v, err = st.AllPreviousBatches()
	case "delegations":
		var l ledger.Ledger
		l, _, err = st.Delegations()
		v = l.ToMap()
	case "exchange-rates":
		v, err = st.ExchangeRates(0, 1<<62)
	default:
		return "", fmt.Errorf("unknown view %q", view)
	}
	if err != nil {
		return "", err
	}

	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
