package subgraph

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownNetwork is returned when no endpoint is known for a network.
var ErrUnknownNetwork = errors.New("unknown network")

// Networks maps network names to their public orderbook subgraph endpoints.
var Networks = map[string]string{
	"flare":    "https://api.goldsky.com/api/public/project_clv14x04y9kzi01saerx7bxpg/subgraphs/ob4-flare/2024-12-13-9dc7/gn",
	"base":     "https://api.goldsky.com/api/public/project_clv14x04y9kzi01saerx7bxpg/subgraphs/ob4-base/2024-12-13-9c39/gn",
	"polygon":  "https://api.goldsky.com/api/public/project_clv14x04y9kzi01saerx7bxpg/subgraphs/ob4-matic/2024-12-13-d2b4/gn",
	"arbitrum": "https://api.goldsky.com/api/public/project_clv14x04y9kzi01saerx7bxpg/subgraphs/ob4-arbitrum-one/2024-12-13-7435/gn",
	"bsc":      "https://api.goldsky.com/api/public/project_clv14x04y9kzi01saerx7bxpg/subgraphs/ob4-bsc/2024-12-13-2244/gn",
	"linea":    "https://api.goldsky.com/api/public/project_clv14x04y9kzi01saerx7bxpg/subgraphs/ob4-linea/2024-12-13-09c7/gn",
	"ethereum": "https://api.goldsky.com/api/public/project_clv14x04y9kzi01saerx7bxpg/subgraphs/ob4-mainnet/2024-12-13-7f22/gn",
}

// EndpointFor resolves the endpoint of a network. Overrides take precedence
// over the built-in table. Network names are case-insensitive.
func EndpointFor(network string, overrides map[string]string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(network))
	if url, ok := overrides[key]; ok && url != "" {
		return url, nil
	}
	if url, ok := Networks[key]; ok {
		return url, nil
	}
	return "", fmt.Errorf("%w: %q (known: %s)", ErrUnknownNetwork, network, strings.Join(KnownNetworks(), ", "))
}

// KnownNetworks returns the built-in network names in sorted order.
func KnownNetworks() []string {
	names := make([]string, 0, len(Networks))
	for name := range Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
