package evm

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"quoteScope/internal/model"
)

// RegistryEntry maps a canonical token pair and fee tier to a pool address.
type RegistryEntry struct {
	Token0 string `json:"token0"`
	Token1 string `json:"token1"`
	Fee    uint32 `json:"fee"`
	Pool   string `json:"pool"`
}

// Registry resolves pairs to pool addresses. EVM chains have no pair
// lookup without a factory call, so deployments list their pools up front.
type Registry struct {
	pools map[string]string
}

// LoadRegistry reads a JSON array of RegistryEntry from a file.
func LoadRegistry(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pool registry: %w", err)
	}
	var entries []RegistryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode pool registry: %w", err)
	}

	registry := &Registry{pools: make(map[string]string, len(entries))}
	for _, entry := range entries {
		if entry.Pool == "" {
			return nil, fmt.Errorf("pool registry entry %s/%s fee %d: missing pool address", entry.Token0, entry.Token1, entry.Fee)
		}
		registry.pools[registryKey(entry.Token0, entry.Token1, entry.Fee)] = entry.Pool
	}
	return registry, nil
}

// Lookup returns the pool address for a canonical pair and fee tier.
func (r *Registry) Lookup(token0, token1 model.TokenClassKey, fee model.FeeTier) (string, bool) {
	addr, ok := r.pools[registryKey(token0.String(), token1.String(), uint32(fee))]
	return addr, ok
}

func registryKey(token0, token1 string, fee uint32) string {
	return fmt.Sprintf("%s/%s/%d", strings.ToLower(token0), strings.ToLower(token1), fee)
}
