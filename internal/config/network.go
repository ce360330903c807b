// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package config

import (
	"fmt"
	"strings"
)

const DefaultNetwork = "hardhat"

// A network the ledger can be deployed to.
type Network struct {
	Name    string
	ChainID int64
	URL     string
	// Whether a deployer private key is configured.
	HasAccount bool
	// The in-process development chain needs no RPC endpoint.
	Local bool
	// Key of the block explorer in Settings.ExplorerAPIKeys.
	Explorer string
}

// Configured reports whether the network can be reached.
func (n Network) Configured() bool {
	return n.Local || (n.URL != "" && n.HasAccount)
}

// Networks returns the known network profiles, the default one first.
func (s *Settings) Networks() []Network {
	hasAccount := s.WalletPrivateKey != ""
	return []Network{
		{Name: DefaultNetwork, ChainID: 31337, Local: true},
		{Name: "amoy", ChainID: 80002, URL: s.AlchemyURL, HasAccount: hasAccount, Explorer: "polygonAmoy"},
		{Name: "sepolia", ChainID: 11155111, URL: s.AlchemyURL, HasAccount: hasAccount, Explorer: "etherSepolia"},
		{Name: "polygonMainnet", ChainID: 137, URL: s.AlchemyURL, HasAccount: hasAccount, Explorer: "polygonMain"},
	}
}

// ExplorerAPIKey returns the block explorer key of the network, if any.
func (s *Settings) ExplorerAPIKey(network Network) string {
	if network.Explorer == "" {
		return ""
	}
	return s.ExplorerAPIKeys[network.Explorer]
}

// Network finds a profile by name, ignoring case.
func (s *Settings) Network(name string) (Network, error) {
	for _, network := range s.Networks() {
		if strings.EqualFold(network.Name, name) {
			return network, nil
		}
	}
	return Network{}, fmt.Errorf("config: unknown network %q", name)
}
