// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// This package derives the signing identities used to deploy and mint.
package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

// Foundry and Hardhat test mnemonic.
const TestMnemonic = "test test test test test test test test test test test junk"

// Number of accounts a development node exposes.
const DefaultAccountCount = 20

const (
	purposeIndex  = 44
	coinTypeIndex = 60
)

// A signing identity.
type Account struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
}

// PrivateKeyHex returns the 0x-prefixed private key.
func (a Account) PrivateKeyHex() string {
	return "0x" + common.Bytes2Hex(crypto.FromECDSA(a.PrivateKey))
}

// FromPrivateKey loads an account from a hex private key, with or without 0x.
func FromPrivateKey(hexKey string) (Account, error) {
	hexKey = strings.TrimSpace(hexKey)
	hexKey = strings.TrimPrefix(hexKey, "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return Account{}, fmt.Errorf("wallet: invalid private key: %w", err)
	}
	return Account{
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}, nil
}

// FromMnemonic derives the account at m/44'/60'/0'/0/index.
func FromMnemonic(mnemonic string, index uint32) (Account, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return Account{}, fmt.Errorf("wallet: invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, "")
	masterKey, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return Account{}, fmt.Errorf("wallet: master key: %w", err)
	}
	path := []uint32{
		hdkeychain.HardenedKeyStart + purposeIndex,
		hdkeychain.HardenedKeyStart + coinTypeIndex,
		hdkeychain.HardenedKeyStart + 0,
		0,
		index,
	}
	key := masterKey
	for _, child := range path {
		key, err = key.Derive(child)
		if err != nil {
			return Account{}, fmt.Errorf("wallet: derive key: %w", err)
		}
	}
	privKey, err := key.ECPrivKey()
	if err != nil {
		return Account{}, fmt.Errorf("wallet: private key: %w", err)
	}
	ecdsaKey, err := crypto.ToECDSA(privKey.Serialize())
	if err != nil {
		return Account{}, fmt.Errorf("wallet: convert key: %w", err)
	}
	return Account{
		Address:    crypto.PubkeyToAddress(ecdsaKey.PublicKey),
		PrivateKey: ecdsaKey,
	}, nil
}

// TestAccounts derives the first n accounts of the test mnemonic.
func TestAccounts(n int) ([]Account, error) {
	if n < 0 {
		return nil, fmt.Errorf("wallet: negative account count %d", n)
	}
	accounts := make([]Account, n)
	for i := 0; i < n; i++ {
		account, err := FromMnemonic(TestMnemonic, uint32(i))
		if err != nil {
			return nil, err
		}
		accounts[i] = account
	}
	return accounts, nil
}
