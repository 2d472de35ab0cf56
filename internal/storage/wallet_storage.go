package storage

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/yourusername/blockwire/internal/crypto"
)

const (
	walletPrefix = "wallet_"
	addressKey   = "addresses"
)

// ErrWalletNotFound is returned for an address with no stored key.
var ErrWalletNotFound = errors.New("wallet not found")

// WalletStorage manages wallet persistence
type WalletStorage struct {
	db *leveldb.DB
}

// WalletData represents serializable wallet information
type WalletData struct {
	Address    string
	PrivateKey []byte
	PublicKey  []byte
}

// NewWalletStorage creates a new wallet storage instance
func NewWalletStorage(path string) (*WalletStorage, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open wallet database: %w", err)
	}

	return &WalletStorage{db: db}, nil
}

// Close closes the wallet database
func (ws *WalletStorage) Close() error {
	return ws.db.Close()
}

// SaveWallet stores the wallet's key pair under its address.
func (ws *WalletStorage) SaveWallet(w *crypto.Wallet) (string, error) {
	address := w.GetAddress()
	walletData := WalletData{
		Address:    address,
		PrivateKey: w.PrivateKey.Serialize(),
		PublicKey:  w.PublicKeyBytes(),
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(walletData); err != nil {
		return "", fmt.Errorf("failed to encode wallet: %w", err)
	}

	if err := ws.db.Put([]byte(walletPrefix+address), buf.Bytes(), nil); err != nil {
		return "", fmt.Errorf("failed to save wallet: %w", err)
	}

	return address, ws.addAddress(address)
}

// GetWallet rebuilds the wallet stored under address.
func (ws *WalletStorage) GetWallet(address string) (*crypto.Wallet, error) {
	data, err := ws.db.Get([]byte(walletPrefix+address), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, address)
		}
		return nil, fmt.Errorf("failed to read wallet: %w", err)
	}

	var walletData WalletData
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&walletData); err != nil {
		return nil, fmt.Errorf("failed to decode wallet: %w", err)
	}

	w, err := crypto.WalletFromPrivateKey(walletData.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("wallet %s: %w", address, err)
	}
	if w.GetAddress() != address {
		return nil, fmt.Errorf("wallet %s: stored key belongs to %s", address, w.GetAddress())
	}

	return w, nil
}

// GetAllAddresses returns all wallet addresses in the order they were added.
func (ws *WalletStorage) GetAllAddresses() ([]string, error) {
	data, err := ws.db.Get([]byte(addressKey), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var addresses []string
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&addresses); err != nil {
		return nil, err
	}

	return addresses, nil
}

func (ws *WalletStorage) putAddresses(addresses []string) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(addresses); err != nil {
		return err
	}
	return ws.db.Put([]byte(addressKey), buf.Bytes(), nil)
}

// addAddress adds an address to the list
func (ws *WalletStorage) addAddress(address string) error {
	addresses, err := ws.GetAllAddresses()
	if err != nil {
		return err
	}

	for _, addr := range addresses {
		if addr == address {
			return nil
		}
	}

	return ws.putAddresses(append(addresses, address))
}

// DeleteWallet removes a wallet and its entry in the address list.
func (ws *WalletStorage) DeleteWallet(address string) error {
	if err := ws.db.Delete([]byte(walletPrefix+address), nil); err != nil {
		return err
	}

	addresses, err := ws.GetAllAddresses()
	if err != nil {
		return err
	}

	kept := addresses[:0]
	for _, addr := range addresses {
		if addr != address {
			kept = append(kept, addr)
		}
	}

	return ws.putAddresses(kept)
}

// WalletExists checks if a wallet exists
func (ws *WalletStorage) WalletExists(address string) bool {
	exists, _ := ws.db.Has([]byte(walletPrefix+address), nil)
	return exists
}

// Clear removes all wallets
func (ws *WalletStorage) Clear() error {
	addresses, err := ws.GetAllAddresses()
	if err != nil {
		return err
	}

	for _, address := range addresses {
		if err := ws.db.Delete([]byte(walletPrefix+address), nil); err != nil {
			return err
		}
	}

	return ws.db.Delete([]byte(addressKey), nil)
}

// GetWalletPath returns the default wallet storage path
func GetWalletPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./wallets.db"
	}
	return filepath.Join(homeDir, ".blockwire_wallets")
}
