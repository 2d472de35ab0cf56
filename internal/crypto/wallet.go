package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160"
)

const (
	// Version for address generation
	AddressVersion = 0x00

	// ChecksumLength is the length of address checksum
	ChecksumLength = 4
)

// Wallet holds a secp256k1 key pair. It is the key collaborator for the block
// core: it hands out destination addresses and signature text, and nothing
// in the core ever interprets either.
type Wallet struct {
	PrivateKey *btcec.PrivateKey
	PublicKey  *btcec.PublicKey
}

// NewWallet creates a new wallet with a generated key pair
func NewWallet() (*Wallet, error) {
	privateKey, publicKey, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	return &Wallet{
		PrivateKey: privateKey,
		PublicKey:  publicKey,
	}, nil
}

// WalletFromPrivateKey rebuilds a wallet from serialized private key bytes.
func WalletFromPrivateKey(key []byte) (*Wallet, error) {
	if len(key) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("private key length = %d, want %d", len(key), btcec.PrivKeyBytesLen)
	}
	priv, pub := btcec.PrivKeyFromBytes(key)
	return &Wallet{PrivateKey: priv, PublicKey: pub}, nil
}

// GenerateKeyPair generates a new secp256k1 key pair.
func GenerateKeyPair() (*btcec.PrivateKey, *btcec.PublicKey, error) {
	privateKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	return privateKey, privateKey.PubKey(), nil
}

// PublicKeyBytes returns the compressed public key.
func (w *Wallet) PublicKeyBytes() []byte {
	return w.PublicKey.SerializeCompressed()
}

// GetAddress returns the base58 address of the wallet's public key.
func (w *Wallet) GetAddress() string {
	return GetAddressFromPubKey(w.PublicKeyBytes())
}

// GetAddressFromPubKey generates an address from a public key
// Address = Base58(version + RIPEMD160(SHA256(pubKey)) + checksum)
func GetAddressFromPubKey(pubKey []byte) string {
	return EncodeAddress(PublicKeyHash(pubKey))
}

// EncodeAddress encodes a public key hash into an address.
func EncodeAddress(pubKeyHash []byte) string {
	versionedPayload := append([]byte{AddressVersion}, pubKeyHash...)
	fullPayload := append(versionedPayload, Checksum(versionedPayload)...)

	return base58.Encode(fullPayload)
}

// DecodeAddress decodes an address to its public key hash.
func DecodeAddress(address string) ([]byte, error) {
	decoded, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("failed to decode address: %w", err)
	}

	if len(decoded) < ChecksumLength+1 {
		return nil, fmt.Errorf("invalid address length")
	}

	payload := decoded[:len(decoded)-ChecksumLength]
	checksumProvided := decoded[len(decoded)-ChecksumLength:]

	if string(Checksum(payload)) != string(checksumProvided) {
		return nil, fmt.Errorf("invalid address checksum")
	}

	return payload[1:], nil
}

// Checksum generates a 4-byte checksum for address encoding
func Checksum(payload []byte) []byte {
	firstHash := sha256.Sum256(payload)
	secondHash := sha256.Sum256(firstHash[:])
	return secondHash[:ChecksumLength]
}

// PublicKeyHash returns the RIPEMD160(SHA256(pubKey))
func PublicKeyHash(pubKey []byte) []byte {
	sha256Hash := sha256.Sum256(pubKey)
	ripemd160Hasher := ripemd160.New()
	ripemd160Hasher.Write(sha256Hash[:])
	return ripemd160Hasher.Sum(nil)
}

// Sign signs a 32-byte digest and returns the DER signature as hex text.
func (w *Wallet) Sign(digest Hash) string {
	sig := ecdsa.Sign(w.PrivateKey, digest[:])
	return hex.EncodeToString(sig.Serialize())
}

// VerifySignature checks hex signature text produced by Sign against a
// compressed or uncompressed public key.
func VerifySignature(pubKey []byte, digest Hash, signature string) bool {
	key, err := btcec.ParsePubKey(pubKey)
	if err != nil {
		return false
	}

	der, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	sig, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		return false
	}

	return sig.Verify(digest[:], key)
}

// PrivateKeyToHex converts a private key to hex string
func PrivateKeyToHex(privateKey *btcec.PrivateKey) string {
	return hex.EncodeToString(privateKey.Serialize())
}

// HexToPrivateKey converts a hex string to a wallet.
func HexToPrivateKey(hexKey string) (*Wallet, error) {
	b, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, err
	}
	return WalletFromPrivateKey(b)
}
