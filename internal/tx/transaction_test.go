package tx

import (
	"bytes"
	"encoding/hex"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/yourusername/blockwire/internal/codec"
	"github.com/yourusername/blockwire/internal/crypto"
)

func sampleTx() *Transaction {
	var prev crypto.Hash
	for i := range prev {
		prev[i] = byte(i)
	}

	return &Transaction{
		Version: 2,
		Inputs: []TxIn{
			{PreviousOutput: Outpoint{TxID: prev, Index: 7}},
			{PreviousOutput: Outpoint{TxID: crypto.DoubleHash([]byte("other")), Index: 0}},
		},
		Outputs: []TxOut{
			{Value: 50_0000_0000, PubKey: "1BoatSLRHtKNngkdXEeobR76b53LETtpyT"},
			{Value: 1, PubKey: ""},
		},
		Signature: "3045022100deadbeef",
	}
}

func TestSerialize_Layout(t *testing.T) {
	tx := &Transaction{
		Version:   1,
		Inputs:    []TxIn{{PreviousOutput: Outpoint{Index: 3}}},
		Outputs:   []TxOut{{Value: 0x0102, PubKey: "ab"}},
		Signature: "s",
	}

	want := "01000000" + // version
		"01" + strings.Repeat("00", 32) + "03000000" + // one input
		"01" + "0201000000000000" + "02" + "6162" + // one output
		"01" + "73" // signature

	got := hex.EncodeToString(tx.Serialize())
	if got != want {
		t.Errorf("Serialize =\n%s\nwant\n%s", got, want)
	}
	if tx.SerializeSize() != len(tx.Serialize()) {
		t.Errorf("SerializeSize = %d, len = %d", tx.SerializeSize(), len(tx.Serialize()))
	}
}

func TestSerialize_EmptyTransaction(t *testing.T) {
	tx := &Transaction{}

	want := []byte{0, 0, 0, 0, 0, 0, 0}
	if got := tx.Serialize(); !bytes.Equal(got, want) {
		t.Errorf("Serialize = %x, want %x", got, want)
	}
}

func TestSerializeDeserialize_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tx   *Transaction
	}{
		{"sample", sampleTx()},
		{"no inputs or outputs", &Transaction{Version: 1, Inputs: []TxIn{}, Outputs: []TxOut{}}},
		{"unicode text", &Transaction{
			Version:   1,
			Inputs:    []TxIn{},
			Outputs:   []TxOut{{Value: 9, PubKey: "clé-публичный"}},
			Signature: "签名",
		}},
		{"long key", &Transaction{
			Version:   1,
			Inputs:    []TxIn{},
			Outputs:   []TxOut{{Value: 1, PubKey: strings.Repeat("k", 300)}},
			Signature: strings.Repeat("s", 70000),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := Deserialize(tt.tx.Serialize())
			if err != nil {
				t.Fatalf("Deserialize: %v", err)
			}
			if !reflect.DeepEqual(decoded, tt.tx) {
				t.Errorf("round trip mismatch\ngot:  %+v\nwant: %+v", decoded, tt.tx)
			}
			if decoded.ID() != tt.tx.ID() {
				t.Error("ID changed across round trip")
			}
		})
	}
}

func TestDeserialize_Truncated(t *testing.T) {
	data := sampleTx().Serialize()

	for n := 0; n < len(data); n++ {
		_, err := Deserialize(data[:n])
		if !errors.Is(err, codec.ErrUnexpectedEndOfInput) {
			t.Fatalf("Deserialize(%d of %d bytes) error = %v, want ErrUnexpectedEndOfInput", n, len(data), err)
		}
	}
}

func TestDeserialize_TrailingBytes(t *testing.T) {
	data := append(sampleTx().Serialize(), 0x00)

	if _, err := Deserialize(data); !errors.Is(err, codec.ErrTrailingBytes) {
		t.Errorf("error = %v, want ErrTrailingBytes", err)
	}
}

func TestDeserialize_InvalidText(t *testing.T) {
	tx := &Transaction{Version: 1, Outputs: []TxOut{{Value: 1, PubKey: "\xff\xfe"}}}
	if _, err := Deserialize(tx.Serialize()); !errors.Is(err, codec.ErrInvalidEncoding) {
		t.Errorf("bad key error = %v, want ErrInvalidEncoding", err)
	}

	tx = &Transaction{Version: 1, Signature: "\xc3\x28"}
	if _, err := Deserialize(tx.Serialize()); !errors.Is(err, codec.ErrInvalidEncoding) {
		t.Errorf("bad signature error = %v, want ErrInvalidEncoding", err)
	}
}

func TestDeserialize_HugeCountDoesNotAllocate(t *testing.T) {
	// Version, then an input count of 2^64-1 with no inputs behind it.
	data := []byte{1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

	if _, err := Deserialize(data); !errors.Is(err, codec.ErrUnexpectedEndOfInput) {
		t.Errorf("error = %v, want ErrUnexpectedEndOfInput", err)
	}
}

func TestID_IsDoubleHashOfSerialization(t *testing.T) {
	tx := sampleTx()

	if tx.ID() != crypto.DoubleHash(tx.Serialize()) {
		t.Error("ID is not the double hash of the serialized bytes")
	}

	changed := sampleTx()
	changed.Outputs[0].Value++
	if changed.ID() == tx.ID() {
		t.Error("ID did not change with the transaction")
	}
}

func TestCoinbase(t *testing.T) {
	wallet, _ := crypto.NewWallet()

	cb, err := NewCoinbaseTx(wallet.GetAddress(), 50_0000_0000)
	if err != nil {
		t.Fatalf("NewCoinbaseTx: %v", err)
	}
	if !cb.IsCoinbase() {
		t.Error("coinbase not recognised")
	}
	if sampleTx().IsCoinbase() {
		t.Error("regular transaction recognised as coinbase")
	}
	if !cb.Outputs[0].IsLockedWithKey(crypto.PublicKeyHash(wallet.PublicKeyBytes())) {
		t.Error("coinbase output not locked to the wallet")
	}

	if _, err := NewCoinbaseTx("not-an-address", 1); err == nil {
		t.Error("invalid address accepted")
	}
}

func TestSignAndVerify(t *testing.T) {
	wallet, _ := crypto.NewWallet()
	tx := sampleTx()
	tx.Signature = ""

	tx.Sign(wallet)

	if !tx.VerifySignature(wallet.PublicKeyBytes()) {
		t.Fatal("signature did not verify")
	}

	decoded, err := Deserialize(tx.Serialize())
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !decoded.VerifySignature(wallet.PublicKeyBytes()) {
		t.Error("signature did not survive a round trip")
	}

	tx.Outputs[0].Value++
	if tx.VerifySignature(wallet.PublicKeyBytes()) {
		t.Error("signature verified after the transaction changed")
	}
}

func BenchmarkSerialize(b *testing.B) {
	tx := sampleTx()
	for i := 0; i < b.N; i++ {
		tx.Serialize()
	}
}

func BenchmarkDeserialize(b *testing.B) {
	data := sampleTx().Serialize()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Deserialize(data)
	}
}
