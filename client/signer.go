package client

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// OrderSigner signs loan-order hashes locally with a secp256k1 key, using the
// prefixed personal-message scheme the protocol contracts verify.
type OrderSigner struct {
	privateKey *ecdsa.PrivateKey
}

func NewOrderSigner(privateKeyHex string) (*OrderSigner, error) {
	if len(privateKeyHex) > 2 && privateKeyHex[:2] == "0x" {
		privateKeyHex = privateKeyHex[2:]
	}

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &OrderSigner{privateKey: privateKey}, nil
}

func (s *OrderSigner) SignOrderHash(orderHashHex string) (string, error) {
	hash, err := hexutil.Decode(orderHashHex)
	if err != nil {
		return "", fmt.Errorf("invalid order hash: %w", err)
	}

	prefixed := []byte("\x19Ethereum Signed Message:\n32")
	digest := crypto.Keccak256Hash(append(prefixed, hash...))

	signature, err := crypto.Sign(digest.Bytes(), s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign: %w", err)
	}

	signature[64] += 27

	return hexutil.Encode(signature), nil
}

func (s *OrderSigner) GetAddress() common.Address {
	return crypto.PubkeyToAddress(s.privateKey.PublicKey)
}
