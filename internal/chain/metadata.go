package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Authoritative read path for persona metadata. The metadata event only
// signals that a key changed; the current value is always re-read here.
type MetadataReader interface {
	Read(ctx context.Context, personaID, key string) (string, error)
}

// eth_call against personaMetadata(uint256,string) on the factory contract
type ContractMetadataReader struct {
	client   *ethclient.Client
	contract common.Address
	timeout  time.Duration

	selector []byte
	in       abi.Arguments
	out      abi.Arguments
}

func NewContractMetadataReader(rpcURL, contract string, timeout time.Duration) (*ContractMetadataReader, error) {
	if !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("invalid metadata contract address %q", contract)
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial metadata rpc: %w", err)
	}

	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &ContractMetadataReader{
		client:   client,
		contract: common.HexToAddress(contract),
		timeout:  timeout,
		selector: crypto.Keccak256([]byte("personaMetadata(uint256,string)"))[:4],
		in: abi.Arguments{
			{Type: mustType("uint256")},
			{Type: mustType("string")},
		},
		out: abi.Arguments{
			{Type: mustType("string")},
		},
	}, nil
}

func (r *ContractMetadataReader) Read(ctx context.Context, personaID, key string) (string, error) {
	tokenID, ok := new(big.Int).SetString(personaID, 10)
	if !ok {
		return "", fmt.Errorf("invalid persona id %q", personaID)
	}

	packed, err := r.in.Pack(tokenID, key)
	if err != nil {
		return "", fmt.Errorf("failed to pack call args: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.client.CallContract(callCtx, ethereum.CallMsg{
		To:   &r.contract,
		Data: append(append([]byte{}, r.selector...), packed...),
	}, nil)
	if err != nil {
		return "", fmt.Errorf("metadata call failed: %w", err)
	}

	values, err := r.out.Unpack(raw)
	if err != nil {
		return "", fmt.Errorf("failed to unpack metadata value: %w", err)
	}

	value, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("metadata call returned %T, want string", values[0])
	}
	return value, nil
}

func (r *ContractMetadataReader) Close() {
	r.client.Close()
}
