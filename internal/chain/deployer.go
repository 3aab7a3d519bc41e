package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/ledger"
	"github.com/specialistvlad/deploygrid/internal/unit"
)

// DefaultGasLimit is used when gas estimation fails.
const DefaultGasLimit = 3_000_000

// ErrNoBalance is returned when the deploying account holds no funds.
var ErrNoBalance = errors.New("deployer account has no balance")

// Backend is the part of an Ethereum client the deployer needs.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// ChainIDMismatchError reports a node on a different chain than configured.
type ChainIDMismatchError struct {
	Want, Got *big.Int
}

func (e *ChainIDMismatchError) Error() string {
	return fmt.Sprintf("chain ID mismatch: configured %s, node reports %s", e.Want, e.Got)
}

// RevertedError reports a creation transaction mined with failed status.
type RevertedError struct {
	TxHash  common.Hash
	GasUsed uint64
}

func (e *RevertedError) Error() string {
	return fmt.Sprintf("creation transaction %s reverted (gas used %d)", e.TxHash.Hex(), e.GasUsed)
}

// Deployer submits contract-creation transactions from one account.
type Deployer struct {
	backend   Backend
	signer    *Signer
	chainID   *big.Int
	artifacts *Artifacts
	gasLimit  uint64
	closer    func()

	// nonce is the next nonce to use; nil means fetch it from the node.
	nonceMu sync.Mutex
	nonce   *uint64
}

// NewDeployer validates cfg, checks the node's chain ID against it and that
// the signing account is funded.
func NewDeployer(ctx context.Context, backend Backend, cfg Config, artifacts *Artifacts) (*Deployer, error) {
	logger := ctxlog.FromContext(ctx)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	signer, err := NewSigner(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("network %q: %w", cfg.Network, err)
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain ID: %w", err)
	}
	if cfg.ChainID != 0 {
		want := new(big.Int).SetUint64(cfg.ChainID)
		if want.Cmp(chainID) != 0 {
			return nil, &ChainIDMismatchError{Want: want, Got: chainID}
		}
	}

	balance, err := backend.BalanceAt(ctx, signer.Address(), nil)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	if balance.Sign() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBalance, signer.Address().Hex())
	}

	logger.Info("🔗 Connected to network.",
		"network", cfg.Network,
		"chain_id", chainID.String(),
		"deployer", signer.Address().Hex(),
		"balance_wei", balance.String(),
	)

	return &Deployer{
		backend:   backend,
		signer:    signer,
		chainID:   chainID,
		artifacts: artifacts,
		gasLimit:  cfg.GasLimit,
	}, nil
}

// Dial connects to cfg.URL and returns a Deployer that owns the connection.
func Dial(ctx context.Context, cfg Config, artifacts *Artifacts) (*Deployer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := ethclient.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Network, err)
	}
	d, err := NewDeployer(ctx, client, cfg, artifacts)
	if err != nil {
		client.Close()
		return nil, err
	}
	d.closer = client.Close
	return d, nil
}

// Close releases the connection opened by Dial.
func (d *Deployer) Close() {
	if d.closer != nil {
		d.closer()
	}
}

// Address returns the deploying account.
func (d *Deployer) Address() common.Address {
	return d.signer.Address()
}

// ChainID returns the chain ID reported by the node.
func (d *Deployer) ChainID() *big.Int {
	return new(big.Int).Set(d.chainID)
}

// Deploy creates the contract for u with the resolved constructor args and
// waits for the transaction to be mined.
func (d *Deployer) Deploy(ctx context.Context, u *unit.Unit, args []any) (ledger.Result, error) {
	logger := ctxlog.FromContext(ctx)

	art, err := d.artifacts.Get(u.ContractName())
	if err != nil {
		return ledger.Result{}, err
	}
	data, err := art.DeployData(args)
	if err != nil {
		return ledger.Result{}, err
	}

	from := d.signer.Address()
	gasPrice, err := d.backend.SuggestGasPrice(ctx)
	if err != nil {
		return ledger.Result{}, fmt.Errorf("get gas price: %w", err)
	}

	gasLimit := d.gasLimit
	if gasLimit == 0 {
		estimated, err := d.backend.EstimateGas(ctx, ethereum.CallMsg{
			From:     from,
			GasPrice: gasPrice,
			Value:    big.NewInt(0),
			Data:     data,
		})
		if err != nil {
			estimated = DefaultGasLimit
			logger.Warn("Gas estimation failed, using default.", "gas_limit", estimated, "error", err)
		}
		// 20% buffer.
		gasLimit = estimated * 120 / 100
	}

	nonce, err := d.nextNonce(ctx)
	if err != nil {
		return ledger.Result{}, err
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		Value:    big.NewInt(0),
		Data:     data,
	})
	signed, err := d.signer.SignTx(tx, d.chainID)
	if err != nil {
		d.resetNonce()
		return ledger.Result{}, err
	}
	if err := d.backend.SendTransaction(ctx, signed); err != nil {
		d.resetNonce()
		return ledger.Result{}, fmt.Errorf("send creation transaction: %w", err)
	}
	logger.Info("Creation transaction submitted.", "tx_hash", signed.Hash().Hex(), "nonce", nonce, "gas_limit", gasLimit, "artifact", art.Path)

	receipt, err := bind.WaitMined(ctx, d.backend, signed)
	if err != nil {
		return ledger.Result{}, fmt.Errorf("wait for receipt of %s: %w", signed.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return ledger.Result{}, &RevertedError{TxHash: signed.Hash(), GasUsed: receipt.GasUsed}
	}

	address := receipt.ContractAddress
	if address == (common.Address{}) {
		address = crypto.CreateAddress(from, nonce)
	}

	res := ledger.Result{
		Address: address.Hex(),
		TxHash:  signed.Hash().Hex(),
		GasUsed: receipt.GasUsed,
	}
	if receipt.BlockNumber != nil {
		res.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return res, nil
}

func (d *Deployer) nextNonce(ctx context.Context) (uint64, error) {
	d.nonceMu.Lock()
	defer d.nonceMu.Unlock()

	if d.nonce == nil {
		n, err := d.backend.PendingNonceAt(ctx, d.signer.Address())
		if err != nil {
			return 0, fmt.Errorf("get nonce: %w", err)
		}
		d.nonce = &n
	}
	n := *d.nonce
	*d.nonce = n + 1
	return n, nil
}

// resetNonce makes the next deployment ask the node again after a
// transaction that never reached the mempool.
func (d *Deployer) resetNonce() {
	d.nonceMu.Lock()
	defer d.nonceMu.Unlock()
	d.nonce = nil
}
