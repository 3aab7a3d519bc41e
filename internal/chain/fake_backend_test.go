package chain

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// fakeBackend mines every sent transaction immediately.
type fakeBackend struct {
	mu        sync.Mutex
	chainID   *big.Int
	balance   *big.Int
	nonce     uint64
	sent      []*types.Transaction
	receipts  map[common.Hash]*types.Receipt
	estimate  uint64
	estimErr  error
	sendErr   error
	revert    bool
	nonceHits int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		chainID:  big.NewInt(51),
		balance:  big.NewInt(1e18),
		receipts: make(map[common.Hash]*types.Receipt),
		estimate: 100_000,
	}
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) { return f.chainID, nil }

func (f *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonceHits++
	return f.nonce, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return f.estimate, f.estimErr
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	from, err := types.Sender(types.LatestSignerForChainID(f.chainID), tx)
	if err != nil {
		return err
	}
	status := types.ReceiptStatusSuccessful
	if f.revert {
		status = types.ReceiptStatusFailed
	}
	f.sent = append(f.sent, tx)
	f.nonce = tx.Nonce() + 1
	f.receipts[tx.Hash()] = &types.Receipt{
		Status:          status,
		TxHash:          tx.Hash(),
		ContractAddress: crypto.CreateAddress(from, tx.Nonce()),
		GasUsed:         tx.Gas() / 2,
		BlockNumber:     big.NewInt(int64(len(f.sent))),
	}
	return nil
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

var errSend = errors.New("nonce too low")
