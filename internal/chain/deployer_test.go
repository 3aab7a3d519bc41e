package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/specialistvlad/deploygrid/internal/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dexBookABI = `[{"type":"constructor","inputs":[{"name":"weth","type":"address"},{"name":"usdc","type":"address"}],"stateMutability":"nonpayable"}]`

func testArtifacts(t *testing.T) *Artifacts {
	t.Helper()
	dex, err := abi.JSON(stringsReader(dexBookABI))
	require.NoError(t, err)
	empty, err := abi.JSON(stringsReader(`[]`))
	require.NoError(t, err)
	return NewArtifacts(
		&Artifact{Name: "USDC", ABI: empty, Bytecode: []byte{0x60, 0x01}},
		&Artifact{Name: "WETH", ABI: empty, Bytecode: []byte{0x60, 0x02}},
		&Artifact{Name: "DexBook", ABI: dex, Bytecode: []byte{0x60, 0x03}},
	)
}

func testConfig(t *testing.T) (Config, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return Config{
		Network:    "apothem",
		URL:        "http://localhost:8545",
		PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
		ChainID:    51,
	}, crypto.PubkeyToAddress(key.PublicKey)
}

func TestNewDeployer(t *testing.T) {
	ctx := context.Background()

	t.Run("connects", func(t *testing.T) {
		cfg, from := testConfig(t)
		d, err := NewDeployer(ctx, newFakeBackend(), cfg, testArtifacts(t))
		require.NoError(t, err)
		assert.Equal(t, from, d.Address())
		assert.Equal(t, int64(51), d.ChainID().Int64())
	})

	t.Run("missing config", func(t *testing.T) {
		_, err := NewDeployer(ctx, newFakeBackend(), Config{Network: "apothem"}, testArtifacts(t))
		assert.ErrorIs(t, err, ErrMissingConfig)
		assert.ErrorContains(t, err, "url and private_key must be set")
	})

	t.Run("chain id mismatch", func(t *testing.T) {
		cfg, _ := testConfig(t)
		cfg.ChainID = 1
		_, err := NewDeployer(ctx, newFakeBackend(), cfg, testArtifacts(t))
		var mismatch *ChainIDMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, int64(51), mismatch.Got.Int64())
	})

	t.Run("unfunded account", func(t *testing.T) {
		cfg, _ := testConfig(t)
		backend := newFakeBackend()
		backend.balance = big.NewInt(0)
		_, err := NewDeployer(ctx, backend, cfg, testArtifacts(t))
		assert.ErrorIs(t, err, ErrNoBalance)
	})

	t.Run("bad key", func(t *testing.T) {
		cfg, _ := testConfig(t)
		cfg.PrivateKey = "0xnothex"
		_, err := NewDeployer(ctx, newFakeBackend(), cfg, testArtifacts(t))
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "nothex")
	})
}

func TestDeploy(t *testing.T) {
	ctx := context.Background()
	cfg, from := testConfig(t)
	backend := newFakeBackend()
	backend.nonce = 7
	d, err := NewDeployer(ctx, backend, cfg, testArtifacts(t))
	require.NoError(t, err)

	usdc, err := d.Deploy(ctx, &unit.Unit{Name: "usdc", Contract: "USDC"}, nil)
	require.NoError(t, err)
	weth, err := d.Deploy(ctx, &unit.Unit{Name: "weth", Contract: "WETH"}, nil)
	require.NoError(t, err)
	dex, err := d.Deploy(ctx, &unit.Unit{Name: "dexbook", Contract: "DexBook"}, []any{weth.Address, usdc.Address})
	require.NoError(t, err)

	assert.Equal(t, crypto.CreateAddress(from, 7).Hex(), usdc.Address)
	assert.Equal(t, crypto.CreateAddress(from, 8).Hex(), weth.Address)
	assert.Equal(t, crypto.CreateAddress(from, 9).Hex(), dex.Address)
	assert.Equal(t, 1, backend.nonceHits, "nonces are tracked locally after the first lookup")

	require.Len(t, backend.sent, 3)
	tx := backend.sent[2]
	assert.Nil(t, tx.To())
	assert.Equal(t, uint64(9), tx.Nonce())
	assert.Equal(t, uint64(120_000), tx.Gas())
	assert.Equal(t, dex.TxHash, tx.Hash().Hex())
	assert.Equal(t, uint64(3), dex.BlockNumber)
	assert.Equal(t, uint64(60_000), dex.GasUsed)

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(51)), tx)
	require.NoError(t, err)
	assert.Equal(t, from, sender)

	// bytecode followed by two ABI encoded addresses
	data := tx.Data()
	require.Len(t, data, 2+64)
	assert.Equal(t, []byte{0x60, 0x03}, data[:2])
	assert.Equal(t, common.HexToAddress(weth.Address), common.BytesToAddress(data[2:34]))
	assert.Equal(t, common.HexToAddress(usdc.Address), common.BytesToAddress(data[34:66]))
}

func TestDeploy_Failures(t *testing.T) {
	ctx := context.Background()

	newDeployer := func(t *testing.T, backend *fakeBackend) *Deployer {
		cfg, _ := testConfig(t)
		d, err := NewDeployer(ctx, backend, cfg, testArtifacts(t))
		require.NoError(t, err)
		return d
	}

	t.Run("unknown artifact", func(t *testing.T) {
		d := newDeployer(t, newFakeBackend())
		_, err := d.Deploy(ctx, &unit.Unit{Name: "router"}, nil)
		var notFound *ArtifactNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "router", notFound.Contract)
	})

	t.Run("bad argument", func(t *testing.T) {
		d := newDeployer(t, newFakeBackend())
		_, err := d.Deploy(ctx, &unit.Unit{Name: "dex", Contract: "DexBook"}, []any{"0x1", "0x2"})
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, 0, argErr.Index)
		assert.Equal(t, "weth", argErr.Name)
	})

	t.Run("reverted", func(t *testing.T) {
		backend := newFakeBackend()
		backend.revert = true
		d := newDeployer(t, backend)
		_, err := d.Deploy(ctx, &unit.Unit{Name: "usdc", Contract: "USDC"}, nil)
		var reverted *RevertedError
		require.ErrorAs(t, err, &reverted)
		assert.Equal(t, backend.sent[0].Hash(), reverted.TxHash)
	})

	t.Run("send failure resets nonce", func(t *testing.T) {
		backend := newFakeBackend()
		backend.sendErr = errSend
		d := newDeployer(t, backend)
		_, err := d.Deploy(ctx, &unit.Unit{Name: "usdc", Contract: "USDC"}, nil)
		assert.ErrorIs(t, err, errSend)

		backend.sendErr = nil
		_, err = d.Deploy(ctx, &unit.Unit{Name: "usdc", Contract: "USDC"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, backend.nonceHits)
		assert.Equal(t, uint64(0), backend.sent[0].Nonce())
	})

	t.Run("estimation failure falls back", func(t *testing.T) {
		backend := newFakeBackend()
		backend.estimErr = errors.New("execution reverted")
		d := newDeployer(t, backend)
		_, err := d.Deploy(ctx, &unit.Unit{Name: "usdc", Contract: "USDC"}, nil)
		require.NoError(t, err)
		assert.Equal(t, uint64(DefaultGasLimit*120/100), backend.sent[0].Gas())
	})

	t.Run("configured gas limit", func(t *testing.T) {
		backend := newFakeBackend()
		cfg, _ := testConfig(t)
		cfg.GasLimit = 500_000
		d, err := NewDeployer(ctx, backend, cfg, testArtifacts(t))
		require.NoError(t, err)
		_, err = d.Deploy(ctx, &unit.Unit{Name: "usdc", Contract: "USDC"}, nil)
		require.NoError(t, err)
		assert.Equal(t, uint64(500_000), backend.sent[0].Gas())
	})
}

func TestDial_ValidatesBeforeDialing(t *testing.T) {
	_, err := Dial(context.Background(), Config{Network: "apothem", URL: "http://127.0.0.1:1"}, NewArtifacts())
	assert.ErrorIs(t, err, ErrMissingConfig)
	assert.ErrorContains(t, err, "private_key must be set")
}
