package royalty

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCaller struct {
	mu        sync.Mutex
	calls     int
	receivers map[uint64]common.Address
	revert    bool
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.revert {
		return nil, errors.New("execution reverted")
	}

	royaltyABI, err := ERC2981ABI()
	if err != nil {
		return nil, err
	}
	args, err := royaltyABI.Methods["royaltyInfo"].Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	id := args[0].(*big.Int).Uint64()
	return royaltyABI.Methods["royaltyInfo"].Outputs.Pack(f.receivers[id], big.NewInt(0))
}

func TestERC2981SourceLooksUpAndCaches(t *testing.T) {
	caller := &fakeCaller{receivers: map[uint64]common.Address{1: testCreator}}
	src, err := NewERC2981Source(ERC2981Config{Collection: common.HexToAddress("0x4444444444444444444444444444444444444444")}, caller, zap.NewNop())
	require.NoError(t, err)

	items := []*uint256.Int{uint256.NewInt(1), uint256.NewInt(2)}
	got, err := src.Recipients(context.Background(), items)
	require.NoError(t, err)
	require.NotNil(t, got[0])
	require.Equal(t, testCreator, *got[0])
	require.Nil(t, got[1])
	require.Equal(t, 2, caller.calls)

	_, err = src.Recipients(context.Background(), items)
	require.NoError(t, err)
	require.Equal(t, 2, caller.calls)
}

func TestERC2981SourceRevertMeansNoRecipient(t *testing.T) {
	caller := &fakeCaller{revert: true}
	src, err := NewERC2981Source(ERC2981Config{MaxRetries: 3, RetryBackoff: time.Millisecond}, caller, nil)
	require.NoError(t, err)

	got, err := src.Recipients(context.Background(), []*uint256.Int{uint256.NewInt(5)})
	require.NoError(t, err)
	require.Nil(t, got[0])
	require.Equal(t, 1, caller.calls)
}
