package royalty

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc2981ABIJSON = `[
  {"inputs": [{"internalType": "uint256", "name": "tokenId", "type": "uint256"}, {"internalType": "uint256", "name": "salePrice", "type": "uint256"}], "name": "royaltyInfo", "outputs": [{"internalType": "address", "name": "receiver", "type": "address"}, {"internalType": "uint256", "name": "royaltyAmount", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

var (
	erc2981ABI     abi.ABI
	erc2981ABIOnce sync.Once
	erc2981ABIErr  error
)

// ERC2981ABI returns the parsed royaltyInfo ABI.
func ERC2981ABI() (abi.ABI, error) {
	erc2981ABIOnce.Do(func() {
		erc2981ABI, erc2981ABIErr = abi.JSON(strings.NewReader(erc2981ABIJSON))
	})
	return erc2981ABI, erc2981ABIErr
}
