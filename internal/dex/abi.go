package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// pairABIJSON covers Camelot pairs and LP tokens.
const pairABIJSON = `[
  {"inputs": [], "name": "token0", "outputs": [{"internalType": "address", "name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "token1", "outputs": [{"internalType": "address", "name": "", "type": "address"}], "stateMutability": "view", "type": "function"}
]`

const nitroPoolABIJSON = `[
  {
    "inputs": [{"internalType": "address", "name": "", "type": "address"}],
    "name": "userInfo",
    "outputs": [
      {"internalType": "uint256", "name": "totalDepositAmount", "type": "uint256"},
      {"internalType": "uint256", "name": "rewardDebtToken1", "type": "uint256"},
      {"internalType": "uint256", "name": "rewardDebtToken2", "type": "uint256"},
      {"internalType": "uint256", "name": "pendingRewardsToken1", "type": "uint256"},
      {"internalType": "uint256", "name": "pendingRewardsToken2", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {"inputs": [], "name": "totalDepositAmount", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "nftPool", "outputs": [{"internalType": "address", "name": "", "type": "address"}], "stateMutability": "view", "type": "function"}
]`

const spNFTABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "owner", "type": "address"}], "name": "balanceOf", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "owner", "type": "address"}, {"internalType": "uint256", "name": "index", "type": "uint256"}], "name": "tokenOfOwnerByIndex", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {
    "inputs": [],
    "name": "getPoolInfo",
    "outputs": [
      {"internalType": "address", "name": "lpToken", "type": "address"},
      {"internalType": "address", "name": "grailToken", "type": "address"},
      {"internalType": "address", "name": "xGrailToken", "type": "address"},
      {"internalType": "uint256", "name": "lastRewardTime", "type": "uint256"},
      {"internalType": "uint256", "name": "accRewardsPerShare", "type": "uint256"},
      {"internalType": "uint256", "name": "lpSupply", "type": "uint256"},
      {"internalType": "uint256", "name": "lpSupplyWithMultiplier", "type": "uint256"},
      {"internalType": "uint256", "name": "allocPoint", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint256", "name": "tokenId", "type": "uint256"}],
    "name": "getStakingPosition",
    "outputs": [
      {"internalType": "uint256", "name": "amount", "type": "uint256"},
      {"internalType": "uint256", "name": "amountWithMultiplier", "type": "uint256"},
      {"internalType": "uint256", "name": "startLockTime", "type": "uint256"},
      {"internalType": "uint256", "name": "lockDuration", "type": "uint256"},
      {"internalType": "uint256", "name": "lockMultiplier", "type": "uint256"},
      {"internalType": "uint256", "name": "rewardDebt", "type": "uint256"},
      {"internalType": "uint256", "name": "boostPoints", "type": "uint256"},
      {"internalType": "uint256", "name": "totalMultiplier", "type": "uint256"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

const algebraPositionsABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "owner", "type": "address"}], "name": "balanceOf", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "owner", "type": "address"}, {"internalType": "uint256", "name": "index", "type": "uint256"}], "name": "tokenOfOwnerByIndex", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {
    "inputs": [{"internalType": "uint256", "name": "tokenId", "type": "uint256"}],
    "name": "positions",
    "outputs": [
      {"internalType": "uint96", "name": "nonce", "type": "uint96"},
      {"internalType": "address", "name": "operator", "type": "address"},
      {"internalType": "address", "name": "token0", "type": "address"},
      {"internalType": "address", "name": "token1", "type": "address"},
      {"internalType": "int24", "name": "tickLower", "type": "int24"},
      {"internalType": "int24", "name": "tickUpper", "type": "int24"},
      {"internalType": "uint128", "name": "liquidity", "type": "uint128"},
      {"internalType": "uint256", "name": "feeGrowthInside0LastX128", "type": "uint256"},
      {"internalType": "uint256", "name": "feeGrowthInside1LastX128", "type": "uint256"},
      {"internalType": "uint128", "name": "tokensOwed0", "type": "uint128"},
      {"internalType": "uint128", "name": "tokensOwed1", "type": "uint128"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

const erc20ABIStringJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const erc20ABIBytes32JSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

type lazyABI struct {
	raw    string
	once   sync.Once
	parsed abi.ABI
	err    error
}

func (l *lazyABI) get() (abi.ABI, error) {
	l.once.Do(func() {
		l.parsed, l.err = abi.JSON(strings.NewReader(l.raw))
	})
	return l.parsed, l.err
}

var (
	pairABI             = &lazyABI{raw: pairABIJSON}
	nitroPoolABI        = &lazyABI{raw: nitroPoolABIJSON}
	spNFTABI            = &lazyABI{raw: spNFTABIJSON}
	algebraPositionsABI = &lazyABI{raw: algebraPositionsABIJSON}
	erc20ABIString      = &lazyABI{raw: erc20ABIStringJSON}
	erc20ABIBytes32     = &lazyABI{raw: erc20ABIBytes32JSON}
)

// PairABI returns the parsed pair / LP token ABI.
func PairABI() (abi.ABI, error) { return pairABI.get() }

// NitroPoolABI returns the parsed Nitro pool ABI.
func NitroPoolABI() (abi.ABI, error) { return nitroPoolABI.get() }

// SpNFTABI returns the parsed spNFT (NFTPool) ABI.
func SpNFTABI() (abi.ABI, error) { return spNFTABI.get() }

// AlgebraPositionsABI returns the parsed Algebra position manager ABI.
func AlgebraPositionsABI() (abi.ABI, error) { return algebraPositionsABI.get() }

// ERC20ABI returns the parsed ERC20 ABI with string metadata outputs.
func ERC20ABI() (abi.ABI, error) { return erc20ABIString.get() }

// ERC20Bytes32ABI returns the ERC20 ABI variant for bytes32 symbol/name tokens.
func ERC20Bytes32ABI() (abi.ABI, error) { return erc20ABIBytes32.get() }
