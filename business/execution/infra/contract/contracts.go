package contract

// vaultABI is the arbitrage vault surface: a read-only profitability check,
// the flash-loan arbitrage and the profit sweep.
const vaultABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "router0", "type": "address"},
			{"internalType": "address", "name": "router1", "type": "address"},
			{"internalType": "address", "name": "token0", "type": "address"},
			{"internalType": "address", "name": "token1", "type": "address"},
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
			{"internalType": "uint256", "name": "expectedAmountOut", "type": "uint256"}
		],
		"name": "checkArbitrage",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "router0", "type": "address"},
			{"internalType": "address", "name": "router1", "type": "address"},
			{"internalType": "address", "name": "token0", "type": "address"},
			{"internalType": "address", "name": "token1", "type": "address"},
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
			{"internalType": "uint256", "name": "expectedAmountOut", "type": "uint256"}
		],
		"name": "executeArbitrage",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "token", "type": "address"}],
		"name": "withdraw",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// portalABI is the perpetual portal surface. The portal tracks the open
// trade itself, so closeTrade takes no arguments.
const portalABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "_token", "type": "address"},
			{"internalType": "bool", "name": "_isLong", "type": "bool"},
			{"internalType": "uint96", "name": "_amount", "type": "uint96"},
			{"internalType": "uint80", "name": "_qty", "type": "uint80"},
			{"internalType": "uint64", "name": "_price", "type": "uint64"},
			{"internalType": "uint64", "name": "_takeProfit", "type": "uint64"}
		],
		"name": "openTradeBNB",
		"outputs": [{"internalType": "bytes32", "name": "tradeHash", "type": "bytes32"}],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "closeTrade",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "withdrawBNB",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// tradeVaultABI is the spot trade vault surface. checkTrade compares the
// routers for the token and reports "buy", "sell" or "none".
const tradeVaultABI = `[
	{
		"inputs": [
			{"internalType": "address[]", "name": "routers", "type": "address[]"},
			{"internalType": "address", "name": "token", "type": "address"},
			{"internalType": "uint256", "name": "gasCostLimitInWei", "type": "uint256"}
		],
		"name": "checkTrade",
		"outputs": [
			{"internalType": "string", "name": "direction", "type": "string"},
			{"internalType": "address", "name": "router", "type": "address"},
			{"internalType": "uint256", "name": "amountETH", "type": "uint256"},
			{"internalType": "uint256", "name": "amountToken", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "router", "type": "address"},
			{"internalType": "address", "name": "token", "type": "address"},
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
			{"internalType": "uint256", "name": "amountOutMin", "type": "uint256"}
		],
		"name": "executeTradeETHForTokens",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "router", "type": "address"},
			{"internalType": "address", "name": "token", "type": "address"},
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
			{"internalType": "uint256", "name": "amountOutMin", "type": "uint256"}
		],
		"name": "executeTradeTokensForETH",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "token", "type": "address"}],
		"name": "withdrawToken",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "withdrawETH",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`
