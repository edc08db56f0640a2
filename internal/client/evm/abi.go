package evm

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const playStatusComponents = `[
	{"name":"fulfilled","type":"bool"},
	{"name":"id","type":"uint256"},
	{"name":"blockNumber","type":"uint256"},
	{"name":"player","type":"address"},
	{"name":"inputToken","type":"address"},
	{"name":"inputAmount","type":"uint256"},
	{"name":"repeats","type":"uint256"},
	{"name":"outputToken","type":"address"},
	{"name":"tableId","type":"uint256"},
	{"name":"requestId","type":"uint256"},
	{"name":"randomWord","type":"uint256"},
	{"name":"outcomeLevels","type":"uint256[]"},
	{"name":"outputTotalAmount","type":"uint256"},
	{"name":"outputXexpAmount","type":"uint256"}
]`

const playABI = `[
	{"type":"function","name":"play","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"player","type":"address"},
		{"name":"inputToken","type":"address"},
		{"name":"inputAmount","type":"uint256"},
		{"name":"repeats","type":"uint256"},
		{"name":"outputToken","type":"address"},
		{"name":"tableId","type":"uint256"}],
	 "outputs":[{"name":"playId","type":"uint256"}]},
	{"type":"function","name":"listPlayIds","stateMutability":"view",
	 "inputs":[{"name":"player","type":"address"}],
	 "outputs":[{"name":"playIds","type":"uint256[]"}]},
	{"type":"function","name":"getPlayStatusById","stateMutability":"view",
	 "inputs":[{"name":"playId","type":"uint256"}],
	 "outputs":[{"name":"status","type":"tuple","components":` + playStatusComponents + `}]},
	{"type":"event","name":"PlayRequested","anonymous":false,
	 "inputs":[
		{"name":"player","type":"address","indexed":false},
		{"name":"inputToken","type":"address","indexed":false},
		{"name":"inputAmount","type":"uint256","indexed":false},
		{"name":"repeats","type":"uint256","indexed":false},
		{"name":"outputToken","type":"address","indexed":false},
		{"name":"tableId","type":"uint256","indexed":false},
		{"name":"playId","type":"uint256","indexed":false},
		{"name":"requestId","type":"uint256","indexed":false},
		{"name":"sharing","type":"tuple","indexed":false,"components":[
			{"name":"maintainer","type":"address"},
			{"name":"maintainerAmount","type":"uint256"},
			{"name":"claimer","type":"address"},
			{"name":"claimerAmount","type":"uint256"},
			{"name":"donation","type":"address"},
			{"name":"donationAmount","type":"uint256"}]}]}
]`

const charityABI = `[
	{"type":"function","name":"playWithToken","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"inputToken","type":"address"},
		{"name":"inputAmount","type":"uint256"},
		{"name":"repeats","type":"uint256"},
		{"name":"outputToken","type":"address"},
		{"name":"tableId","type":"uint256"},
		{"name":"donationId","type":"uint256"}],
	 "outputs":[{"name":"playId","type":"uint256"}]},
	{"type":"event","name":"PlayResult","anonymous":false,
	 "inputs":[
		{"name":"player","type":"address","indexed":false},
		{"name":"playId","type":"uint256","indexed":false},
		{"name":"goodReceivedAmount","type":"uint256","indexed":false}]}
]`

const erc20ABI = `[
	{"type":"function","name":"allowance","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

var (
	playContractABI    = mustParse(playABI)
	charityContractABI = mustParse(charityABI)
	erc20ContractABI   = mustParse(erc20ABI)
)

func mustParse(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("evm: bad abi: " + err.Error())
	}
	return parsed
}
