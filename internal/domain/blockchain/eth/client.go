package eth

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/math"
	"github.com/questx-lab/badge-minter/config"
	"github.com/questx-lab/badge-minter/contract/badgenft"
	"github.com/questx-lab/badge-minter/internal/common"
	"github.com/questx-lab/badge-minter/pkg/ethutil"
	"github.com/questx-lab/badge-minter/pkg/xcontext"
)

const (
	MaxShuffleTimes = 20

	// Nodes whose height is further than this from the median are considered
	// out of sync.
	MaxHeightDistance = 5
)

var ErrNoHealthyRPC = errors.New("no healthy rpc")

// A wrapper around eth.client so that we can mock in dispatcher tests.
type EthClient interface {
	Start(ctx context.Context)

	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash ethcommon.Hash) (*ethtypes.Receipt, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	GetSignedMintTx(ctx context.Context, to ethcommon.Address, tokenID *big.Int) (*ethtypes.Transaction, error)
}

// Default implementation of ETH client. Since eth RPC often unstable, this client maintains a list
// of different RPC to connect to and uses the ones that is stable to dispatch a transaction.
type defaultEthClient struct {
	chain           string
	chainID         *big.Int
	contractAddress ethcommon.Address
	privateKey      *ecdsa.PrivateKey
	configuredRpcs  []string

	clients   []*ethclient.Client
	healthies []bool
	rpcs      []string

	mutex sync.RWMutex
}

func NewEthClient(cfg config.BlockchainConfigs) (*defaultEthClient, error) {
	if len(cfg.RPCs) == 0 {
		return nil, fmt.Errorf("no rpc is configured for chain %s", cfg.Chain)
	}

	if !ethcommon.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}

	privateKey, err := ethutil.LoadPrivateKey(cfg.PrivateKey, cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("cannot load signer key: %w", err)
	}

	return &defaultEthClient{
		chain:           cfg.Chain,
		chainID:         big.NewInt(cfg.ChainID),
		contractAddress: ethcommon.HexToAddress(cfg.ContractAddress),
		privateKey:      privateKey,
		configuredRpcs:  cfg.RPCs,
	}, nil
}

func (c *defaultEthClient) Start(ctx context.Context) {
	c.updateRpcs(ctx)
	go c.loopCheck(ctx)
}

func (c *defaultEthClient) loopCheck(ctx context.Context) {
	ticker := time.NewTicker(xcontext.Configs(ctx).Blockchain.RefreshConnectionFrequency)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.updateRpcs(ctx)
		}
	}
}

func (c *defaultEthClient) updateRpcs(ctx context.Context) {
	rpcs, clients, healthies := c.getRpcsHealthiness(ctx, c.configuredRpcs)
	if len(clients) == 0 {
		xcontext.Logger(ctx).Errorf("Cannot connect to any rpc of chain %s, keep the old ones", c.chain)
		return
	}

	c.mutex.Lock()
	oldClients := c.clients
	c.rpcs, c.clients, c.healthies = rpcs, clients, healthies
	c.mutex.Unlock()

	for _, client := range oldClients {
		client.Close()
	}
}

func (c *defaultEthClient) getRpcsHealthiness(
	ctx context.Context, allRpcs []string,
) ([]string, []*ethclient.Client, []bool) {
	clients := make([]*ethclient.Client, 0)
	rpcs := make([]string, 0)
	healthies := make([]bool, 0)

	type healthyNode struct {
		client *ethclient.Client
		rpc    string
		height int64
	}

	timeout := xcontext.Configs(ctx).Blockchain.RPCTimeout
	nodes := make([]*healthyNode, 0)
	for _, rpc := range allRpcs {
		client, err := ethclient.Dial(rpc)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot dial rpc %s: %v", rpc, err)
			continue
		}

		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		height, err := client.BlockNumber(checkCtx)
		cancel()
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot get height from rpc %s: %v", rpc, err)
			client.Close()
			continue
		}

		nodes = append(nodes, &healthyNode{client: client, rpc: rpc, height: int64(height)})
	}

	if len(nodes) == 0 {
		return rpcs, clients, healthies
	}

	// Sorts all nodes by height
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].height > nodes[j].height
	})

	// Only select some nodes within a certain height from the median
	median := nodes[len(nodes)/2].height
	for _, node := range nodes {
		distance := math.MaxInt64(node.height-median, median-node.height)
		if distance < MaxHeightDistance {
			rpcs = append(rpcs, node.rpc)
			clients = append(clients, node.client)
			healthies = append(healthies, true)
		} else {
			node.client.Close()
		}
	}

	xcontext.Logger(ctx).Infof("Healthy rpcs for chain %s: %s", c.chain, rpcs)

	return rpcs, clients, healthies
}

func (c *defaultEthClient) shuffle() ([]*ethclient.Client, []bool, []string) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	n := len(c.clients)
	if n == 0 {
		return nil, nil, nil
	}

	clients := make([]*ethclient.Client, n)
	healthy := make([]bool, n)
	rpcs := make([]string, n)

	copy(clients, c.clients)
	copy(healthy, c.healthies)
	copy(rpcs, c.rpcs)

	for i := 0; i < MaxShuffleTimes; i++ {
		x := rand.Intn(n)
		y := rand.Intn(n)

		clients[x], clients[y] = clients[y], clients[x]
		healthy[x], healthy[y] = healthy[y], healthy[x]
		rpcs[x], rpcs[y] = rpcs[y], rpcs[x]
	}

	return clients, healthy, rpcs
}

func (c *defaultEthClient) getHealthyClient(ctx context.Context) (*ethclient.Client, string) {
	c.mutex.RLock()
	noClient := len(c.clients) == 0
	c.mutex.RUnlock()

	if noClient {
		c.updateRpcs(ctx)
	}

	// Shuffle rpcs so that we will use different healthy rpc
	clients, healthies, rpcs := c.shuffle()
	for i, healthy := range healthies {
		if healthy {
			return clients[i], rpcs[i]
		}
	}

	return nil, ""
}

func (c *defaultEthClient) execute(
	ctx context.Context, method string, f func(client *ethclient.Client, rpc string) (any, error),
) (any, error) {
	common.PromCounters[common.ChainCallsTotal].WithLabelValues(method).Inc()

	client, rpc := c.getHealthyClient(ctx)
	if client == nil {
		return nil, fmt.Errorf("%w for chain %s", ErrNoHealthyRPC, c.chain)
	}

	ret, err := f(client, rpc)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Call %s to rpc %s failed: %v", method, rpc, err)
	}

	return ret, err
}

func (c *defaultEthClient) BlockNumber(ctx context.Context) (uint64, error) {
	num, err := c.execute(ctx, "block_number", func(client *ethclient.Client, rpc string) (any, error) {
		return client.BlockNumber(ctx)
	})

	if err != nil {
		return 0, err
	}

	return num.(uint64), nil
}

func (c *defaultEthClient) TransactionReceipt(ctx context.Context, txHash ethcommon.Hash) (*ethtypes.Receipt, error) {
	receipt, err := c.execute(ctx, "transaction_receipt", func(client *ethclient.Client, rpc string) (any, error) {
		return client.TransactionReceipt(ctx, txHash)
	})

	if err != nil {
		return nil, err
	}

	return receipt.(*ethtypes.Receipt), nil
}

func (c *defaultEthClient) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	_, err := c.execute(ctx, "send_transaction", func(client *ethclient.Client, rpc string) (any, error) {
		return nil, client.SendTransaction(ctx, tx)
	})

	return err
}

// GetSignedMintTx builds and signs a mint transaction without sending it. The
// node is queried for nonce, gas price and gas estimation.
func (c *defaultEthClient) GetSignedMintTx(
	ctx context.Context, to ethcommon.Address, tokenID *big.Int,
) (*ethtypes.Transaction, error) {
	signedTx, err := c.execute(ctx, "build_mint_tx", func(client *ethclient.Client, rpc string) (any, error) {
		nft, err := badgenft.NewBadgenftTransactor(c.contractAddress, client)
		if err != nil {
			return nil, err
		}

		return nft.Mint(c.TransactionOpts(ctx, c.privateKey, ethcommon.Big0), to, tokenID)
	})
	if err != nil {
		return nil, err
	}

	return signedTx.(*ethtypes.Transaction), nil
}

func (c *defaultEthClient) TransactionOpts(
	ctx context.Context, fromPrivateKey *ecdsa.PrivateKey, value *big.Int,
) *bind.TransactOpts {
	return &bind.TransactOpts{
		From: crypto.PubkeyToAddress(fromPrivateKey.PublicKey),
		Signer: func(a ethcommon.Address, t *ethtypes.Transaction) (*ethtypes.Transaction, error) {
			return ethtypes.SignTx(t, ethtypes.NewEIP155Signer(c.chainID), fromPrivateKey)
		},
		Value:   value,
		Context: ctx,
		NoSend:  true,
	}
}
