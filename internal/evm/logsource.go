package evm

import (
	"context"
	"fmt"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/values"
)

// LogSource is the reference stream.LogSource implementation: an
// eth_subscribe("logs", filter) websocket connection. It knows nothing
// about the stream engine's state machine; it only connects,
// subscribes, and translates types.Log into chain.RawEvent.
type LogSource struct {
	wsURL     string
	chainSlug string
	addresses []common.Address
	topics    [][]common.Hash

	client *ethclient.Client
	sub    ethereum.Subscription
	logs   chan types.Log
}

// NewLogSource builds a LogSource dialing wsURL, filtering to the
// given contract addresses (empty means every address).
func NewLogSource(wsURL, chainSlug string, addresses []common.Address) *LogSource {
	return &LogSource{wsURL: wsURL, chainSlug: chainSlug, addresses: addresses}
}

func (s *LogSource) Connect(ctx context.Context) error {
	client, err := ethclient.DialContext(ctx, s.wsURL)
	if err != nil {
		return fmt.Errorf("dial evm websocket: %w", err)
	}
	s.client = client
	return nil
}

func (s *LogSource) Subscribe(ctx context.Context) (<-chan *chain.RawEvent, <-chan error, error) {
	s.logs = make(chan types.Log, 256)
	query := ethereum.FilterQuery{Addresses: s.addresses, Topics: s.topics}
	sub, err := s.client.SubscribeFilterLogs(ctx, query, s.logs)
	if err != nil {
		return nil, nil, fmt.Errorf("subscribe filter logs: %w", err)
	}
	s.sub = sub

	out := make(chan *chain.RawEvent, 256)
	go func() {
		defer close(out)
		for lg := range s.logs {
			out <- logToRawEvent(s.chainSlug, lg)
		}
	}()

	return out, sub.Err(), nil
}

func (s *LogSource) Close() error {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.client != nil {
		s.client.Close()
	}
	return nil
}

func logToRawEvent(chainSlug string, lg types.Log) *chain.RawEvent {
	topics := make([][]byte, len(lg.Topics))
	for i, t := range lg.Topics {
		topics[i] = t.Bytes()
	}
	logIndex := uint64(lg.Index)
	return &chain.RawEvent{
		Chain:          values.LookupChain(chainSlug),
		TxHash:         lg.TxHash.Hex(),
		BlockNumber:    lg.BlockNumber,
		BlockTimestamp: 0, // the log RPC payload carries no timestamp; callers needing it join against the block header
		LogIndex:       &logIndex,
		Address:        lg.Address.Hex(),
		Topics:         topics,
		Data:           lg.Data,
		Removed:        lg.Removed,
	}
}
