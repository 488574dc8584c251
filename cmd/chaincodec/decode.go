package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chaincodec/chaincodec/internal/batch"
	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/config"
	"github.com/chaincodec/chaincodec/internal/cosmos"
	"github.com/chaincodec/chaincodec/internal/csdl"
	"github.com/chaincodec/chaincodec/internal/evm"
	"github.com/chaincodec/chaincodec/internal/registry"
	"github.com/chaincodec/chaincodec/internal/solana"
	"github.com/chaincodec/chaincodec/internal/values"
)

// rawEventInput is the wire shape decode reads from --input: a
// chain slug instead of a full ChainId, and hex (0x-prefixed) or
// base64 byte fields,
// mirroring how a caller would hand ChainCodec a batch pulled from an
// archive node's JSON-RPC log dump.
type rawEventInput struct {
	ChainSlug      string   `json:"chain_slug"`
	TxHash         string   `json:"tx_hash"`
	BlockNumber    uint64   `json:"block_number"`
	BlockTimestamp int64    `json:"block_timestamp"`
	LogIndex       *uint64  `json:"log_index,omitempty"`
	Address        string   `json:"address"`
	Topics         []string `json:"topics,omitempty"`
	Data           string   `json:"data,omitempty"`
	Removed        bool     `json:"removed,omitempty"`
}

func (r rawEventInput) toRawEvent() (*chain.RawEvent, error) {
	data, err := decodeHexOrBase64(r.Data)
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	topics := make([][]byte, 0, len(r.Topics))
	for i, t := range r.Topics {
		b, err := decodeHexOrBase64(t)
		if err != nil {
			return nil, fmt.Errorf("topics[%d]: %w", i, err)
		}
		topics = append(topics, b)
	}
	return &chain.RawEvent{
		Chain:          values.LookupChain(r.ChainSlug),
		TxHash:         r.TxHash,
		BlockNumber:    r.BlockNumber,
		BlockTimestamp: r.BlockTimestamp,
		LogIndex:       r.LogIndex,
		Address:        r.Address,
		Topics:         topics,
		Data:           data,
		Removed:        r.Removed,
	}, nil
}

// decodeHexOrBase64 accepts either a 0x-prefixed hex string (the
// shape most JSON-RPC log dumps already use) or plain base64, so a
// caller doesn't have to re-encode an existing export.
func decodeHexOrBase64(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return decodeHex(s[2:])
	}
	return base64.StdEncoding.DecodeString(s)
}

func decodeHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		s = "0" + s
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, err := hexNibble(s[2*i])
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(s[2*i+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex character %q", c)
	}
}

var (
	decodeInputPath string
	decodeChunkSize int
	decodeOnError   string
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Batch-decode a JSON array of raw events against the configured schemas",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if decodeInputPath == "" {
			return fmt.Errorf("--input is required")
		}

		raw, err := os.ReadFile(decodeInputPath)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		var inputs []rawEventInput
		if err := json.Unmarshal(raw, &inputs); err != nil {
			return fmt.Errorf("parse input: %w", err)
		}
		if len(inputs) == 0 {
			return fmt.Errorf("input contains no events")
		}
		chainSlug := inputs[0].ChainSlug

		ch, err := cfg.ChainBySlug(chainSlug)
		if err != nil {
			return err
		}

		reg := registry.New()
		for _, dir := range ch.CSDLDirs {
			schemas, err := csdl.LoadDir(dir)
			if err != nil {
				return fmt.Errorf("csdl dir %s: %w", dir, err)
			}
			for _, s := range schemas {
				if err := reg.Upsert(s); err != nil {
					return fmt.Errorf("schema %s v%d: %w", s.Name, s.Version, err)
				}
			}
		}

		decoder, err := decoderForFamily(ch.Family)
		if err != nil {
			return err
		}

		events := make([]*chain.RawEvent, 0, len(inputs))
		for i, in := range inputs {
			ev, err := in.toRawEvent()
			if err != nil {
				return fmt.Errorf("event %d: %w", i, err)
			}
			events = append(events, ev)
		}

		mode, err := parseErrorMode(decodeOnError)
		if err != nil {
			return err
		}

		result, err := batch.Run(cmd.Context(), batch.Request{
			ChainSlug: chainSlug,
			Raws:      events,
			ChunkSize: decodeChunkSize,
			ErrorMode: mode,
		}, decoder, reg)
		if err != nil {
			return fmt.Errorf("batch decode: %w", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(decodeResultToJSON(result))
	},
}

// decodeResultJSON mirrors batch.Result but stringifies ItemError.Err,
// since the error interface itself carries no exported fields for
// encoding/json to walk.
type decodeResultJSON struct {
	Events     []*chain.DecodedEvent `json:"events"`
	Errors     []itemErrorJSON       `json:"errors"`
	Skipped    int                   `json:"skipped"`
	TotalInput int                   `json:"total_input"`
}

type itemErrorJSON struct {
	InputIndex int    `json:"input_index"`
	Error      string `json:"error"`
}

func decodeResultToJSON(r *batch.Result) decodeResultJSON {
	out := decodeResultJSON{
		Events:     r.Events,
		Skipped:    r.Skipped,
		TotalInput: r.TotalInput,
	}
	for _, e := range r.Errors {
		out.Errors = append(out.Errors, itemErrorJSON{InputIndex: e.InputIndex, Error: e.Err.Error()})
	}
	return out
}

func decoderForFamily(family string) (chain.EventDecoder, error) {
	switch strings.ToLower(family) {
	case "evm":
		return evm.NewDecoder(), nil
	case "solana":
		return solana.NewDecoder(), nil
	case "cosmos":
		return cosmos.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported chain family %q", family)
	}
}

func parseErrorMode(s string) (batch.ErrorMode, error) {
	switch strings.ToLower(s) {
	case "", "collect":
		return batch.Collect, nil
	case "skip":
		return batch.Skip, nil
	case "throw":
		return batch.Throw, nil
	default:
		return "", fmt.Errorf("unknown --on-error mode %q (want collect|skip|throw)", s)
	}
}

func init() {
	decodeCmd.Flags().StringVar(&decodeInputPath, "input", "", "Path to a JSON array of raw events (all sharing one chain_slug)")
	decodeCmd.Flags().IntVar(&decodeChunkSize, "chunk-size", 256, "Number of events decoded per chunk")
	decodeCmd.Flags().StringVar(&decodeOnError, "on-error", "collect", "Error mode: collect|skip|throw")
}
