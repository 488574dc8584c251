package batch_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/chaincodec/chaincodec/internal/batch"
	"github.com/chaincodec/chaincodec/internal/chain"
	"github.com/chaincodec/chaincodec/internal/evm"
	"github.com/chaincodec/chaincodec/internal/registry"
	"github.com/chaincodec/chaincodec/internal/schema"
	"github.com/chaincodec/chaincodec/internal/values"
)

func erc20TransferSchema() *schema.Schema {
	return &schema.Schema{
		Name:        "ERC20Transfer",
		Version:     1,
		Chains:      []string{"ethereum"},
		Event:       "Transfer",
		Fingerprint: "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		Fields: []schema.FieldDef{
			{Name: "from", Type: values.Address(values.FamilyEVM), Indexed: true},
			{Name: "to", Type: values.Address(values.FamilyEVM), Indexed: true},
			{Name: "value", Type: values.Uint(256)},
		},
	}
}

func topic32(b byte) []byte {
	t := make([]byte, 32)
	t[31] = b
	return t
}

func matchingLog(fp chain.EventFingerprint, i int) *chain.RawEvent {
	data := make([]byte, 32)
	big.NewInt(int64(i)).FillBytes(data)
	return &chain.RawEvent{
		Chain: values.LookupChain("ethereum"),
		Topics: [][]byte{
			mustDecodeFP(fp),
			topic32(1),
			topic32(2),
		},
		Data: data,
		Address: "0xcontract",
	}
}

func mustDecodeFP(fp chain.EventFingerprint) []byte {
	s := string(fp)[2:]
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		var v byte
		for _, c := range s[i*2 : i*2+2] {
			v <<= 4
			switch {
			case c >= '0' && c <= '9':
				v |= byte(c - '0')
			case c >= 'a' && c <= 'f':
				v |= byte(c-'a') + 10
			}
		}
		out[i] = v
	}
	return out
}

func unknownLog(i int) *chain.RawEvent {
	data := make([]byte, 32)
	fp := make([]byte, 32)
	fp[31] = byte(0xF0 + (i % 10))
	return &chain.RawEvent{
		Chain:  values.LookupChain("ethereum"),
		Topics: [][]byte{fp, topic32(1), topic32(2)},
		Data:   data,
	}
}

func TestS6BatchCollect(t *testing.T) {
	s := erc20TransferSchema()
	reg := registry.New()
	if err := reg.Add(s); err != nil {
		t.Fatal(err)
	}

	raws := make([]*chain.RawEvent, 0, 1000)
	for i := 0; i < 900; i++ {
		raws = append(raws, matchingLog(s.Fingerprint, i))
	}
	for i := 0; i < 100; i++ {
		raws = append(raws, unknownLog(i))
	}

	res, err := batch.Run(context.Background(), batch.Request{
		ChainSlug: "ethereum",
		Raws:      raws,
		ChunkSize: 64,
		ErrorMode: batch.Collect,
	}, evm.NewDecoder(), reg)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Events) != 900 {
		t.Fatalf("expected 900 events, got %d", len(res.Events))
	}
	if len(res.Errors) != 0 {
		t.Fatalf("expected 0 errors, got %d", len(res.Errors))
	}
	if res.Skipped != 100 {
		t.Fatalf("expected 100 skipped, got %d", res.Skipped)
	}
	if res.TotalInput != 1000 {
		t.Fatalf("expected total_input 1000, got %d", res.TotalInput)
	}
}

func TestBatchPreservesInputOrder(t *testing.T) {
	s := erc20TransferSchema()
	reg := registry.New()
	if err := reg.Add(s); err != nil {
		t.Fatal(err)
	}

	raws := make([]*chain.RawEvent, 0, 250)
	for i := 0; i < 250; i++ {
		raws = append(raws, matchingLog(s.Fingerprint, i))
	}

	res, err := batch.Run(context.Background(), batch.Request{
		Raws:      raws,
		ChunkSize: 32,
		ErrorMode: batch.Collect,
	}, evm.NewDecoder(), reg)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Events) != 250 {
		t.Fatalf("expected 250 events, got %d", len(res.Events))
	}
	for i, ev := range res.Events {
		v, _ := ev.Fields.Get("value")
		n, _ := v.BigInt()
		if n.Cmp(big.NewInt(int64(i))) != 0 {
			t.Fatalf("out-of-order result at %d: value=%s", i, n.String())
		}
	}
}

func TestBatchThrowAbortsAndDiscardsPartials(t *testing.T) {
	s := erc20TransferSchema()
	reg := registry.New()
	if err := reg.Add(s); err != nil {
		t.Fatal(err)
	}

	raws := []*chain.RawEvent{
		matchingLog(s.Fingerprint, 0),
		{
			Chain:  values.LookupChain("ethereum"),
			Topics: [][]byte{mustDecodeFP(s.Fingerprint), topic32(1)}, // missing second indexed topic
			Data:   make([]byte, 32),
		},
	}

	_, err := batch.Run(context.Background(), batch.Request{
		Raws:      raws,
		ChunkSize: 10,
		ErrorMode: batch.Throw,
	}, evm.NewDecoder(), reg)
	if err == nil {
		t.Fatal("expected batch to abort")
	}
}

func TestBatchSkipModeDropsFailuresSilently(t *testing.T) {
	s := erc20TransferSchema()
	reg := registry.New()
	if err := reg.Add(s); err != nil {
		t.Fatal(err)
	}

	raws := []*chain.RawEvent{
		matchingLog(s.Fingerprint, 0),
		{
			Chain:  values.LookupChain("ethereum"),
			Topics: [][]byte{mustDecodeFP(s.Fingerprint), topic32(1)},
			Data:   make([]byte, 32),
		},
	}

	res, err := batch.Run(context.Background(), batch.Request{
		Raws:      raws,
		ChunkSize: 10,
		ErrorMode: batch.Skip,
	}, evm.NewDecoder(), reg)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Events) != 1 {
		t.Fatalf("expected 1 surviving event, got %d", len(res.Events))
	}
	if len(res.Errors) != 0 {
		t.Fatalf("skip mode must not record errors, got %d", len(res.Errors))
	}
}
