package evm

import (
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/chaincodec/chaincodec/internal/values"
)

const erc20ABI = `[
  {"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}]},
  {"type":"function","name":"approve","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}]},
  {"type":"function","name":"balanceOf","inputs":[{"name":"account","type":"address"}]}
]`

func mustParseERC20(t *testing.T) *ABISpec {
	t.Helper()
	spec, err := ParseABI([]byte(erc20ABI))
	if err != nil {
		t.Fatal(err)
	}
	return spec
}

func TestS2MaxApprovalDetection(t *testing.T) {
	spec := mustParseERC20(t)

	selector, _ := hex.DecodeString("095ea7b3")
	spender := addrTopic(t, "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")
	maxU256 := make([]byte, 32)
	for i := range maxU256 {
		maxU256[i] = 0xff
	}

	calldata := append(append(append([]byte{}, selector...), spender...), maxU256...)

	decoded, err := spec.DecodeCall(calldata, "")
	if err != nil {
		t.Fatal(err)
	}
	if decoded.FunctionName != "approve" {
		t.Fatalf("expected approve, got %s", decoded.FunctionName)
	}
	if decoded.Inputs[0].Name != "spender" {
		t.Fatalf("expected spender, got %s", decoded.Inputs[0].Name)
	}
	amount, _ := decoded.Inputs[1].Value.DecimalString()
	if amount != "115792089237316195423570985008687907853269984665640564039457584007913129639935" {
		t.Fatalf("expected max u256 decimal string, got %s", amount)
	}
	if decoded.Inputs[1].Value.Kind != values.VBigUint {
		t.Fatalf("expected BigUint kind for max u256, got %s", decoded.Inputs[1].Value.Kind)
	}
}

func TestS3EncodeRoundtrip(t *testing.T) {
	spec := mustParseERC20(t)

	toAddr := values.NewAddress("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")
	amount := values.NewUint64(1_000_000)

	encoded, err := spec.EncodeCall("transfer", []values.Value{toAddr, amount})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.EqualFold(hex.EncodeToString(encoded[:4]), "a9059cbb") {
		t.Fatalf("expected selector a9059cbb, got %x", encoded[:4])
	}

	decoded, err := spec.DecodeCall(encoded, "")
	if err != nil {
		t.Fatal(err)
	}
	toStr, _ := decoded.Inputs[0].Value.Str()
	if !strings.EqualFold(toStr, "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B") {
		t.Fatalf("roundtrip address mismatch: %s", toStr)
	}
	amtBig, _ := decoded.Inputs[1].Value.BigInt()
	if amtBig.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("roundtrip amount mismatch: %s", amtBig.String())
	}
}

func TestUnknownSelectorFails(t *testing.T) {
	spec := mustParseERC20(t)
	if _, err := spec.DecodeCall([]byte{0xde, 0xad, 0xbe, 0xef}, ""); err == nil {
		t.Fatal("expected unknown selector error")
	}
}
