package evm

import "testing"

const sampleTypedData = `{
  "types": {
    "EIP712Domain": [
      {"name": "name", "type": "string"},
      {"name": "version", "type": "string"},
      {"name": "chainId", "type": "uint256"},
      {"name": "verifyingContract", "type": "address"}
    ],
    "Mail": [
      {"name": "from", "type": "address"},
      {"name": "to", "type": "address"},
      {"name": "contents", "type": "string"}
    ]
  },
  "primaryType": "Mail",
  "domain": {
    "name": "TestApp",
    "version": "1",
    "chainId": 1,
    "verifyingContract": "0x0000000000000000000000000000000000000001"
  },
  "message": {
    "from": "0x0000000000000000000000000000000000000002",
    "to": "0x0000000000000000000000000000000000000003",
    "contents": "hello"
  }
}`

func TestParseTypedDataAndDomainSeparator(t *testing.T) {
	td, err := ParseTypedData([]byte(sampleTypedData))
	if err != nil {
		t.Fatal(err)
	}
	if td.PrimaryType() != "Mail" {
		t.Fatalf("expected primaryType Mail, got %s", td.PrimaryType())
	}
	if len(td.Fields()) != 3 {
		t.Fatalf("expected 3 fields on Mail, got %d", len(td.Fields()))
	}
	sep, err := td.DomainSeparator()
	if err != nil {
		t.Fatal(err)
	}
	var zero [32]byte
	if sep == zero {
		t.Fatal("expected a non-zero domain separator")
	}
}
