package evm

import (
	"encoding/hex"
	"strings"
)

// ProxyKind is the tag a proxy classification resolves to, per
// spec.md §4.11.
type ProxyKind string

const (
	NotAProxy        ProxyKind = "not_a_proxy"
	LogicProxy       ProxyKind = "logic_proxy"       // EIP-1967
	BeaconProxy      ProxyKind = "beacon_proxy"      // EIP-1967
	UUPS             ProxyKind = "uups"              // EIP-1822
	MinimalProxy     ProxyKind = "minimal_proxy"     // EIP-1167
	TransparentProxy ProxyKind = "transparent_proxy" // OpenZeppelin legacy
	UnknownProxy     ProxyKind = "unknown"
)

// Well-known EIP-1967/EIP-1822 storage slots. Each is
// keccak256(<label>) - 1 (EIP-1967) or keccak256(<label>) (EIP-1822),
// computed once upstream and pinned as constants — grounded on
// chaincodec-evm/src/proxy.rs's EIP1967_IMPL_SLOT et al.
const (
	EIP1967ImplSlot      = "0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc"
	EIP1967BeaconSlot    = "0xa3f0ad74e5423aebfd80d3ef4346578335a9a72aeaee59ff6cb3582b35133d50"
	EIP1822ProxiableSlot = "0xc5f16f0fcc639fa48a6947836d9850f504798523bf8c9a3a87d5876cf622bcf7"

	// EIP1967AdminSlot distinguishes an OpenZeppelin TransparentUpgradeableProxy
	// from a bare EIP-1967 logic proxy: transparent proxies additionally
	// populate the admin slot.
	EIP1967AdminSlot = "0xb53127684a568b3173ae13b9f8a6016e243e63b6e8ee1178d6a717850b5d6103"
)

var eip1167Prefix = []byte{0x36, 0x3d, 0x3d, 0x37, 0x3d, 0x3d, 0x3d, 0x36, 0x3d, 0x73}
var eip1167Suffix = []byte{0x5a, 0xf4, 0x3d, 0x82, 0x80, 0x3e, 0x90, 0x3d, 0x91, 0x60, 0x2b, 0x57, 0xfd, 0x5b, 0xf3}

// ProxyInputs is the pre-fetched evidence the classifier reasons over.
// Gathering it (via eth_getStorageAt / eth_getCode) is the host's job;
// ClassifyProxy itself performs no I/O, per spec.md §9.
type ProxyInputs struct {
	Address          string
	ImplSlotValue    string // eth_getStorageAt(address, EIP1967ImplSlot), 32-byte hex or ""
	BeaconSlotValue  string
	UUPSSlotValue    string
	AdminSlotValue   string
	Bytecode         []byte // eth_getCode, raw bytes (not hex)
}

// ProxyResult is the classifier's output.
type ProxyResult struct {
	ProxyAddress   string
	Kind           ProxyKind
	Implementation string
	Beacon         string
	Slot           string
}

// ClassifyProxy applies spec.md §4.11's rules in order: EIP-1167
// minimal clone bytecode takes precedence over storage-slot evidence
// on the same address. A real EIP-1822 UUPS proxy also populates the
// EIP-1967 impl slot, so the UUPS rule (impl slot non-zero AND the
// UUPS slot holding the well-known proxiable-UUID) is checked before
// the generic impl-slot rule, or the impl-slot rule would always
// shadow it. Then the plain impl slot (with the OZ transparent
// variant distinguished by the admin slot being set), then the beacon
// slot.
func ClassifyProxy(in ProxyInputs) ProxyResult {
	if addr, ok := detectMinimalProxy(in.Bytecode); ok {
		return ProxyResult{ProxyAddress: in.Address, Kind: MinimalProxy, Implementation: addr}
	}

	implAddr, hasImpl := storageToAddress(in.ImplSlotValue)

	if hasImpl && slotValueEquals(in.UUPSSlotValue, EIP1822ProxiableSlot) {
		return ProxyResult{ProxyAddress: in.Address, Kind: UUPS, Implementation: implAddr, Slot: EIP1822ProxiableSlot}
	}

	if hasImpl {
		kind := LogicProxy
		if _, hasAdmin := storageToAddress(in.AdminSlotValue); hasAdmin {
			kind = TransparentProxy
		}
		return ProxyResult{ProxyAddress: in.Address, Kind: kind, Implementation: implAddr, Slot: EIP1967ImplSlot}
	}

	if addr, ok := storageToAddress(in.BeaconSlotValue); ok {
		return ProxyResult{ProxyAddress: in.Address, Kind: BeaconProxy, Beacon: addr, Slot: EIP1967BeaconSlot}
	}

	isZero := func(v string) bool { return strings.Trim(strings.TrimPrefix(v, "0x"), "0") == "" }
	if isZero(in.ImplSlotValue) && isZero(in.BeaconSlotValue) && isZero(in.UUPSSlotValue) && len(in.Bytecode) == 0 {
		return ProxyResult{ProxyAddress: in.Address, Kind: NotAProxy}
	}
	return ProxyResult{ProxyAddress: in.Address, Kind: UnknownProxy}
}

// detectMinimalProxy recognizes the fixed 45-byte EIP-1167 clone
// template and extracts the embedded implementation address from
// bytes 10..30, with no RPC call required.
func detectMinimalProxy(bytecode []byte) (string, bool) {
	if len(bytecode) != 45 {
		return "", false
	}
	if string(bytecode[:10]) != string(eip1167Prefix) {
		return "", false
	}
	if string(bytecode[30:]) != string(eip1167Suffix) {
		return "", false
	}
	return "0x" + hex.EncodeToString(bytecode[10:30]), true
}

// storageToAddress extracts a 20-byte address from a 32-byte storage
// slot value, requiring the top 12 bytes to be zero and the address
// itself to be non-zero.
func storageToAddress(slotValue string) (string, bool) {
	h := strings.TrimPrefix(slotValue, "0x")
	if len(h) != 64 {
		return "", false
	}
	prefix, addrHex := h[:24], h[24:]
	if strings.Trim(prefix, "0") != "" {
		return "", false
	}
	if strings.Trim(addrHex, "0") == "" {
		return "", false
	}
	return "0x" + addrHex, true
}

// slotValueEquals compares two 32-byte storage slot values for
// equality, ignoring "0x" prefix and hex casing.
func slotValueEquals(slotValue, wellKnown string) bool {
	return strings.EqualFold(strings.TrimPrefix(slotValue, "0x"), strings.TrimPrefix(wellKnown, "0x"))
}

// ProxyDetectionSlots lists the (label, slot) pairs a host should
// query via eth_getStorageAt before calling ClassifyProxy.
func ProxyDetectionSlots() []struct{ Label, Slot string } {
	return []struct{ Label, Slot string }{
		{"eip1967_impl", EIP1967ImplSlot},
		{"eip1967_beacon", EIP1967BeaconSlot},
		{"eip1822_proxiable", EIP1822ProxiableSlot},
		{"eip1967_admin", EIP1967AdminSlot},
	}
}
