package domain

import (
	"strings"

	"github.com/samber/lo"
)

// ProtocolType classifies DeFi protocols.
type ProtocolType string

const (
	ProtocolTypeDEX            ProtocolType = "DEX"
	ProtocolTypeFarming        ProtocolType = "FARMING"
	ProtocolTypeLending        ProtocolType = "LENDING"
	ProtocolTypeLiquidStaking  ProtocolType = "LIQUID_STAKING"
	ProtocolTypeNFTMarketplace ProtocolType = "NFT_MARKETPLACE"
	ProtocolTypeDerivatives    ProtocolType = "DERIVATIVES"
	ProtocolTypeBridge         ProtocolType = "BRIDGE"
	ProtocolTypeInfrastructure ProtocolType = "INFRASTRUCTURE"
)

// PositionType classifies discovered positions.
type PositionType string

const (
	PositionTypeLiquidity   PositionType = "liquidity"
	PositionTypeFarming     PositionType = "farming"
	PositionTypeLending     PositionType = "lending"
	PositionTypeStaking     PositionType = "staking"
	PositionTypeNFT         PositionType = "nft"
	PositionTypeDerivatives PositionType = "derivatives"
	PositionTypeOther       PositionType = "other"
)

// PositionTypeFor maps a protocol classification to the position type its
// resources produce.
func PositionTypeFor(pt ProtocolType) PositionType {
	switch pt {
	case ProtocolTypeDEX:
		return PositionTypeLiquidity
	case ProtocolTypeFarming:
		return PositionTypeFarming
	case ProtocolTypeLending:
		return PositionTypeLending
	case ProtocolTypeLiquidStaking:
		return PositionTypeStaking
	case ProtocolTypeNFTMarketplace:
		return PositionTypeNFT
	case ProtocolTypeDerivatives:
		return PositionTypeDerivatives
	default:
		return PositionTypeOther
	}
}

// Protocol identifies a known on-chain protocol.
type Protocol struct {
	Name        string       `json:"name"`
	Type        ProtocolType `json:"type"`
	Addresses   []string     `json:"addresses"`
	Label       string       `json:"label"`
	Description string       `json:"description"`
}

// ProtocolRegistry holds all known protocols. Order matters: when a resource
// type matches more than one protocol address, the earliest registry entry wins.
var ProtocolRegistry = []Protocol{
	{
		Name: "thala", Type: ProtocolTypeDEX, Label: "Thala",
		Addresses:   []string{"0x48271d39d0b05bd6efca2278f22277d6fcc375504f9839fd73f74ace240861af", "0x007730cd28ee1cdc9e999336cbc430f99e7c44397c0aa77516f6f23a78559bb5"},
		Description: "Thala AMM and stable pools",
	},
	{
		Name: "liquidswap", Type: ProtocolTypeDEX, Label: "Liquidswap",
		Addresses:   []string{"0x190d44266241744264b964a37b8f09863167a12d3e70cda39376cfb4e3561e12", "0x05a97986a9d031c4567e15b797be516910cfcb4156312482efc6a19c0a30c948"},
		Description: "Liquidswap AMM pools",
	},
	{
		Name: "pancakeswap", Type: ProtocolTypeDEX, Label: "PancakeSwap",
		Addresses:   []string{"0xc7efb4076dbe143cbcd98cfaaa929ecfc8f299203dfff63b95ccb6bfe19850fa", "0x7968a225eba6c99f5f1070aeec1b405757dee939eabcfda43ba91588bf5fccf3"},
		Description: "PancakeSwap AMM and farms",
	},
	{
		Name: "cellana", Type: ProtocolTypeDEX, Label: "Cellana",
		Addresses:   []string{"0x2ebb2ccac5e027a87fa0e2e5f656a3a4238d6a48d93ec9b610d570fc0aa0df12"},
		Description: "Cellana ve(3,3) DEX",
	},
	{
		Name: "aries", Type: ProtocolTypeLending, Label: "Aries Markets",
		Addresses:   []string{"0x9770fa9c725cbd97eb50b2be5f7416efdfd1f1554beb0750d4dae4c64e860da3"},
		Description: "Aries lending markets",
	},
	{
		Name: "aptin", Type: ProtocolTypeLending, Label: "Aptin Finance",
		Addresses:   []string{"0xabaf41ed192141b481434b99227f2b28c313681bc76714dc88e5b2e26b24b84c"},
		Description: "Aptin lending protocol",
	},
	{
		Name: "echelon", Type: ProtocolTypeLending, Label: "Echelon",
		Addresses:   []string{"0xc6bc659f1649553c1a3fa05d9727433dc03843baac29473c817d06d39e7621ba"},
		Description: "Echelon money market",
	},
	{
		Name: "amnis", Type: ProtocolTypeLiquidStaking, Label: "Amnis Finance",
		Addresses:   []string{"0x111ae3e5bc816a5e63c2da97d0aa3886519e0cd5e4b046659fa35796bd11542a"},
		Description: "Amnis liquid staking (amAPT/stAPT)",
	},
	{
		Name: "tortuga", Type: ProtocolTypeLiquidStaking, Label: "Tortuga",
		Addresses:   []string{"0x952c1b1fc8eb75ee80f432c9d0a84fcda1d5c7481501a7eca9199f1596a60b53", "0x8f396e4246b2ba87b51c0739ef5ea4f26515a98375308c31ac2ec1e42142a57f"},
		Description: "Tortuga liquid staking (tAPT)",
	},
	{
		Name: "ditto", Type: ProtocolTypeLiquidStaking, Label: "Ditto",
		Addresses:   []string{"0xd11107bdf0d6d7040c6c0bfbdecb6545191fdf13e8d8d259952f53e1713f61b5"},
		Description: "Ditto staked APT (stAPT)",
	},
	{
		Name: "merkle", Type: ProtocolTypeDerivatives, Label: "Merkle Trade",
		Addresses:   []string{"0x5ae6789dd2fec1a9ec9cccfb3acaf12e93d432f0a3a42c92fe1a9d490b7bbc06"},
		Description: "Merkle perpetuals (MKLP house pool)",
	},
	{
		Name: "thala-farm", Type: ProtocolTypeFarming, Label: "Thala Farm",
		Addresses:   []string{"0x6b3720cd988adeaf721ed9d4730da4324d52364871a68eac62b46d21e4d2fa99"},
		Description: "Thala LP farming",
	},
	{
		Name: "topaz", Type: ProtocolTypeNFTMarketplace, Label: "Topaz",
		Addresses:   []string{"0x2c7bccf7b31baf770fdbcc768d9e9cb3d87805e255355df5db32ac9a669010a2"},
		Description: "Topaz NFT marketplace",
	},
	{
		Name: "layerzero", Type: ProtocolTypeBridge, Label: "LayerZero",
		Addresses:   []string{"0xf22bede237a07e121b56d91a491eb7bcdfd1f5907926a9e58338f964a01b17fa"},
		Description: "LayerZero bridged assets (lzUSDC, lzUSDT, lzWETH)",
	},
	{
		Name: "wormhole", Type: ProtocolTypeBridge, Label: "Wormhole",
		Addresses:   []string{"0x5e156f1207d0ebfa19a9eeff00d62a282278fb8719f4fab3a586a0a2c0fffbea"},
		Description: "Wormhole bridged assets (whUSDC, whWETH)",
	},
	{
		Name: "pyth", Type: ProtocolTypeInfrastructure, Label: "Pyth",
		Addresses:   []string{"0x7e783b349d3e89cf5931af376ebeadbfab855b3fa239b7ada8f5a92fbea6b387"},
		Description: "Pyth oracle infrastructure",
	},
}

// protocolIndex maps a normalized protocol address to its registry position.
// Built once so protocol identification is a map lookup rather than a scan of
// the whole registry per resource.
var protocolIndex = buildProtocolIndex()

func buildProtocolIndex() map[string]int {
	idx := make(map[string]int)
	for i, p := range ProtocolRegistry {
		for _, addr := range p.Addresses {
			key := NormalizeAddress(addr)
			if _, exists := idx[key]; !exists {
				idx[key] = i
			}
		}
	}
	return idx
}

// NormalizeAddress lowercases an address and strips leading zeros after the 0x
// prefix. Type strings emitted by the chain drop leading zeros, registry
// entries keep them; both normalize to the same key.
func NormalizeAddress(address string) string {
	lowered := strings.ToLower(address)
	hex := strings.TrimPrefix(lowered, "0x")
	trimmed := strings.TrimLeft(hex, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	return "0x" + trimmed
}

// ProtocolByAddress looks up a protocol by one of its registered addresses.
func ProtocolByAddress(address string) (Protocol, bool) {
	i, ok := protocolIndex[NormalizeAddress(address)]
	if !ok {
		return Protocol{}, false
	}
	return ProtocolRegistry[i], true
}

// MatchProtocol finds the protocol whose address appears in the given
// fully-qualified resource type or asset type string. When several registered
// addresses appear, the earliest registry entry wins.
func MatchProtocol(typeStr string) (Protocol, bool) {
	lowered := strings.ToLower(typeStr)
	best := -1
	for _, addr := range extractAddresses(lowered) {
		if i, ok := protocolIndex[NormalizeAddress(addr)]; ok && (best == -1 || i < best) {
			best = i
		}
	}
	if best == -1 {
		return Protocol{}, false
	}
	return ProtocolRegistry[best], true
}

// extractAddresses pulls every 0x-prefixed hex run out of a type string.
// The input must already be lowercased.
func extractAddresses(s string) []string {
	var addrs []string
	for i := 0; i+1 < len(s); i++ {
		if s[i] != '0' || s[i+1] != 'x' {
			continue
		}
		j := i + 2
		for j < len(s) && isHexDigit(rune(s[j])) {
			j++
		}
		if j > i+2 {
			addrs = append(addrs, s[i:j])
		}
		i = j - 1
	}
	return lo.Uniq(addrs)
}

// ProtocolByName looks up a protocol by its registry name.
func ProtocolByName(name string) (Protocol, bool) {
	return lo.Find(ProtocolRegistry, func(p Protocol) bool {
		return p.Name == name
	})
}
