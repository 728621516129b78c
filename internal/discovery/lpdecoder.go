package discovery

import (
	"strings"
)

// LPPair is a best-effort resolution of the underlying tokens behind a pool
// share. Resolved is false when the pool format is not understood; amounts
// are never fabricated for unresolved pools.
type LPPair struct {
	PoolTokens []string
	Resolved   bool
}

// LPPairDecoder resolves the underlying token pair for one DEX's pool-share
// format.
type LPPairDecoder func(assetType, symbol string) LPPair

// lpPairDecoders registers per-protocol pair decoders. Pools of unregistered
// protocols stay unresolved.
var lpPairDecoders = map[string]LPPairDecoder{
	"thala": decodeThalaPair,
}

// DecodeLPPair resolves the underlying pair for a protocol's LP token,
// defaulting to unresolved.
func DecodeLPPair(protocol, assetType, symbol string) LPPair {
	if decoder, ok := lpPairDecoders[protocol]; ok {
		return decoder(assetType, symbol)
	}
	return LPPair{}
}

// decodeThalaPair reads the pair out of a Thala LP symbol, which encodes the
// pool as "THALA-LP-<TOKEN0>-<TOKEN1>". Other shapes fall back to the generic
// type parameters of the asset type.
func decodeThalaPair(assetType, symbol string) LPPair {
	upper := strings.ToUpper(symbol)
	if rest, ok := strings.CutPrefix(upper, "THALA-LP-"); ok {
		parts := strings.Split(rest, "-")
		if len(parts) >= 2 {
			return LPPair{PoolTokens: parts, Resolved: true}
		}
	}

	names := typeParamNames(assetType)
	if len(names) >= 2 {
		return LPPair{PoolTokens: names, Resolved: true}
	}
	return LPPair{}
}

// typeParams extracts a type's generic parameters as full type strings:
// "...Pool<0xa::c::APT, 0xb::c::USDC>" yields [0xa::c::APT, 0xb::c::USDC].
// Thala pads fixed-arity pools with Null placeholders, which are dropped.
func typeParams(typeStr string) []string {
	open := strings.Index(typeStr, "<")
	closeIdx := strings.LastIndex(typeStr, ">")
	if open == -1 || closeIdx <= open {
		return nil
	}

	var params []string
	for _, param := range splitTypeParams(typeStr[open+1 : closeIdx]) {
		if param == "" || strings.EqualFold(lastTypeSegment(param), "Null") {
			continue
		}
		params = append(params, param)
	}
	return params
}

// typeParamNames extracts the trailing struct names of a type's generic
// parameters: "...Pool<0xa::c::APT, 0xb::c::USDC>" yields [APT, USDC].
func typeParamNames(typeStr string) []string {
	var names []string
	for _, param := range typeParams(typeStr) {
		if name := lastTypeSegment(param); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func lastTypeSegment(param string) string {
	segments := strings.Split(param, "::")
	return strings.TrimSpace(segments[len(segments)-1])
}

// splitTypeParams splits a generic parameter list on top-level commas,
// leaving nested generics intact.
func splitTypeParams(s string) []string {
	var params []string
	depth := 0
	start := 0
	for i, c := range s {
		switch c {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				params = append(params, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		params = append(params, tail)
	}
	return params
}
