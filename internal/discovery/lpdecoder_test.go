package discovery

import (
	"reflect"
	"testing"
)

func TestDecodeThalaPairFromSymbol(t *testing.T) {
	pair := DecodeLPPair("thala", "0xabc::stable_pool::StablePoolToken<...>", "THALA-LP-APT-USDC")
	if !pair.Resolved {
		t.Fatal("thala symbol pair should resolve")
	}
	if !reflect.DeepEqual(pair.PoolTokens, []string{"APT", "USDC"}) {
		t.Errorf("pool tokens = %v, want [APT USDC]", pair.PoolTokens)
	}
}

func TestDecodeThalaPairFromTypeParams(t *testing.T) {
	assetType := "0xabc::stable_pool::StablePoolToken<0x1::aptos_coin::AptosCoin, 0xdef::asset::USDC, 0xabc::base_pool::Null, 0xabc::base_pool::Null>"
	pair := DecodeLPPair("thala", assetType, "WEIRD-SYMBOL")
	if !pair.Resolved {
		t.Fatal("type params should resolve the pair")
	}
	if !reflect.DeepEqual(pair.PoolTokens, []string{"AptosCoin", "USDC"}) {
		t.Errorf("pool tokens = %v, Null placeholders should be dropped", pair.PoolTokens)
	}
}

func TestDecodeLPPairUnknownProtocol(t *testing.T) {
	pair := DecodeLPPair("cellana", "0xabc::pool::LP<0x1::a::A, 0x2::b::B>", "CELL-LP")
	if pair.Resolved {
		t.Error("unregistered protocol should stay unresolved")
	}
}

func TestTypeParamsNested(t *testing.T) {
	typeStr := "0xa::swap::LPToken<0x1::coin::Wrapped<0x2::inner::T>, 0x3::asset::USDT>"
	params := typeParams(typeStr)
	want := []string{"0x1::coin::Wrapped<0x2::inner::T>", "0x3::asset::USDT"}
	if !reflect.DeepEqual(params, want) {
		t.Errorf("params = %v, want %v (nested generics intact)", params, want)
	}
}

func TestTypeParamsNoGenerics(t *testing.T) {
	if params := typeParams("0x1::aptos_coin::AptosCoin"); params != nil {
		t.Errorf("params = %v, want nil for a plain type", params)
	}
}

func TestTypeParamNames(t *testing.T) {
	names := typeParamNames("0xa::lp_coin::LP<0x1::aptos_coin::AptosCoin, 0xb::asset::USDC>")
	if !reflect.DeepEqual(names, []string{"AptosCoin", "USDC"}) {
		t.Errorf("names = %v, want trailing struct names", names)
	}
}
