package discovery

import (
	"encoding/json"
	"testing"

	"github.com/aptfolio/defitrack/internal/domain"
)

const (
	thalaAddr = "0x48271d39d0b05bd6efca2278f22277d6fcc375504f9839fd73f74ace240861af"
	amnisAddr = "0x111ae3e5bc816a5e63c2da97d0aa3886519e0cd5e4b046659fa35796bd11542a"
	ariesAddr = "0x9770fa9c725cbd97eb50b2be5f7416efdfd1f1554beb0750d4dae4c64e860da3"
)

func resource(typeStr, data string) domain.RawAccountResource {
	return domain.RawAccountResource{Type: typeStr, Data: json.RawMessage(data)}
}

func TestClassifyResourcesCoinStore(t *testing.T) {
	positions := classifyResources([]domain.RawAccountResource{
		resource(
			"0x1::coin::CoinStore<"+amnisAddr+"::stapt_token::StakedApt>",
			`{"coin":{"value":"500000000"}}`,
		),
	})
	if len(positions) != 1 {
		t.Fatalf("positions = %d, want 1", len(positions))
	}

	p := positions[0]
	if p.Protocol != "amnis" || p.Type != domain.PositionTypeStaking {
		t.Errorf("got %s/%s, want amnis/staking", p.Protocol, p.Type)
	}
	if !p.IsActive {
		t.Error("non-zero balance should mark the position active")
	}
	if len(p.Tokens) != 1 {
		t.Fatalf("tokens = %d, want 1", len(p.Tokens))
	}
	if p.Tokens[0].Symbol != "StakedApt" || p.Tokens[0].Balance != "500000000" {
		t.Errorf("token = %+v, want StakedApt with balance 500000000", p.Tokens[0])
	}
}

func TestClassifyResourcesLPInCoinStore(t *testing.T) {
	lpType := "0x1::coin::CoinStore<" + thalaAddr + "::stable_pool::StablePoolToken<0x1::aptos_coin::AptosCoin, 0xf22bede237a07e121b56d91a491eb7bcdfd1f5907926a9e58338f964a01b17fa::asset::USDC, " + thalaAddr + "::base_pool::Null, " + thalaAddr + "::base_pool::Null>>"
	positions := classifyResources([]domain.RawAccountResource{
		resource(lpType, `{"coin":{"value":"1000000"}}`),
	})
	if len(positions) != 1 {
		t.Fatalf("positions = %d, want 1", len(positions))
	}

	p := positions[0]
	if p.Protocol != "thala" || p.Type != domain.PositionTypeLiquidity {
		t.Errorf("got %s/%s, want thala/liquidity", p.Protocol, p.Type)
	}
	if len(p.LPTokens) != 1 {
		t.Fatalf("lp tokens = %d, want 1 (no plain token for an LP store)", len(p.LPTokens))
	}
	lp := p.LPTokens[0]
	if lp.PoolType != "thala-stable" {
		t.Errorf("pool type = %s, want thala-stable", lp.PoolType)
	}
	if len(lp.PoolTokens) != 2 {
		t.Fatalf("pool tokens = %v, want the pair without Null padding", lp.PoolTokens)
	}
	if lp.PoolTokens[0] != "0x1::aptos_coin::AptosCoin" {
		t.Errorf("first pool token = %s, want the full coin type", lp.PoolTokens[0])
	}
}

func TestClassifyResourcesSkipsUnknownProtocols(t *testing.T) {
	positions := classifyResources([]domain.RawAccountResource{
		resource("0x1::account::Account", `{"sequence_number":"5"}`),
		resource("0x1::coin::CoinStore<0x1::aptos_coin::AptosCoin>", `{"coin":{"value":"100"}}`),
	})
	if len(positions) != 0 {
		t.Errorf("positions = %d, want 0 for resources owned by no known protocol", len(positions))
	}
}

func TestClassifyResourcesGroupsByProtocol(t *testing.T) {
	positions := classifyResources([]domain.RawAccountResource{
		resource(ariesAddr+"::profile::Profile", `{"deposited":{},"borrowed":{},"referrer":""}`),
		resource(
			"0x1::coin::CoinStore<"+ariesAddr+"::reserve::LP<0x1::aptos_coin::AptosCoin>>",
			`{"coin":{"value":"200000000"}}`,
		),
	})
	if len(positions) != 1 {
		t.Fatalf("positions = %d, want one merged aries position", len(positions))
	}

	p := positions[0]
	if p.Type != domain.PositionTypeLending {
		t.Errorf("type = %s, want lending", p.Type)
	}
	if len(p.Resources) != 2 {
		t.Errorf("resources = %d, want both grouped", len(p.Resources))
	}
	if len(p.Tokens) != 1 || p.Tokens[0].Direction != domain.DirectionSupplied {
		t.Errorf("tokens = %+v, want one supplied entry", p.Tokens)
	}
}

func TestClassifyResourcesActivitySort(t *testing.T) {
	positions := classifyResources([]domain.RawAccountResource{
		resource("0x1::coin::CoinStore<"+thalaAddr+"::thl_coin::THL>", `{"coin":{"value":"0"}}`),
		resource("0x1::coin::CoinStore<"+amnisAddr+"::stapt_token::StakedApt>", `{"coin":{"value":"7"}}`),
	})
	if len(positions) != 2 {
		t.Fatalf("positions = %d, want 2", len(positions))
	}
	if positions[0].Protocol != "amnis" || !positions[0].IsActive {
		t.Errorf("first = %s active=%v, want the active amnis position first", positions[0].Protocol, positions[0].IsActive)
	}
	if positions[1].IsActive {
		t.Error("zero-balance single-field store should stay inactive")
	}
}

func TestClassifyResourcesStateOnlyActivity(t *testing.T) {
	positions := classifyResources([]domain.RawAccountResource{
		resource(ariesAddr+"::profile::Profile", `{"deposited":{"a":"1"},"borrowed":{}}`),
	})
	if len(positions) != 1 || !positions[0].IsActive {
		t.Fatal("multi-field protocol state should count as activity without a parsed balance")
	}
}

func TestDirectionFor(t *testing.T) {
	cases := []struct {
		resourceType string
		protocolType domain.ProtocolType
		want         domain.PositionDirection
	}{
		{"0xa::lending::BorrowPosition", domain.ProtocolTypeLending, domain.DirectionBorrowed},
		{"0xa::lending::UserDebt", domain.ProtocolTypeLending, domain.DirectionBorrowed},
		{"0xa::lending::Deposit", domain.ProtocolTypeLending, domain.DirectionSupplied},
		{"0x1::coin::CoinStore<0xa::t::T>", domain.ProtocolTypeLending, domain.DirectionSupplied},
		{"0xa::lending::Config", domain.ProtocolTypeLending, domain.DirectionUnknown},
		{"0xa::pool::LP", domain.ProtocolTypeDEX, ""},
	}
	for _, c := range cases {
		if got := directionFor(c.resourceType, c.protocolType); got != c.want {
			t.Errorf("directionFor(%s, %s) = %q, want %q", c.resourceType, c.protocolType, got, c.want)
		}
	}
}
