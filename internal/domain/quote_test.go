package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexNumberUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want FlexNumber
	}{
		{"number", `{"minAmount": 3}`, "3"},
		{"decimal number", `{"minAmount": 0.5}`, "0.5"},
		{"string", `{"minAmount": "12"}`, "12"},
		{"padded string", `{"minAmount": " 12 "}`, "12"},
		{"null", `{"minAmount": null}`, ""},
		{"absent", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var data RequirementData
			require.NoError(t, json.Unmarshal([]byte(tt.in), &data))
			assert.Equal(t, tt.want, data.MinAmount)
		})
	}
}

func TestFlexNumberRejectsNonNumeric(t *testing.T) {
	var data RequirementData
	require.NoError(t, json.Unmarshal([]byte(`{"minAmount": "lots"}`), &data))
	_, err := data.Amount()
	assert.Error(t, err)
}

func TestAmountDefaultsToOne(t *testing.T) {
	var data RequirementData
	amount, err := data.Amount()
	require.NoError(t, err)
	assert.True(t, amount.Equal(amount.Truncate(0)))
	assert.Equal(t, "1", amount.String())
}

func TestFingerprintIgnoresCase(t *testing.T) {
	a := PriceQuoteRequest{
		GuildID:   1,
		Type:      RequirementERC20,
		Chain:     "ETHEREUM",
		SellToken: "0xA0b86991C6218b36c1d19D4a2e9Eb0cE3606eB48",
		Address:   "0x1111111111111111111111111111111111111111",
	}
	b := a
	b.SellToken = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintDistinguishesAmounts(t *testing.T) {
	a := PriceQuoteRequest{Type: RequirementERC20, Chain: "ETHEREUM", Data: RequirementData{MinAmount: "1"}}
	b := a
	b.Data.MinAmount = "2"

	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintDistinguishesAttributes(t *testing.T) {
	a := PriceQuoteRequest{
		Type:  RequirementERC721,
		Chain: "ETHEREUM",
		Data: RequirementData{
			Attributes: []NFTAttribute{{TraitType: "Background", Value: "Red"}},
		},
	}
	b := a
	b.Data.Attributes = []NFTAttribute{{TraitType: "Background", Value: "Blue"}}

	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
