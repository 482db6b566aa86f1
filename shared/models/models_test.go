package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Arithmetic(t *testing.T) {
	price := MustMoney("50.00")

	assert.True(t, price.Multiply(3).Equal(MustMoney("150")))
	assert.True(t, price.Add(MustMoney("0.10")).Equal(MustMoney("50.10")))
	assert.False(t, MustMoney("-10").IsGreaterThanZero())
	assert.True(t, ZeroMoney.IsZero())
}

func TestMoney_DecimalSumsAreExact(t *testing.T) {
	total := ZeroMoney
	for i := 0; i < 10; i++ {
		total = total.Add(MustMoney("0.10"))
	}

	assert.True(t, total.Equal(MustMoney("1.00")))
}

func TestMoney_RoundsToTwoPlacesBankers(t *testing.T) {
	assert.Equal(t, "2.12", NewMoney(decimal.RequireFromString("2.125")).String())
	assert.Equal(t, "2.14", NewMoney(decimal.RequireFromString("2.135")).String())
	assert.Equal(t, "10.00", MustMoney("10").String())
}

func TestMoney_ParseMoney(t *testing.T) {
	m, err := ParseMoney("25.5")
	require.NoError(t, err)
	assert.Equal(t, "25.50", m.String())

	_, err = ParseMoney("twenty")
	assert.Error(t, err)
}

func TestMoney_JSONRoundTripKeepsValue(t *testing.T) {
	raw, err := json.Marshal(MustMoney("19.99"))
	require.NoError(t, err)

	var decoded Money
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, decoded.Equal(MustMoney("19.99")))
}

func TestVersion_UpdateAndPrevious(t *testing.T) {
	v := NewVersion()
	assert.Equal(t, 1, v.Value)
	assert.Equal(t, 2, v.Update().Value)
	assert.Equal(t, 1, v.Update().Previous().Value)
}

func TestNewID(t *testing.T) {
	id := GenerateUUID()
	parsed, err := NewID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = NewID("not-a-uuid")
	assert.Error(t, err)
	assert.True(t, ID("").IsEmpty())
}
