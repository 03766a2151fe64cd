package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"VIP", "vip"},
		{"Conta Premium", "conta-premium"},
		{"  Netflix 4K  ", "netflix-4k"},
		{"Ação & Aventura", "acao-aventura"},
		{"Plano---Mensal!!", "plano-mensal"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.name)
			assert.Equal(t, tt.want, got)
			if got != "" {
				assert.True(t, IsIdentifier(got))
			}
		})
	}
}

func TestSlugify_LongNamesFitIdentifier(t *testing.T) {
	long := ""
	for i := 0; i < 20; i++ {
		long += "palavra "
	}

	slug := Slugify(long)

	assert.LessOrEqual(t, len(slug), 64)
	assert.True(t, IsIdentifier(slug))
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("vip"))
	assert.True(t, IsIdentifier("Plan_2-monthly"))
	assert.False(t, IsIdentifier(""))
	assert.False(t, IsIdentifier("-leading-dash"))
	assert.False(t, IsIdentifier("has space"))
	assert.False(t, IsIdentifier("mês"))
}

func TestNormalizePixKey(t *testing.T) {
	key, keyType, err := normalizePixKey(" 12.345.678/0001-90 ", " CNPJ ")
	require.NoError(t, err)
	assert.Equal(t, "12.345.678/0001-90", key)
	assert.Equal(t, "cnpj", keyType)

	_, _, err = normalizePixKey("   ", "email")
	assert.ErrorIs(t, err, ErrPixKeyRequired)

	_, _, err = normalizePixKey("abc", "")
	assert.ErrorIs(t, err, ErrInvalidPixKeyType)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, "insufficient_balance", ErrorCode(ErrInsufficientBalance))
	assert.Equal(t, "invalid_product_id", ErrorCode(fmt.Errorf("%w: %q", ErrInvalidProductID, "a b")))
	assert.Equal(t, CodeInternal, ErrorCode(errors.New("disk full")))

	assert.True(t, IsDomainError(fmt.Errorf("wrapped: %w", ErrStockEmpty)))
	assert.False(t, IsDomainError(errors.New("disk full")))
}

func TestValidateInput_MapsFieldsToCodes(t *testing.T) {
	err := validateInput(UserProfile{DiscordUserID: "abc", Username: "seller"})
	assert.ErrorIs(t, err, ErrInvalidDiscordID)

	err = validateInput(UserProfile{DiscordUserID: "290926444748734465"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = validateInput(VariantInput{ID: "bad id", Label: "x"})
	assert.ErrorIs(t, err, ErrInvalidVariantID)

	err = validateInput(ProductInput{ID: "vip", Name: "VIP", Variants: []VariantInput{{ID: "ok", Label: "x"}, {ID: "", Label: "y"}}})
	assert.ErrorIs(t, err, ErrInvalidVariantID)

	err = validateInput(ProductInput{ID: "vip", Name: "VIP", ImageURL: "not a url"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.NoError(t, validateInput(ProductInput{ID: "vip", Name: "VIP"}))
}
