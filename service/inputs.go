package service

import (
	"time"

	"botshop/models"
)

// UserProfile carries identity fields refreshed on every sign-in
type UserProfile struct {
	DiscordUserID string `validate:"required,snowflake"`
	Username      string `validate:"required,max=64"`
	GlobalName    string `validate:"max=64"`
	Avatar        string `validate:"max=256"`
	Email         string `validate:"omitempty,email"`
	Auth          *models.AuthTokens
}

// SaleCredit describes a confirmed sale to credit to a seller
type SaleCredit struct {
	DiscordUserID string
	AmountCents   int64
	InstanceID    string
	ProductID     string
	VariantID     string
	OrderRef      string
}

// WithdrawalRequest describes a seller's withdrawal request
type WithdrawalRequest struct {
	DiscordUserID string
	AmountCents   int64
	PixKey        string
	PixKeyType    string
}

// Balance summarizes a seller's wallet
type Balance struct {
	WalletCents       int64
	SalesCentsTotal   int64
	PendingWithdrawal int64
	PendingCount      int
}

// InstanceInput describes a new bot instance
type InstanceInput struct {
	OwnerDiscordUserID string `validate:"required,snowflake"`
	Name               string `validate:"required,max=100"`
	GuildID            string `validate:"omitempty,snowflake"`
	Branding           models.Branding
	Channels           models.ChannelBindings
	BotTokenRef        string `validate:"max=256"`
}

// InstanceUpdate carries the fields an owner may change; nil means unchanged
type InstanceUpdate struct {
	Name        *string `validate:"omitempty,min=1,max=100"`
	GuildID     *string `validate:"omitempty,snowflake"`
	Branding    *models.Branding
	Channels    *models.ChannelBindings
	BotTokenRef *string `validate:"omitempty,max=256"`
}

// ProductInput describes a new product. An empty ID is derived from the name.
type ProductInput struct {
	ID          string         `validate:"required,identifier"`
	Name        string         `validate:"required,max=120"`
	Description string         `validate:"max=4000"`
	ImageURL    string         `validate:"omitempty,url"`
	Variants    []VariantInput `validate:"dive"`
}

// ProductUpdate carries the product fields an owner may change; nil means unchanged
type ProductUpdate struct {
	Name        *string `validate:"omitempty,min=1,max=120"`
	Description *string `validate:"omitempty,max=4000"`
	ImageURL    *string `validate:"omitempty,url"`
}

// VariantInput describes a purchasable variant
type VariantInput struct {
	ID       string `validate:"required,identifier"`
	Label    string `validate:"required,max=120"`
	Duration string `validate:"max=60"`
	Price    int64  `validate:"gte=0"`
}

func (v VariantInput) toModel() *models.Variant {
	return &models.Variant{
		ID:       v.ID,
		Label:    v.Label,
		Duration: v.Duration,
		Price:    v.Price,
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
