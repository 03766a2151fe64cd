package testutil

import (
	"time"

	"botshop/models"
)

// Discord ids used across tests
const (
	SellerID      = "290926444748734465"
	OtherSellerID = "302050872383242240"
	GuildID       = "410488579140354049"
	ChannelID     = "410488579140354050"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(discordUserID, username string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		DiscordUserID: discordUserID,
		Username:      username,
		Plan:          models.Plan{Status: models.PlanStatusNone},
		WalletCents:   10000,
		Payout: models.Payout{
			PixKey:     "seller@example.com",
			PixKeyType: "email",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestUserWithBalance creates a test user with a specific wallet balance
func CreateTestUserWithBalance(discordUserID, username string, walletCents int64) *models.User {
	user := CreateTestUser(discordUserID, username)
	user.WalletCents = walletCents
	return user
}

// CreateTestUserWithPlan creates a test user holding an active plan until expiresAt
func CreateTestUserWithPlan(discordUserID, username, tier string, expiresAt time.Time) *models.User {
	user := CreateTestUser(discordUserID, username)
	user.Plan = models.Plan{
		Tier:      tier,
		Status:    models.PlanStatusActive,
		ExpiresAt: &expiresAt,
	}
	return user
}

// CreateTestWithdrawal creates a pending withdrawal
func CreateTestWithdrawal(id, ownerDiscordUserID string, amountCents int64) *models.Withdrawal {
	return &models.Withdrawal{
		ID:                 id,
		OwnerDiscordUserID: ownerDiscordUserID,
		AmountCents:        amountCents,
		PixKey:             "seller@example.com",
		PixKeyType:         "email",
		Status:             models.WithdrawalStatusRequested,
		CreatedAt:          time.Now().UTC(),
	}
}

// CreateTestInstance creates an instance with no products
func CreateTestInstance(id, ownerDiscordUserID string) *models.Instance {
	now := time.Now().UTC()
	return &models.Instance{
		ID:                 id,
		OwnerDiscordUserID: ownerDiscordUserID,
		Name:               "Test Store",
		GuildID:            GuildID,
		Runtime:            models.Runtime{Status: models.RuntimeStatusOffline},
		Products:           []*models.Product{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// CreateTestProduct creates a product with a single variant and empty stock
func CreateTestProduct(id string) *models.Product {
	now := time.Now().UTC()
	return &models.Product{
		ID:   id,
		Name: "Test Product",
		Variants: []*models.Variant{
			{ID: "monthly", Label: "Monthly", Duration: "30d", Price: 1990},
		},
		Stock:     models.Stock{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestInstanceWithProduct creates an instance holding one product
func CreateTestInstanceWithProduct(instanceID, ownerDiscordUserID, productID string) *models.Instance {
	instance := CreateTestInstance(instanceID, ownerDiscordUserID)
	instance.Products = append(instance.Products, CreateTestProduct(productID))
	return instance
}
