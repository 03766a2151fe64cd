package models

import (
	"time"
)

// PlanStatus represents the lifecycle state of a seller plan
type PlanStatus string

const (
	PlanStatusNone    PlanStatus = "none"
	PlanStatusActive  PlanStatus = "active"
	PlanStatusExpired PlanStatus = "expired"
)

// PlanTierTrial is the tier assigned by a free trial claim
const PlanTierTrial = "trial"

// Plan is the subscription a seller holds
type Plan struct {
	Tier      string     `json:"tier"`
	Status    PlanStatus `json:"status"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// IsActive reports whether the plan grants access at the given instant
func (p Plan) IsActive(now time.Time) bool {
	if p.Status != PlanStatusActive {
		return false
	}
	return p.ExpiresAt == nil || p.ExpiresAt.After(now)
}

// Payout holds the seller's PIX destination for withdrawals
type Payout struct {
	PixKey     string `json:"pixKey"`
	PixKeyType string `json:"pixKeyType"`
}

// AuthTokens are opaque OAuth credentials persisted for the auth layer
type AuthTokens struct {
	AccessToken  string     `json:"accessToken,omitempty"`
	RefreshToken string     `json:"refreshToken,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

// User represents a Discord user selling through one or more bot instances
type User struct {
	DiscordUserID   string      `json:"discordUserId"`
	Username        string      `json:"username"`
	GlobalName      string      `json:"globalName,omitempty"`
	Avatar          string      `json:"avatar,omitempty"`
	Email           string      `json:"email,omitempty"`
	Plan            Plan        `json:"plan"`
	TrialClaimedAt  *time.Time  `json:"trialClaimedAt,omitempty"`
	WalletCents     int64       `json:"walletCents"`
	SalesCentsTotal int64       `json:"salesCentsTotal"`
	Payout          Payout      `json:"payout"`
	Auth            *AuthTokens `json:"auth,omitempty"`
	LastLoginAt     *time.Time  `json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// CanAfford checks if the wallet covers an amount
func (u *User) CanAfford(amount int64) bool {
	return amount >= 0 && u.WalletCents >= amount
}

// HasClaimedTrial reports whether the one-time trial was already used
func (u *User) HasClaimedTrial() bool {
	return u.TrialClaimedAt != nil
}

// HasPayout reports whether a PIX destination is configured
func (u *User) HasPayout() bool {
	return u.Payout.PixKey != ""
}

// Clone returns a deep copy of the user
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Plan.ExpiresAt = cloneTime(u.Plan.ExpiresAt)
	c.TrialClaimedAt = cloneTime(u.TrialClaimedAt)
	c.LastLoginAt = cloneTime(u.LastLoginAt)
	if u.Auth != nil {
		auth := *u.Auth
		auth.ExpiresAt = cloneTime(u.Auth.ExpiresAt)
		c.Auth = &auth
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
