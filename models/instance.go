package models

import (
	"time"
)

// RuntimeStatus is written by the bot orchestrator and persisted verbatim
type RuntimeStatus string

const (
	RuntimeStatusOnline        RuntimeStatus = "online"
	RuntimeStatusOffline       RuntimeStatus = "offline"
	RuntimeStatusError         RuntimeStatus = "erro"
	RuntimeStatusSuspended     RuntimeStatus = "suspenso"
	RuntimeStatusNotConfigured RuntimeStatus = "nao_configurado"
)

// IsKnown reports whether the status belongs to the orchestrator vocabulary
func (s RuntimeStatus) IsKnown() bool {
	switch s {
	case RuntimeStatusOnline, RuntimeStatusOffline, RuntimeStatusError,
		RuntimeStatusSuspended, RuntimeStatusNotConfigured:
		return true
	}
	return false
}

// Branding customizes how the bot presents the store
type Branding struct {
	Color      string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	LogoURL    string `json:"logoUrl,omitempty" validate:"omitempty,url"`
	BannerURL  string `json:"bannerUrl,omitempty" validate:"omitempty,url"`
	FooterText string `json:"footerText,omitempty" validate:"max=200"`
}

// ChannelBindings maps store features to Discord channel ids
type ChannelBindings struct {
	StoreChannelID    string `json:"storeChannelId,omitempty" validate:"omitempty,snowflake"`
	LogsChannelID     string `json:"logsChannelId,omitempty" validate:"omitempty,snowflake"`
	FeedbackChannelID string `json:"feedbackChannelId,omitempty" validate:"omitempty,snowflake"`
}

// IDs returns the non-empty bound channel ids
func (c ChannelBindings) IDs() []string {
	ids := make([]string, 0, 3)
	for _, id := range []string{c.StoreChannelID, c.LogsChannelID, c.FeedbackChannelID} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Runtime is the orchestrator-owned runtime state of the bot
type Runtime struct {
	Status    RuntimeStatus `json:"status"`
	Code      string        `json:"code,omitempty"`
	UpdatedAt *time.Time    `json:"updatedAt,omitempty"`
}

// Instance is a seller's Discord bot together with its catalog
type Instance struct {
	ID                 string          `json:"id"`
	OwnerDiscordUserID string          `json:"ownerDiscordUserId"`
	Name               string          `json:"name"`
	GuildID            string          `json:"guildId,omitempty"`
	Branding           Branding        `json:"branding"`
	Channels           ChannelBindings `json:"channels"`
	BotTokenRef        string          `json:"botTokenRef,omitempty"`
	Runtime            Runtime         `json:"runtime"`
	Products           []*Product      `json:"products"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// IsOwnedBy checks whether the given user owns the instance
func (i *Instance) IsOwnedBy(discordUserID string) bool {
	return i.OwnerDiscordUserID == discordUserID
}

// FindProduct returns the product with the given id, or nil
func (i *Instance) FindProduct(productID string) *Product {
	for _, p := range i.Products {
		if p.ID == productID {
			return p
		}
	}
	return nil
}

// RemoveProduct drops the product and, with it, its stock map
func (i *Instance) RemoveProduct(productID string) bool {
	for idx, p := range i.Products {
		if p.ID == productID {
			i.Products = append(i.Products[:idx], i.Products[idx+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the instance and its catalog
func (i *Instance) Clone() *Instance {
	if i == nil {
		return nil
	}
	c := *i
	c.Runtime.UpdatedAt = cloneTime(i.Runtime.UpdatedAt)
	c.Products = make([]*Product, len(i.Products))
	for idx, p := range i.Products {
		c.Products[idx] = p.Clone()
	}
	return &c
}
