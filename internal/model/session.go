package model

import (
	"time"
)

type Session struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"-"`
	CompanyURL     string    `db:"company_url" json:"companyUrl"`
	CompanyName    string    `db:"company_name" json:"companyName"`
	AgentType      AgentType `db:"agent_type" json:"agentType"`
	ScrapedContent string    `db:"scraped_content" json:"-"`
	MessageCount   int       `db:"message_count" json:"messageCount"`
	BookingShown   bool      `db:"booking_shown" json:"bookingShown"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

type CreateSessionParams struct {
	Email          string
	CompanyURL     string
	CompanyName    string
	AgentType      AgentType
	ScrapedContent string
}
