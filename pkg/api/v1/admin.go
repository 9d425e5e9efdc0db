package v1

import "encoding/json"

// Channel is a configured messaging channel on the backend
type Channel struct {
	ID        int64  `json:"id"`
	Transport string `json:"transport"`
	Name      string `json:"name"`
	Enabled   bool   `json:"enabled"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Schedule is a cron-style scheduled prompt
type Schedule struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CronExpr   string `json:"cron_expr"`
	Prompt     string `json:"prompt"`
	ChannelID  *int64 `json:"channel_id,omitempty"`
	Enabled    bool   `json:"enabled"`
	LastRunAt  string `json:"last_run_at,omitempty"`
	NextRunAt  string `json:"next_run_at,omitempty"`
}

// ScheduleRequest creates or updates a schedule
type ScheduleRequest struct {
	Name      string `json:"name"`
	CronExpr  string `json:"cron_expr"`
	Prompt    string `json:"prompt"`
	ChannelID *int64 `json:"channel_id,omitempty"`
	Enabled   bool   `json:"enabled"`
}

// Memory is a stored long-term memory entry
type Memory struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	Category  string `json:"category,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// MemoryRequest creates or updates a memory entry
type MemoryRequest struct {
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
}

// APIKey is a stored credential for an external service
type APIKey struct {
	ID      int64  `json:"id"`
	Service string `json:"service"`
	// Value is write-only; the backend returns a masked form.
	Value  string `json:"value,omitempty"`
	Masked string `json:"masked,omitempty"`
}

// Skill is an installed agent skill
type Skill struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// Module is a loadable backend module and its configuration
type Module struct {
	Name    string          `json:"name"`
	Enabled bool            `json:"enabled"`
	Config  json.RawMessage `json:"config,omitempty"`
}
