package community

import (
	"fmt"
	"time"

	"chat-backend/internal/user"
)

const membersTable = "server_members"

// Category groups servers, e.g. "Gaming" or "Music".
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	Icon        string    `gorm:"size:255" json:"-"` // storage path, empty when unset
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Category) String() string { return c.Name }

func (c *Category) primaryKey() uint { return c.ID }

func (c *Category) fileRefs() []string { return []string{c.Icon} }

// Server is a community owned by one account and filed under one category.
type Server struct {
	ID          uint           `gorm:"primaryKey"`
	Name        string         `gorm:"size:100;not null"`
	OwnerID     uint           `gorm:"not null;index"`
	Owner       *user.Account  `gorm:"constraint:OnDelete:CASCADE"`
	CategoryID  uint           `gorm:"not null;index"`
	Category    *Category      `gorm:"constraint:OnDelete:CASCADE"`
	Description *string        `gorm:"size:300"`
	Members     []user.Account `gorm:"many2many:server_members;constraint:OnDelete:CASCADE"`
	Channels    []Channel      `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Filled only by listings that request member counts.
	NumMembers int64 `gorm:"->;-:migration"`
}

func (s *Server) String() string { return fmt.Sprintf("%s-%d", s.Name, s.ID) }

// Channel belongs to a server and may carry a banner and an icon image.
type Channel struct {
	ID        uint          `gorm:"primaryKey"`
	Name      string        `gorm:"size:100;not null"`
	OwnerID   uint          `gorm:"not null;index"`
	Owner     *user.Account `gorm:"constraint:OnDelete:CASCADE"`
	Topic     string        `gorm:"size:100"`
	ServerID  uint          `gorm:"not null;index"`
	Banner    string        `gorm:"size:255"`
	Icon      string        `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Channel) String() string { return c.Name }

func (c *Channel) primaryKey() uint { return c.ID }

func (c *Channel) fileRefs() []string { return []string{c.Icon, c.Banner} }

// membership is a row of the server/account join table.
type membership struct {
	ServerID  uint `gorm:"primaryKey"`
	AccountID uint `gorm:"primaryKey"`
}

func (membership) TableName() string { return membersTable }

// Models lists the tables owned by this package, in migration order.
func Models() []interface{} {
	return []interface{}{&Category{}, &Server{}, &Channel{}}
}
