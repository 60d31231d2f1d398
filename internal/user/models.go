package user

import (
	"database/sql/driver"
	"encoding/base64"
	"fmt"
	"time"
)

// PublicKeyType is a custom type for storing ed25519.PublicKey in the database
type PublicKeyType []byte

// GormDataType stores keys as base64 text on every dialect.
func (PublicKeyType) GormDataType() string {
	return "text"
}

func (pk PublicKeyType) Value() (driver.Value, error) {
	return base64.StdEncoding.EncodeToString(pk), nil
}

func (pk *PublicKeyType) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into PublicKeyType", value)
	}

	decoded, err := base64.StdEncoding.DecodeString(str)
	if err != nil {
		return err
	}

	*pk = decoded
	return nil
}

// Account is a registered user. Servers and channels reference it as owner,
// and server membership links accounts to servers.
type Account struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Username  string        `gorm:"size:150;uniqueIndex;not null" json:"username"`
	PublicKey PublicKeyType `gorm:"uniqueIndex;not null" json:"-"`
	IsAdmin   bool          `gorm:"default:false" json:"is_admin"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
