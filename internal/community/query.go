package community

import (
	"context"
	"net/url"
	"strconv"

	"gorm.io/gorm"

	"chat-backend/internal/apperr"
	"chat-backend/internal/user"
)

// ServerQuery describes a server listing. It is a value: every method
// returns a modified copy and leaves the receiver untouched.
type ServerQuery struct {
	category   *string
	memberID   *uint
	numMembers bool
	limit      *int
	serverID   *uint
}

// AllServers is the unfiltered listing.
func AllServers() ServerQuery { return ServerQuery{} }

// InCategory keeps servers whose category name is exactly name.
func (q ServerQuery) InCategory(name string) ServerQuery {
	q.category = &name
	return q
}

// MemberOf keeps servers the account belongs to.
func (q ServerQuery) MemberOf(accountID uint) ServerQuery {
	q.memberID = &accountID
	return q
}

// WithNumMembers fills Server.NumMembers with the size of the whole
// membership set.
func (q ServerQuery) WithNumMembers() ServerQuery {
	q.numMembers = true
	return q
}

// First keeps the first n servers in id order.
func (q ServerQuery) First(n int) ServerQuery {
	q.limit = &n
	return q
}

// WithID keeps the server with the given id, applied after First.
func (q ServerQuery) WithID(id uint) ServerQuery {
	q.serverID = &id
	return q
}

func (q ServerQuery) CountsMembers() bool { return q.numMembers }

func (q ServerQuery) ServerID() (uint, bool) {
	if q.serverID == nil {
		return 0, false
	}
	return *q.serverID, true
}

// Find runs the query, preloading each server's category and channels.
func (q ServerQuery) Find(ctx context.Context, db *gorm.DB) ([]Server, error) {
	servers := []Server{}
	if q.limit != nil && *q.limit == 0 {
		return servers, nil
	}
	db = db.WithContext(ctx)

	base := db.Model(&Server{})
	if q.numMembers {
		base = base.Select("servers.*, (SELECT COUNT(*) FROM " + membersTable +
			" sm WHERE sm.server_id = servers.id) AS num_members")
	}
	if q.category != nil {
		base = base.Where("servers.category_id IN (?)",
			db.Model(&Category{}).Select("id").Where("name = ?", *q.category))
	}
	if q.memberID != nil {
		base = base.Where("servers.id IN (?)",
			db.Table(membersTable).Select("server_id").Where("account_id = ?", *q.memberID))
	}
	base = base.Order("servers.id")

	query := base
	if q.limit != nil {
		query = base.Limit(*q.limit)
		if q.serverID != nil {
			// Restrict within the limited window, not before it.
			query = db.Table("(?) AS servers", query).Where("servers.id = ?", *q.serverID)
		}
	} else if q.serverID != nil {
		query = base.Where("servers.id = ?", *q.serverID)
	}

	err := query.
		Preload("Category").
		Preload("Channels", func(tx *gorm.DB) *gorm.DB { return tx.Order("channels.id") }).
		Find(&servers).Error
	return servers, err
}

// ParseServerQuery builds a listing from request parameters, applying them
// in a fixed order: category, by_user, with_num_members, qty, by_serverid.
// actor is nil for anonymous requests.
func ParseServerQuery(params url.Values, actor *user.Account) (ServerQuery, error) {
	q := AllServers()

	if name := params.Get("category"); name != "" {
		q = q.InCategory(name)
	}

	if params.Get("by_user") == "true" {
		if actor == nil {
			return q, apperr.ErrAuthenticationFailed
		}
		q = q.MemberOf(actor.ID)
	}

	if params.Get("with_num_members") == "true" {
		q = q.WithNumMembers()
	}

	if raw := params.Get("qty"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, apperr.FieldValidation("qty", "A valid non-negative integer is required.")
		}
		q = q.First(n)
	}

	if raw := params.Get("by_serverid"); raw != "" {
		if actor == nil {
			return q, apperr.ErrAuthenticationFailed
		}
		id, err := strconv.ParseUint(raw, 10, 0)
		if err != nil {
			return q, apperr.Validation("Invalid server id")
		}
		q = q.WithID(uint(id))
	}

	return q, nil
}
