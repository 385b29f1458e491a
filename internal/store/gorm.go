package store

import (
	"context"
	"strings"

	"chatline/backend/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm implements Store on top of a gorm database handle.
type Gorm struct {
	db   *gorm.DB
	inTx bool
}

var _ Store = (*Gorm)(nil)

// New returns a Store backed by db.
func New(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// locked adds FOR UPDATE when running inside a transaction. Dialects
// without row locks (sqlite) drop the clause and rely on the single writer.
func (s *Gorm) locked(ctx context.Context) *gorm.DB {
	if s.inTx {
		return s.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return s.conn(ctx)
}

func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return errors.Wrap(err, "store: "+op)
	}
}

func (s *Gorm) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Gorm{db: tx, inTx: true})
	})
}

// region --- Users ---

func (s *Gorm) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.conn(ctx).Create(user).Error, "create user")
}

func (s *Gorm) UserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.locked(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err, "user by id")
	}
	return &user, nil
}

func (s *Gorm) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err, "user by username")
	}
	return &user, nil
}

func (s *Gorm) SearchUsers(ctx context.Context, query, excludeID string, limit int) ([]models.User, error) {
	var users []models.User
	pattern := "%" + escapeLike(query) + "%"
	err := s.conn(ctx).
		Where("username LIKE ? ESCAPE '\\'", pattern).
		Where("id <> ?", excludeID).
		Order("username ASC").
		Limit(limit).
		Find(&users).Error
	return users, translate(err, "search users")
}

func escapeLike(q string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
}

// endregion

// region --- Revocations ---

func (s *Gorm) RevokeToken(ctx context.Context, jti string) error {
	err := s.conn(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "jti"}}, DoNothing: true}).
		Create(&models.RevokedToken{JTI: jti}).Error
	return translate(err, "revoke token")
}

func (s *Gorm) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := s.conn(ctx).Model(&models.RevokedToken{}).Where("jti = ?", jti).Count(&count).Error
	if err != nil {
		return false, translate(err, "is token revoked")
	}
	return count > 0, nil
}

// endregion

// region --- Friend requests ---

func (s *Gorm) CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(req).Error, "create friend request")
}

func (s *Gorm) FriendRequestByID(ctx context.Context, id string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := s.locked(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, translate(err, "friend request by id")
	}
	return &req, nil
}

func (s *Gorm) PendingRequest(ctx context.Context, fromUserID, toUserID string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := s.conn(ctx).
		Where("from_user_id = ? AND to_user_id = ? AND status = ?", fromUserID, toUserID, models.RequestPending).
		First(&req).Error
	if err != nil {
		return nil, translate(err, "pending request")
	}
	return &req, nil
}

func (s *Gorm) SetFriendRequestStatus(ctx context.Context, id string, status models.RequestStatus) error {
	result := s.conn(ctx).Model(&models.FriendRequest{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return translate(result.Error, "set friend request status")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Gorm) ListFriendRequests(ctx context.Context, filter RequestFilter) ([]models.FriendRequest, error) {
	query := s.conn(ctx).Preload("FromUser").Preload("ToUser")
	if filter.FromUserID != "" {
		query = query.Where("from_user_id = ?", filter.FromUserID)
	}
	if filter.ToUserID != "" {
		query = query.Where("to_user_id = ?", filter.ToUserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var reqs []models.FriendRequest
	err := query.Order("created_at ASC").Find(&reqs).Error
	return reqs, translate(err, "list friend requests")
}

// endregion

// region --- Friendships ---

// CreateFriendship writes both directions in a single statement. Rows that
// already exist are left alone, so creating a friendship twice succeeds.
func (s *Gorm) CreateFriendship(ctx context.Context, userID, friendID string) error {
	pair := []models.Friendship{
		{UserID: userID, FriendID: friendID},
		{UserID: friendID, FriendID: userID},
	}
	err := s.conn(ctx).Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "friend_id"}}, DoNothing: true}).
		Create(&pair).Error
	return translate(err, "create friendship")
}

func (s *Gorm) AreFriends(ctx context.Context, userID, friendID string) (bool, error) {
	var count int64
	err := s.conn(ctx).Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "are friends")
	}
	return count > 0, nil
}

func (s *Gorm) ListFriends(ctx context.Context, userID string) ([]models.User, error) {
	var friendships []models.Friendship
	err := s.conn(ctx).Preload("Friend").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&friendships).Error
	if err != nil {
		return nil, translate(err, "list friends")
	}

	users := make([]models.User, 0, len(friendships))
	for _, f := range friendships {
		if f.Friend.ID == "" {
			continue
		}
		users = append(users, f.Friend)
	}
	return users, nil
}

// endregion

// region --- Messages ---

func (s *Gorm) CreateMessage(ctx context.Context, msg *models.Message) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(msg).Error, "create message")
}

func (s *Gorm) MessageByID(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	if err := s.locked(ctx).Where("id = ?", id).First(&msg).Error; err != nil {
		return nil, translate(err, "message by id")
	}
	return &msg, nil
}

// AdvanceMessages runs the catch-up update as one conditional statement, so
// rows already past the target status are never touched.
func (s *Gorm) AdvanceMessages(ctx context.Context, adv Advance) (int64, error) {
	result := s.conn(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND recipient_id = ?", adv.SenderID, adv.RecipientID).
		Where("created_at <= ?", adv.UpTo).
		Where("status IN ?", adv.From).
		Updates(map[string]any{"status": adv.To, "updated_at": s.db.NowFunc()})
	if result.Error != nil {
		return 0, translate(result.Error, "advance messages")
	}
	return result.RowsAffected, nil
}

func (s *Gorm) Conversation(ctx context.Context, userID, otherID string) ([]models.Message, error) {
	var msgs []models.Message
	err := s.conn(ctx).Preload("Sender").
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, otherID, otherID, userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&msgs).Error
	return msgs, translate(err, "conversation")
}

// endregion
