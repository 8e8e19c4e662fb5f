package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"pairgo/backend/internal/config"
	"pairgo/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage is the durable-store contract consumed by the realtime core.
// PostgreSQL (via GORM) is the source of truth; Redis carries the volatile
// state: search-queue mirror, presence heartbeats, ban flags and the
// per-room pub/sub fan-out channels.
type Storage interface {
	SaveUser(user *models.User) error
	GetUserByID(id string) (*models.User, error)
	EnsureUser(id string) (*models.User, error)
	UpdateUser(user *models.User) error
	UpdateUserReputation(id string, delta int) error

	SaveRoom(room *models.ChatRoom) error
	GetRoomByID(roomID string) (*models.ChatRoom, error)
	CloseRoom(roomID string) error
	GetActiveRooms() ([]models.ChatRoom, error)
	GetActiveRoomIDForUser(userID string) (string, error)
	FindActiveFriendRoom(a, b string) (*models.ChatRoom, error)
	SetRoomDisappear(roomID string, seconds int64) error

	SaveMessage(msg *models.ChatMessage) error
	GetChatHistory(roomID string) ([]models.ChatHistory, error)
	FindHistoryByID(id uint) (*models.ChatHistory, error)
	DeleteRoomMessages(roomID string) (int64, error)
	DeleteExpiredMessages(roomID string, cutoff time.Time) (int64, error)
	SetMessagePinned(id uint, pinnedBy string) error

	CreateBlock(blockerID, blockedID string) error
	DeleteBlock(blockerID, blockedID string) error
	FindBlockBetween(a, b string) (*models.BlockRelation, error)

	SaveMembership(m *models.Membership) error
	GetMembership(roomID, userID string) (*models.Membership, error)
	ListMemberships(roomID string) ([]models.Membership, error)
	DeleteMembership(roomID, userID string) error
	UpdateMembershipRole(roomID, userID, role string) error
	CountMemberships(roomID string) (int64, error)

	FindReaction(messageID uint, userID string) (*models.Reaction, error)
	SaveReaction(r *models.Reaction) error
	DeleteReaction(messageID uint, userID string) error

	SaveNotification(n *models.Notification) error
	ListNotifications(recipientID string, unreadOnly bool) ([]models.Notification, error)
	CountUnreadNotifications(recipientID string) (int64, error)
	MarkNotificationsRead(recipientID string) error
	MarkRoomNotificationsRead(recipientID, roomID string) error
	ClearNotifications(recipientID string) error

	SaveFriendRequest(fr *models.FriendRequest) error
	FindFriendRequest(fromID, toID string) (*models.FriendRequest, error)
	AcceptFriendRequest(fromID, toID string) error

	SaveReport(report *models.Report) error
	GetReportsForUser(userID string, since time.Time) ([]models.Report, error)
	ListOpenReports() ([]models.Report, error)
	MarkReportProcessed(reportID string) error

	PublishEvent(roomID string, msg models.ChatMessage) error

	AddUserToSearchQueue(userID string) error
	RemoveUserFromSearchQueue(userID string) error
	GetSearchingUsers() ([]string, error)

	SetHeartbeat(userID string) error
	IsOnline(userID string) (bool, error)

	SetBan(userID string, d time.Duration) error
	IsUserBanned(userID string) (bool, error)
}

// Service implements Storage on top of GORM and go-redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// --- Users ---

func (s *Service) SaveUser(user *models.User) error {
	return s.DB.Save(user).Error
}

func (s *Service) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureUser loads the user row for id, creating it with defaults on first
// contact. The auth provider owns identity; we only need a row to hang
// reputation and preferences on.
func (s *Service) EnsureUser(id string) (*models.User, error) {
	var user models.User
	defaults := models.User{ID: id, ReputationScore: config.InitialReputation}

	result := s.DB.Where("id = ?", id).FirstOrCreate(&user, defaults)
	if result.Error != nil {
		log.Printf("ERROR: Failed to ensure user %s: %v", id, result.Error)
		return nil, result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("INFO: New user %s saved to database.", id)
	}
	return &user, nil
}

func (s *Service) UpdateUser(user *models.User) error {
	return s.DB.Save(user).Error
}

func (s *Service) UpdateUserReputation(id string, delta int) error {
	return s.DB.Model(&models.User{}).
		Where("id = ?", id).
		Update("reputation_score", gorm.Expr(
			"LEAST(?, GREATEST(?, reputation_score + ?))",
			config.MaxReputation, config.MinReputation, delta,
		)).Error
}

// --- Rooms ---

func (s *Service) SaveRoom(room *models.ChatRoom) error {
	return s.DB.Save(room).Error
}

func (s *Service) GetRoomByID(roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.Where("room_id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New("chat room not found")
	}
	if err != nil {
		log.Printf("ERROR: Failed to get room %s: %v", roomID, err)
		return nil, err
	}
	return &room, nil
}

// CloseRoom moves a room to its terminal state. The row is retained so
// history stays queryable by reference.
func (s *Service) CloseRoom(roomID string) error {
	return s.DB.Model(&models.ChatRoom{}).
		Where("room_id = ?", roomID).
		Updates(map[string]interface{}{
			"is_active": false,
			"ended_at":  gorm.Expr("NOW()"),
		}).Error
}

func (s *Service) GetActiveRooms() ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	if err := s.DB.Where("is_active = ?", true).Find(&rooms).Error; err != nil {
		log.Printf("ERROR: Failed to retrieve active rooms: %v", err)
		return nil, err
	}
	return rooms, nil
}

// GetActiveRoomIDForUser finds the active pair room the user participates
// in, if any. Used to reattach a reconnecting client to its session.
func (s *Service) GetActiveRoomIDForUser(userID string) (string, error) {
	var room models.ChatRoom
	err := s.DB.Where("is_active = ?", true).
		Where("kind <> ?", models.RoomKindGroup).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to find active room for user %s: %v", userID, err)
		return "", err
	}
	return room.RoomID, nil
}

func (s *Service) FindActiveFriendRoom(a, b string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.Where("is_active = ? AND kind = ?", true, models.RoomKindFriend).
		Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)", a, b, b, a).
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Service) SetRoomDisappear(roomID string, seconds int64) error {
	return s.DB.Model(&models.ChatRoom{}).
		Where("room_id = ?", roomID).
		Update("disappear_after_sec", seconds).Error
}

// --- Messages ---

// SaveMessage persists the accepted message and writes the assigned ID back
// into the wire envelope so it can be published as-is.
func (s *Service) SaveMessage(msg *models.ChatMessage) error {
	history := models.ChatHistory{
		RoomID:           msg.RoomID,
		SenderID:         msg.SenderID,
		Content:          msg.Content,
		ContentType:      msg.ContentType,
		Metadata:         msg.Metadata,
		ReplyToMessageID: msg.ReplyToMessageID,
		Mentions:         msg.Mentions,
	}
	history.CreatedAt = msg.CreatedAt

	if err := s.DB.Create(&history).Error; err != nil {
		log.Printf("ERROR: Failed to save message for room %s: %v", msg.RoomID, err)
		return err
	}

	msg.ID = history.ID
	return nil
}

func (s *Service) GetChatHistory(roomID string) ([]models.ChatHistory, error) {
	var history []models.ChatHistory
	if err := s.DB.Where("room_id = ?", roomID).Order("created_at asc").Find(&history).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return history, nil
		}
		log.Printf("ERROR: Failed to get chat history for room %s: %v", roomID, err)
		return nil, err
	}
	return history, nil
}

func (s *Service) FindHistoryByID(id uint) (*models.ChatHistory, error) {
	var history models.ChatHistory
	err := s.DB.First(&history, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &history, nil
}

// DeleteRoomMessages is the destructive "empty chat" bulk delete. The relay
// enforces the role check before calling it.
func (s *Service) DeleteRoomMessages(roomID string) (int64, error) {
	result := s.DB.Unscoped().Where("room_id = ?", roomID).Delete(&models.ChatHistory{})
	if result.Error != nil {
		log.Printf("ERROR: Failed to empty room %s: %v", roomID, result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteExpiredMessages removes every message in the room created at or
// before cutoff and reports how many were evicted.
func (s *Service) DeleteExpiredMessages(roomID string, cutoff time.Time) (int64, error) {
	result := s.DB.Unscoped().
		Where("room_id = ? AND created_at <= ?", roomID, cutoff).
		Delete(&models.ChatHistory{})
	if result.Error != nil {
		log.Printf("ERROR: Failed to sweep room %s: %v", roomID, result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (s *Service) SetMessagePinned(id uint, pinnedBy string) error {
	return s.DB.Model(&models.ChatHistory{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"pinned": true, "pinned_by": pinnedBy}).Error
}

// --- Blocks ---

// CreateBlock is idempotent: blocking twice leaves exactly one relation.
func (s *Service) CreateBlock(blockerID, blockedID string) error {
	rel := models.BlockRelation{BlockerID: blockerID, BlockedID: blockedID}
	return s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&rel).Error
}

func (s *Service) DeleteBlock(blockerID, blockedID string) error {
	return s.DB.Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.BlockRelation{}).Error
}

// FindBlockBetween returns the relation between a and b in either
// direction, or nil when none exists.
func (s *Service) FindBlockBetween(a, b string) (*models.BlockRelation, error) {
	var rel models.BlockRelation
	err := s.DB.
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

// --- Memberships ---

func (s *Service) SaveMembership(m *models.Membership) error {
	return s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(m).Error
}

func (s *Service) GetMembership(roomID, userID string) (*models.Membership, error) {
	var m models.Membership
	err := s.DB.Where("room_id = ? AND user_id = ?", roomID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Service) ListMemberships(roomID string) ([]models.Membership, error) {
	var ms []models.Membership
	if err := s.DB.Where("room_id = ?", roomID).Order("joined_at asc").Find(&ms).Error; err != nil {
		return nil, err
	}
	return ms, nil
}

func (s *Service) DeleteMembership(roomID, userID string) error {
	return s.DB.Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&models.Membership{}).Error
}

func (s *Service) UpdateMembershipRole(roomID, userID, role string) error {
	return s.DB.Model(&models.Membership{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("role", role).Error
}

func (s *Service) CountMemberships(roomID string) (int64, error) {
	var n int64
	err := s.DB.Model(&models.Membership{}).Where("room_id = ?", roomID).Count(&n).Error
	return n, err
}

// --- Reactions ---

func (s *Service) FindReaction(messageID uint, userID string) (*models.Reaction, error) {
	var r models.Reaction
	err := s.DB.Where("message_id = ? AND user_id = ?", messageID, userID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Service) SaveReaction(r *models.Reaction) error {
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"emoji"}),
	}).Create(r).Error
}

func (s *Service) DeleteReaction(messageID uint, userID string) error {
	return s.DB.Where("message_id = ? AND user_id = ?", messageID, userID).
		Delete(&models.Reaction{}).Error
}

// --- Notifications ---

func (s *Service) SaveNotification(n *models.Notification) error {
	if err := s.DB.Create(n).Error; err != nil {
		log.Printf("ERROR: Failed to save notification for %s: %v", n.RecipientID, err)
		return err
	}
	return nil
}

func (s *Service) ListNotifications(recipientID string, unreadOnly bool) ([]models.Notification, error) {
	var ns []models.Notification
	q := s.DB.Where("recipient_id = ?", recipientID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	if err := q.Order("created_at desc").Find(&ns).Error; err != nil {
		return nil, err
	}
	return ns, nil
}

func (s *Service) CountUnreadNotifications(recipientID string) (int64, error) {
	var n int64
	err := s.DB.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&n).Error
	return n, err
}

func (s *Service) MarkNotificationsRead(recipientID string) error {
	return s.DB.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Update("read", true).Error
}

func (s *Service) MarkRoomNotificationsRead(recipientID, roomID string) error {
	return s.DB.Model(&models.Notification{}).
		Where("recipient_id = ? AND room_id = ? AND read = ?", recipientID, roomID, false).
		Update("read", true).Error
}

func (s *Service) ClearNotifications(recipientID string) error {
	return s.DB.Unscoped().Where("recipient_id = ?", recipientID).
		Delete(&models.Notification{}).Error
}

// --- Friend requests ---

func (s *Service) SaveFriendRequest(fr *models.FriendRequest) error {
	return s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(fr).Error
}

func (s *Service) FindFriendRequest(fromID, toID string) (*models.FriendRequest, error) {
	var fr models.FriendRequest
	err := s.DB.Where("from_id = ? AND to_id = ?", fromID, toID).First(&fr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fr, nil
}

func (s *Service) AcceptFriendRequest(fromID, toID string) error {
	return s.DB.Model(&models.FriendRequest{}).
		Where("from_id = ? AND to_id = ?", fromID, toID).
		Update("status", models.FriendRequestAccepted).Error
}

// --- Reports ---

func (s *Service) SaveReport(report *models.Report) error {
	if report.Status == "" {
		report.Status = "new"
	}
	if err := s.DB.Create(report).Error; err != nil {
		log.Printf("ERROR: Failed to save report for room %s: %v", report.RoomID, err)
		return err
	}
	return nil
}

func (s *Service) GetReportsForUser(userID string, since time.Time) ([]models.Report, error) {
	var reports []models.Report
	err := s.DB.Where("reported_user_id = ? AND created_at >= ?", userID, since.Unix()).
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Service) ListOpenReports() ([]models.Report, error) {
	var reports []models.Report
	if err := s.DB.Where("status = ?", "new").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Service) MarkReportProcessed(reportID string) error {
	return s.DB.Model(&models.Report{}).
		Where("report_id = ?", reportID).
		Update("status", "processed").Error
}

// --- Redis: pub/sub fan-out ---

// PublishEvent publishes a wire envelope on the room's channel. Every node
// with occupants of the room receives it through the hub's listener.
func (s *Service) PublishEvent(roomID string, msg models.ChatMessage) error {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, roomChannel(roomID), string(msgBytes)).Err()
}

// SubscribeRooms subscribes to every room channel on this Redis.
func (s *Service) SubscribeRooms() *redis.PubSub {
	return s.Redis.PSubscribe(s.Ctx, "room:*")
}

func roomChannel(roomID string) string {
	return "room:" + roomID
}

// --- Redis: search-queue mirror ---

func (s *Service) AddUserToSearchQueue(userID string) error {
	return s.Redis.SAdd(s.Ctx, "search_queue", userID).Err()
}

func (s *Service) RemoveUserFromSearchQueue(userID string) error {
	return s.Redis.SRem(s.Ctx, "search_queue", userID).Err()
}

func (s *Service) GetSearchingUsers() ([]string, error) {
	return s.Redis.SMembers(s.Ctx, "search_queue").Result()
}

// --- Redis: presence heartbeats ---

func (s *Service) SetHeartbeat(userID string) error {
	return s.Redis.Set(s.Ctx, "presence:"+userID, "1", config.HeartbeatTTL).Err()
}

func (s *Service) IsOnline(userID string) (bool, error) {
	n, err := s.Redis.Exists(s.Ctx, "presence:"+userID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// --- Redis: ban flags ---

func (s *Service) SetBan(userID string, d time.Duration) error {
	return s.Redis.Set(s.Ctx, "ban:"+userID, "1", d).Err()
}

func (s *Service) IsUserBanned(userID string) (bool, error) {
	status, err := s.Redis.Get(s.Ctx, "ban:"+userID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status != "", nil
}
