package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"campusnet/graph"
	"campusnet/storage/cache"
	"campusnet/storage/models"
	"campusnet/utils"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Manager is the document-store access layer. Multi-document mutations (the
// two directions of a follow edge, comment insert plus post update) run
// inside a single mongo transaction.
type Manager struct {
	redisConnection *redis.Client
	dbConnection    *mongo.Database

	usersCache cache.UsersCache
}

func NewManager(dbConnection *mongo.Database, redisConnection *redis.Client) *Manager {
	usersCacheExpiration := utils.IntFromString(
		os.Getenv("USERS_CACHE_EXPIRATION_MINUTES"), 43200,
	)

	return &Manager{
		redisConnection: redisConnection,
		dbConnection:    dbConnection,
		usersCache: cache.NewUsersCache(
			redisConnection,
			time.Duration(usersCacheExpiration)*time.Minute,
		),
	}
}

// EnsureIndexes creates the unique and query indexes the store relies on.
// Safe to call on every startup.
func (m *Manager) EnsureIndexes(ctx context.Context) error {
	usersColl := m.dbConnection.Collection("users")
	_, err := usersColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	requestsColl := m.dbConnection.Collection("follow_requests")
	_, err = requestsColl.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "from", Value: 1}, {Key: "to", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": models.RequestPending}),
	})
	if err != nil {
		return err
	}

	notificationsColl := m.dbConnection.Collection("notifications")
	_, err = notificationsColl.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func (m *Manager) CreateUser(ctx context.Context, user *models.User) error {
	coll := m.dbConnection.Collection("users")

	if user.Followers == nil {
		user.Followers = []string{}
	}
	if user.Following == nil {
		user.Following = []string{}
	}
	if user.Privacy == "" {
		user.Privacy = models.Public
	}
	user.CreatedAt = time.Now().UTC()

	result, err := coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("username or email already taken")
		}
		log.Errorf("Error creating user '%s': %v", user.Username, err)
		return err
	}
	user.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *Manager) GetUser(ctx context.Context, id string) (*models.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, graph.ErrNotFound
	}

	coll := m.dbConnection.Collection("users")
	var user models.User
	err = coll.FindOne(ctx, bson.D{{Key: "_id", Value: objectID}}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, graph.ErrNotFound
		}
		log.Errorf("Error finding user '%s': %v", id, err)
		return nil, err
	}
	return &user, nil
}

func (m *Manager) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	coll := m.dbConnection.Collection("users")
	var user models.User
	err := coll.FindOne(
		ctx,
		bson.D{{Key: "email", Value: strings.ToLower(email)}},
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, graph.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// SearchUsers does a case-insensitive partial match on username or email,
// excluding the searching user.
func (m *Manager) SearchUsers(ctx context.Context, query, selfID string) ([]models.User, error) {
	coll := m.dbConnection.Collection("users")

	selfObjectID, _ := primitive.ObjectIDFromHex(selfID)
	cursor, err := coll.Find(
		ctx,
		bson.M{
			"$or": bson.A{
				bson.M{"username": bson.M{"$regex": query, "$options": "i"}},
				bson.M{"email": bson.M{"$regex": query, "$options": "i"}},
			},
			"_id": bson.M{"$ne": selfObjectID},
		},
		options.Find().SetProjection(bson.D{{Key: "password", Value: 0}}).SetLimit(20),
	)
	if err != nil {
		log.Errorf("Error searching users: %v", err)
		return nil, err
	}

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SuggestedUsers returns users the given user does not follow yet.
func (m *Manager) SuggestedUsers(ctx context.Context, user *models.User, limit int64) ([]models.User, error) {
	coll := m.dbConnection.Collection("users")

	excluded := bson.A{user.ID}
	for _, id := range user.Following {
		if objectID, err := primitive.ObjectIDFromHex(id); err == nil {
			excluded = append(excluded, objectID)
		}
	}

	cursor, err := coll.Find(
		ctx,
		bson.M{"_id": bson.M{"$nin": excluded}},
		options.Find().SetProjection(bson.D{{Key: "password", Value: 0}}).SetLimit(limit),
	)
	if err != nil {
		log.Errorf("Error finding suggested users: %v", err)
		return nil, err
	}

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (m *Manager) UpdatePrivacy(ctx context.Context, userID string, privacy models.Privacy) error {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return graph.ErrNotFound
	}

	coll := m.dbConnection.Collection("users")
	result, err := coll.UpdateOne(
		ctx,
		bson.D{{Key: "_id", Value: objectID}},
		bson.M{"$set": bson.M{"privacy": privacy}},
	)
	if err != nil {
		log.Errorf("Error updating privacy for user '%s': %v", userID, err)
		return err
	}
	if result.MatchedCount == 0 {
		return graph.ErrNotFound
	}
	return nil
}

// ListUsers returns every user's id and edge sets. Used by the symmetrize
// sweep; passwords are never projected.
func (m *Manager) ListUsers(ctx context.Context) ([]models.User, error) {
	coll := m.dbConnection.Collection("users")
	cursor, err := coll.Find(
		ctx,
		bson.D{},
		options.Find().SetProjection(
			bson.D{{Key: "_id", Value: 1}, {Key: "followers", Value: 1}, {Key: "following", Value: 1}},
		),
	)
	if err != nil {
		log.Errorf("Error listing users: %v", err)
		return nil, err
	}

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AddFollowEdge adds targetID to actor's following set and actorID to
// target's followers set as a unit. $addToSet keeps it idempotent.
func (m *Manager) AddFollowEdge(ctx context.Context, actorID, targetID string) error {
	return m.updateFollowEdge(ctx, actorID, targetID, "$addToSet", 1)
}

// RemoveFollowEdge removes both directions of the edge as a unit.
func (m *Manager) RemoveFollowEdge(ctx context.Context, actorID, targetID string) error {
	return m.updateFollowEdge(ctx, actorID, targetID, "$pull", -1)
}

func (m *Manager) updateFollowEdge(ctx context.Context, actorID, targetID, operator string, delta int64) error {
	coll := m.dbConnection.Collection("users")

	actorObjectID, err := primitive.ObjectIDFromHex(actorID)
	if err != nil {
		return graph.ErrNotFound
	}
	targetObjectID, err := primitive.ObjectIDFromHex(targetID)
	if err != nil {
		return graph.ErrNotFound
	}

	err = m.executeTransaction(func(ctx mongo.SessionContext) (interface{}, error) {
		_, err := coll.UpdateOne(
			ctx,
			bson.D{{Key: "_id", Value: actorObjectID}},
			bson.M{operator: bson.M{"following": targetID}},
		)
		if err != nil {
			log.Errorf("Error updating following set of '%s': %v", actorID, err)
			return nil, err
		}
		result, err := coll.UpdateOne(
			ctx,
			bson.D{{Key: "_id", Value: targetObjectID}},
			bson.M{operator: bson.M{"followers": actorID}},
		)
		if err != nil {
			log.Errorf("Error updating followers set of '%s': %v", targetID, err)
		}
		return result, err
	})
	if err != nil {
		return err
	}

	// Update cached counters
	m.usersCache.UpdateFollowCounts(actorID, 0, delta)
	m.usersCache.UpdateFollowCounts(targetID, delta, 0)
	return nil
}

// GetUserStatistics returns the cached follower/following counters.
func (m *Manager) GetUserStatistics(userID string) cache.UserStatistics {
	return m.usersCache.GetUserStatistics(userID)
}

func (m *Manager) CreateFollowRequest(ctx context.Context, from, to string) (*models.FollowRequest, error) {
	coll := m.dbConnection.Collection("follow_requests")

	request := models.FollowRequest{
		From:      from,
		To:        to,
		Status:    models.RequestPending,
		CreatedAt: time.Now().UTC(),
	}
	result, err := coll.InsertOne(ctx, request)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, graph.ErrDuplicateRequest
		}
		log.Errorf("Error creating follow request %s -> %s: %v", from, to, err)
		return nil, err
	}
	request.ID = result.InsertedID.(primitive.ObjectID)
	return &request, nil
}

func (m *Manager) GetFollowRequest(ctx context.Context, id string) (*models.FollowRequest, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, graph.ErrNotFound
	}

	coll := m.dbConnection.Collection("follow_requests")
	var request models.FollowRequest
	err = coll.FindOne(ctx, bson.D{{Key: "_id", Value: objectID}}).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, graph.ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (m *Manager) FindPendingRequest(ctx context.Context, from, to string) (*models.FollowRequest, error) {
	coll := m.dbConnection.Collection("follow_requests")

	var request models.FollowRequest
	err := coll.FindOne(
		ctx,
		bson.D{
			{Key: "from", Value: from},
			{Key: "to", Value: to},
			{Key: "status", Value: models.RequestPending},
		},
	).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (m *Manager) UpdateRequestStatus(ctx context.Context, id string, status models.RequestStatus) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return graph.ErrNotFound
	}

	coll := m.dbConnection.Collection("follow_requests")
	result, err := coll.UpdateOne(
		ctx,
		bson.D{{Key: "_id", Value: objectID}},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		log.Errorf("Error updating follow request '%s': %v", id, err)
		return err
	}
	if result.MatchedCount == 0 {
		return graph.ErrNotFound
	}
	return nil
}

func (m *Manager) ListPendingRequests(ctx context.Context, to string) ([]models.FollowRequest, error) {
	coll := m.dbConnection.Collection("follow_requests")

	cursor, err := coll.Find(
		ctx,
		bson.D{{Key: "to", Value: to}, {Key: "status", Value: models.RequestPending}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		log.Errorf("Error listing follow requests for '%s': %v", to, err)
		return nil, err
	}

	var requests []models.FollowRequest
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (m *Manager) CreateNotification(ctx context.Context, notification *models.Notification) error {
	coll := m.dbConnection.Collection("notifications")

	result, err := coll.InsertOne(ctx, notification)
	if err != nil {
		log.Errorf("Error creating notification for user '%s': %v", notification.User, err)
		return err
	}
	notification.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *Manager) ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	coll := m.dbConnection.Collection("notifications")

	cursor, err := coll.Find(
		ctx,
		bson.D{{Key: "user", Value: userID}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		log.Errorf("Error listing notifications for '%s': %v", userID, err)
		return nil, err
	}

	var result []models.Notification
	if err = cursor.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ClearNotifications removes every notification addressed to userID. This is
// the only way notification records go away short of account deletion.
func (m *Manager) ClearNotifications(ctx context.Context, userID string) error {
	coll := m.dbConnection.Collection("notifications")
	_, err := coll.DeleteMany(ctx, bson.D{{Key: "user", Value: userID}})
	if err != nil {
		log.Errorf("Error clearing notifications for '%s': %v", userID, err)
	}
	return err
}

func (m *Manager) CreatePost(ctx context.Context, post *models.Post) error {
	coll := m.dbConnection.Collection("posts")

	if post.Likes == nil {
		post.Likes = []string{}
	}
	if post.Comments == nil {
		post.Comments = []string{}
	}
	post.CreatedAt = time.Now().UTC()

	result, err := coll.InsertOne(ctx, post)
	if err != nil {
		log.Errorf("Error creating post for '%s': %v", post.Author, err)
		return err
	}
	post.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *Manager) GetPost(ctx context.Context, id string) (*models.Post, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, graph.ErrNotFound
	}

	coll := m.dbConnection.Collection("posts")
	var post models.Post
	err = coll.FindOne(ctx, bson.D{{Key: "_id", Value: objectID}}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, graph.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (m *Manager) LikePost(ctx context.Context, postID, userID string) error {
	return m.updatePostLikes(ctx, postID, userID, "$addToSet")
}

func (m *Manager) UnlikePost(ctx context.Context, postID, userID string) error {
	return m.updatePostLikes(ctx, postID, userID, "$pull")
}

func (m *Manager) updatePostLikes(ctx context.Context, postID, userID, operator string) error {
	objectID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return graph.ErrNotFound
	}

	coll := m.dbConnection.Collection("posts")
	result, err := coll.UpdateOne(
		ctx,
		bson.D{{Key: "_id", Value: objectID}},
		bson.M{operator: bson.M{"likes": userID}},
	)
	if err != nil {
		log.Errorf("Error updating likes of post '%s': %v", postID, err)
		return err
	}
	if result.MatchedCount == 0 {
		return graph.ErrNotFound
	}
	return nil
}

// CreateComment inserts the comment and appends its id to the post's comment
// list in one transaction.
func (m *Manager) CreateComment(ctx context.Context, comment *models.Comment) error {
	postObjectID, err := primitive.ObjectIDFromHex(comment.Post)
	if err != nil {
		return graph.ErrNotFound
	}

	postsColl := m.dbConnection.Collection("posts")
	commentsColl := m.dbConnection.Collection("comments")
	comment.CreatedAt = time.Now().UTC()

	return m.executeTransaction(func(ctx mongo.SessionContext) (interface{}, error) {
		result, err := commentsColl.InsertOne(ctx, comment)
		if err != nil {
			log.Errorf("Error creating comment on post '%s': %v", comment.Post, err)
			return nil, err
		}
		comment.ID = result.InsertedID.(primitive.ObjectID)

		updateResult, err := postsColl.UpdateOne(
			ctx,
			bson.D{{Key: "_id", Value: postObjectID}},
			bson.M{"$push": bson.M{"comments": comment.ID.Hex()}},
		)
		if err != nil {
			log.Errorf("Error attaching comment to post '%s': %v", comment.Post, err)
			return nil, err
		}
		if updateResult.MatchedCount == 0 {
			return nil, graph.ErrNotFound
		}
		return updateResult, nil
	})
}

func (m *Manager) CreateMessage(ctx context.Context, message *models.Message) error {
	coll := m.dbConnection.Collection("messages")

	message.CreatedAt = time.Now().UTC()
	result, err := coll.InsertOne(ctx, message)
	if err != nil {
		log.Errorf("Error creating message from '%s': %v", message.Sender, err)
		return err
	}
	message.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// ListMessages returns the conversation between two users, oldest first.
func (m *Manager) ListMessages(ctx context.Context, userA, userB string) ([]models.Message, error) {
	coll := m.dbConnection.Collection("messages")

	cursor, err := coll.Find(
		ctx,
		bson.M{
			"$or": bson.A{
				bson.M{"sender": userA, "receiver": userB},
				bson.M{"sender": userB, "receiver": userA},
			},
		},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		log.Errorf("Error listing messages between '%s' and '%s': %v", userA, userB, err)
		return nil, err
	}

	var messages []models.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (m *Manager) executeTransaction(operation func(ctx mongo.SessionContext) (interface{}, error)) error {
	ctx := context.Background()

	client := m.dbConnection.Client()
	wc := writeconcern.Majority()
	txnOptions := options.Transaction().SetWriteConcern(wc)

	session, err := client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, operation, txnOptions)
	if err != nil {
		log.Warningf("Error committing transaction: %v", err)
	}
	return err
}
