package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/juridia/legal-assistant-be/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ConversationRepo is the durable store for conversations and their
// question/answer exchanges. The in-memory cache is an optimization on top of
// this; it is never the source of truth.
type ConversationRepo interface {
	CreateConversation(ctx context.Context, conv *types.Conversation) error
	GetConversation(ctx context.Context, id string) (*types.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error

	// RecordExchange persists one question/answer pair and bumps the
	// conversation's update time in a single transaction. A failure partway
	// through rolls back fully.
	RecordExchange(ctx context.Context, conversationID string, ex *types.Exchange) error

	ListExchanges(ctx context.Context, conversationID string, limit int) ([]types.Exchange, error)
	CountQuestions(ctx context.Context, conversationID string) (int64, error)

	// UpdateMetadata sets the generated title and category.
	UpdateMetadata(ctx context.Context, conversationID, title, category string) error
}

type conversationRepo struct {
	client        *mongo.Client
	conversations *mongo.Collection
	exchanges     *mongo.Collection
}

func NewConversationRepo(client *mongo.Client, db *mongo.Database) ConversationRepo {
	conversations := db.Collection("conversations")
	exchanges := db.Collection("exchanges")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "conversation_id", Value: 1},
				{Key: "created_at", Value: 1},
			},
		},
	}
	if _, err := exchanges.Indexes().CreateMany(context.Background(), indexes); err != nil {
		log.Printf("Error creating exchange indexes: %v", err)
	}

	return &conversationRepo{
		client:        client,
		conversations: conversations,
		exchanges:     exchanges,
	}
}

func (r *conversationRepo) CreateConversation(ctx context.Context, conv *types.Conversation) error {
	if conv.CreatedAt == 0 {
		conv.CreatedAt = time.Now().Unix()
	}
	conv.UpdatedAt = conv.CreatedAt
	if _, err := r.conversations.InsertOne(ctx, conv); err != nil {
		return fmt.Errorf("%w: create conversation: %v", types.ErrPersistenceFailure, err)
	}
	return nil
}

func (r *conversationRepo) GetConversation(ctx context.Context, id string) (*types.Conversation, error) {
	var conv types.Conversation
	err := r.conversations.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, types.ErrConversationNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepo) DeleteConversation(ctx context.Context, id string) error {
	res, err := r.conversations.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return types.ErrConversationNotFound
	}
	_, err = r.exchanges.DeleteMany(ctx, bson.M{"conversation_id": id})
	return err
}

func (r *conversationRepo) RecordExchange(ctx context.Context, conversationID string, ex *types.Exchange) error {
	ex.ConversationID = conversationID
	if ex.CreatedAt == 0 {
		ex.CreatedAt = time.Now().Unix()
	}

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("%w: start session: %v", types.ErrPersistenceFailure, err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		if _, err := r.exchanges.InsertOne(ctx, ex); err != nil {
			return nil, err
		}
		res, err := r.conversations.UpdateOne(ctx,
			bson.M{"_id": conversationID},
			bson.M{"$set": bson.M{"updated_at": ex.CreatedAt}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, types.ErrConversationNotFound
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, types.ErrConversationNotFound) {
			return err
		}
		return fmt.Errorf("%w: record exchange: %v", types.ErrPersistenceFailure, err)
	}
	return nil
}

func (r *conversationRepo) ListExchanges(ctx context.Context, conversationID string, limit int) ([]types.Exchange, error) {
	opts := options.Find().SetSort(exchangeSort(false))
	if limit > 0 {
		// Keep the most recent ones: sort descending, cap, then reverse.
		opts = options.Find().SetSort(exchangeSort(true)).SetLimit(int64(limit))
	}

	cursor, err := r.exchanges.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var exchanges []types.Exchange
	for cursor.Next(ctx) {
		var ex types.Exchange
		if err := cursor.Decode(&ex); err != nil {
			return nil, err
		}
		exchanges = append(exchanges, ex)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	if limit > 0 {
		for i, j := 0, len(exchanges)-1; i < j; i, j = i+1, j-1 {
			exchanges[i], exchanges[j] = exchanges[j], exchanges[i]
		}
	}
	return exchanges, nil
}

// exchangeSort orders exchanges by creation time, breaking same-second ties
// with the monotonic _id so reloaded history keeps its insertion order.
func exchangeSort(newestFirst bool) bson.D {
	dir := 1
	if newestFirst {
		dir = -1
	}
	return bson.D{
		{Key: "created_at", Value: dir},
		{Key: "_id", Value: dir},
	}
}

func (r *conversationRepo) CountQuestions(ctx context.Context, conversationID string) (int64, error) {
	return r.exchanges.CountDocuments(ctx, bson.M{"conversation_id": conversationID})
}

func (r *conversationRepo) UpdateMetadata(ctx context.Context, conversationID, title, category string) error {
	res, err := r.conversations.UpdateOne(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$set": bson.M{"title": title, "category": category}},
	)
	if err != nil {
		return fmt.Errorf("%w: update metadata: %v", types.ErrPersistenceFailure, err)
	}
	if res.MatchedCount == 0 {
		return types.ErrConversationNotFound
	}
	return nil
}
