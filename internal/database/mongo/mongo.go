package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"myobclient/entity"
	"myobclient/internal/config"
	"myobclient/internal/lib/sl"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ordersCollection = "orders"
)

type MongoDB struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
	expiredDays   int
	log           *slog.Logger
}

func NewMongoClient(conf *config.Config, logger *slog.Logger) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
		expiredDays:   conf.Mongo.ExpiredDays,
		log:           logger.With(sl.Module("mongodb")),
	}
	return client, nil
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect error: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(m.ctx)
}

// SaveOrderVersion records one attempt to create the order identified by reference.
// The first attempt creates the document; later ones append versions "1", "2", ...
func (m *MongoDB) SaveOrderVersion(reference string, version entity.Version) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(ordersCollection)

	if version.CreationDate.IsZero() {
		version.CreationDate = time.Now()
	}

	filter := bson.M{"reference": reference}
	var existing entity.MongoOrder
	err = collection.FindOne(m.ctx, filter).Decode(&existing)

	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("mongodb find error: %w", err)
		}
		version.ID = "0"
		order := entity.MongoOrder{
			CreationDate: time.Now(),
			Reference:    reference,
			Versions:     []entity.Version{version},
		}
		if _, err = collection.InsertOne(m.ctx, order); err != nil {
			return fmt.Errorf("mongodb insert error: %w", err)
		}
		m.log.Debug("created order log in mongodb", slog.String("reference", reference), slog.String("version_id", version.ID))
		return nil
	}

	version.ID = fmt.Sprintf("%d", len(existing.Versions))
	update := bson.M{
		"$push": bson.M{"versions": version},
	}
	if _, err = collection.UpdateOne(m.ctx, filter, update); err != nil {
		return fmt.Errorf("mongodb update error: %w", err)
	}

	m.log.Debug("added version to order log in mongodb", slog.String("reference", reference), slog.String("version_id", version.ID))
	return nil
}

// GetOrder returns nil without error when nothing was logged for reference.
func (m *MongoDB) GetOrder(reference string) (*entity.MongoOrder, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(ordersCollection)

	var order entity.MongoOrder
	err = collection.FindOne(m.ctx, bson.M{"reference": reference}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongodb find error: %w", err)
	}
	return &order, nil
}

// DeleteExpired removes order documents older than expiredDays from MongoDB.
// Returns the number of deleted documents.
func (m *MongoDB) DeleteExpired() (int64, error) {
	if m.expiredDays <= 0 {
		return 0, nil
	}

	connection, err := m.connect()
	if err != nil {
		return 0, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(ordersCollection)

	cutoffDate := time.Now().AddDate(0, 0, -m.expiredDays)
	filter := bson.M{"creation_date": bson.M{"$lt": cutoffDate}}

	result, err := collection.DeleteMany(m.ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("mongodb delete error: %w", err)
	}

	if result.DeletedCount > 0 {
		m.log.Info("deleted expired orders from mongodb",
			slog.Int64("deleted_count", result.DeletedCount),
			slog.Int("expired_days", m.expiredDays))
	}

	return result.DeletedCount, nil
}
