package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/models"
)

// Mongo adapts a MongoDB database to the Store contract. Each entity maps to
// a collection; the record id doubles as the Mongo _id.
type Mongo struct {
	db *mongo.Database
}

func NewMongo(client *mongo.Client, database string) *Mongo {
	return &Mongo{db: client.Database(database)}
}

func (m *Mongo) Query(ctx context.Context, entity string, q Query) ([]models.Record, error) {
	filter := bson.M{}
	for k, v := range q.Where {
		filter[k] = v
	}

	findOpts := options.Find()
	if sort := orderToSort(q.Order); sort != nil {
		findOpts.SetSort(sort)
	}
	if len(q.Select) > 0 {
		proj := bson.M{}
		for _, f := range q.Select {
			proj[f] = 1
		}
		findOpts.SetProjection(proj)
	}
	if q.Limit > 0 {
		findOpts.SetLimit(int64(q.Limit))
	}

	cursor, err := m.db.Collection(entity).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", entity, err)
	}
	defer cursor.Close(ctx)

	var results []models.Record
	for cursor.Next(ctx) {
		var doc map[string]any
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", entity, err)
		}
		rec := models.Record(doc)
		if id, ok := rec["_id"].(string); ok {
			rec["id"] = id
		}
		delete(rec, "_id")
		results = append(results, rec)
	}
	return results, cursor.Err()
}

func (m *Mongo) Transact(ctx context.Context, ops []Op) error {
	// Group per collection; BulkWrite is per-collection in the driver.
	byEntity := make(map[string][]mongo.WriteModel)
	for _, op := range ops {
		switch op.Kind {
		case OpUpsert:
			if op.ID == "" {
				return fmt.Errorf("upsert into %s: missing record id", op.Entity)
			}
			doc := bson.M{"_id": op.ID}
			for k, v := range op.Fields {
				if k == "id" {
					continue
				}
				doc[k] = v
			}
			model := mongo.NewReplaceOneModel().
				SetFilter(bson.M{"_id": op.ID}).
				SetReplacement(doc).
				SetUpsert(true)
			byEntity[op.Entity] = append(byEntity[op.Entity], model)
		case OpDelete:
			model := mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": op.ID})
			byEntity[op.Entity] = append(byEntity[op.Entity], model)
		default:
			return fmt.Errorf("unknown op kind %q", op.Kind)
		}
	}

	writeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	for entity, writes := range byEntity {
		if _, err := m.db.Collection(entity).BulkWrite(writeCtx, writes, options.BulkWrite().SetOrdered(true)); err != nil {
			return fmt.Errorf("bulk write %s: %w", entity, err)
		}
	}
	return nil
}

func (m *Mongo) NewID() string {
	return uuid.NewString()
}

func orderToSort(order any) bson.D {
	switch o := order.(type) {
	case nil:
		return nil
	case string:
		if o == "" {
			return nil
		}
		return bson.D{{Key: o, Value: 1}}
	case []string:
		sort := bson.D{}
		for _, f := range o {
			sort = append(sort, bson.E{Key: f, Value: 1})
		}
		return sort
	case map[string]any:
		field, _ := o["field"].(string)
		if field == "" {
			return nil
		}
		dir := 1
		if d, ok := o["direction"].(string); ok && d == "desc" {
			dir = -1
		}
		return bson.D{{Key: field, Value: dir}}
	default:
		return nil
	}
}
