package vault

import (
	"context"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tilecraft/atlas/pkg/errors"
)

// MongoVault is a MongoDB-backed vault for hosted deployments where the
// document repository lives in a database instead of on local disk.
//
// Each document is one record in a single collection:
//
//	{ path, entity, data }
//
// The entity field is denormalized from the front matter on write so
// ListByEntity is a single indexed query instead of a full scan.
type MongoVault struct {
	coll *mongo.Collection
}

// MongoConfig configures a MongoDB vault connection.
type MongoConfig struct {
	URI        string // e.g. "mongodb://localhost:27017"
	Database   string // defaults to "atlas"
	Collection string // defaults to "documents"
}

// mongoDoc is the persisted document shape.
type mongoDoc struct {
	Path   string           `bson:"path"`
	Entity string           `bson:"entity,omitempty"`
	Data   primitive.Binary `bson:"data"`
}

// NewMongoVault connects to MongoDB and verifies the connection with a ping.
func NewMongoVault(ctx context.Context, cfg MongoConfig) (*MongoVault, error) {
	if cfg.Database == "" {
		cfg.Database = "atlas"
	}
	if cfg.Collection == "" {
		cfg.Collection = "documents"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreRead, err, "connect to %s", cfg.URI)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStoreRead, err, "ping %s", cfg.URI)
	}

	return &MongoVault{coll: client.Database(cfg.Database).Collection(cfg.Collection)}, nil
}

// Close disconnects from MongoDB.
func (v *MongoVault) Close(ctx context.Context) error {
	return v.coll.Database().Client().Disconnect(ctx)
}

func (v *MongoVault) Exists(ctx context.Context, p string) (bool, error) {
	if err := errors.ValidateVaultPath(p); err != nil {
		return false, err
	}
	n, err := v.coll.CountDocuments(ctx, bson.M{"path": p}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeStoreRead, err, "count %s", p)
	}
	return n > 0, nil
}

func (v *MongoVault) Read(ctx context.Context, p string) (*Document, error) {
	data, err := v.ReadBinary(ctx, p)
	if err != nil {
		return nil, err
	}
	return ParseDocument(p, data)
}

func (v *MongoVault) ReadBinary(ctx context.Context, p string) ([]byte, error) {
	if err := errors.ValidateVaultPath(p); err != nil {
		return nil, err
	}
	var doc mongoDoc
	err := v.coll.FindOne(ctx, bson.M{"path": p}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeNotFound, "no document at %s", p)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreRead, err, "read %s", p)
	}
	return doc.Data.Data, nil
}

func (v *MongoVault) WriteBinary(ctx context.Context, p string, data []byte) error {
	if err := errors.ValidateVaultPath(p); err != nil {
		return err
	}

	// Denormalize the entity type for text documents so entity listings
	// stay a single query.
	entity := ""
	if strings.HasSuffix(p, ".md") {
		if doc, err := ParseDocument(p, data); err == nil {
			entity = doc.FrontMatter.Entity
		}
	}

	_, err := v.coll.UpdateOne(ctx,
		bson.M{"path": p},
		bson.M{"$set": mongoDoc{Path: p, Entity: entity, Data: primitive.Binary{Data: data}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, err, "write %s", p)
	}
	return nil
}

func (v *MongoVault) ListByEntity(ctx context.Context, entityType string) ([]*Document, error) {
	cur, err := v.coll.Find(ctx, bson.M{"entity": entityType})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreRead, err, "list %s entities", entityType)
	}
	defer cur.Close(ctx)

	var docs []*Document
	for cur.Next(ctx) {
		var raw mongoDoc
		if err := cur.Decode(&raw); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreRead, err, "decode entity record")
		}
		doc, err := ParseDocument(raw.Path, raw.Data.Data)
		if err != nil {
			// Skip malformed documents rather than failing the listing.
			continue
		}
		docs = append(docs, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreRead, err, "iterate %s entities", entityType)
	}
	return docs, nil
}

func (v *MongoVault) ResolveLink(ctx context.Context, basename string) (string, bool, error) {
	pattern := "(^|/)" + regexp.QuoteMeta(basename) + `\.md$`
	var doc mongoDoc
	err := v.coll.FindOne(ctx,
		bson.M{"path": bson.M{"$regex": pattern}},
		options.FindOne().SetProjection(bson.M{"path": 1}),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeStoreRead, err, "resolve link %s", basename)
	}
	return doc.Path, true, nil
}

var _ Repository = (*MongoVault)(nil)
