package catalog

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/stagehand-dev/stagehand/pkg/errors"
	"github.com/stagehand-dev/stagehand/pkg/scene"
)

// mongoModel is the document shape for catalog entries:
//
//	{
//	  "model": "sofa",
//	  "width": 2.0, "depth": 0.9, "height": 0.8,
//	  "anchors": { "seat": { "x": 0, "y": 0.45, "z": 0 } }
//	}
type mongoModel struct {
	Model   string               `bson:"model"`
	Width   float64              `bson:"width"`
	Depth   float64              `bson:"depth"`
	Height  float64              `bson:"height"`
	Anchors map[string]mongoVec3 `bson:"anchors,omitempty"`
}

type mongoVec3 struct {
	X float64 `bson:"x"`
	Y float64 `bson:"y"`
	Z float64 `bson:"z"`
}

// Mongo is a catalog backed by a MongoDB collection. Lookups are read-only
// FindOne queries; the driver's connection pool makes them safe for
// concurrent use.
type Mongo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// DefaultLookupTimeout bounds a single catalog query so a slow database
// cannot stall resolution indefinitely.
const DefaultLookupTimeout = 2 * time.Second

// NewMongo creates a catalog over an existing collection.
func NewMongo(coll *mongo.Collection) *Mongo {
	return &Mongo{coll: coll, timeout: DefaultLookupTimeout}
}

// Connect dials MongoDB and returns a catalog over db/coll.
// The caller owns the returned client and should Disconnect it on shutdown.
func Connect(ctx context.Context, uri, db, coll string) (*Mongo, *mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeCatalog, err, "connect %s", uri)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, errors.Wrap(errors.ErrCodeCatalog, err, "ping %s", uri)
	}
	return NewMongo(client.Database(db).Collection(coll)), client, nil
}

// Lookup implements Catalog. Database errors are treated as a miss: the
// catalog contract has no failure mode beyond "not found", and the engine
// substitutes its default footprint either way.
func (m *Mongo) Lookup(ctx context.Context, ref string) (Dimensions, bool) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var doc mongoModel
	err := m.coll.FindOne(ctx, bson.M{"model": ref}).Decode(&doc)
	if err != nil {
		return Dimensions{}, false
	}

	size := scene.Size{W: doc.Width, D: doc.Depth, H: doc.Height}
	if !size.Valid() {
		return Dimensions{}, false
	}

	dims := Dimensions{Size: size}
	if len(doc.Anchors) > 0 {
		dims.Anchors = make(map[string]scene.Vec3, len(doc.Anchors))
		for name, v := range doc.Anchors {
			dims.Anchors[name] = scene.Vec3{X: v.X, Y: v.Y, Z: v.Z}
		}
	}
	return dims, true
}

// Ensure Mongo implements Catalog.
var _ Catalog = (*Mongo)(nil)
