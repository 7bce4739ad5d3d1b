// Package qualityindex implements the Quality Index: an optional
// Qdrant-backed vector index of a deterministic 16-dimension "quality
// fingerprint" per document, built purely from already-computed Metrics and
// FoundCounts. It never participates in computing a document's Markdown or
// metadata — it is read-only corpus analytics bolted on after the fact.
//
// Construction mirrors the teacher repo's QdrantClient: grpc.Dial with
// insecure transport credentials, collection auto-created on first use.
package qualityindex

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/lawdocs/pipeline/internal/model"
)

// VectorSize is the fixed dimensionality of the quality fingerprint vector.
const VectorSize = 16

// Index wraps a Qdrant connection scoped to one collection.
type Index struct {
	points      qdrant.PointsClient
	collections qdrant.CollectionsClient
	conn        *grpc.ClientConn
	collection  string
}

// Connect dials address and ensures the collection exists.
func Connect(ctx context.Context, address, collection string) (*Index, error) {
	conn, err := grpc.Dial(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant: %w", err)
	}

	idx := &Index{
		points:      qdrant.NewPointsClient(conn),
		collections: qdrant.NewCollectionsClient(conn),
		conn:        conn,
		collection:  collection,
	}

	if err := idx.ensureCollection(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return idx, nil
}

func (idx *Index) Close() error {
	return idx.conn.Close()
}

func (idx *Index) ensureCollection(ctx context.Context) error {
	listResp, err := idx.collections.List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, c := range listResp.Collections {
		if c.Name == idx.collection {
			return nil
		}
	}

	_, err = idx.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: idx.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(VectorSize),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Vector derives the deterministic quality fingerprint described in the
// spec's Quality Index component from already-computed metadata.
func Vector(meta model.Metadata) []float32 {
	pageCount := float32(meta.PageCount)
	if pageCount == 0 {
		pageCount = 1
	}
	boolf := func(b bool) float32 {
		if b {
			return 1
		}
		return 0
	}
	clamp := func(v float32) float32 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}

	v := []float32{
		clamp(float32(meta.Metrics.CharacterCoverage)),
		clamp(float32(meta.Metrics.LeakRate)),
		clamp(float32(meta.Metrics.SplitViolations) / pageCount),
		clamp(float32(meta.Metrics.CoveragePages)),
		clamp(float32(meta.Found.BAB) / 20),
		clamp(float32(meta.Found.Pasal) / 200),
		boolf(meta.Found.Menimbang),
		boolf(meta.Found.Mengingat),
		boolf(meta.Found.Penjelasan),
		clamp(float32(meta.Stats.HyphensFixed) / pageCount),
		clamp(float32(meta.Stats.RemovedHeader) / pageCount),
		clamp(float32(meta.Stats.RemovedFooter) / pageCount),
		clamp(float32(meta.P95LatencyMSPerPage) / 1000),
		clamp(pageCount / 100),
		clamp(float32(len(meta.OCR.OCRRunPages)) / pageCount),
		clamp(float32(len(meta.SuspectPages)) / pageCount),
	}
	return v
}

// Upsert stores the document's quality vector, keyed deterministically by
// doc_id so reprocessing the same document overwrites rather than
// duplicates its entry.
func (idx *Index) Upsert(ctx context.Context, docID string, meta model.Metadata) error {
	vector := Vector(meta)

	payload := map[string]*qdrant.Value{
		"doc_id": {Kind: &qdrant.Value_StringValue{StringValue: docID}},
		"kpi_bab": {Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(meta.Found.BAB)}},
		"kpi_pasal": {Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(meta.Found.Pasal)}},
	}

	point := &qdrant.PointStruct{
		Id: &qdrant.PointId{
			PointIdOptions: &qdrant.PointId_Uuid{Uuid: pointUUID(docID)},
		},
		Vectors: &qdrant.Vectors{
			VectorsOptions: &qdrant.Vectors_Vector{
				Vector: &qdrant.Vector{Data: vector},
			},
		},
		Payload: payload,
	}

	_, err := idx.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: idx.collection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("upsert vector: %w", err)
	}
	return nil
}

// pointUUID derives a stable UUID from doc_id so reprocessing the same
// document always targets the same point.
func pointUUID(docID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(docID)).String()
}
