package vectorstore

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// CollectionName maps a project identifier to its Qdrant collection
// name, following the "<prefix><id>" scheme used by
// other_examples/a08d4eb6_sxueck-codebase's CollectionName helper.
func CollectionName(projectID string) string {
	return "collection_" + projectID
}

// QdrantStore is the production vector-store backend: a single Qdrant
// instance holding one collection per project, named via CollectionName.
// Point structs, filters, and the upsert/delete-by-filter shapes are
// adapted from other_examples/a08d4eb6_sxueck-codebase/internal/indexer/indexer.go,
// which exercises the same qdrant-go-client point/filter types directly.
type QdrantStore struct {
	conn        *grpc.ClientConn
	points      qdrant.PointsClient
	collections qdrant.CollectionsClient
}

// DialQdrant connects to a Qdrant gRPC endpoint (e.g. "localhost:6334").
func DialQdrant(ctx context.Context, addr string) (*QdrantStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("vectorstore: dial qdrant at %s: %w", addr, err)
	}
	return &QdrantStore{
		conn:        conn,
		points:      qdrant.NewPointsClient(conn),
		collections: qdrant.NewCollectionsClient(conn),
	}, nil
}

func (s *QdrantStore) EnsureCollection(ctx context.Context, projectID string, dimensions int) error {
	name := CollectionName(projectID)
	exists, err := s.collections.CollectionExists(ctx, &qdrant.CollectionExistsRequest{CollectionName: name})
	if err == nil && exists.GetResult().GetExists() {
		return nil
	}

	_, err = s.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dimensions),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: create collection %s: %w", name, err)
	}
	return nil
}

func (s *QdrantStore) Upsert(ctx context.Context, projectID string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	name := CollectionName(projectID)
	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, r := range records {
		points = append(points, &qdrant.PointStruct{
			Id: &qdrant.PointId{PointIdOptions: &qdrant.PointId_Num{Num: pointID(r.ChunkID)}},
			Vectors: &qdrant.Vectors{
				VectorsOptions: &qdrant.Vectors_Vector{
					Vector: &qdrant.Vector{Data: r.Embedding},
				},
			},
			Payload: map[string]*qdrant.Value{
				"chunk_id":   strValue(r.ChunkID),
				"file_path":  strValue(r.FilePath),
				"text":       strValue(r.Text),
				"start_line": intValue(int64(r.StartLine)),
				"end_line":   intValue(int64(r.EndLine)),
			},
		})
	}

	_, err := s.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("vectorstore: upsert into %s: %w", name, err)
	}
	return nil
}

func (s *QdrantStore) DeleteFile(ctx context.Context, projectID, filePath string) error {
	name := CollectionName(projectID)
	filter := fileFilter(filePath)
	_, err := s.points.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: name,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: filter},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: delete file %s from %s: %w", filePath, name, err)
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, projectID string, query []float32, limit int) ([]Match, error) {
	name := CollectionName(projectID)
	limitU := uint64(limit)
	withPayload := true

	resp, err := s.points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: name,
		Vector:         query,
		Limit:          limitU,
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: withPayload}},
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search %s: %w", name, err)
	}

	out := make([]Match, 0, len(resp.GetResult()))
	for _, hit := range resp.GetResult() {
		payload := hit.GetPayload()
		out = append(out, Match{
			Record: Record{
				ChunkID:   payload["chunk_id"].GetStringValue(),
				FilePath:  payload["file_path"].GetStringValue(),
				Text:      payload["text"].GetStringValue(),
				StartLine: int(payload["start_line"].GetIntegerValue()),
				EndLine:   int(payload["end_line"].GetIntegerValue()),
			},
			Distance: 1 - hit.GetScore(), // Qdrant cosine score is similarity; invert to a distance
		})
	}
	return out, nil
}

func (s *QdrantStore) DropCollection(ctx context.Context, projectID string) error {
	name := CollectionName(projectID)
	_, err := s.collections.Delete(ctx, &qdrant.DeleteCollection{CollectionName: name})
	if err != nil {
		return fmt.Errorf("vectorstore: drop collection %s: %w", name, err)
	}
	return nil
}

func (s *QdrantStore) Close() error {
	return s.conn.Close()
}

func fileFilter(filePath string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key:   "file_path",
						Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: filePath}},
					},
				},
			},
		},
	}
}

// pointID maps a string chunk ID to the uint64 numeric point ID Qdrant
// expects, by truncating its SHA-256 digest — collisions are
// astronomically unlikely at project scale and, if one ever occurred,
// would only cause a spurious overwrite within a single project's
// collection.
func pointID(chunkID string) uint64 {
	sum := sha256.Sum256([]byte(chunkID))
	return binary.BigEndian.Uint64(sum[:8])
}

func strValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

func intValue(i int64) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: i}}
}
