package graphstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// spaceReadyPollInterval and spaceReadyMaxAttempts bound how long
// EnsureSpace waits for a newly created space to become writable. bbolt
// buckets are ready the instant the creating transaction commits, so in
// practice this loop exits on its first check; the bound exists so this
// adapter's contract matches what a networked graph database (where
// space/keyspace creation genuinely is asynchronous) would require of
// any adapter plugged in behind the same Store interface.
const (
	spaceReadyPollInterval = time.Second
	spaceReadyMaxAttempts  = 30
)

var (
	bucketNodes  = []byte("nodes")
	bucketEdges  = []byte("edges")
	bucketByFile = []byte("by_file")
)

// fileIndex is the value stored in bucketByFile for one source file: the
// node and edge keys it contributed, so UpsertFile/DeleteFile can remove
// exactly those entries without a full bucket scan.
type fileIndex struct {
	NodeIDs  []string `json:"node_ids"`
	EdgeKeys []string `json:"edge_keys"`
}

// BoltStore is the embedded graph-store backend.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if needed) the graph database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("graphstore: open %s: %w", path, err)
	}
	return &BoltStore{db: db}, nil
}

func projectBucketName(projectID string) []byte {
	return []byte("project_" + projectID)
}

func (s *BoltStore) EnsureSpace(ctx context.Context, projectID string) error {
	create := func() error {
		return s.db.Update(func(tx *bolt.Tx) error {
			root, err := tx.CreateBucketIfNotExists(projectBucketName(projectID))
			if err != nil {
				return err
			}
			for _, name := range [][]byte{bucketNodes, bucketEdges, bucketByFile} {
				if _, err := root.CreateBucketIfNotExists(name); err != nil {
					return err
				}
			}
			return nil
		})
	}

	ready := func() bool {
		ready := false
		_ = s.db.View(func(tx *bolt.Tx) error {
			root := tx.Bucket(projectBucketName(projectID))
			ready = root != nil && root.Bucket(bucketNodes) != nil &&
				root.Bucket(bucketEdges) != nil && root.Bucket(bucketByFile) != nil
			return nil
		})
		return ready
	}

	if err := create(); err != nil {
		return fmt.Errorf("graphstore: ensure space %s: %w", projectID, err)
	}
	for attempt := 0; attempt < spaceReadyMaxAttempts; attempt++ {
		if ready() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(spaceReadyPollInterval):
		}
	}
	return fmt.Errorf("graphstore: space %s not ready after %d attempts", projectID, spaceReadyMaxAttempts)
}

func edgeKey(e Edge) string {
	return fmt.Sprintf("%s->%s|%s", e.From, e.To, e.Kind)
}

func (s *BoltStore) UpsertFile(ctx context.Context, projectID, filePath string, nodes []Node, edges []Edge) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(projectBucketName(projectID))
		if root == nil {
			return fmt.Errorf("graphstore: space %s not initialized", projectID)
		}
		if err := removeFileLocked(root, filePath); err != nil {
			return err
		}

		nodesB := root.Bucket(bucketNodes)
		edgesB := root.Bucket(bucketEdges)
		byFileB := root.Bucket(bucketByFile)

		idx := fileIndex{}
		for _, n := range nodes {
			data, err := json.Marshal(n)
			if err != nil {
				return err
			}
			if err := nodesB.Put([]byte(n.ID), data); err != nil {
				return err
			}
			idx.NodeIDs = append(idx.NodeIDs, n.ID)
		}
		for _, e := range edges {
			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			key := edgeKey(e)
			if err := edgesB.Put([]byte(key), data); err != nil {
				return err
			}
			idx.EdgeKeys = append(idx.EdgeKeys, key)
		}

		data, err := json.Marshal(idx)
		if err != nil {
			return err
		}
		return byFileB.Put([]byte(filePath), data)
	})
}

func (s *BoltStore) DeleteFile(ctx context.Context, projectID, filePath string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(projectBucketName(projectID))
		if root == nil {
			return nil
		}
		return removeFileLocked(root, filePath)
	})
}

// removeFileLocked must be called within an open write transaction on
// root's owning bucket.
func removeFileLocked(root *bolt.Bucket, filePath string) error {
	byFileB := root.Bucket(bucketByFile)
	existing := byFileB.Get([]byte(filePath))
	if existing == nil {
		return nil
	}
	var idx fileIndex
	if err := json.Unmarshal(existing, &idx); err != nil {
		return err
	}

	nodesB := root.Bucket(bucketNodes)
	for _, id := range idx.NodeIDs {
		if err := nodesB.Delete([]byte(id)); err != nil {
			return err
		}
	}
	edgesB := root.Bucket(bucketEdges)
	for _, key := range idx.EdgeKeys {
		if err := edgesB.Delete([]byte(key)); err != nil {
			return err
		}
	}
	return byFileB.Delete([]byte(filePath))
}

func (s *BoltStore) RelatedTo(ctx context.Context, projectID, nodeID string, maxDepth int) ([]Neighbor, error) {
	var result []Neighbor
	err := s.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(projectBucketName(projectID))
		if root == nil {
			return fmt.Errorf("graphstore: space %s not initialized", projectID)
		}
		nodesB := root.Bucket(bucketNodes)
		edgesB := root.Bucket(bucketEdges)

		var allEdges []Edge
		if err := edgesB.ForEach(func(_, v []byte) error {
			var e Edge
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			allEdges = append(allEdges, e)
			return nil
		}); err != nil {
			return err
		}

		visited := map[string]bool{nodeID: true}
		frontier := []string{nodeID}
		for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
			var next []string
			for _, id := range frontier {
				for _, e := range allEdges {
					var neighborID string
					switch id {
					case e.From:
						neighborID = e.To
					case e.To:
						neighborID = e.From
					default:
						continue
					}
					if visited[neighborID] {
						continue
					}
					visited[neighborID] = true
					data := nodesB.Get([]byte(neighborID))
					if data == nil {
						continue
					}
					var n Node
					if err := json.Unmarshal(data, &n); err != nil {
						return err
					}
					result = append(result, Neighbor{Node: n, Edge: e, Depth: depth})
					next = append(next, neighborID)
				}
			}
			frontier = next
		}
		return nil
	})
	return result, err
}

func (s *BoltStore) DropSpace(ctx context.Context, projectID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket(projectBucketName(projectID))
		if err == bolt.ErrBucketNotFound {
			return nil
		}
		return err
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
