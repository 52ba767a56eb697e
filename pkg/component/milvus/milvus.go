// Package milvus provides the Milvus client used by the vector search backend.
package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	milvusopts "github.com/kart-io/ragquery/pkg/options/milvus"
)

// Client wraps the Milvus SDK client.
type Client struct {
	client *milvusclient.Client
	opts   *milvusopts.Options
}

// New creates a new Milvus client.
func New(ctx context.Context, opts *milvusopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("milvus options is nil")
	}
	if err := utilerrors.NewAggregate(opts.Validate()); err != nil {
		return nil, fmt.Errorf("invalid milvus options: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}

	return &Client{
		client: c,
		opts:   opts,
	}, nil
}

// Close closes the Milvus client connection.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// RawClient returns the underlying Milvus client.
func (c *Client) RawClient() *milvusclient.Client {
	return c.client
}

// EnsureLoaded checks that the collection exists and loads it into memory.
func (c *Client) EnsureLoaded(ctx context.Context, collection string) error {
	exists, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(collection))
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("milvus collection %q does not exist", collection)
	}

	loadTask, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(collection))
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection loading: %w", err)
	}
	return nil
}

// SearchRequest describes one vector similarity search.
type SearchRequest struct {
	Collection   string
	VectorField  string
	Vector       []float32
	TopK         int
	OutputFields []string
}

// SearchResult represents a single search result.
type SearchResult struct {
	// ID is the primary key, int64 or string depending on the schema.
	ID     any
	Score  float32
	Fields map[string]any
}

// Search performs a vector similarity search and returns the hits best first.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	opt := milvusclient.NewSearchOption(
		req.Collection,
		req.TopK,
		[]entity.Vector{entity.FloatVector(req.Vector)},
	).WithANNSField(req.VectorField).
		WithOutputFields(req.OutputFields...)

	results, err := c.client.Search(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	if len(results) == 0 {
		return []SearchResult{}, nil
	}

	rs := results[0]
	if rs.Err != nil {
		return nil, fmt.Errorf("failed to search: %w", rs.Err)
	}

	out := make([]SearchResult, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		r := SearchResult{Fields: make(map[string]any, len(rs.Fields))}
		if i < len(rs.Scores) {
			r.Score = rs.Scores[i]
		}
		if rs.IDs != nil {
			if id, err := rs.IDs.Get(i); err == nil {
				r.ID = id
			}
		}
		for _, col := range rs.Fields {
			v, err := col.Get(i)
			if err != nil {
				return nil, fmt.Errorf("failed to read field %s: %w", col.Name(), err)
			}
			r.Fields[col.Name()] = v
		}
		out = append(out, r)
	}
	return out, nil
}
