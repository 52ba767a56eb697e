package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/kart-io/ragquery/pkg/component/milvus"
	"github.com/kart-io/ragquery/pkg/llm"
	searchopts "github.com/kart-io/ragquery/pkg/options/search"
)

// VectorSearcher 执行向量相似度检索，*milvus.Client 实现该接口。
type VectorSearcher interface {
	Search(ctx context.Context, req milvus.SearchRequest) ([]milvus.SearchResult, error)
}

// MilvusSearch 将查询文本向量化后在 Milvus 集合中检索。
type MilvusSearch struct {
	searcher   VectorSearcher
	embedder   llm.EmbeddingProvider
	collection string
	field      string
	fields     *searchopts.FieldOptions
}

// NewMilvusSearch 创建 Milvus 检索后端。
func NewMilvusSearch(searcher VectorSearcher, embedder llm.EmbeddingProvider, opts *searchopts.MilvusOptions, fields *searchopts.FieldOptions) *MilvusSearch {
	return &MilvusSearch{
		searcher:   searcher,
		embedder:   embedder,
		collection: opts.Collection,
		field:      opts.VectorField,
		fields:     fields,
	}
}

// Name 返回后端名称。
func (s *MilvusSearch) Name() string {
	return searchopts.BackendMilvus
}

// Search 空文本不做向量检索，直接返回空结果。主键写入 id 字段，除非集合已输出同名字段。
func (s *MilvusSearch) Search(ctx context.Context, text string, topK int) ([]Hit, error) {
	if strings.TrimSpace(text) == "" {
		return []Hit{}, nil
	}

	vector, err := s.embedder.EmbedSingle(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := s.searcher.Search(ctx, milvus.SearchRequest{
		Collection:   s.collection,
		VectorField:  s.field,
		Vector:       vector,
		TopK:         topK,
		OutputFields: s.outputFields(),
	})
	if err != nil {
		return nil, fmt.Errorf("milvus search on collection %s: %w", s.collection, err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hit := make(Hit, len(r.Fields)+1)
		for k, v := range r.Fields {
			hit[k] = v
		}
		if _, ok := hit[s.fields.ID]; !ok && r.ID != nil {
			hit[s.fields.ID] = r.ID
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// outputFields 主键由 SDK 单独返回，不放入输出字段。
func (s *MilvusSearch) outputFields() []string {
	all := selectFields(s.fields)
	out := all[:0:0]
	for _, f := range all {
		if f != s.fields.ID {
			out = append(out, f)
		}
	}
	return out
}
