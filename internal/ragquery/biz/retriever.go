package biz

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kart-io/ragquery/internal/ragquery/store"
	searchopts "github.com/kart-io/ragquery/pkg/options/search"
	"github.com/kart-io/ragquery/pkg/utils/errors"
)

// DefaultTopK 每次检索返回的最大文档数。
const DefaultTopK = 5

// RetrieverConfig 检索器配置。
type RetrieverConfig struct {
	// Fields 索引字段名映射。
	Fields *searchopts.FieldOptions
	// TopK 返回的结果数量，<= 0 时使用 DefaultTopK。
	TopK int
	// Timeout 单次检索超时，0 表示不限制。
	Timeout time.Duration
}

// Retriever 负责文档检索与字段规范化。
type Retriever struct {
	backend store.SearchBackend
	config  *RetrieverConfig
}

// NewRetriever 创建检索器实例。
func NewRetriever(backend store.SearchBackend, config *RetrieverConfig) *Retriever {
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}
	return &Retriever{
		backend: backend,
		config:  config,
	}
}

// Retrieve 执行检索，保持后端排序。失败时返回 ErrRetrieval。
func (r *Retriever) Retrieve(ctx context.Context, q *Query) ([]Document, error) {
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	hits, err := r.backend.Search(ctx, q.SearchText(), r.config.TopK)
	if err != nil {
		return nil, errors.ErrRetrieval.WithCause(err)
	}
	if len(hits) > r.config.TopK {
		hits = hits[:r.config.TopK]
	}

	docs := make([]Document, 0, len(hits))
	for i, hit := range hits {
		doc, err := r.normalize(hit)
		if err != nil {
			return nil, errors.ErrRetrieval.WithCause(fmt.Errorf("hit %d: %w", i, err))
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// normalize 将命中映射为文档：缺失的 title、content、url 为空字符串，id 必须存在。
func (r *Retriever) normalize(hit store.Hit) (Document, error) {
	f := r.config.Fields

	raw, ok := hit[f.ID]
	if !ok || raw == nil {
		return Document{}, fmt.Errorf("field %q is missing", f.ID)
	}
	id, err := coerceString(raw)
	if err != nil {
		return Document{}, fmt.Errorf("field %q: %w", f.ID, err)
	}

	var doc Document
	doc.ID = id
	for _, dst := range []struct {
		name string
		ptr  *string
	}{
		{f.Title, &doc.Title},
		{f.Content, &doc.Content},
		{f.URL, &doc.URL},
	} {
		if dst.name == "" {
			continue
		}
		if *dst.ptr, err = coerceString(hit[dst.name]); err != nil {
			return Document{}, fmt.Errorf("field %q: %w", dst.name, err)
		}
	}

	doc.Content = truncate(doc.Content, MaxContentLength)
	return doc, nil
}

// coerceString 将标量转换为字符串，nil 为空字符串，复合值报错。
func coerceString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(t), nil
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", t), nil
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", t), nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}
