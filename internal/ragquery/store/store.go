package store

import (
	"context"

	searchopts "github.com/kart-io/ragquery/pkg/options/search"
)

// Hit 是一条检索命中，键为后端索引中的字段名。
type Hit map[string]any

// SearchBackend 定义检索后端接口，实现须可并发调用。
type SearchBackend interface {
	// Search 以 text 检索，按相关度降序返回至多 topK 条命中。
	Search(ctx context.Context, text string, topK int) ([]Hit, error)

	// Name 返回后端名称。
	Name() string
}

// selectFields 返回需要后端带回的字段，忽略未配置的字段。
func selectFields(f *searchopts.FieldOptions) []string {
	fields := make([]string, 0, 4)
	for _, name := range []string{f.ID, f.Title, f.Content, f.URL} {
		if name != "" {
			fields = append(fields, name)
		}
	}
	return fields
}
