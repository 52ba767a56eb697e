package store

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	goredis "github.com/redis/go-redis/v9"

	searchopts "github.com/kart-io/ragquery/pkg/options/search"
)

// RediSearch 通过 FT.SEARCH 执行全文检索。
type RediSearch struct {
	client *goredis.Client
	index  string
	fields *searchopts.FieldOptions
}

// NewRediSearch 创建 RediSearch 后端，client 由 pkg/component/redis 构造。
func NewRediSearch(client *goredis.Client, index string, fields *searchopts.FieldOptions) *RediSearch {
	return &RediSearch{
		client: client,
		index:  index,
		fields: fields,
	}
}

// Name 返回后端名称。
func (s *RediSearch) Name() string {
	return searchopts.BackendRedis
}

// Search 将文本拆为词项后以 OR 组合查询，缺少 id 字段的文档以 Redis key 作为 id。
func (s *RediSearch) Search(ctx context.Context, text string, topK int) ([]Hit, error) {
	ret := make([]goredis.FTSearchReturn, 0, 4)
	for _, f := range selectFields(s.fields) {
		ret = append(ret, goredis.FTSearchReturn{FieldName: f})
	}

	res, err := s.client.FTSearchWithArgs(ctx, s.index, BuildRediSearchQuery(text), &goredis.FTSearchOptions{
		Return:         ret,
		Limit:          topK,
		DialectVersion: 2,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redisearch on index %s: %w", s.index, err)
	}

	hits := make([]Hit, 0, len(res.Docs))
	for _, doc := range res.Docs {
		if doc.Error != nil {
			return nil, fmt.Errorf("redisearch document %s: %w", doc.ID, doc.Error)
		}
		hit := make(Hit, len(doc.Fields)+1)
		for k, v := range doc.Fields {
			hit[k] = v
		}
		if _, ok := hit[s.fields.ID]; !ok {
			hit[s.fields.ID] = doc.ID
		}
		hits = append(hits, hit)
	}
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// BuildRediSearchQuery 将自由文本转为 RediSearch 查询，任一词项命中即可；无词项时匹配全部文档。
func BuildRediSearchQuery(text string) string {
	terms := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(terms) == 0 {
		return "*"
	}
	return strings.Join(terms, "|")
}
