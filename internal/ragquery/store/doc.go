// Package store 提供 RAG 查询服务的检索后端。
//
// 每个后端以自身索引的字段名返回命中结果，由 biz 层的检索器统一规范化为文档。
// 支持的后端：
//   - Azure AI Search（REST，全文检索）
//   - RediSearch（FT.SEARCH，全文检索）
//   - Milvus（向量检索，查询文本先经 Embedding 供应商向量化）
package store
