package biz

// BuildCitations 为每篇文档生成一条引用，顺序与文档一致。
func BuildCitations(docs []Document) []Citation {
	citations := make([]Citation, len(docs))
	for i, d := range docs {
		citations[i] = Citation{
			SourceID: d.ID,
			Snippet:  truncate(d.Content, MaxSnippetLength),
		}
	}
	return citations
}

// NewResponse 组装响应，空列表序列化为 [] 而不是 null。
func NewResponse(answer string, citations []Citation, docs []Document) *Response {
	if citations == nil {
		citations = []Citation{}
	}
	if docs == nil {
		docs = []Document{}
	}
	return &Response{
		Answer:       answer,
		Citations:    citations,
		RawDocuments: docs,
	}
}
