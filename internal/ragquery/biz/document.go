package biz

// 截断上限，按字符（rune）计数。
const (
	// MaxContentLength 文档内容的最大长度。
	MaxContentLength = 2000
	// MaxSnippetLength 引用片段的最大长度。
	MaxSnippetLength = 250
)

// Document 是规范化后的检索结果。
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// Citation 指向一篇检索文档，Snippet 为其内容前缀。
type Citation struct {
	SourceID string `json:"sourceId"`
	Snippet  string `json:"snippet"`
}

// Response 是 /ragQuery 的成功响应。
type Response struct {
	Answer       string     `json:"answer"`
	Citations    []Citation `json:"citations"`
	RawDocuments []Document `json:"rawDocuments"`
}

// truncate 返回 s 的前 n 个字符。
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
