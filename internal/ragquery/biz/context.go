package biz

import (
	"fmt"
	"strings"
)

// AssembleContext 将文档按检索顺序编号拼接为提示上下文，文档之间以空行分隔。
// 没有文档时返回空字符串。
func AssembleContext(docs []Document) string {
	blocks := make([]string, len(docs))
	for i, d := range docs {
		blocks[i] = fmt.Sprintf("Source %d – %s:\n%s", i+1, d.Title, d.Content)
	}
	return strings.Join(blocks, "\n\n")
}
