package biz

import (
	"strings"

	"github.com/kart-io/ragquery/pkg/utils/errors"
	"github.com/kart-io/ragquery/pkg/utils/validator"
)

// Query 是一次查询的输入，创建后不再修改。
type Query struct {
	// Question 用户问题，不能为空。
	Question string `json:"question" validate:"required"`
	// BusinessContext 附加的业务上下文，可为空。
	BusinessContext string `json:"businessContext"`
}

// NewQuery 校验并创建查询。问题缺失或为空时返回 ErrInvalidQuestion。
func NewQuery(question, businessContext string) (*Query, error) {
	q := &Query{
		Question:        question,
		BusinessContext: businessContext,
	}
	if err := validator.Default().Struct(q); err != nil {
		return nil, errors.ErrInvalidQuestion.WithCause(err)
	}
	return q, nil
}

// SearchText 返回发送给检索后端的查询文本：问题与业务上下文以空格连接后去除首尾空白。
func (q *Query) SearchText() string {
	return strings.TrimSpace(q.Question + " " + q.BusinessContext)
}
