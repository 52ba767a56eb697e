// Package biz 提供 RAG 查询服务的业务逻辑层。
//
// 一次查询严格按顺序执行以下步骤，任一步失败即终止：
//   - NewQuery: 校验问题与业务上下文
//   - Retriever: 以问题和业务上下文检索前 5 篇文档并规范化字段
//   - AssembleContext: 将文档编号拼接为受限长度的提示上下文
//   - Generator: 以系统指令和用户消息调用 Chat 供应商生成答案
//   - BuildCitations / NewResponse: 生成引用并组装响应
package biz
