// Package cinekit 是一个电影推荐引擎工具包（Cinema Kit）。
//
// 设计要点：
//   - Snapshot-first: 每次请求在一份不可变快照（目录 + 评分矩阵 + 特征向量）上计算，
//     版本推进触发重建，重建由缓存层做单飞合并
//   - 策略分层: collaborative / content / hybrid / popularity 四种打分策略，
//     自适应选择器按用户数据量解析，数据不足沿降级序列回退而非失败
//   - Labels-first: labels 全链路透传与标准化 merge，支持 explain 与降级溯源
//   - Node 可扩展: 打分之后的过滤与重排通过 Node 串联（Filter → ReRank），
//     自定义 Node 即可插拔扩展
package cinekit

import "github.com/rushteam/cinekit/pipeline"

// 轻量 facade：便于用户直接 import "cinekit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindRank   = pipeline.KindRank
	KindReRank = pipeline.KindReRank
)
