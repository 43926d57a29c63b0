package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// 点赞切换结果，action: like / unlike，kind: post / comment / reply
	LikeToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_like_toggles_total",
			Help: "Total number of like toggles",
		},
		[]string{"kind", "action"},
	)

	// 点赞唯一键竞争次数，outcome: retried / conflict
	LikeRaces = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_like_races_total",
			Help: "Like toggles that hit the uniqueness race",
		},
		[]string{"outcome"},
	)

	// 评论/回复状态流转
	ThreadTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_thread_transitions_total",
			Help: "Comment and reply status transitions",
		},
		[]string{"kind", "to"},
	)

	// AI 对话补全，result: ok / timeout / quota / rejected / unavailable
	ChatCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_chat_completions_total",
			Help: "Chat completions by result",
		},
		[]string{"result"},
	)

	ChatCompletionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agora_chat_completion_duration_seconds",
			Help:    "Chat completion latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30},
		},
	)

	// 对账修正的行数
	ReconcileCorrections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agora_reconcile_corrections_total",
			Help: "Rows corrected by counter reconciliation",
		},
	)
)

func init() {
	prometheus.MustRegister(
		LikeToggles,
		LikeRaces,
		ThreadTransitions,
		ChatCompletions,
		ChatCompletionDuration,
		ReconcileCorrections,
	)
}
