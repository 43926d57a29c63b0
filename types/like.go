package types

// 点赞/取消点赞
type ToggleLikeRequest struct {
	TargetID   uint64 `json:"target_id,string" binding:"required"`
	TargetKind string `json:"target_kind" binding:"required"` // post / comment / reply
}

type ToggleLikeResponse struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}
