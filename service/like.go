package service

import (
	"Agora/dao"
	"Agora/models"
	"Agora/pkg/log"
	"Agora/pkg/metrics"
	"Agora/pkg/snowflake"
	"Agora/types"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var _ ILikeService = (*LikeService)(nil)

type ILikeService interface {
	ToggleLike(ctx context.Context, userID, targetID uint64, kind models.TargetKind) (*types.ToggleLikeResponse, error)
	IsLiked(ctx context.Context, userID, targetID uint64, kind models.TargetKind) (bool, error)
	BatchLiked(ctx context.Context, userID uint64, kind models.TargetKind, targetIDs []uint64) (map[uint64]bool, error)
}

type LikeService struct {
	LikeDAO    *dao.LikeDAO
	PostDAO    *dao.PostDAO
	CommentDAO *dao.Comment
	ReplyDAO   *dao.Reply
	Publisher  EventPublisher
}

// errLikeRace 唯一键竞争失败，本次事务已回滚，需要按对方已生效的状态重来
var errLikeRace = errors.New("like race")

// likeLookup 事务内对点赞记录的查询结果
type likeLookup struct {
	found bool
}

// likeTarget 被点赞对象的计数列
type likeTarget struct {
	ensure func(ctx context.Context) error
	incr   func(ctx context.Context, delta int64) (int64, error)
	count  func(ctx context.Context) (int64, error)
}

// ToggleLike 点赞/取消点赞
// 记录存在则删除并 -1，不存在则插入并 +1，同一事务内完成
// 唯一键竞争时按对方已生效的状态重试一次，仍失败返回 ErrConflict
func (s *LikeService) ToggleLike(ctx context.Context, userID, targetID uint64, kind models.TargetKind) (*types.ToggleLikeResponse, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown target kind %q", ErrInvalidState, kind)
	}

	for attempt := 0; attempt < 2; attempt++ {
		resp, err := s.toggleOnce(ctx, userID, targetID, kind)
		if errors.Is(err, errLikeRace) {
			metrics.LikeRaces.WithLabelValues("retried").Inc()
			log.L.Info("like race, retry",
				zap.Uint64("user_id", userID),
				zap.Uint64("target_id", targetID),
				zap.String("kind", string(kind)),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, err
		}

		action := "unlike"
		if resp.Liked {
			action = "like"
		}
		metrics.LikeToggles.WithLabelValues(string(kind), action).Inc()
		publish(ctx, s.Publisher, EventLikeToggled, likeEventKey(kind, targetID), map[string]any{
			"user_id":    strconv.FormatUint(userID, 10),
			"target_id":  strconv.FormatUint(targetID, 10),
			"kind":       kind,
			"liked":      resp.Liked,
			"like_count": resp.LikeCount,
		})
		return resp, nil
	}

	metrics.LikeRaces.WithLabelValues("conflict").Inc()
	return nil, fmt.Errorf("%w: toggle like %s %d", ErrConflict, kind, targetID)
}

func (s *LikeService) toggleOnce(ctx context.Context, userID, targetID uint64, kind models.TargetKind) (*types.ToggleLikeResponse, error) {
	var resp types.ToggleLikeResponse

	err := s.LikeDAO.Txx(ctx, func(tx *gorm.DB) error {
		likeDAO := s.LikeDAO.WithDB(tx)
		target := s.target(tx, kind, targetID)

		if err := target.ensure(ctx); err != nil {
			return err
		}

		fact, err := likeDAO.Find(ctx, userID, targetID, kind)
		if err != nil {
			return err
		}

		switch lookup := (likeLookup{found: fact != nil}); {
		case lookup.found:
			rows, err := likeDAO.Remove(ctx, userID, targetID, kind)
			if err != nil {
				return err
			}
			// 记录已被并发请求删除
			if rows == 0 {
				return errLikeRace
			}
			if err := s.applyDelta(ctx, target, kind, targetID, -1); err != nil {
				return err
			}
			resp.Liked = false

		default:
			err := likeDAO.Create(ctx, &models.LikeFact{
				ID:         snowflake.GenID(),
				UserID:     userID,
				TargetID:   targetID,
				TargetKind: kind,
				CreatedAt:  time.Now().UTC(),
			})
			if dao.IsDuplicateKey(err) {
				return errLikeRace
			}
			if err != nil {
				return err
			}
			if err := s.applyDelta(ctx, target, kind, targetID, 1); err != nil {
				return err
			}
			resp.Liked = true
		}

		resp.LikeCount, err = target.count(ctx)
		return err
	})
	if err != nil {
		if errors.Is(err, errLikeRace) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		log.L.Error("toggle like failed",
			zap.Uint64("user_id", userID),
			zap.Uint64("target_id", targetID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("toggle like: %w", err)
	}
	return &resp, nil
}

// applyDelta 计数列已为 0 时的减少不生效，只记录日志等待对账修正
// 增加时没有命中行说明对象已被删除，返回 ErrNotFound 回滚点赞记录
func (s *LikeService) applyDelta(ctx context.Context, target likeTarget, kind models.TargetKind, targetID uint64, delta int64) error {
	rows, err := target.incr(ctx, delta)
	if err != nil {
		return err
	}
	if rows == 0 && delta > 0 {
		return fmt.Errorf("%w: %s %d", ErrNotFound, kind, targetID)
	}
	if rows == 0 {
		log.L.Warn("like counter drift",
			zap.String("kind", string(kind)),
			zap.Uint64("target_id", targetID),
			zap.Int64("delta", delta),
		)
	}
	return nil
}

// target 绑定事务的计数对象
func (s *LikeService) target(tx *gorm.DB, kind models.TargetKind, id uint64) likeTarget {
	switch kind {
	case models.TargetComment:
		commentDAO := s.CommentDAO.WithDB(tx)
		return likeTarget{
			ensure: func(ctx context.Context) error {
				comment, err := commentDAO.GetForUpdate(ctx, id)
				if dao.IsNotFound(err) || (err == nil && comment.Status != models.StatusActive) {
					return fmt.Errorf("%w: comment %d", ErrNotFound, id)
				}
				return err
			},
			incr: func(ctx context.Context, delta int64) (int64, error) {
				return commentDAO.IncrementLikeCount(ctx, id, delta)
			},
			count: func(ctx context.Context) (int64, error) {
				return commentDAO.LikeCount(ctx, id)
			},
		}
	case models.TargetReply:
		replyDAO := s.ReplyDAO.WithDB(tx)
		return likeTarget{
			ensure: func(ctx context.Context) error {
				reply, err := replyDAO.GetForUpdate(ctx, id)
				if dao.IsNotFound(err) || (err == nil && reply.Status != models.StatusActive) {
					return fmt.Errorf("%w: reply %d", ErrNotFound, id)
				}
				return err
			},
			incr: func(ctx context.Context, delta int64) (int64, error) {
				return replyDAO.IncrementLikeCount(ctx, id, delta)
			},
			count: func(ctx context.Context) (int64, error) {
				return replyDAO.LikeCount(ctx, id)
			},
		}
	default:
		postDAO := s.PostDAO.WithDB(tx)
		return likeTarget{
			ensure: func(ctx context.Context) error {
				post, err := postDAO.GetForUpdate(ctx, id)
				if dao.IsNotFound(err) || (err == nil && post.Status != models.PostPublished) {
					return fmt.Errorf("%w: post %d", ErrNotFound, id)
				}
				return err
			},
			incr: func(ctx context.Context, delta int64) (int64, error) {
				return postDAO.IncrLikeCount(ctx, id, delta)
			},
			count: func(ctx context.Context) (int64, error) {
				return postDAO.LikeCount(ctx, id)
			},
		}
	}
}

func (s *LikeService) IsLiked(ctx context.Context, userID, targetID uint64, kind models.TargetKind) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	fact, err := s.LikeDAO.Find(ctx, userID, targetID, kind)
	if err != nil {
		return false, err
	}
	return fact != nil, nil
}

func (s *LikeService) BatchLiked(ctx context.Context, userID uint64, kind models.TargetKind, targetIDs []uint64) (map[uint64]bool, error) {
	return s.LikeDAO.BatchCheckExists(ctx, userID, kind, targetIDs)
}

func likeEventKey(kind models.TargetKind, targetID uint64) string {
	return string(kind) + ":" + strconv.FormatUint(targetID, 10)
}
