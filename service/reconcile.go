package service

import (
	"Agora/dao"
	"Agora/pkg/log"
	"Agora/pkg/metrics"
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const reconcileBatch = 200

var _ IReconcileService = (*ReconcileService)(nil)

type IReconcileService interface {
	Reconcile(ctx context.Context, postID uint64) (int, error)
	ReconcileAll(ctx context.Context) (int, error)
}

// ReconcileService 按事实行重新计算冗余计数
type ReconcileService struct {
	PostDAO    *dao.PostDAO
	CommentDAO *dao.Comment
	ReplyDAO   *dao.Reply
}

// Reconcile 修正一篇文章及其评论、回复的计数，返回修正的行数
// 计数在单条 UPDATE 内按事实行重算，并发的点赞/评论不会被旧快照覆盖
func (s *ReconcileService) Reconcile(ctx context.Context, postID uint64) (int, error) {
	var corrected int64

	err := s.PostDAO.Transaction(ctx, func(tx *gorm.DB) error {
		postDAO := s.PostDAO.WithDB(tx)

		// 锁住文章行，与评论创建、删除串行
		if _, err := postDAO.GetForUpdate(ctx, postID); err != nil {
			if dao.IsNotFound(err) {
				return fmt.Errorf("%w: post %d", ErrNotFound, postID)
			}
			return err
		}

		replies, err := s.ReplyDAO.WithDB(tx).RecountLikesByPost(ctx, postID)
		if err != nil {
			return err
		}
		comments, err := s.CommentDAO.WithDB(tx).RecountByPost(ctx, postID)
		if err != nil {
			return err
		}
		posts, err := postDAO.Recount(ctx, postID)
		if err != nil {
			return err
		}

		corrected = replies + comments + posts
		if corrected > 0 {
			log.L.Info("reconcile post",
				zap.Uint64("post_id", postID),
				zap.Int64("posts", posts),
				zap.Int64("comments", comments),
				zap.Int64("replies", replies),
			)
		}
		return nil
	})
	if err != nil {
		return 0, wrapInternal("reconcile", err, zap.Uint64("post_id", postID))
	}

	if corrected > 0 {
		metrics.ReconcileCorrections.Add(float64(corrected))
	}
	return int(corrected), nil
}

// ReconcileAll 逐篇修正，每篇一个事务
func (s *ReconcileService) ReconcileAll(ctx context.Context) (int, error) {
	var (
		total  int
		lastID uint64
	)
	for {
		ids, err := s.PostDAO.GetIDsAfter(ctx, lastID, reconcileBatch)
		if err != nil {
			return total, wrapInternal("reconcile all", err)
		}
		for _, id := range ids {
			n, err := s.Reconcile(ctx, id)
			if err != nil {
				return total, err
			}
			total += n
		}
		if len(ids) < reconcileBatch {
			return total, nil
		}
		lastID = ids[len(ids)-1]
	}
}
