package service

import (
	"Agora/config"
	"Agora/dao"
	"Agora/dao/cache"
	"Agora/models"
	"Agora/pkg/llm"
	"Agora/pkg/safety"
	"Agora/pkg/snowflake"
	"Agora/pkg/testutil"
	"Agora/pkg/utils"
	"Agora/types"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeCompletion struct {
	mu sync.Mutex

	reply    string
	err      error
	title    string
	titleErr error
	// 标题生成一直阻塞到超时
	titleHang bool

	calls      [][]llm.Message
	titleCalls int
}

func (f *fakeCompletion) Complete(_ context.Context, model string, messages []llm.Message) (*llm.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, messages)
	if f.err != nil {
		return nil, f.err
	}
	if model == "" {
		model = "fake-model"
	}
	reply := f.reply
	if reply == "" {
		reply = fmt.Sprintf("reply #%d", len(f.calls))
	}
	return &llm.Completion{
		Content:          reply,
		Model:            model,
		FinishReason:     "stop",
		PromptTokens:     10,
		CompletionTokens: 5,
		Latency:          time.Millisecond,
	}, nil
}

func (f *fakeCompletion) GenerateTitle(ctx context.Context, _ string) (string, error) {
	f.mu.Lock()
	f.titleCalls++
	title, titleErr, hang := f.title, f.titleErr, f.titleHang
	f.mu.Unlock()

	if hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if titleErr != nil {
		return "", titleErr
	}
	if title == "" {
		return "自动标题", nil
	}
	return title, nil
}

func (f *fakeCompletion) lastCall() []llm.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeCompletion) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingPublisher struct {
	mu   sync.Mutex
	tags []string
}

func (p *recordingPublisher) Publish(_ context.Context, tag, _ string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tags = append(p.tags, tag)
	return nil
}

func (p *recordingPublisher) count(tag string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.tags {
		if t == tag {
			n++
		}
	}
	return n
}

type testEnv struct {
	db    *gorm.DB
	redis *miniredis.Miniredis

	postDAO        *dao.PostDAO
	commentDAO     *dao.Comment
	replyDAO       *dao.Reply
	likeDAO        *dao.LikeDAO
	chatSessionDAO *dao.ChatSessionDAO
	chatMessageDAO *dao.ChatMessageDAO

	completion *fakeCompletion
	publisher  *recordingPublisher

	like      *LikeService
	thread    *ThreadService
	chat      *ChatService
	post      *PostService
	query     *QueryService
	reconcile *ReconcileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	rds := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rds.Close() })

	hashID, err := utils.NewHashID("agora-test")
	require.NoError(t, err)

	env := &testEnv{
		db:             db,
		redis:          mr,
		postDAO:        dao.NewPostDAO(db),
		commentDAO:     dao.NewComment(db),
		replyDAO:       dao.NewReply(db),
		likeDAO:        dao.NewLikeDAO(db),
		chatSessionDAO: dao.NewChatSessionDAO(db),
		chatMessageDAO: dao.NewChatMessageDAO(db),
		completion:     &fakeCompletion{},
		publisher:      &recordingPublisher{},
	}

	env.like = &LikeService{
		LikeDAO:    env.likeDAO,
		PostDAO:    env.postDAO,
		CommentDAO: env.commentDAO,
		ReplyDAO:   env.replyDAO,
		Publisher:  env.publisher,
	}
	env.thread = &ThreadService{
		PostDAO:    env.postDAO,
		CommentDAO: env.commentDAO,
		ReplyDAO:   env.replyDAO,
		Publisher:  env.publisher,
	}
	env.chat = &ChatService{
		Conf: &config.Chat{
			Preamble:          "你是社区助手。",
			HistoryLimit:      4,
			MaxInputRunes:     200,
			RateLimit:         100,
			RateWindowSeconds: 60,
			TitleTimeoutMs:    200,
		},
		ChatSessionDAO: env.chatSessionDAO,
		ChatMessageDAO: env.chatMessageDAO,
		Completion:     env.completion,
		Safety:         safety.New(&config.Safety{Keywords: []string{"违禁词"}}, nil),
		RateLimit:      cache.NewRateLimitStorage(rds),
		Publisher:      env.publisher,
	}
	env.post = &PostService{
		App:        &config.App{ViewDedupSeconds: 600},
		PostDAO:    env.postDAO,
		CommentDAO: env.commentDAO,
		ReplyDAO:   env.replyDAO,
		LikeDAO:    env.likeDAO,
		View:       cache.NewViewStorage(rds),
		HashID:     hashID,
		Publisher:  env.publisher,
	}
	env.query = &QueryService{
		PostDAO:        env.postDAO,
		CommentDAO:     env.commentDAO,
		ReplyDAO:       env.replyDAO,
		LikeDAO:        env.likeDAO,
		ChatSessionDAO: env.chatSessionDAO,
		HashID:         hashID,
	}
	env.reconcile = &ReconcileService{
		PostDAO:    env.postDAO,
		CommentDAO: env.commentDAO,
		ReplyDAO:   env.replyDAO,
	}
	return env
}

func (e *testEnv) createPost(t *testing.T, authorID uint64) *models.Post {
	t.Helper()
	post, err := e.post.CreatePost(context.Background(), authorID, &types.CreatePostRequest{
		Title:   "post",
		Content: "content",
		Publish: true,
	})
	require.NoError(t, err)
	return post
}

func (e *testEnv) createComment(t *testing.T, postID, authorID uint64) *models.Comment {
	t.Helper()
	comment, err := e.thread.CreateComment(context.Background(), postID, authorID, "comment")
	require.NoError(t, err)
	return comment
}

func (e *testEnv) createReply(t *testing.T, commentID, authorID uint64) *models.Reply {
	t.Helper()
	reply, err := e.thread.CreateReply(context.Background(), commentID, authorID, 0, "reply")
	require.NoError(t, err)
	return reply
}

// insertComment 直接落库，用于构造确定的时间顺序
func (e *testEnv) insertComment(t *testing.T, postID, authorID uint64, createdAt time.Time, top bool) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		ID:        snowflake.GenID(),
		PostID:    postID,
		UserID:    authorID,
		Content:   "comment",
		Status:    models.StatusActive,
		IsTop:     top,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: createdAt.UTC(),
	}
	require.NoError(t, e.commentDAO.Create(context.Background(), comment))
	_, err := e.postDAO.IncrReplyCount(context.Background(), postID, 1)
	require.NoError(t, err)
	return comment
}

func (e *testEnv) getPost(t *testing.T, id uint64) *models.Post {
	t.Helper()
	post, err := e.postDAO.GetByID(context.Background(), id)
	require.NoError(t, err)
	return post
}

func (e *testEnv) getComment(t *testing.T, id uint64) *models.Comment {
	t.Helper()
	comment, err := e.commentDAO.GetByID(context.Background(), id)
	require.NoError(t, err)
	return comment
}

func (e *testEnv) getReply(t *testing.T, id uint64) *models.Reply {
	t.Helper()
	reply, err := e.replyDAO.GetByID(context.Background(), id)
	require.NoError(t, err)
	return reply
}

// interleave 在下一次写入 table 之前执行 fn 一次，模拟另一个请求插在事务中间提交
// fn 拿到的会话与被拦截的语句共用同一连接
func (e *testEnv) interleave(t *testing.T, op, table string, fn func(db *gorm.DB) error) {
	t.Helper()

	name := "test:interleave:" + op + ":" + table
	var once sync.Once
	cb := func(db *gorm.DB) {
		if db.Statement.Table != table {
			return
		}
		once.Do(func() {
			if err := fn(db.Session(&gorm.Session{NewDB: true})); err != nil {
				_ = db.AddError(err)
			}
		})
	}

	var err error
	switch op {
	case "create":
		err = e.db.Callback().Create().Before("gorm:create").Register(name, cb)
		t.Cleanup(func() { _ = e.db.Callback().Create().Remove(name) })
	case "update":
		err = e.db.Callback().Update().Before("gorm:update").Register(name, cb)
		t.Cleanup(func() { _ = e.db.Callback().Update().Remove(name) })
	default:
		t.Fatalf("unknown op %q", op)
	}
	require.NoError(t, err)
}

func user(id uint64) types.Actor {
	return types.Actor{UserID: id, Role: types.RoleUser}
}

func admin(id uint64) types.Actor {
	return types.Actor{UserID: id, Role: types.RoleAdmin}
}

func newDraft() *types.CreatePostRequest {
	return &types.CreatePostRequest{Title: "draft", Content: "content"}
}
