package snowflake

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	mu   sync.Mutex
)

func init() {
	node, _ = snowflake.NewNode(1)
}

// Init 按配置设置节点号，多实例部署时每个实例必须不同
func Init(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return err
	}
	mu.Lock()
	node = n
	mu.Unlock()
	return nil
}

// GenID 生成全局唯一ID
func GenID() uint64 {
	mu.Lock()
	n := node
	mu.Unlock()
	return uint64(n.Generate().Int64())
}
