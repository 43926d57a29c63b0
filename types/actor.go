package types

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Actor 发起操作的用户及其角色
type Actor struct {
	UserID uint64
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanManage 作者本人或管理员
func (a Actor) CanManage(authorID uint64) bool {
	return a.IsAdmin() || (a.UserID != 0 && a.UserID == authorID)
}
