// Package identity 描述发起操作的用户（Actor）及其角色.
package identity

import (
	"context"
	"strings"
)

// Role 请求方角色，数值越大权限越高；Member 及以上为内部员工.
type Role int

const (
	RoleContractor Role = iota + 1
	RoleCustomer
	RoleMember
	RoleReviewer
	RoleAdmin
)

// String 返回角色的字符串表示.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleReviewer:
		return "reviewer"
	case RoleMember:
		return "member"
	case RoleCustomer:
		return "customer"
	case RoleContractor:
		return "contractor"
	default:
		return "unknown"
	}
}

// ParseRole 从字符串解析角色，未知值降级为 member.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin
	case "reviewer", "approver":
		return RoleReviewer
	case "contractor", "supplier":
		return RoleContractor
	case "customer", "policyholder":
		return RoleCustomer
	default:
		return RoleMember
	}
}

// Internal 是否为内部员工.
func (r Role) Internal() bool { return r >= RoleMember }

// ApprovalLevel 角色可给出的最高审批级别：member 0，reviewer 1，admin 2.
func (r Role) ApprovalLevel() int {
	switch {
	case r >= RoleAdmin:
		return 2
	case r == RoleReviewer:
		return 1
	default:
		return 0
	}
}

// Actor 当前操作的用户.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// IsAdmin 是否管理员.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanReview 是否可以审批、驳回与复核.
func (a Actor) CanReview() bool { return a.Role >= RoleReviewer }

// Owns 是否为上传者本人.
func (a Actor) Owns(uploaderID string) bool {
	return a.ID != "" && a.ID == uploaderID
}

// CanModify 上传者本人或管理员可编辑与删除.
func (a Actor) CanModify(uploaderID string) bool {
	return a.IsAdmin() || a.Owns(uploaderID)
}

type actorKey struct{}

// WithActor 将 Actor 写入 context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext 从 context 读取 Actor.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok && a.ID != ""
}
