// Package visibility 在两个受众开关与 VisibilityLevel 之间做双向映射.
//
//	suppliers  policyholders  level
//	false      false          internal
//	true       false          contractors
//	false      true           customers
//	true       true           public
package visibility

import (
	"github.com/yeisme/docflow/pkg/internal/identity"
	"github.com/yeisme/docflow/pkg/internal/model"
)

// Encode 由受众开关得到可见性层级.
func Encode(toSuppliers, toPolicyholders bool) model.VisibilityLevel {
	switch {
	case toSuppliers && toPolicyholders:
		return model.VisibilityPublic
	case toSuppliers:
		return model.VisibilityContractors
	case toPolicyholders:
		return model.VisibilityCustomers
	default:
		return model.VisibilityInternal
	}
}

// Decode 是 Encode 的逆映射；未知层级按 internal 处理.
func Decode(level model.VisibilityLevel) (toSuppliers, toPolicyholders bool) {
	switch level {
	case model.VisibilityPublic:
		return true, true
	case model.VisibilityContractors:
		return true, false
	case model.VisibilityCustomers:
		return false, true
	default:
		return false, false
	}
}

// Visible 判断角色能否看到该层级的文档；内部员工可见全部.
func Visible(level model.VisibilityLevel, role identity.Role) bool {
	if role.Internal() {
		return true
	}

	suppliers, policyholders := Decode(level)

	switch role {
	case identity.RoleContractor:
		return suppliers
	case identity.RoleCustomer:
		return policyholders
	default:
		return false
	}
}

// CanAccess 判断 actor 能否访问文档；上传者本人始终可见，待审批与已驳回文档仅内部可见.
func CanAccess(doc *model.Document, actor identity.Actor) bool {
	if actor.Owns(doc.UploadedByUserID) || actor.Role.Internal() {
		return true
	}

	if doc.ApprovalStatus == model.ApprovalPending || doc.ApprovalStatus == model.ApprovalRejected {
		return false
	}

	return Visible(doc.VisibilityLevel, actor.Role)
}
