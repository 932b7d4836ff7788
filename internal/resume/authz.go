package resume

// Owned 由所有带归属关系的资源实现（简历节点、面试间、会话）。
// 全系统共享同一套所有权校验，而不是每种资源各写一份。
type Owned interface {
	OwnerIdentity() string
}

// Authorize 校验调用者身份与资源归属是否一致。
// 身份字符串由上游令牌校验层给出，这里无条件信任。
func Authorize(identity string, resource Owned) error {
	if identity == "" || identity != resource.OwnerIdentity() {
		return ErrPermissionDenied
	}
	return nil
}
