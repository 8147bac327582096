package service

import "errors"

// 业务层哨兵错误. handle 层据此映射 HTTP 状态码.
var (
	// ErrProjectNotFound 项目不存在或已软删除.
	ErrProjectNotFound = errors.New("project not found")
	// ErrAssetNotFound 资产不存在.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrBlobNotFound 资产引用的文件不存在.
	ErrBlobNotFound = errors.New("file blob not found")
	// ErrNotImage 对非 image 模态调用了图片专用操作.
	ErrNotImage = errors.New("asset modality is not image")
	// ErrRoleMismatch 角色与操作不匹配（如对铭牌资产提交场景报告）.
	ErrRoleMismatch = errors.New("asset content_role mismatch")
	// ErrCrossProjectRef 工程树节点与资产不属于同一项目.
	ErrCrossProjectRef = errors.New("engineering node belongs to another project")
	// ErrInvalidInput 请求参数不合法.
	ErrInvalidInput = errors.New("invalid input")
)
