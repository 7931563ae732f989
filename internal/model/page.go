// Package model はドメインモデルを定義する。
package model

// PageRequest はページネーションの要求を表す。pageは0始まり。
type PageRequest struct {
	Page int
	Size int
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// NewPageRequest は範囲外の値を補正したPageRequestを生成する。
// pageが負なら0、sizeが0以下ならデフォルト10、100を超えるなら100に丸める。
func NewPageRequest(page, size int) PageRequest {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return PageRequest{Page: page, Size: size}
}

// Offset はSQLのOFFSET句に渡す値を返す。
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Limit はSQLのLIMIT句に渡す値を返す。
func (p PageRequest) Limit() int {
	return p.Size
}

// TotalPages は総件数から総ページ数を計算する。
func (p PageRequest) TotalPages(totalElements int) int {
	if p.Size == 0 {
		return 0
	}
	return (totalElements + p.Size - 1) / p.Size
}
