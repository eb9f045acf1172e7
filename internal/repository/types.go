package repository

import "time"

// BlindBoxListFilter 查询盲盒列表的过滤条件
type BlindBoxListFilter struct {
	Page     int
	PageSize int
	SellerID uint
	Status   string
	Search   string
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PostListFilter 查询帖子列表的过滤条件
type PostListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Type     string
	Search   string
}

// WalletTxnListFilter 查询钱包流水列表的过滤条件
type WalletTxnListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Type        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// UserCouponListFilter 查询用户持券列表的过滤条件
type UserCouponListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Status   string
}
