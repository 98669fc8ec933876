package mysql

import (
	"time"

	"gorm.io/gorm"
)

// 这里是infrastructure层的表模型（带GORM tag），domain实体不依赖GORM，
// 由各Repository负责转换。
// 主键统一使用应用层生成的uuid（char(36)），金额统一使用整数NGN/kobo。

// UserModel 用户表
type UserModel struct {
	ID        string         `gorm:"primaryKey;type:char(36)"`
	Email     string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱(小写)"`
	Password  string         `gorm:"size:255;not null;comment:密码(bcrypt)"`
	Name      string         `gorm:"size:50;not null;comment:姓名"`
	Phone     string         `gorm:"size:20;comment:手机号"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

func (UserModel) TableName() string { return "users" }

// ProductModel 商品表
// 下架走软删除，历史订单明细仍能关联到商品
type ProductModel struct {
	ID          string         `gorm:"primaryKey;type:char(36)"`
	Name        string         `gorm:"index:idx_search;size:200;not null;comment:商品名"`
	Slug        string         `gorm:"uniqueIndex;size:120;not null;comment:URL标识"`
	Brand       string         `gorm:"index:idx_search;size:100;not null;comment:品牌"`
	PriceNGN    int64          `gorm:"column:price_ngn;index:idx_price;not null;comment:价格(NGN)"`
	Stock       int            `gorm:"not null;default:0;comment:库存"`
	ImageURL    string         `gorm:"size:500;comment:图片URL"`
	Description string         `gorm:"type:text;comment:描述"`
	CreatedAt   time.Time      `gorm:"index;comment:创建时间"`
	UpdatedAt   time.Time      `gorm:"comment:更新时间"`
	DeletedAt   gorm.DeletedAt `gorm:"index;comment:下架时间"`
}

func (ProductModel) TableName() string { return "products" }

// CouponModel 优惠券表
// used_count只通过Redeem的条件UPDATE增加
type CouponModel struct {
	ID          string     `gorm:"primaryKey;type:char(36)"`
	Code        string     `gorm:"uniqueIndex;size:32;not null;comment:券码(大写)"`
	Type        string     `gorm:"size:10;not null;comment:PERCENT|FIXED"`
	Value       int64      `gorm:"not null;comment:百分比或NGN"`
	Active      bool       `gorm:"not null"`
	StartsAt    *time.Time `gorm:"comment:生效时间"`
	EndsAt      *time.Time `gorm:"comment:失效时间"`
	MaxUses     *int       `gorm:"comment:最大使用次数,NULL不限"`
	UsedCount   int        `gorm:"not null;default:0;comment:已使用次数"`
	MinSubtotal *int64     `gorm:"comment:最低消费(NGN)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (CouponModel) TableName() string { return "coupons" }

// OrderModel 订单表，与OrderItemModel一对多
type OrderModel struct {
	ID               string           `gorm:"primaryKey;type:char(36)"`
	OrderNo          string           `gorm:"uniqueIndex;size:32;not null;comment:订单号"`
	UserID           string           `gorm:"index;type:char(36);not null;comment:买家ID"`
	Email            string           `gorm:"size:100;comment:下单邮箱"`
	Status           string           `gorm:"index;size:16;not null;comment:PENDING|PAID|SHIPPED|DELIVERED|CANCELLED"`
	SubtotalNGN      int64            `gorm:"column:subtotal_ngn;not null"`
	DiscountNGN      int64            `gorm:"column:discount_ngn;not null;default:0"`
	ShippingNGN      int64            `gorm:"column:shipping_ngn;not null;default:0"`
	TotalNGN         int64            `gorm:"column:total_ngn;not null"`
	CouponID         *string          `gorm:"type:char(36);comment:使用的优惠券"`
	AddressLine1     string           `gorm:"column:address_line1;size:255;not null"`
	City             string           `gorm:"size:100;not null"`
	State            string           `gorm:"size:100;not null"`
	Phone            string           `gorm:"size:20;not null"`
	IsGift           bool             `gorm:"not null;default:false"`
	GiftMessage      string           `gorm:"size:250"`
	GiftWrapping     bool             `gorm:"not null;default:false"`
	PaymentReference string           `gorm:"index;size:64;comment:支付成功的流水号"`
	Items            []OrderItemModel `gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time        `gorm:"index"`
	UpdatedAt        time.Time
}

func (OrderModel) TableName() string { return "orders" }

// OrderItemModel 订单明细，price_ngn是下单时的价格快照
type OrderItemModel struct {
	ID          string `gorm:"primaryKey;type:char(36)"`
	OrderID     string `gorm:"index;type:char(36);not null"`
	ProductID   string `gorm:"index;type:char(36);not null"`
	ProductName string `gorm:"size:200;not null;comment:商品名快照"`
	Quantity    int    `gorm:"not null"`
	PriceNGN    int64  `gorm:"column:price_ngn;not null;comment:单价快照(NGN)"`
}

func (OrderItemModel) TableName() string { return "order_items" }

// PaymentModel 支付尝试
type PaymentModel struct {
	ID               string     `gorm:"primaryKey;type:char(36)"`
	Reference        string     `gorm:"uniqueIndex;size:64;not null;comment:网关流水号"`
	OrderID          string     `gorm:"index;type:char(36);not null"`
	UserID           string     `gorm:"type:char(36);not null"`
	AmountKobo       int64      `gorm:"not null"`
	Status           string     `gorm:"size:16;not null;comment:pending|paid|failed"`
	AuthorizationURL string     `gorm:"size:500"`
	CreatedAt        time.Time
	PaidAt           *time.Time
}

func (PaymentModel) TableName() string { return "payments" }

// PaymentEventModel 回调去重，(reference, event)唯一
type PaymentEventModel struct {
	ID         uint      `gorm:"primaryKey"`
	Reference  string    `gorm:"uniqueIndex:uk_reference_event;size:64;not null"`
	Event      string    `gorm:"uniqueIndex:uk_reference_event;size:64;not null"`
	ReceivedAt time.Time `gorm:"not null"`
}

func (PaymentEventModel) TableName() string { return "payment_events" }

// AdminNotificationModel 后台站内通知
type AdminNotificationModel struct {
	ID        string     `gorm:"primaryKey;type:char(36)"`
	Kind      string     `gorm:"size:32;not null"`
	Title     string     `gorm:"size:200;not null"`
	Body      string     `gorm:"type:text"`
	OrderID   string     `gorm:"index;size:36"`
	CreatedAt time.Time  `gorm:"index"`
	ReadAt    *time.Time `gorm:"index"`
}

func (AdminNotificationModel) TableName() string { return "admin_notifications" }
