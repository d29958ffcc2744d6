package model

import "time"

type AuditAction string

const (
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	AuditActionRecalcOrderTotal  AuditAction = "RECALC_ORDER_TOTAL"
)

// 注文の変更履歴。状態遷移と合計の再計算を同じトランザクションで残す。
// Before/Afterは変わった項目だけのJSON。
type AuditLog struct {
	ID          int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64       `gorm:"not null;index:idx_audit_logs_order,priority:1" json:"order_id"`
	ActorUserID int64       `gorm:"not null;index" json:"actor_user_id"`
	ActorRole   Role        `gorm:"type:varchar(20);not null" json:"actor_role"`
	Action      AuditAction `gorm:"type:varchar(50);not null" json:"action"`
	BeforeJSON  string      `gorm:"type:text" json:"before"`
	AfterJSON   string      `gorm:"type:text" json:"after"`
	CreatedAt   time.Time   `gorm:"not null;index:idx_audit_logs_order,priority:2" json:"created_at"`
}
