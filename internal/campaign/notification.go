package campaign

// 通知名称
const (
	EventPriceUpdated         = "PriceUpdated"
	EventOwnershipTransferred = "OwnershipTransferred"
	EventContributionAccepted = "ContributionAccepted"
	EventWithdrawal           = "Withdrawal"
	EventRefund               = "Refund"
	EventBalanceUpdated       = "BalanceUpdated"
	EventUpdaterBound         = "UpdaterBound"
)

// Notification 引擎对外发布的通知
type Notification struct {
	Name string                 `json:"name"`
	Data map[string]interface{} `json:"data"`
}

// Notifier 通知接收方。引擎仅在操作成功提交后发布通知，
// 失败回滚的操作不产生任何通知。
type Notifier interface {
	Notify(n Notification)
}

// NopNotifier 丢弃所有通知
type NopNotifier struct{}

func (NopNotifier) Notify(Notification) {}
