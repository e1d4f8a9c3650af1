package photos

import "sync"

// Notifier 集合变更广播器，支撑实时订阅
// 每次插入或删除提交后广播一次信号；订阅方收到信号后重新查询快照
// 信号通道容量为 1 且发送不阻塞：订阅方处理期间的多次变更合并为一次重查
type Notifier struct {
	mu       sync.Mutex
	nextID   int
	watchers map[int]chan struct{}
}

// NewNotifier 创建广播器
func NewNotifier() *Notifier {
	return &Notifier{
		watchers: make(map[int]chan struct{}),
	}
}

// Watch 注册一个变更信号通道，返回通道和注销函数
// 注销后不再收到信号；已在途的存储操作不受影响
func (n *Notifier) Watch() (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++

	ch := make(chan struct{}, 1)
	n.watchers[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.watchers, id)
	}

	return ch, cancel
}

// Broadcast 通知所有订阅方集合已变更
func (n *Notifier) Broadcast() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// WatcherCount 当前订阅数量
func (n *Notifier) WatcherCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.watchers)
}
