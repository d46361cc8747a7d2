package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed   State = iota // 正常放行
	StateOpen                  // 熔断，直接拒绝
	StateHalfOpen              // 试探恢复
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

type Config struct {
	// 连续失败多少次后打开
	FailureThreshold int
	// 半开状态下连续成功多少次后关闭
	SuccessThreshold int
	// 打开状态持续多久后进入半开
	Cooldown time.Duration
}

func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
	}
}

// Breaker guards calls to a dependency that fails in bursts. Only one
// probe runs at a time while half open.
type Breaker struct {
	mu     sync.Mutex
	cfg    Config
	now    func() time.Time
	state  State
	fails  int
	passes int
	probe  bool
	opened time.Time
}

func New(cfg Config) *Breaker {
	def := DefaultConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// Execute runs fn unless the breaker is open, and records its outcome.
func (b *Breaker) Execute(fn func() error) error {
	if !b.allow() {
		return ErrOpen
	}
	err := fn()
	b.record(err == nil)
	return err
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.state
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()

	switch b.state {
	case StateOpen:
		return false
	case StateHalfOpen:
		if b.probe {
			return false
		}
		b.probe = true
	}
	return true
}

func (b *Breaker) record(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.probe = false
		if !ok {
			b.trip()
			return
		}
		b.passes++
		if b.passes >= b.cfg.SuccessThreshold {
			b.state = StateClosed
			b.fails = 0
		}
		return
	}

	if ok {
		b.fails = 0
		return
	}
	b.fails++
	if b.fails >= b.cfg.FailureThreshold {
		b.trip()
	}
}

// advance moves an open breaker to half open once the cooldown has passed.
func (b *Breaker) advance() {
	if b.state == StateOpen && b.now().Sub(b.opened) >= b.cfg.Cooldown {
		b.state = StateHalfOpen
		b.passes = 0
		b.probe = false
	}
}

func (b *Breaker) trip() {
	b.state = StateOpen
	b.opened = b.now()
	b.fails = 0
	b.passes = 0
}
