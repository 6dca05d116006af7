package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeClock 可手动推进的时钟
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(clock *fakeClock, cfg Config) *CircuitBreaker {
	cb := NewCircuitBreaker("order-events", cfg)
	cb.now = clock.Now
	cb.mu.Lock()
	cb.toNewGeneration(clock.Now())
	cb.mu.Unlock()
	return cb
}

var errUnavailable = errors.New("broker unavailable")

func fail() error    { return errUnavailable }
func succeed() error { return nil }

// TestCircuitBreaker_ClosedState 测试关闭状态（正常）
func TestCircuitBreaker_ClosedState(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cb := newTestBreaker(clock, Config{Interval: 10 * time.Second, Timeout: 30 * time.Second})

	for i := 0; i < 10; i++ {
		if err := cb.Execute(succeed); err != nil {
			t.Fatalf("期望成功，实际失败: %v", err)
		}
	}

	if cb.State() != StateClosed {
		t.Errorf("期望状态为CLOSED，实际%s", cb.State())
	}
	if counts := cb.Counts(); counts.TotalSuccesses != 10 {
		t.Errorf("期望成功10次，实际%d次", counts.TotalSuccesses)
	}
}

// TestCircuitBreaker_OpenState 测试连续失败后熔断
func TestCircuitBreaker_OpenState(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cb := newTestBreaker(clock, Config{Timeout: 30 * time.Second})

	// 默认连续失败5次熔断
	for i := 0; i < 5; i++ {
		_ = cb.Execute(fail)
	}

	if cb.State() != StateOpen {
		t.Fatalf("期望状态为OPEN，实际%s", cb.State())
	}

	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrOpenState) {
		t.Errorf("期望返回ErrOpenState，实际%v", err)
	}
	if called {
		t.Error("熔断器打开时不应该调用实际函数")
	}
}

// TestCircuitBreaker_HalfOpenRecover 测试半开探测成功后恢复
func TestCircuitBreaker_HalfOpenRecover(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cb := newTestBreaker(clock, Config{
		Timeout: time.Minute,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	for i := 0; i < 3; i++ {
		_ = cb.Execute(fail)
	}
	clock.Advance(time.Minute + time.Second)

	if cb.State() != StateHalfOpen {
		t.Fatalf("期望状态为HALF_OPEN，实际%s", cb.State())
	}
	if err := cb.Execute(succeed); err != nil {
		t.Fatalf("半开探测期望成功，实际%v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("探测成功后期望CLOSED，实际%s", cb.State())
	}
}

// TestCircuitBreaker_HalfOpenFail 测试半开探测失败后重新熔断
func TestCircuitBreaker_HalfOpenFail(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cb := newTestBreaker(clock, Config{
		Timeout:     time.Minute,
		ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 1 },
	})

	_ = cb.Execute(fail)
	clock.Advance(2 * time.Minute)

	_ = cb.Execute(fail)
	if cb.State() != StateOpen {
		t.Errorf("探测失败后期望OPEN，实际%s", cb.State())
	}
}

// TestCircuitBreaker_IntervalReset 测试统计窗口到期清零
func TestCircuitBreaker_IntervalReset(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cb := newTestBreaker(clock, Config{Interval: 10 * time.Second, Timeout: time.Minute})

	for i := 0; i < 4; i++ {
		_ = cb.Execute(fail)
	}
	clock.Advance(11 * time.Second)

	// 窗口清零后再失败4次仍不熔断
	for i := 0; i < 4; i++ {
		_ = cb.Execute(fail)
	}
	if cb.State() != StateClosed {
		t.Errorf("期望状态为CLOSED，实际%s", cb.State())
	}
	if got := cb.Counts().ConsecutiveFailures; got != 4 {
		t.Errorf("期望连续失败4次，实际%d", got)
	}
}

// TestCircuitBreaker_StateChangeCallback 测试状态变化回调
func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cb := newTestBreaker(clock, Config{
		Timeout:     time.Minute,
		ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 1 },
	})

	var transitions []string
	cb.SetStateChangeCallback(func(name string, from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	_ = cb.Execute(fail)
	clock.Advance(2 * time.Minute)
	_ = cb.Execute(succeed)

	want := []string{"CLOSED->OPEN", "OPEN->HALF_OPEN", "HALF_OPEN->CLOSED"}
	if len(transitions) != len(want) {
		t.Fatalf("期望状态变化%v，实际%v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("第%d次状态变化期望%s，实际%s", i, want[i], transitions[i])
		}
	}
}

// TestCircuitBreaker_ExecuteContext 测试ctx取消与自定义成功判定
func TestCircuitBreaker_ExecuteContext(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cb := newTestBreaker(clock, Config{
		Timeout: time.Minute,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.DeadlineExceeded)
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := cb.ExecuteContext(ctx, func(context.Context) error {
		t.Fatal("ctx已取消时不应该调用实际函数")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("期望context.Canceled，实际%v", err)
	}
	if cb.Counts().Requests != 0 {
		t.Error("ctx取消不应计入统计")
	}

	for i := 0; i < 10; i++ {
		_ = cb.ExecuteContext(context.Background(), func(context.Context) error {
			return context.DeadlineExceeded
		})
	}
	if cb.State() != StateClosed {
		t.Errorf("超时被判定为成功时不应熔断，实际%s", cb.State())
	}
}

// TestCounts_FailureRate 测试失败率
func TestCounts_FailureRate(t *testing.T) {
	if rate := (Counts{}).FailureRate(); rate != 0 {
		t.Errorf("无请求时失败率应为0，实际%f", rate)
	}
	c := Counts{Requests: 4, TotalFailures: 1}
	if rate := c.FailureRate(); rate != 0.25 {
		t.Errorf("期望失败率0.25，实际%f", rate)
	}
}

// TestCircuitBreaker_Concurrent 测试并发调用计数准确
func TestCircuitBreaker_Concurrent(t *testing.T) {
	cb := NewCircuitBreaker("order-events", Config{
		Timeout:     time.Minute,
		ReadyToTrip: func(Counts) bool { return false },
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = cb.Execute(succeed)
			} else {
				_ = cb.Execute(fail)
			}
		}(i)
	}
	wg.Wait()

	counts := cb.Counts()
	if counts.Requests != 50 || counts.TotalSuccesses != 25 || counts.TotalFailures != 25 {
		t.Errorf("计数错误: %+v", counts)
	}
}
