package msgqueue

import (
	"testing"
	"time"
)

func TestFIFOOrderWithinPriority(t *testing.T) {
	q := New(0, 0)
	for i := 0; i < 3; i++ {
		if err := q.Put(&DemuxerPacketMsg{Data: []byte{byte(i)}}, 0); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}
	for i := 0; i < 3; i++ {
		m, err := q.Get(time.Second, false)
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		dp := m.(*DemuxerPacketMsg)
		if dp.Data[0] != byte(i) {
			t.Fatalf("out of order: got %d want %d", dp.Data[0], i)
		}
	}
}

func TestControlOnlySkipsDataButPreservesIt(t *testing.T) {
	q := New(0, 0)
	mustPut(t, q, &DemuxerPacketMsg{Data: []byte{1}})
	mustPut(t, q, &DemuxerPacketMsg{Data: []byte{2}})
	mustPut(t, q, &FlushMsg{})

	m, err := q.Get(time.Second, true)
	if err != nil {
		t.Fatalf("control-only get: %v", err)
	}
	if _, ok := m.(*FlushMsg); !ok {
		t.Fatalf("expected FlushMsg, got %T", m)
	}
	if q.Len() != 2 {
		t.Fatalf("expected 2 skipped data messages preserved, got %d", q.Len())
	}

	first, err := q.Get(time.Second, false)
	if err != nil {
		t.Fatal(err)
	}
	if first.(*DemuxerPacketMsg).Data[0] != 1 {
		t.Fatalf("data order disturbed after control-only skip")
	}
}

func TestGetTimeoutWhenEmpty(t *testing.T) {
	q := New(0, 0)
	_, err := q.Get(10*time.Millisecond, false)
	if err != ErrTimeout {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestGetZeroTimeoutDoesNotBlock(t *testing.T) {
	q := New(0, 0)
	start := time.Now()
	_, err := q.Get(0, false)
	if err != ErrTimeout {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Fatalf("zero timeout blocked")
	}
}

func TestPutBlocksAtByteCapacityAndUnblocksOnDrain(t *testing.T) {
	q := New(4, 0)
	mustPut(t, q, &DemuxerPacketMsg{Data: []byte{1, 2, 3, 4}})

	done := make(chan struct{})
	go func() {
		mustPut(t, q, &DemuxerPacketMsg{Data: []byte{5}})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Put should have blocked at capacity")
	case <-time.After(50 * time.Millisecond):
	}

	if _, err := q.Get(time.Second, false); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Put never unblocked after drain")
	}
}

func TestAbortWakesBlockedCalls(t *testing.T) {
	q := New(1, 0)
	mustPut(t, q, &DemuxerPacketMsg{Data: []byte{1}})

	errCh := make(chan error, 1)
	go func() {
		errCh <- q.Put(&DemuxerPacketMsg{Data: []byte{2}}, 0)
	}()

	time.Sleep(20 * time.Millisecond)
	q.Abort()

	select {
	case err := <-errCh:
		if err != ErrAborted {
			t.Fatalf("expected ErrAborted, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Abort did not wake blocked Put")
	}

	if _, err := q.Get(0, false); err != ErrAborted {
		t.Fatalf("expected ErrAborted from Get after Abort, got %v", err)
	}
}

func TestResetClearsAndLiftsAbort(t *testing.T) {
	q := New(0, 0)
	mustPut(t, q, &DemuxerPacketMsg{Data: []byte{1}})
	q.Abort()
	q.Reset()
	if q.Len() != 0 {
		t.Fatalf("expected empty queue after reset, got %d", q.Len())
	}
	if err := q.Put(&DemuxerPacketMsg{Data: []byte{9}}, 0); err != nil {
		t.Fatalf("put after reset: %v", err)
	}
}

func mustPut(t *testing.T, q *Queue, m Message) {
	t.Helper()
	if err := q.Put(m, 0); err != nil {
		t.Fatalf("put %T: %v", m, err)
	}
}
