package handle

import (
	"testing"

	fidl "github.com/vsrinivas/fuchsia-sub355"
)

func TestTableCreateGetClose(t *testing.T) {
	tbl := NewTable()

	h, err := tbl.Create(fidl.ObjectTypeChannel, fidl.RightRead|fidl.RightWrite, "payload")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !h.IsValid() {
		t.Fatal("Create issued the invalid handle")
	}

	v, ok := tbl.Get(h)
	if !ok || v != "payload" {
		t.Errorf("Get: got (%v, %v), want (payload, true)", v, ok)
	}

	info, ok := tbl.Info(h)
	if !ok || info.Type != fidl.ObjectTypeChannel || info.Rights != fidl.RightRead|fidl.RightWrite {
		t.Errorf("Info: got (%+v, %v)", info, ok)
	}

	if err := tbl.CloseHandle(h); err != nil {
		t.Fatalf("CloseHandle: %v", err)
	}
	if _, ok := tbl.Get(h); ok {
		t.Error("Get succeeded on a closed handle")
	}
	if tbl.Count() != 0 {
		t.Errorf("Count: got %d, want 0", tbl.Count())
	}
}

func TestTableCloseOnce(t *testing.T) {
	tbl := NewTable()
	h, _ := tbl.Create(fidl.ObjectTypeEvent, fidl.RightSignal, nil)

	if err := tbl.CloseHandle(h); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := tbl.CloseHandle(h); err != ErrBadHandle {
		t.Errorf("second close: got %v, want ErrBadHandle", err)
	}
	if err := tbl.CloseHandle(fidl.HandleInvalid); err != ErrBadHandle {
		t.Errorf("close invalid: got %v, want ErrBadHandle", err)
	}
	if err := tbl.CloseHandle(fidl.Handle(999)); err != ErrBadHandle {
		t.Errorf("close unknown: got %v, want ErrBadHandle", err)
	}
}

func TestTableSlotReuse(t *testing.T) {
	tbl := NewTable()

	h1, _ := tbl.Create(fidl.ObjectTypeVmo, fidl.RightRead, 1)
	h2, _ := tbl.Create(fidl.ObjectTypeVmo, fidl.RightRead, 2)
	tbl.CloseHandle(h1)

	h3, _ := tbl.Create(fidl.ObjectTypeSocket, fidl.RightWrite, 3)
	if h3 != h1 {
		t.Errorf("freed slot not reused: got %d, want %d", h3, h1)
	}
	if v, _ := tbl.Get(h3); v != 3 {
		t.Errorf("reused slot payload: got %v, want 3", v)
	}
	if v, _ := tbl.Get(h2); v != 2 {
		t.Errorf("unrelated handle disturbed: got %v, want 2", v)
	}
}

func TestTableDuplicate(t *testing.T) {
	tbl := NewTable()

	t.Run("narrows rights", func(t *testing.T) {
		h, _ := tbl.Create(fidl.ObjectTypeVmo, fidl.RightDuplicate|fidl.RightRead|fidl.RightWrite, "v")
		dup, err := tbl.Duplicate(h, fidl.RightRead)
		if err != nil {
			t.Fatalf("Duplicate: %v", err)
		}
		info, _ := tbl.Info(dup)
		if info.Rights != fidl.RightRead {
			t.Errorf("dup rights: got 0x%08x, want RightRead", uint32(info.Rights))
		}
		// Original survives the duplicate's close.
		tbl.CloseHandle(dup)
		if _, ok := tbl.Get(h); !ok {
			t.Error("original died with its duplicate")
		}
	})

	t.Run("same rights", func(t *testing.T) {
		h, _ := tbl.Create(fidl.ObjectTypeVmo, fidl.RightDuplicate|fidl.RightRead, "v")
		dup, err := tbl.Duplicate(h, fidl.RightSameRights)
		if err != nil {
			t.Fatalf("Duplicate: %v", err)
		}
		info, _ := tbl.Info(dup)
		if info.Rights != fidl.RightDuplicate|fidl.RightRead {
			t.Errorf("dup rights: got 0x%08x, want source mask", uint32(info.Rights))
		}
	})

	t.Run("without duplicate right", func(t *testing.T) {
		h, _ := tbl.Create(fidl.ObjectTypeVmo, fidl.RightRead, "v")
		if _, err := tbl.Duplicate(h, fidl.RightSameRights); err != ErrAccessDenied {
			t.Errorf("got %v, want ErrAccessDenied", err)
		}
	})

	t.Run("cannot widen rights", func(t *testing.T) {
		h, _ := tbl.Create(fidl.ObjectTypeVmo, fidl.RightDuplicate|fidl.RightRead, "v")
		if _, err := tbl.Duplicate(h, fidl.RightRead|fidl.RightWrite); err != ErrAccessDenied {
			t.Errorf("got %v, want ErrAccessDenied", err)
		}
	})
}

func TestTableClose(t *testing.T) {
	tbl := NewTable()
	h, _ := tbl.Create(fidl.ObjectTypePort, fidl.RightWait, nil)

	if err := tbl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := tbl.Close(); err != ErrClosed {
		t.Errorf("second Close: got %v, want ErrClosed", err)
	}
	if _, err := tbl.Create(fidl.ObjectTypeEvent, fidl.RightNone, nil); err != ErrClosed {
		t.Errorf("Create after Close: got %v, want ErrClosed", err)
	}
	if _, ok := tbl.Get(h); ok {
		t.Error("Get succeeded after Close")
	}
}

func TestTableConcurrentCreateClose(t *testing.T) {
	tbl := NewTable()
	done := make(chan struct{})

	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				h, err := tbl.Create(fidl.ObjectTypeEvent, fidl.RightSignal, j)
				if err != nil {
					t.Errorf("Create: %v", err)
					return
				}
				if err := tbl.CloseHandle(h); err != nil {
					t.Errorf("CloseHandle: %v", err)
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	if tbl.Count() != 0 {
		t.Errorf("Count after churn: got %d, want 0", tbl.Count())
	}
}
