package notify

import "testing"

func TestHub(t *testing.T) {
	var h Hub[int]
	var a, b []int

	unsubA := h.Subscribe(func(v int) { a = append(a, v) })
	h.Subscribe(func(v int) { b = append(b, v) })

	h.Publish(1)
	unsubA()
	unsubA()
	h.Publish(2)

	if len(a) != 1 || a[0] != 1 {
		t.Errorf("a = %v, want [1]", a)
	}
	if len(b) != 2 || b[1] != 2 {
		t.Errorf("b = %v, want [1 2]", b)
	}
	if h.Len() != 1 {
		t.Errorf("len = %d, want 1", h.Len())
	}
}
