package archive

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func openTest(t *testing.T, maxSize int64) *Archive {
	t.Helper()
	a, err := Open(Options{InMemory: true, MaxSize: maxSize})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { a.Close() })

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return a
}

func TestSaveAndGet(t *testing.T) {
	a := openTest(t, 0)

	saved, err := a.Save(Item{
		ImageData:   []byte{0xff, 0xd8, 0xff},
		MIMEType:    "image/jpeg",
		Description: "이 그림은 모나리자입니다. 레오나르도 다빈치가 그렸습니다.",
	})
	if err != nil {
		t.Fatal(err)
	}
	if saved.ID != saved.CreatedAt.UnixMilli() {
		t.Errorf("ID = %d, want the save time in milliseconds", saved.ID)
	}

	got, err := a.Get(saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != saved.Description || !bytes.Equal(got.ImageData, saved.ImageData) || got.MIMEType != "image/jpeg" {
		t.Errorf("Get() = %+v", got)
	}

	if _, err := a.Get(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(unknown) = %v, want ErrNotFound", err)
	}
}

func TestSaveRejectsEmptyDescription(t *testing.T) {
	a := openTest(t, 0)
	if _, err := a.Save(Item{ImageData: []byte{1}, Description: "  "}); !errors.Is(err, ErrEmptyDescription) {
		t.Errorf("Save() = %v, want ErrEmptyDescription", err)
	}
}

func TestSaveSameMillisecond(t *testing.T) {
	a := openTest(t, 0)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	first, _ := a.Save(Item{Description: "A."})
	second, err := a.Save(Item{Description: "B."})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID+1 {
		t.Errorf("second ID = %d, want %d", second.ID, first.ID+1)
	}
}

func TestListNewestFirst(t *testing.T) {
	a := openTest(t, 0)
	for _, d := range []string{"first.", "second.", "third."} {
		if _, err := a.Save(Item{Description: d}); err != nil {
			t.Fatal(err)
		}
	}

	items, err := a.List()
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, it := range items {
		got = append(got, it.Description)
	}
	want := []string{"third.", "second.", "first."}
	if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestQuotaExceeded(t *testing.T) {
	a := openTest(t, 500)

	// incompressible payloads so stored sizes are predictable
	noise := func(seed byte) []byte {
		b := make([]byte, 200)
		x := uint32(seed) + 1
		for i := range b {
			x = x*1664525 + 1013904223
			b[i] = byte(x >> 24)
		}
		return b
	}

	first, err := a.Save(Item{ImageData: noise(1), Description: "first."})
	if err != nil {
		t.Fatal(err)
	}
	before, _ := a.Size()

	for i := byte(2); ; i++ {
		_, err := a.Save(Item{ImageData: noise(i), Description: "more."})
		if errors.Is(err, ErrQuotaExceeded) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if i > 10 {
			t.Fatal("quota never reached")
		}
		before, _ = a.Size()
	}

	after, _ := a.Size()
	if after != before {
		t.Errorf("Size() changed from %d to %d on a rejected save", before, after)
	}
	if after > a.MaxSize() {
		t.Errorf("Size() = %d exceeds quota %d", after, a.MaxSize())
	}
	if _, err := a.Get(first.ID); err != nil {
		t.Errorf("earlier items must survive a rejected save: %v", err)
	}
}

func TestDelete(t *testing.T) {
	a := openTest(t, 0)
	one, _ := a.Save(Item{Description: "one."})
	two, _ := a.Save(Item{Description: "two."})
	three, _ := a.Save(Item{Description: "three."})

	n, err := a.Delete(one.ID, three.ID, 12345)
	if err != nil || n != 2 {
		t.Fatalf("Delete() = %d, %v", n, err)
	}

	items, _ := a.List()
	if len(items) != 1 || items[0].ID != two.ID {
		t.Errorf("List() after Delete = %+v", items)
	}

	if _, err := a.Delete(two.ID); err != nil {
		t.Fatal(err)
	}
	if size, _ := a.Size(); size != 0 {
		t.Errorf("Size() of empty archive = %d", size)
	}
}

func TestSearch(t *testing.T) {
	a := openTest(t, 0)
	_, _ = a.Save(Item{Description: "The Starry Night was painted in 1889."})
	_, _ = a.Save(Item{Description: "Bibimbap is a Korean rice dish."})
	_, _ = a.Save(Item{Description: "The Eiffel Tower opened in 1889."})

	matches, err := a.Search("bibim")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Item.Description != "Bibimbap is a Korean rice dish." {
		t.Errorf("Search() = %+v", matches)
	}

	matches, _ = a.Search("1889")
	if len(matches) != 2 {
		t.Errorf("Search(1889) found %d items, want 2", len(matches))
	}

	if matches, _ := a.Search("zzzz"); len(matches) != 0 {
		t.Errorf("Search(zzzz) = %+v", matches)
	}
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(Options{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	saved, _ := a.Save(Item{Description: "kept."})
	a.Close()

	b, err := Open(Options{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if got, err := b.Get(saved.ID); err != nil || got.Description != "kept." {
		t.Errorf("Get() after reopen = %+v, %v", got, err)
	}
}
