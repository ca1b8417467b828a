package models

import "testing"

func TestUserIDListScan(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  []uint
	}{
		{"nil", nil, nil},
		{"empty bytes", []byte(""), nil},
		{"empty array", []byte("[]"), nil},
		{"ids", []byte("[3,7]"), []uint{3, 7}},
		{"string column", "[5]", []uint{5}},
		{"malformed json", []byte("{broken"), nil},
		{"wrong type", 42, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l UserIDList
			if err := l.Scan(tt.value); err != nil {
				t.Fatalf("Scan(%v): %v", tt.value, err)
			}
			if len(l) != len(tt.want) {
				t.Fatalf("got %v, want %v", l, tt.want)
			}
			for i := range tt.want {
				if l[i] != tt.want[i] {
					t.Errorf("got %v, want %v", l, tt.want)
				}
			}
		})
	}
}

func TestUserIDListValue(t *testing.T) {
	var empty UserIDList
	v, err := empty.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != "[]" {
		t.Errorf("empty Value = %v, want []", v)
	}
	v, err = UserIDList{1, 2}.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != "[1,2]" {
		t.Errorf("Value = %v, want [1,2]", v)
	}
}

func TestUserIDListAdd(t *testing.T) {
	var l UserIDList
	l = l.Add(3)
	l = l.Add(3)
	l = l.Add(7)
	if len(l) != 2 || l[0] != 3 || l[1] != 7 {
		t.Errorf("got %v, want [3 7]", l)
	}
	if !l.Contains(3) || l.Contains(4) {
		t.Errorf("Contains wrong for %v", l)
	}
}

func TestMessageVisibleTo(t *testing.T) {
	m := &Message{SenderID: 1, ReceiverID: 2}
	if !m.VisibleTo(1) || !m.VisibleTo(2) {
		t.Error("fresh message should be visible to both")
	}

	m.DeletedFor = m.DeletedFor.Add(2)
	if m.VisibleTo(2) {
		t.Error("message deleted for viewer 2 should be hidden from 2")
	}
	if !m.VisibleTo(1) {
		t.Error("local delete for 2 must not affect 1")
	}

	m.IsDeletedForAll = true
	if m.VisibleTo(1) || m.VisibleTo(2) {
		t.Error("recalled message should be hidden from everyone")
	}
}

func TestGroupMessageVisibleTo(t *testing.T) {
	m := &GroupMessage{GroupID: 5, SenderID: 1}
	m.DeletedFor = m.DeletedFor.Add(4)
	if m.VisibleTo(4) {
		t.Error("hidden for 4")
	}
	if !m.VisibleTo(9) {
		t.Error("visible for others")
	}
}
